package types

// ------------------------
// Capability state (retained)
// ------------------------

// Link is the link/state reported for a capability.
type Link string

const (
	LinkUp       Link = "up"
	LinkDown     Link = "down"
	LinkDegraded Link = "degraded"
)

// Retained: hal/cap/power/pd_sink/<name>/status
type CapabilityStatus struct {
	Link  Link   `json:"link" yaml:"link"`
	TS    int64  `json:"ts_ns" yaml:"ts_ns"`                     // Unix ns
	Error string `json:"error,omitempty" yaml:"error,omitempty"` // errcode.Code
}

// ------------------------
// Info envelope (retained)
// ------------------------

type Info struct {
	SchemaVersion int    `json:"schema_version" yaml:"schema_version"`
	Driver        string `json:"driver" yaml:"driver"`
	Detail        any    `json:"detail,omitempty" yaml:"detail,omitempty"`
}
