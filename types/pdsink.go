package types

// ------------------------
// USB-C PD sink (ap33772s)
// ------------------------

// ProfileInfo describes one advertised source profile. Unset slots are not
// listed.
type ProfileInfo struct {
	Slot          int    `json:"slot" yaml:"slot"`
	Kind          string `json:"kind" yaml:"kind"` // "fixed" | "pps" | "avs"
	EPR           bool   `json:"epr" yaml:"epr"`
	VoltageMax_mV int    `json:"voltage_max_mV" yaml:"voltage_max_mV"`
	VoltageMin_mV int    `json:"voltage_min_mV,omitempty" yaml:"voltage_min_mV,omitempty"` // 0: fixed or reserved floor
	CurrentMax_mA int    `json:"current_max_mA" yaml:"current_max_mA"`
	Raw           uint16 `json:"raw" yaml:"raw"`
}

// Retained: hal/cap/power/pd_sink/<name>/info
type PDSinkInfo struct {
	Bus      string        `json:"bus" yaml:"bus"`
	Addr     uint16        `json:"addr" yaml:"addr"`
	Profiles []ProfileInfo `json:"profiles" yaml:"profiles"`
	PPSSlot  int           `json:"pps_slot,omitempty" yaml:"pps_slot,omitempty"` // first PPS, 0 if none
	AVSSlot  int           `json:"avs_slot,omitempty" yaml:"avs_slot,omitempty"` // first AVS, 0 if none
}

// Retained: hal/cap/power/pd_sink/<name>/value
type PDSinkValue struct {
	VBus_mV int   `json:"vbus_mV" yaml:"vbus_mV"`
	IBus_mA int   `json:"ibus_mA" yaml:"ibus_mA"`
	Temp_C  int   `json:"temp_C" yaml:"temp_C"`
	VReq_mV int   `json:"vreq_mV" yaml:"vreq_mV"`
	IReq_mA int   `json:"ireq_mA" yaml:"ireq_mA"`
	Status  uint8 `json:"status" yaml:"status"` // raw STATUS bits at sample time
	TS      int64 `json:"ts_ns" yaml:"ts_ns"`
}

// Retained: hal/cap/power/pd_sink/<name>/protection
type ProtectionValue struct {
	VSelMin_mV   int `json:"vselmin_mV" yaml:"vselmin_mV"`
	UVPPercent   int `json:"uvp_pct" yaml:"uvp_pct"`
	OVPOffset_mV int `json:"ovp_offset_mV" yaml:"ovp_offset_mV"`
	OCP_mA       int `json:"ocp_mA" yaml:"ocp_mA"`
	OTP_C        int `json:"otp_C" yaml:"otp_C"`
	Derating_C   int `json:"derating_C" yaml:"derating_C"`
}

// ---- Controls (hal/cap/power/pd_sink/<name>/control/<verb>) ----

type RequestFixed struct { // verb: "request_fixed"
	Slot int `json:"slot" yaml:"slot"`
	MA   int `json:"mA" yaml:"mA"`
}

type RequestPPS struct { // verb: "request_pps"
	Slot int `json:"slot" yaml:"slot"` // 0 => first PPS slot
	MV   int `json:"mV" yaml:"mV"`
	MA   int `json:"mA" yaml:"mA"`
}

type RequestAVS struct { // verb: "request_avs"
	Slot int `json:"slot" yaml:"slot"` // 0 => first AVS slot
	MV   int `json:"mV" yaml:"mV"`
	MA   int `json:"mA" yaml:"mA"`
}

type SetOutput struct{ On bool } // verb: "set_output"

// SetProtection is a partial update. Nil means "leave as-is".
type SetProtection struct { // verb: "set_protection"
	VSelMin_mV   *int `json:"vselmin_mV,omitempty" yaml:"vselmin_mV,omitempty"`
	UVPPercent   *int `json:"uvp_pct,omitempty" yaml:"uvp_pct,omitempty"`
	OVPOffset_mV *int `json:"ovp_offset_mV,omitempty" yaml:"ovp_offset_mV,omitempty"`
	OCP_mA       *int `json:"ocp_mA,omitempty" yaml:"ocp_mA,omitempty"`
	OTP_C        *int `json:"otp_C,omitempty" yaml:"otp_C,omitempty"`
	Derating_C   *int `json:"derating_C,omitempty" yaml:"derating_C,omitempty"`
}

type SetNTC struct { // verb: "set_ntc"
	R25  uint16 `json:"r25" yaml:"r25"`
	R50  uint16 `json:"r50" yaml:"r50"`
	R75  uint16 `json:"r75" yaml:"r75"`
	R100 uint16 `json:"r100" yaml:"r100"`
}

// RequestResult is published on event/<verb> after every control, and used
// as the reply when the control carried a reply topic.
type RequestResult struct {
	Verb  string `json:"verb" yaml:"verb"`
	OK    bool   `json:"ok" yaml:"ok"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"` // errcode.Code
	RDO   uint16 `json:"rdo,omitempty" yaml:"rdo,omitempty"`     // request verbs only
	Slot  int    `json:"slot,omitempty" yaml:"slot,omitempty"`
}

// StatusEvent is published on event/<tag> for each STATUS bit seen set.
type StatusEvent struct {
	Tag string `json:"tag" yaml:"tag"`
	TS  int64  `json:"ts_ns" yaml:"ts_ns"`
}
