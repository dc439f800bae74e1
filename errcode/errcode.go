package errcode

import (
	"errors"

	"pdsink-go/drivers/ap33772s"
)

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	Busy           Code = "busy"
	Unsupported    Code = "unsupported"
	InvalidParams  Code = "invalid_params"
	InvalidPayload Code = "invalid_payload"
	InvalidTopic   Code = "invalid_topic"
	NotReady       Code = "not_ready"
	Timeout        Code = "timeout"

	// Request validation, one per driver sentinel.
	InvalidInput         Code = "invalid_input"
	SlotOutOfRange       Code = "slot_out_of_range"
	InvalidKind          Code = "invalid_kind"
	CurrentOutOfRange    Code = "current_out_of_range"
	VoltageOutOfRange    Code = "voltage_out_of_range"
	VoltageFloorReserved Code = "voltage_floor_reserved"
	InvalidCode          Code = "invalid_code"
	NotConfigured        Code = "not_configured"

	BusError Code = "bus_error"
	Error    Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return MapDriverErr(err)
}

var driverCodes = []struct {
	err  error
	code Code
}{
	{ap33772s.ErrInvalidInput, InvalidInput},
	{ap33772s.ErrSlotOutOfRange, SlotOutOfRange},
	{ap33772s.ErrInvalidKind, InvalidKind},
	{ap33772s.ErrCurrentOutOfRange, CurrentOutOfRange},
	{ap33772s.ErrVoltageOutOfRange, VoltageOutOfRange},
	{ap33772s.ErrVoltageFloorReserved, VoltageFloorReserved},
	{ap33772s.ErrInvalidCode, InvalidCode},
	{ap33772s.ErrNotConfigured, NotConfigured},
}

// MapDriverErr maps driver errors to a Code. Anything the driver did not
// classify came off the bus.
func MapDriverErr(err error) Code {
	if err == nil {
		return OK
	}
	for _, m := range driverCodes {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return BusError
}
