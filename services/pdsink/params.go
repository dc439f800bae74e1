package pdsink

import (
	"log/slog"
	"time"

	"pdsink-go/drivers/ap33772s"
	"pdsink-go/errcode"
	"pdsink-go/types"
	"pdsink-go/x/mathx"
)

// Sampling bounds for Params.SampleEvery.
const (
	MinSampleEvery = 100 * time.Millisecond
	MaxSampleEvery = time.Hour
)

// Params defines wiring and behaviour for one AP33772S instance.
type Params struct {
	Name string // capability name; default "pd0"
	Bus  string // bus label reported in info, e.g. "i2c-1"
	Addr uint16 // optional; default ap33772s.AddressDefault

	// SampleEvery drives periodic telemetry. Zero disables it; other values
	// are clamped to [MinSampleEvery, MaxSampleEvery].
	SampleEvery time.Duration
	SettleDelay time.Duration // 0 => driver default

	// Optional initial configuration, applied once profiles are read.
	NTC        *ap33772s.NTCTable
	Protection *types.SetProtection

	QueueLen int // control queue depth; default 8
	Logger   *slog.Logger
}

func (p Params) withDefaults() (Params, error) {
	if p.Name == "" {
		p.Name = "pd0"
	}
	if p.Addr == 0 {
		p.Addr = ap33772s.AddressDefault
	}
	if p.Addr > 0x7F || p.SettleDelay < 0 || p.SampleEvery < 0 {
		return p, errcode.InvalidParams
	}
	if p.SampleEvery > 0 {
		p.SampleEvery = mathx.Clamp(p.SampleEvery, MinSampleEvery, MaxSampleEvery)
	}
	if p.QueueLen <= 0 {
		p.QueueLen = 8
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return p, nil
}

func (p Params) driverConfig() ap33772s.Config {
	return ap33772s.Config{Address: p.Addr, SettleDelay: p.SettleDelay}
}

// protectionUpdate converts the bus payload into the driver's update form.
func protectionUpdate(v types.SetProtection) ap33772s.ProtectionUpdate {
	return ap33772s.ProtectionUpdate{
		VSelMin_mV:   v.VSelMin_mV,
		UVPPercent:   v.UVPPercent,
		OVPOffset_mV: v.OVPOffset_mV,
		OCP_mA:       v.OCP_mA,
		OTP_C:        v.OTP_C,
		Derating_C:   v.Derating_C,
	}
}
