package ap33772s

import (
	"pdsink-go/x/mathx"
)

// Protection collects the protection and selection thresholds.
type Protection struct {
	VSelMin_mV   int
	UVPPercent   int // 70, 75 or 80; 0 if the register did not decode
	OVPOffset_mV int
	OCP_mA       int
	OTP_C        int
	Derating_C   int
}

// UVP threshold codes (percentage of VREQ).
var uvpCodes = [...]struct {
	code uint8
	pct  int
}{
	{1, 80},
	{2, 75},
	{3, 70},
}

// ----- Scaled single-byte registers -----

func (d *Device) readScaled(reg byte, lsb int) (int, error) {
	v, err := d.readByte(reg)
	if err != nil {
		return 0, err
	}
	return int(v) * lsb, nil
}

// scaledFits reports whether v is non-negative and its code fits one byte.
func scaledFits(v, lsb int) bool {
	return v >= 0 && mathx.FitsU8(mathx.Quantize(v, lsb))
}

// writeScaled rejects values that do not fit the register; nothing is written
// in that case.
func (d *Device) writeScaled(reg byte, lsb, v int) error {
	if !scaledFits(v, lsb) {
		return ErrInvalidInput
	}
	return d.writeByte(reg, uint8(mathx.Quantize(v, lsb)))
}

// VSelMin_mV reads the minimum selection voltage.
func (d *Device) VSelMin_mV() (int, error) { return d.readScaled(regVSelMin, vselMinLSB_mV) }
func (d *Device) SetVSelMin_mV(mV int) error {
	return d.writeScaled(regVSelMin, vselMinLSB_mV, mV)
}

// OVPOffset_mV reads the over-voltage threshold as an offset above VREQ.
func (d *Device) OVPOffset_mV() (int, error) { return d.readScaled(regOVPThr, ovpLSB_mV) }
func (d *Device) SetOVPOffset_mV(mV int) error {
	return d.writeScaled(regOVPThr, ovpLSB_mV, mV)
}

func (d *Device) OCP_mA() (int, error)     { return d.readScaled(regOCPThr, ocpLSB_mA) }
func (d *Device) SetOCP_mA(mA int) error   { return d.writeScaled(regOCPThr, ocpLSB_mA, mA) }
func (d *Device) OTP_C() (int, error)      { return d.readScaled(regOTPThr, otpLSB_C) }
func (d *Device) SetOTP_C(c int) error     { return d.writeScaled(regOTPThr, otpLSB_C, c) }
func (d *Device) Derating_C() (int, error) { return d.readScaled(regDRThr, drLSB_C) }
func (d *Device) SetDerating_C(c int) error {
	return d.writeScaled(regDRThr, drLSB_C, c)
}

// ----- Enumerated UVP threshold -----

// UVPPercent reads the under-voltage threshold as a percentage of VREQ.
func (d *Device) UVPPercent() (int, error) {
	v, err := d.readByte(regUVPThr)
	if err != nil {
		return 0, err
	}
	for _, e := range uvpCodes {
		if e.code == v {
			return e.pct, nil
		}
	}
	return 0, ErrInvalidCode
}

// SetUVPPercent accepts 70, 75 or 80. Anything else returns ErrInvalidInput
// without writing.
func (d *Device) SetUVPPercent(pct int) error {
	for _, e := range uvpCodes {
		if e.pct == pct {
			return d.writeByte(regUVPThr, e.code)
		}
	}
	return ErrInvalidInput
}

// ----- NTC table -----

// SetNTC writes the four thermistor points, pausing between writes while the
// controller commits each one.
func (d *Device) SetNTC(t NTCTable) error {
	pts := [...]struct {
		reg byte
		v   uint16
	}{
		{regTR25, t.R25},
		{regTR50, t.R50},
		{regTR75, t.R75},
		{regTR100, t.R100},
	}
	for i, p := range pts {
		if i > 0 {
			d.sleep(d.cfg.NTCWriteDelay)
		}
		if err := d.writeWord(p.reg, p.v); err != nil {
			return err
		}
	}
	return nil
}

// ----- Bulk -----

// ReadProtection reads every threshold. It stops at the first bus error; an
// undecodable UVP code is reported as zero.
func (d *Device) ReadProtection() (Protection, error) {
	var p Protection
	var err error
	if p.VSelMin_mV, err = d.VSelMin_mV(); err != nil {
		return Protection{}, err
	}
	if p.UVPPercent, err = d.UVPPercent(); err != nil && err != ErrInvalidCode {
		return Protection{}, err
	}
	if p.OVPOffset_mV, err = d.OVPOffset_mV(); err != nil {
		return Protection{}, err
	}
	if p.OCP_mA, err = d.OCP_mA(); err != nil {
		return Protection{}, err
	}
	if p.OTP_C, err = d.OTP_C(); err != nil {
		return Protection{}, err
	}
	if p.Derating_C, err = d.Derating_C(); err != nil {
		return Protection{}, err
	}
	return p, nil
}

// ProtectionUpdate is a partial threshold update. Nil leaves a register as-is.
type ProtectionUpdate struct {
	VSelMin_mV   *int
	UVPPercent   *int
	OVPOffset_mV *int
	OCP_mA       *int
	OTP_C        *int
	Derating_C   *int
}

// ApplyProtection validates every field before writing any of them.
func (d *Device) ApplyProtection(u ProtectionUpdate) error {
	if u.UVPPercent != nil {
		ok := false
		for _, e := range uvpCodes {
			ok = ok || e.pct == *u.UVPPercent
		}
		if !ok {
			return ErrInvalidInput
		}
	}
	scaled := [...]struct {
		v   *int
		lsb int
		set func(int) error
	}{
		{u.VSelMin_mV, vselMinLSB_mV, d.SetVSelMin_mV},
		{u.OVPOffset_mV, ovpLSB_mV, d.SetOVPOffset_mV},
		{u.OCP_mA, ocpLSB_mA, d.SetOCP_mA},
		{u.OTP_C, otpLSB_C, d.SetOTP_C},
		{u.Derating_C, drLSB_C, d.SetDerating_C},
	}
	for _, s := range scaled {
		if s.v != nil && !scaledFits(*s.v, s.lsb) {
			return ErrInvalidInput
		}
	}
	if u.UVPPercent != nil {
		if err := d.SetUVPPercent(*u.UVPPercent); err != nil {
			return err
		}
	}
	for _, s := range scaled {
		if s.v == nil {
			continue
		}
		if err := s.set(*s.v); err != nil {
			return err
		}
	}
	return nil
}
