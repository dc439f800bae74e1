package ap33772s

// Profile selection. Each request is validated against the decoded profile
// table first; any failure returns before the bus is touched.

// BuildFixed validates a fixed-profile request and returns the RDO to send.
// The source supplies the profile's own voltage, so VOLTAGE_SEL is zero.
func (t *ProfileTable) BuildFixed(slot, maxCurrent_mA int) (RDO, error) {
	if maxCurrent_mA <= 0 {
		return 0, ErrInvalidInput
	}
	p, ok := t.Slot(slot)
	if !ok {
		return 0, ErrSlotOutOfRange
	}
	if p.Kind != KindFixed {
		return 0, ErrInvalidKind
	}
	cur, err := checkCurrent(p, maxCurrent_mA)
	if err != nil {
		return 0, err
	}
	return NewRDO(uint8(slot), cur, 0), nil
}

// BuildPPS validates a programmable (SPR) request. VOLTAGE_SEL is target/100,
// truncated.
func (t *ProfileTable) BuildPPS(slot, target_mV, maxCurrent_mA int) (RDO, error) {
	return t.buildProgrammable(KindPPS, slot, target_mV, maxCurrent_mA)
}

// BuildAVS validates an adaptive (EPR) request. VOLTAGE_SEL is target/200,
// truncated. The ceiling is the profile's own maximum; no absolute cap applies.
func (t *ProfileTable) BuildAVS(slot, target_mV, maxCurrent_mA int) (RDO, error) {
	return t.buildProgrammable(KindAVS, slot, target_mV, maxCurrent_mA)
}

func (t *ProfileTable) buildProgrammable(kind PDOKind, slot, target_mV, maxCurrent_mA int) (RDO, error) {
	p, ok := t.Slot(slot)
	if !ok {
		return 0, ErrSlotOutOfRange
	}
	if p.Kind != kind {
		return 0, ErrInvalidKind
	}
	cur, err := checkCurrent(p, maxCurrent_mA)
	if err != nil {
		return 0, err
	}
	if err := checkVoltage(p, target_mV); err != nil {
		return 0, err
	}
	return NewRDO(uint8(slot), cur, uint8(target_mV/p.VoltageLSB_mV())), nil
}

// RequestFixed asks the source for a fixed profile.
func (d *Device) RequestFixed(slot, maxCurrent_mA int) (RDO, error) {
	if err := d.ensureConfigured(); err != nil {
		return 0, err
	}
	rdo, err := d.profiles.BuildFixed(slot, maxCurrent_mA)
	if err != nil {
		return 0, err
	}
	return rdo, d.sendRDO(rdo)
}

// RequestPPS asks the source for a programmable voltage in slots 1..7.
func (d *Device) RequestPPS(slot, target_mV, maxCurrent_mA int) (RDO, error) {
	if err := d.ensureConfigured(); err != nil {
		return 0, err
	}
	rdo, err := d.profiles.BuildPPS(slot, target_mV, maxCurrent_mA)
	if err != nil {
		return 0, err
	}
	return rdo, d.sendRDO(rdo)
}

// RequestAVS asks the source for an adaptive voltage in slots 8..13. A
// successfully sent request is kept as LastAVSRequest.
func (d *Device) RequestAVS(slot, target_mV, maxCurrent_mA int) (RDO, error) {
	if err := d.ensureConfigured(); err != nil {
		return 0, err
	}
	rdo, err := d.profiles.BuildAVS(slot, target_mV, maxCurrent_mA)
	if err != nil {
		return 0, err
	}
	if err := d.sendRDO(rdo); err != nil {
		return 0, err
	}
	d.lastAVS, d.hasLastAVS = rdo, true
	return rdo, nil
}

// LastAVSRequest returns the most recent AVS request sent. Nothing re-sends it.
func (d *Device) LastAVSRequest() (RDO, bool) { return d.lastAVS, d.hasLastAVS }

func (d *Device) sendRDO(r RDO) error {
	return d.writeWord(regPDReqMsg, uint16(r))
}
