package ap33772s

// ---------------- Telemetry (integer units) ----------------

// Voltage_mV reads VBUS.
func (d *Device) Voltage_mV() (int, error) {
	raw, err := d.readWord(regVoltage)
	if err != nil {
		return 0, err
	}
	return int(raw) * voltageLSB_mV, nil
}

// Current_mA reads VBUS current.
func (d *Device) Current_mA() (int, error) { return d.readScaled(regCurrent, currentLSB_mA) }

// Temperature_C reads the NTC temperature.
func (d *Device) Temperature_C() (int, error) { return d.readScaled(regTemp, tempLSB_C) }

// VReq_mV reads the voltage last negotiated with the source.
func (d *Device) VReq_mV() (int, error) { return d.readScaled(regVReq, vreqLSB_mV) }

// IReq_mA reads the current last negotiated with the source.
func (d *Device) IReq_mA() (int, error) { return d.readScaled(regIReq, ireqLSB_mA) }

// ---------------- Status / interrupts ----------------

// ReadStatus reads STATUS. The controller clears it on read.
func (d *Device) ReadStatus() (Status, error) {
	v, err := d.readByte(regStatus)
	return Status(v), err
}

func (d *Device) InterruptMask() (Status, error) {
	v, err := d.readByte(regMask)
	return Status(v), err
}

func (d *Device) SetInterruptMask(m Status) error { return d.writeByte(regMask, uint8(m)) }

// ---------------- Output switch ----------------

// OutputMode selects the VOUT NMOS switch state.
type OutputMode uint8

const (
	OutputOff OutputMode = 0
	OutputOn  OutputMode = 1
)

// SetOutput drives the output switch. Modes other than OutputOff/OutputOn
// return ErrInvalidInput and write nothing.
func (d *Device) SetOutput(m OutputMode) error {
	switch m {
	case OutputOff:
		return d.writeByte(regSystem, systemOutputOff)
	case OutputOn:
		return d.writeByte(regSystem, systemOutputOn)
	default:
		return ErrInvalidInput
	}
}

// ---------------- Snapshot ----------------

// Snapshot collects live telemetry. Zero values remain where individual
// reads fail.
type Snapshot struct {
	VBus_mV, IBus_mA int
	Temp_C           int
	VReq_mV, IReq_mA int
}

// Snapshot is SnapshotInto without the error: a failed read shows up only as
// a zero field. Use SnapshotInto when failures must be told apart from zero.
func (d *Device) Snapshot() Snapshot {
	var s Snapshot
	_ = d.SnapshotInto(&s)
	return s
}

// SnapshotInto fills out and returns the first read error, if any.
func (d *Device) SnapshotInto(out *Snapshot) error {
	var s Snapshot
	var first error
	keep := func(v int, err error, dst *int) {
		if err != nil {
			if first == nil {
				first = err
			}
			return
		}
		*dst = v
	}
	v, err := d.Voltage_mV()
	keep(v, err, &s.VBus_mV)
	v, err = d.Current_mA()
	keep(v, err, &s.IBus_mA)
	v, err = d.Temperature_C()
	keep(v, err, &s.Temp_C)
	v, err = d.VReq_mV()
	keep(v, err, &s.VReq_mV)
	v, err = d.IReq_mA()
	keep(v, err, &s.IReq_mA)
	*out = s
	return first
}
