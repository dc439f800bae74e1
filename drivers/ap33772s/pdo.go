package ap33772s

// PDOKind tags a decoded source profile.
type PDOKind uint8

const (
	KindUnset PDOKind = iota
	KindFixed
	KindPPS // programmable, SPR slots 1..7
	KindAVS // adaptive, EPR slots 8..13
)

func (k PDOKind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindPPS:
		return "pps"
	case KindAVS:
		return "avs"
	default:
		return "unset"
	}
}

// Voltage floors selected by a nonzero voltage_min field.
const (
	ppsFloor_mV = 3300
	avsFloor_mV = 15000

	sprVoltageLSB_mV = 100
	eprVoltageLSB_mV = 200
)

// PDO fields (16-bit, little-endian on the wire):
//
//	bits 7:0   VOLTAGE_MAX
//	bits 9:8   PEAK_CURRENT (fixed) / VOLTAGE_MIN (pps, avs)
//	bits 13:10 CURRENT_MAX
//	bit  14    TYPE
//	bit  15    DETECT
const (
	pdoTypeBit   = 1 << 14
	pdoDetectBit = 1 << 15
)

// PDO is one decoded source power data object.
type PDO struct {
	Slot int // 1-based
	Raw  uint16
	Kind PDOKind
}

func decodePDO(slot int, lo, hi byte) PDO {
	p := PDO{Slot: slot, Raw: uint16(lo) | uint16(hi)<<8}
	switch {
	case lo == 0 && hi == 0:
		p.Kind = KindUnset
	case p.Raw&pdoTypeBit == 0:
		p.Kind = KindFixed
	case slot <= NumSPRSlots:
		p.Kind = KindPPS
	default:
		p.Kind = KindAVS
	}
	return p
}

// Bytes returns the on-wire form.
func (p PDO) Bytes() [2]byte { return [2]byte{byte(p.Raw), byte(p.Raw >> 8)} }

// EPR reports whether the slot lies in the extended power range.
func (p PDO) EPR() bool { return p.Slot > NumSPRSlots }

// Detected returns the DETECT bit. Informational only.
func (p PDO) Detected() bool { return p.Raw&pdoDetectBit != 0 }

func (p PDO) VoltageMaxCode() uint8 { return uint8(p.Raw) }
func (p PDO) CurrentMaxCode() uint8 { return uint8(p.Raw>>10) & 0x0F }

// VoltageMinCode is meaningful for PPS and AVS only; zero otherwise.
func (p PDO) VoltageMinCode() uint8 {
	if p.Kind != KindPPS && p.Kind != KindAVS {
		return 0
	}
	return uint8(p.Raw>>8) & 0x03
}

// PeakCurrentCode is meaningful for fixed profiles only; zero otherwise.
func (p PDO) PeakCurrentCode() uint8 {
	if p.Kind != KindFixed {
		return 0
	}
	return uint8(p.Raw>>8) & 0x03
}

// VoltageLSB_mV is the voltage step for this slot's range.
func (p PDO) VoltageLSB_mV() int {
	if p.EPR() {
		return eprVoltageLSB_mV
	}
	return sprVoltageLSB_mV
}

// VoltageMax_mV is the fixed voltage (fixed) or ceiling (pps, avs).
func (p PDO) VoltageMax_mV() int { return int(p.VoltageMaxCode()) * p.VoltageLSB_mV() }

// VoltageMin_mV decodes the voltage floor. ok is false for fixed profiles and
// for the reserved voltage_min code 0.
func (p PDO) VoltageMin_mV() (mV int, ok bool) {
	if p.VoltageMinCode() == 0 {
		return 0, false
	}
	if p.Kind == KindAVS {
		return avsFloor_mV, true
	}
	return ppsFloor_mV, true
}

// CurrentMax_mA is the upper bound of the current_max band.
func (p PDO) CurrentMax_mA() int {
	_, hi := CurrentRange(p.CurrentMaxCode())
	return hi
}

// ProfileTable is the full decoded source capability block.
type ProfileTable struct {
	slots [NumSlots]PDO
	pps   int // first PPS slot, 0 if none
	avs   int // first AVS slot, 0 if none
}

// DecodeProfiles decodes one SRCPDO block. Any bit pattern decodes; all-zero
// slots become KindUnset.
func DecodeProfiles(buf [pdoBlockLen]byte) ProfileTable {
	var t ProfileTable
	for i := 0; i < NumSlots; i++ {
		t.slots[i] = decodePDO(i+1, buf[2*i], buf[2*i+1])
	}
	t.scanPreferred()
	return t
}

// scanPreferred keeps the first PPS and first AVS slot only. With several
// programmable profiles on offer this is not necessarily the best one.
func (t *ProfileTable) scanPreferred() {
	t.pps, t.avs = 0, 0
	for _, p := range t.slots {
		switch {
		case p.Kind == KindPPS && t.pps == 0:
			t.pps = p.Slot
		case p.Kind == KindAVS && t.avs == 0:
			t.avs = p.Slot
		}
	}
}

// Slot returns the profile at a 1-based index.
func (t *ProfileTable) Slot(slot int) (PDO, bool) {
	if slot < 1 || slot > NumSlots {
		return PDO{}, false
	}
	return t.slots[slot-1], true
}

// All returns a copy of every slot, including unset ones.
func (t *ProfileTable) All() [NumSlots]PDO { return t.slots }

// Count returns the number of populated slots.
func (t *ProfileTable) Count() int {
	n := 0
	for _, p := range t.slots {
		if p.Kind != KindUnset {
			n++
		}
	}
	return n
}

// PreferredPPS returns the first PPS slot found by the last decode.
func (t *ProfileTable) PreferredPPS() (int, bool) { return t.pps, t.pps != 0 }

// PreferredAVS returns the first AVS slot found by the last decode.
func (t *ProfileTable) PreferredAVS() (int, bool) { return t.avs, t.avs != 0 }
