package ap33772s

// RDO is the 16-bit request data object written to PD_REQMSG:
//
//	bits 7:0   VOLTAGE_SEL (pps: 100 mV, avs: 200 mV; 0 for fixed)
//	bits 11:8  CURRENT_SEL
//	bits 15:12 PDO_INDEX (1-based)
type RDO uint16

func NewRDO(slot, currentSel, voltageSel uint8) RDO {
	return RDO(uint16(slot&0x0F)<<12 | uint16(currentSel&0x0F)<<8 | uint16(voltageSel))
}

// ParseRDO decodes the little-endian on-wire form.
func ParseRDO(b [2]byte) RDO { return RDO(uint16(b[0]) | uint16(b[1])<<8) }

func (r RDO) Slot() uint8       { return uint8(r>>12) & 0x0F }
func (r RDO) CurrentSel() uint8 { return uint8(r>>8) & 0x0F }
func (r RDO) VoltageSel() uint8 { return uint8(r) }

// Bytes returns the on-wire form (low byte first).
func (r RDO) Bytes() [2]byte { return [2]byte{byte(r), byte(r >> 8)} }
