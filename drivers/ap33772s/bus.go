package ap33772s

import "fmt"

// Register transfers. Every call owns its buffers; nothing is shared between
// transactions.

func (d *Device) readByte(reg byte) (uint8, error) {
	w := [1]byte{reg}
	var r [1]byte
	if err := d.i2c.Tx(d.addr, w[:], r[:]); err != nil {
		return 0, busErr("read", reg, err)
	}
	return r[0], nil
}

// readWord reads a 16-bit little-endian register.
func (d *Device) readWord(reg byte) (uint16, error) {
	w := [1]byte{reg}
	var r [2]byte
	if err := d.i2c.Tx(d.addr, w[:], r[:]); err != nil {
		return 0, busErr("read", reg, err)
	}
	return uint16(r[0]) | uint16(r[1])<<8, nil
}

func (d *Device) readBlock(reg byte, dst []byte) error {
	w := [1]byte{reg}
	if err := d.i2c.Tx(d.addr, w[:], dst); err != nil {
		return busErr("read", reg, err)
	}
	return nil
}

func (d *Device) writeByte(reg, val byte) error {
	w := [2]byte{reg, val}
	if err := d.i2c.Tx(d.addr, w[:], nil); err != nil {
		return busErr("write", reg, err)
	}
	return nil
}

func (d *Device) writeWord(reg byte, val uint16) error {
	w := [3]byte{reg, byte(val), byte(val >> 8)} // low, high
	if err := d.i2c.Tx(d.addr, w[:], nil); err != nil {
		return busErr("write", reg, err)
	}
	return nil
}

func busErr(op string, reg byte, err error) error {
	return fmt.Errorf("ap33772s: %s reg 0x%02X: %w", op, reg, err)
}
