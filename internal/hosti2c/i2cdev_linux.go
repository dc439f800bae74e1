//go:build linux

package hosti2c

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const ioctlI2CSlave = 0x0703

// devBus drives /dev/i2c-N directly. A write-then-read is issued as two
// separate transfers (STOP between), which register-pointer devices accept.
type devBus struct {
	f     *os.File
	fd    int
	bound int // address set with I2C_SLAVE, -1 if none
}

func openI2CDev(path string) (BusCloser, error) {
	if path == "" {
		path = "/dev/i2c-1"
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("hosti2c: %w", err)
	}
	return &devBus{f: f, fd: int(f.Fd()), bound: -1}, nil
}

func (d *devBus) Tx(addr uint16, w, r []byte) error {
	if d.bound != int(addr) {
		if err := unix.IoctlSetInt(d.fd, ioctlI2CSlave, int(addr)); err != nil {
			return fmt.Errorf("hosti2c: bind 0x%02X: %w", addr, err)
		}
		d.bound = int(addr)
	}
	if len(w) > 0 {
		n, err := unix.Write(d.fd, w)
		if err != nil {
			return fmt.Errorf("hosti2c: write 0x%02X: %w", addr, err)
		}
		if n != len(w) {
			return fmt.Errorf("hosti2c: write 0x%02X: short write %d/%d", addr, n, len(w))
		}
	}
	if len(r) > 0 {
		n, err := unix.Read(d.fd, r)
		if err != nil {
			return fmt.Errorf("hosti2c: read 0x%02X: %w", addr, err)
		}
		if n != len(r) {
			return fmt.Errorf("hosti2c: read 0x%02X: short read %d/%d", addr, n, len(r))
		}
	}
	return nil
}

func (d *devBus) Close() error { return d.f.Close() }
