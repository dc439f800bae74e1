// Package ap33772s provides a TinyGo/host driver for the Diodes AP33772S
// USB PD 3.1 sink controller.
//
// Design notes (datasheet references):
// • I2C, 7-bit address 0x52, command-register protocol, multi-byte values
//   little-endian.
// • Source capabilities are read as one 26-byte block (13 × 16-bit PDOs,
//   slots 1..7 SPR, 8..13 EPR).
// • A profile is selected by writing one 16-bit RDO to PD_REQMSG.
// • Integer-only telemetry and threshold scaling.
//
// The driver holds no lock. Callers must not use one Device from several
// goroutines at once.
package ap33772s

import (
	"time"

	"tinygo.org/x/drivers"
)

// NTCTable holds thermistor resistance (ohms) at 25/50/75/100 °C.
type NTCTable struct {
	R25, R50, R75, R100 uint16
}

// DefaultNTC is the 10 kΩ thermistor table the part ships with.
var DefaultNTC = NTCTable{R25: 10000, R50: 4161, R75: 1928, R100: 974}

// Config controls non-hardware behaviour. Zero fields take defaults.
type Config struct {
	Address uint16
	// SettleDelay is waited before the first profile read. Default 100 ms.
	SettleDelay time.Duration
	// NTCWriteDelay separates the four NTC register writes. Default 5 ms.
	NTCWriteDelay time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Address:       AddressDefault,
		SettleDelay:   100 * time.Millisecond,
		NTCWriteDelay: 5 * time.Millisecond,
	}
}

// Validate checks a filled-in Config.
func (c Config) Validate() error {
	if c.Address == 0 || c.Address > 0x7F {
		return ErrInvalidInput
	}
	if c.SettleDelay < 0 || c.NTCWriteDelay < 0 {
		return ErrInvalidInput
	}
	return nil
}

// Device represents an AP33772S on an I²C bus.
type Device struct {
	i2c  drivers.I2C
	addr uint16
	cfg  Config

	profiles   ProfileTable
	configured bool

	lastAVS    RDO
	hasLastAVS bool

	// sleep is swapped out by tests.
	sleep func(time.Duration)
}

// New constructs a Device. It does not touch the bus.
func New(i2c drivers.I2C, cfg Config) *Device {
	def := DefaultConfig()
	if cfg.Address == 0 {
		cfg.Address = def.Address
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = def.SettleDelay
	}
	if cfg.NTCWriteDelay == 0 {
		cfg.NTCWriteDelay = def.NTCWriteDelay
	}
	return &Device{
		i2c:   i2c,
		addr:  cfg.Address,
		cfg:   cfg,
		sleep: time.Sleep,
	}
}

// Configure waits for the controller to settle, then reads and decodes the
// source profile table.
func (d *Device) Configure() error {
	if err := d.cfg.Validate(); err != nil {
		return err
	}
	d.sleep(d.cfg.SettleDelay)
	return d.RefreshProfiles()
}

// RefreshProfiles re-reads the full SRCPDO block. The table is replaced only
// when the read succeeds.
func (d *Device) RefreshProfiles() error {
	var buf [pdoBlockLen]byte
	if err := d.readBlock(regSrcPDO, buf[:]); err != nil {
		return err
	}
	d.profiles = DecodeProfiles(buf)
	d.configured = true
	return nil
}

// Address returns the 7-bit I²C address in use.
func (d *Device) Address() uint16 { return d.addr }

// Profiles returns the table decoded by the last successful profile read.
// It is empty before Configure.
func (d *Device) Profiles() *ProfileTable { return &d.profiles }

// Configured reports whether a profile read has succeeded at least once.
func (d *Device) Configured() bool { return d.configured }

func (d *Device) ensureConfigured() error {
	if !d.configured {
		return ErrNotConfigured
	}
	return nil
}
