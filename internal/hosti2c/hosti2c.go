// Package hosti2c opens a Linux host I²C bus as a tinygo drivers.I2C so the
// same device drivers run on a workstation or SBC. Two backends exist:
// periph.io (any bus periph can enumerate) and the raw /dev/i2c-N character
// device.
package hosti2c

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"tinygo.org/x/drivers"
)

// Backend names accepted by Open.
const (
	Periph = "periph"
	I2CDev = "i2cdev"
)

var (
	ErrBackend     = errors.New("hosti2c: unknown backend")
	ErrClosed      = errors.New("hosti2c: bus closed")
	ErrUnsupported = errors.New("hosti2c: backend not supported on this platform")
)

// BusCloser is a transfer-capable bus that holds an OS resource.
type BusCloser interface {
	drivers.I2C
	io.Closer
}

// Shared serialises transfers on one bus so several drivers can use it.
type Shared struct {
	mu     sync.Mutex
	bus    BusCloser
	name   string
	closed bool
}

func NewShared(name string, b BusCloser) *Shared { return &Shared{bus: b, name: name} }

// Open opens bus name with the given backend. For periph, name is a periph
// bus name ("" picks the first bus); for i2cdev it is a device path.
func Open(backend, name string) (*Shared, error) {
	var (
		b   BusCloser
		err error
	)
	switch backend {
	case Periph:
		b, err = openPeriph(name)
	case I2CDev:
		b, err = openI2CDev(name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrBackend, backend)
	}
	if err != nil {
		return nil, err
	}
	return NewShared(name, b), nil
}

func (s *Shared) Name() string { return s.name }

func (s *Shared) Tx(addr uint16, w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.bus.Tx(addr, w, r)
}

// Close releases the bus. Later calls return nil.
func (s *Shared) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.bus.Close()
}
