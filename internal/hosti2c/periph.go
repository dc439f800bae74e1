package hosti2c

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

type periphBus struct {
	bus i2c.BusCloser
}

func openPeriph(name string) (BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("hosti2c: periph init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("hosti2c: open %q: %w", name, err)
	}
	return periphBus{bus: b}, nil
}

func (p periphBus) Tx(addr uint16, w, r []byte) error { return p.bus.Tx(addr, w, r) }
func (p periphBus) Close() error                     { return p.bus.Close() }
