//go:build tinygo

// Firmware entry for a board with an AP33772S on I2C0: negotiate the target
// voltage, switch the output on and print VBUS telemetry once a second.
package main

import (
	"machine"
	"time"

	"pdsink-go/drivers/ap33772s"
)

const (
	target_mV = 9000
	limit_mA  = 2000
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz}); err != nil {
		println("i2c configure:", err.Error())
	}

	dev := ap33772s.New(i2c, ap33772s.DefaultConfig())
	for {
		if err := dev.Configure(); err == nil {
			break
		} else {
			println("pd configure:", err.Error())
		}
		time.Sleep(time.Second)
	}

	printProfiles(dev.Profiles())
	negotiate(dev)
	if err := dev.SetOutput(ap33772s.OutputOn); err != nil {
		println("output on:", err.Error())
	}

	tick := time.NewTicker(1 * time.Second)
	defer tick.Stop()
	var s ap33772s.Snapshot
	for t := range tick.C {
		if err := dev.SnapshotInto(&s); err != nil {
			println("telemetry:", err.Error())
		}
		println(t.Format("15:04:05"), "vbus_mV", s.VBus_mV, "ibus_mA", s.IBus_mA, "temp_C", s.Temp_C)
		if st, err := dev.ReadStatus(); err == nil && st.Has(ap33772s.StatusNewPDO) {
			if dev.RefreshProfiles() == nil {
				printProfiles(dev.Profiles())
				negotiate(dev)
			}
		}
	}
}

// negotiate prefers PPS at the target voltage, then a fixed profile that
// matches it exactly, then leaves the 5 V default alone.
func negotiate(dev *ap33772s.Device) {
	t := dev.Profiles()
	if slot, ok := t.PreferredPPS(); ok {
		if _, err := dev.RequestPPS(slot, target_mV, limit_mA); err == nil {
			println("pps slot", slot, "mV", target_mV)
			return
		} else {
			println("pps slot", slot, "rejected:", err.Error())
		}
	}
	for _, p := range t.All() {
		if p.Kind != ap33772s.KindFixed || p.VoltageMax_mV() != target_mV {
			continue
		}
		if _, err := dev.RequestFixed(p.Slot, limit_mA); err == nil {
			println("fixed slot", p.Slot, "mV", target_mV)
			return
		}
	}
	println("staying at 5V")
}

func printProfiles(t *ap33772s.ProfileTable) {
	for _, p := range t.All() {
		if p.Kind == ap33772s.KindUnset {
			continue
		}
		lo, _ := p.VoltageMin_mV()
		println("slot", p.Slot, p.Kind.String(), "min_mV", lo, "max_mV", p.VoltageMax_mV(), "max_mA", p.CurrentMax_mA())
	}
}
