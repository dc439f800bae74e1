// Command pdsink inspects and drives an AP33772S USB-C PD sink controller
// from a Linux host.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pdsink-go/drivers/ap33772s"
	"pdsink-go/internal/hosti2c"
	"pdsink-go/services/pdsink/config"
)

type app struct {
	cfgPath string
	backend string
	busName string
	addr    uint16

	cfg config.File
	log *slog.Logger
	out io.Writer

	open func(backend, name string) (hosti2c.BusCloser, error)
}

func newApp(out io.Writer) *app {
	return &app{
		out: out,
		open: func(backend, name string) (hosti2c.BusCloser, error) {
			b, err := hosti2c.Open(backend, name)
			if err != nil {
				return nil, err
			}
			return b, nil
		},
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pdsink",
		Short: "USB-C PD sink controller (AP33772S) tool",
		Long: `pdsink talks to an AP33772S over a host I2C bus. It lists the power
profiles the attached source advertises, requests fixed, PPS or AVS power,
reads live telemetry and manages the protection thresholds.

Examples:
  pdsink profiles
  pdsink request pps 4 9000 2000
  pdsink --backend i2cdev --bus /dev/i2c-1 monitor --interval 500ms --json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgPath, "config", "", "YAML config file")
	pf.StringVar(&a.backend, "backend", config.BackendPeriph, "host bus backend: periph | i2cdev")
	pf.StringVar(&a.busName, "bus", "", "bus name (periph) or device path (i2cdev)")
	pf.Uint16Var(&a.addr, "addr", ap33772s.AddressDefault, "7-bit device address")

	root.AddCommand(
		newProfilesCmd(a),
		newRequestCmd(a),
		newMonitorCmd(a),
		newProtectCmd(a),
		newNTCCmd(a),
		newOutputCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup loads the config file, then lets explicitly set flags override it.
func (a *app) setup(cmd *cobra.Command) error {
	a.cfg = config.Default()
	if a.cfgPath != "" {
		f, err := config.LoadFile(a.cfgPath)
		if err != nil {
			return err
		}
		a.cfg = f
	}
	flags := cmd.Flags()
	if flags.Changed("backend") {
		a.cfg.Bus.Backend = a.backend
	}
	if flags.Changed("bus") {
		a.cfg.Bus.Name = a.busName
	}
	if flags.Changed("addr") {
		a.cfg.Device.Addr = a.addr
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	a.log = a.cfg.Logger(cmd.ErrOrStderr())
	return nil
}

// device opens the bus and returns a configured driver. The caller closes
// the returned bus.
func (a *app) device() (*ap33772s.Device, io.Closer, error) {
	b, err := a.open(a.cfg.Bus.Backend, a.cfg.Bus.Name)
	if err != nil {
		return nil, nil, err
	}
	dc := ap33772s.DefaultConfig()
	dc.Address = a.cfg.Device.Addr
	dc.SettleDelay = a.cfg.Device.SettleDelay
	dev := ap33772s.New(b, dc)
	if err := dev.Configure(); err != nil {
		_ = b.Close()
		return nil, nil, fmt.Errorf("configure: %w", err)
	}
	a.log.Debug("device ready", "bus", a.cfg.Bus.Name, "addr", a.cfg.Device.Addr, "profiles", dev.Profiles().Count())
	return dev, b, nil
}

// withDevice runs fn against a configured driver and closes the bus after.
func (a *app) withDevice(fn func(*ap33772s.Device) error) error {
	dev, c, err := a.device()
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(dev)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp(os.Stdout)).ExecuteContext(ctx); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
