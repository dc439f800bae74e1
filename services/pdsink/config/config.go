// Package config loads the YAML file describing one PD sink: which host bus
// it sits on, how the service samples it and what to write at start-up.
//
//	bus:
//	  backend: periph        # periph | i2cdev
//	  name: "1"              # periph bus name, or /dev/i2c-N for i2cdev
//	device:
//	  name: pd0
//	  addr: 0x52
//	  settle_delay: 100ms
//	  sample_every: 1s
//	ntc: {r25: 10000, r50: 4161, r75: 1928, r100: 974}
//	protection: {uvp_pct: 80, ocp_mA: 3000}
//	log: {level: info, format: text}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pdsink-go/drivers/ap33772s"
	"pdsink-go/services/pdsink"
	"pdsink-go/types"
	"pdsink-go/x/mathx"
)

// Host bus backends.
const (
	BackendPeriph = "periph"
	BackendI2CDev = "i2cdev"
)

type File struct {
	Bus        Bus                  `yaml:"bus"`
	Device     Device               `yaml:"device"`
	NTC        *types.SetNTC        `yaml:"ntc,omitempty"`
	Protection *types.SetProtection `yaml:"protection,omitempty"`
	Log        Log                  `yaml:"log"`
}

type Bus struct {
	Backend string `yaml:"backend"`
	Name    string `yaml:"name"`
}

type Device struct {
	Name        string        `yaml:"name"`
	Addr        uint16        `yaml:"addr"`
	SettleDelay time.Duration `yaml:"settle_delay"`
	SampleEvery time.Duration `yaml:"sample_every"`
}

type Log struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

var (
	ErrBackend = errors.New("config: unknown bus backend")
	ErrAddr    = errors.New("config: device address must be a 7-bit address")
	ErrDelay   = errors.New("config: durations must not be negative")
	ErrLog     = errors.New("config: invalid log settings")
)

// Default returns the configuration used when no file is given.
func Default() File {
	d := ap33772s.DefaultConfig()
	return File{
		Bus: Bus{Backend: BackendPeriph, Name: ""},
		Device: Device{
			Name:        "pd0",
			Addr:        d.Address,
			SettleDelay: d.SettleDelay,
			SampleEvery: time.Second,
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load decodes YAML over Default and validates the result. Unknown keys are
// errors.
func Load(r io.Reader) (File, error) {
	f := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// LoadFile reads path with Load.
func LoadFile(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: %w", err)
	}
	return Load(bytes.NewReader(b))
}

func (f File) Validate() error {
	switch f.Bus.Backend {
	case BackendPeriph, BackendI2CDev:
	default:
		return fmt.Errorf("%w: %q", ErrBackend, f.Bus.Backend)
	}
	if !mathx.InRange(f.Device.Addr, 0x08, 0x77) {
		return fmt.Errorf("%w: 0x%02X", ErrAddr, f.Device.Addr)
	}
	if f.Device.SettleDelay < 0 || f.Device.SampleEvery < 0 {
		return ErrDelay
	}
	if _, err := f.Log.level(); err != nil {
		return err
	}
	switch f.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: format %q", ErrLog, f.Log.Format)
	}
	return nil
}

func (l Log) level() (slog.Level, error) {
	var lv slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lv.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("%w: level %q", ErrLog, l.Level)
	}
	return lv, nil
}

// Logger builds the slog logger described by the log section.
func (f File) Logger(w io.Writer) *slog.Logger {
	lv, _ := f.Log.level()
	opts := &slog.HandlerOptions{Level: lv}
	if f.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NTCTable returns the configured thermistor table, if any.
func (f File) NTCTable() *ap33772s.NTCTable {
	if f.NTC == nil {
		return nil
	}
	return &ap33772s.NTCTable{R25: f.NTC.R25, R50: f.NTC.R50, R75: f.NTC.R75, R100: f.NTC.R100}
}

// Params maps the file onto service parameters.
func (f File) Params(log *slog.Logger) pdsink.Params {
	return pdsink.Params{
		Name:        f.Device.Name,
		Bus:         f.Bus.Name,
		Addr:        f.Device.Addr,
		SampleEvery: f.Device.SampleEvery,
		SettleDelay: f.Device.SettleDelay,
		NTC:         f.NTCTable(),
		Protection:  f.Protection,
		Logger:      log,
	}
}
