package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
bus:
  backend: i2cdev
  name: /dev/i2c-1
device:
  name: bench
  addr: 0x52
  settle_delay: 250ms
  sample_every: 2s
ntc: {r25: 10000, r50: 4161, r75: 1928, r100: 974}
protection:
  uvp_pct: 75
  ocp_mA: 3000
log:
  level: debug
  format: json
`

func TestLoad(t *testing.T) {
	f, err := Load(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, Bus{Backend: BackendI2CDev, Name: "/dev/i2c-1"}, f.Bus)
	assert.Equal(t, Device{Name: "bench", Addr: 0x52, SettleDelay: 250 * time.Millisecond, SampleEvery: 2 * time.Second}, f.Device)
	require.NotNil(t, f.Protection)
	require.NotNil(t, f.Protection.UVPPercent)
	assert.Equal(t, 75, *f.Protection.UVPPercent)
	assert.Nil(t, f.Protection.OTP_C)

	p := f.Params(nil)
	assert.Equal(t, "bench", p.Name)
	assert.Equal(t, "/dev/i2c-1", p.Bus)
	require.NotNil(t, p.NTC)
	assert.Equal(t, uint16(974), p.NTC.R100)
	assert.Equal(t, 2*time.Second, p.SampleEvery)
}

func TestLoadEmptyGivesDefaults(t *testing.T) {
	f, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), f)
	assert.Nil(t, f.NTCTable())
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	f, err := Load(strings.NewReader("device:\n  sample_every: 5s\n"))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, f.Device.SampleEvery)
	assert.Equal(t, uint16(0x52), f.Device.Addr)
	assert.Equal(t, BackendPeriph, f.Bus.Backend)
}

func TestLoadRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":    "device:\n  adress: 0x52\n",
		"backend":        "bus:\n  backend: spi\n",
		"address":        "device:\n  addr: 0x80\n",
		"negative delay": "device:\n  settle_delay: -1s\n",
		"log level":      "log:\n  level: chatty\n",
		"log format":     "log:\n  format: xml\n",
		"malformed yaml": "device: [",
	}
	for name, in := range cases {
		_, err := Load(strings.NewReader(in))
		assert.Error(t, err, name)
	}
	_, err := Load(strings.NewReader("bus:\n  backend: spi\n"))
	assert.ErrorIs(t, err, ErrBackend)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdsink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	f, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "bench", f.Device.Name)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	f := Default()
	f.Log = Log{Level: "warn", Format: "json"}
	var buf bytes.Buffer
	log := f.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown", "slot", 2)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"slot":2`)
}
