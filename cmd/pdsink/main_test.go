package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdsink-go/bus"
	"pdsink-go/drivers/ap33772s"
	"pdsink-go/internal/hosti2c"
	"pdsink-go/services/pdsink/config"
	"pdsink-go/types"
)

type fakeBus struct {
	mu     sync.Mutex
	regs   map[byte][]byte
	writes map[byte][][]byte
	closed int
}

func newFakeBus() *fakeBus {
	f := &fakeBus{regs: map[byte][]byte{}, writes: map[byte][][]byte{}}
	caps := make([]byte, 26)
	put := func(slot int, w uint16) { caps[2*(slot-1)], caps[2*(slot-1)+1] = byte(w), byte(w>>8) }
	put(1, 0x8000|8<<10|50)        // fixed 5 V 3 A
	put(2, 0xC000|8<<10|1<<8|110)  // PPS 3.3–11 V
	put(8, 0xC000|15<<10|1<<8|140) // AVS 15–28 V
	f.regs[0x20] = caps
	f.regs[0x11] = []byte{0x3E, 0x00}
	f.regs[0x01] = []byte{0x03}
	return f
}

func (f *fakeBus) Tx(_ uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(r) == 0 {
		f.writes[w[0]] = append(f.writes[w[0]], append([]byte(nil), w[1:]...))
		return nil
	}
	copy(r, f.regs[w[0]])
	return nil
}

func (f *fakeBus) Close() error {
	f.closed++
	return nil
}

func run(t *testing.T, f *fakeBus, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(&out)
	a.open = func(string, string) (hosti2c.BusCloser, error) { return f, nil }
	root := newRootCmd(a)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProfilesTable(t *testing.T) {
	f := newFakeBus()
	out, err := run(t, f, "profiles")
	require.NoError(t, err)

	assert.Contains(t, out, "SLOT")
	assert.Regexp(t, `1\s+fixed\s+SPR\s+5\.00V\s+3\.24A`, out)
	assert.Regexp(t, `2\s+pps\s+SPR\s+3\.30V-11\.00V`, out)
	assert.Regexp(t, `8\s+avs\s+EPR\s+15\.00V-28\.00V\s+5\.00A`, out)
	assert.Contains(t, out, "pps slot: 2")
	assert.Contains(t, out, "avs slot: 8")
	assert.Equal(t, 1, f.closed)
}

func TestProfilesJSON(t *testing.T) {
	out, err := run(t, newFakeBus(), "profiles", "--json")
	require.NoError(t, err)
	var got []types.ProfileInfo
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "avs", got[2].Kind)
}

func TestRequestCommands(t *testing.T) {
	f := newFakeBus()

	out, err := run(t, f, "request", "fixed", "1", "2000")
	require.NoError(t, err)
	assert.Contains(t, out, "rdo 0x1400")

	out, err = run(t, f, "request", "pps", "0", "5000", "3000")
	require.NoError(t, err)
	assert.Contains(t, out, "slot 2:")
	assert.Contains(t, out, "rdo 0x2832")

	_, err = run(t, f, "request", "fixed", "2", "1000")
	assert.ErrorIs(t, err, ap33772s.ErrInvalidKind)

	_, err = run(t, f, "request", "avs", "8", "28200", "1000")
	assert.ErrorIs(t, err, ap33772s.ErrVoltageOutOfRange)

	_, err = run(t, f, "request", "fixed", "one", "2000")
	assert.Error(t, err)

	assert.Equal(t, [][]byte{{0x00, 0x14}, {0x32, 0x28}}, f.writes[0x31])
}

func TestProtectSetWritesOnlyGivenFlags(t *testing.T) {
	f := newFakeBus()
	_, err := run(t, f, "protect", "set", "--uvp", "75", "--ocp-ma", "3000")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{2}}, f.writes[0x17])
	assert.Equal(t, [][]byte{{60}}, f.writes[0x19])
	assert.Empty(t, f.writes[0x16])

	_, err = run(t, f, "protect", "set", "--uvp", "77")
	assert.ErrorIs(t, err, ap33772s.ErrInvalidInput)
	assert.Len(t, f.writes[0x17], 1)
}

func TestProtectGet(t *testing.T) {
	f := newFakeBus()
	f.regs[0x17] = []byte{3}
	f.regs[0x19] = []byte{60}
	out, err := run(t, f, "protect", "get")
	require.NoError(t, err)
	var p types.ProtectionValue
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, 70, p.UVPPercent)
	assert.Equal(t, 3000, p.OCP_mA)
}

func TestOutputAndNTC(t *testing.T) {
	f := newFakeBus()
	_, err := run(t, f, "output", "on")
	require.NoError(t, err)
	_, err = run(t, f, "output", "maybe")
	assert.Error(t, err)
	assert.Equal(t, [][]byte{{0b0001_0010}}, f.writes[0x06])

	_, err = run(t, f, "ntc", "10000", "4161", "1928", "974")
	require.NoError(t, err)
	assert.Equal(t, [][]byte{{0x10, 0x27}}, f.writes[0x0C])
}

func TestMonitorJSON(t *testing.T) {
	out, err := run(t, newFakeBus(), "monitor", "--count", "2", "--interval", "1ms", "--json")
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(out))
	n := 0
	for {
		var v types.PDSinkValue
		if err := dec.Decode(&v); err == io.EOF {
			break
		} else {
			require.NoError(t, err)
		}
		assert.Equal(t, 4960, v.VBus_mV)
		assert.Equal(t, uint8(0x03), v.Status)
		n++
	}
	assert.Equal(t, 2, n)
}

func TestFlagOverridesAreValidated(t *testing.T) {
	_, err := run(t, newFakeBus(), "--addr", "0x80", "profiles")
	assert.Error(t, err)
	_, err = run(t, newFakeBus(), "--backend", "spi", "profiles")
	assert.Error(t, err)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "3.24A", fmtMilli(3249, "A"))
	assert.Equal(t, "28.00V", fmtMilli(28000, "V"))
	assert.Equal(t, "-", statusString(0))
	assert.Equal(t, "started,ready,ovp", statusString(ap33772s.StatusStarted|ap33772s.StatusReady|ap33772s.StatusOVP))
}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestServeLogsServiceTraffic(t *testing.T) {
	var logs syncBuffer
	a := newApp(io.Discard)
	a.cfg = config.Default()
	a.log = slog.New(slog.NewTextHandler(&logs, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, bus.NewBus(64), newFakeBus()) }()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), "hal/cap/power/pd_sink/pd0/value")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, logs.String(), "hal/cap/power/pd_sink/pd0/info")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
