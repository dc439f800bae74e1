package hosti2c

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slowBus struct {
	inFlight atomic.Int32
	overlap  atomic.Bool
	calls    atomic.Int32
	closes   atomic.Int32
}

func (b *slowBus) Tx(addr uint16, w, r []byte) error {
	if b.inFlight.Add(1) > 1 {
		b.overlap.Store(true)
	}
	time.Sleep(200 * time.Microsecond)
	b.calls.Add(1)
	b.inFlight.Add(-1)
	return nil
}

func (b *slowBus) Close() error {
	b.closes.Add(1)
	return nil
}

func TestSharedSerialisesTx(t *testing.T) {
	raw := &slowBus{}
	s := NewShared("test", raw)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = s.Tx(0x52, []byte{0x11}, make([]byte, 2))
			}
		}()
	}
	wg.Wait()

	assert.False(t, raw.overlap.Load())
	assert.Equal(t, int32(80), raw.calls.Load())
}

func TestSharedClose(t *testing.T) {
	raw := &slowBus{}
	s := NewShared("test", raw)
	assert.Equal(t, "test", s.Name())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), raw.closes.Load())
	assert.ErrorIs(t, s.Tx(0x52, []byte{0x01}, nil), ErrClosed)
	assert.Zero(t, raw.calls.Load())
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("spi", "")
	assert.ErrorIs(t, err, ErrBackend)
}

func TestOpenI2CDevMissingPath(t *testing.T) {
	_, err := Open(I2CDev, filepath.Join(t.TempDir(), "i2c-9"))
	assert.Error(t, err)
}
