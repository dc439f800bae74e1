package errcode

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"pdsink-go/drivers/ap33772s"
)

func TestOf(t *testing.T) {
	assert.Equal(t, OK, Of(nil))
	assert.Equal(t, Busy, Of(Busy))
	assert.Equal(t, Timeout, Of(&E{C: Timeout, Op: "read", Err: errors.New("x")}))
	assert.Equal(t, InvalidKind, Of(ap33772s.ErrInvalidKind))
}

func TestMapDriverErr(t *testing.T) {
	assert.Equal(t, OK, MapDriverErr(nil))
	assert.Equal(t, CurrentOutOfRange, MapDriverErr(ap33772s.ErrCurrentOutOfRange))
	assert.Equal(t, VoltageFloorReserved, MapDriverErr(ap33772s.ErrVoltageFloorReserved))
	assert.Equal(t, NotConfigured, MapDriverErr(fmt.Errorf("request: %w", ap33772s.ErrNotConfigured)))
	assert.Equal(t, BusError, MapDriverErr(errors.New("i2c nack")))
}

func TestEError(t *testing.T) {
	cause := errors.New("boom")
	e := &E{C: InvalidPayload, Msg: "missing slot", Err: cause}
	assert.Equal(t, "invalid_payload: missing slot", e.Error())
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, "not_ready", (&E{C: NotReady}).Error())
}
