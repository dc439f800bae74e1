package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sinkBase = T("hal", "cap", "power", "pd_sink", "pd0")

func TestPublishExact(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	sub := c.Subscribe(sinkBase.Append("value"))
	c.Publish(c.NewMessage(sinkBase.Append("value"), "20V", false))

	assert.Equal(t, "20V", recv(t, sub))
}

func TestRetainedDeliveredOnSubscribe(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")

	c.Publish(c.NewMessage(sinkBase.Append("info"), "caps", true))
	sub := c.Subscribe(sinkBase.Append("info"))
	assert.Equal(t, "caps", recv(t, sub))

	// Not retained: late subscribers miss it.
	c.Publish(c.NewMessage(sinkBase.Append("event", "ovp"), "x", false))
	late := c.Subscribe(sinkBase.Append("event", "ovp"))
	none(t, late)
}

func TestSingleLevelWildcard(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	s1 := c.Subscribe(T("a", "+", "c"))
	s2 := c.Subscribe(T("a", "+", "+"))
	s3 := c.Subscribe(T("a", "b", "+"))
	sNo := c.Subscribe(T("a", "+", "d"))

	c.Publish(b.NewMessage(T("a", "b", "c"), "m1", false))
	assert.Equal(t, "m1", recv(t, s1))
	assert.Equal(t, "m1", recv(t, s2))
	assert.Equal(t, "m1", recv(t, s3))
	none(t, sNo)

	c.Publish(b.NewMessage(T("a", "x", "y"), "m2", false))
	assert.Equal(t, "m2", recv(t, s2))
	none(t, s1)
	none(t, s3)

	// Too short for any filter.
	c.Publish(b.NewMessage(T("a", "c"), "m3", false))
	none(t, s1)
	none(t, s2)
	none(t, s3)
	none(t, sNo)
}

func TestMultiLevelWildcard(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sAHash := c.Subscribe(T("a", "#"))
	sHash := c.Subscribe(T("#"))
	sABHash := c.Subscribe(T("a", "b", "#"))
	sA := c.Subscribe(T("a"))

	c.Publish(b.NewMessage(T("a"), "p1", false))
	assert.Equal(t, "p1", recv(t, sAHash))
	assert.Equal(t, "p1", recv(t, sHash))
	assert.Equal(t, "p1", recv(t, sA))
	none(t, sABHash)

	c.Publish(b.NewMessage(T("a", "b", "c"), "p2", false))
	assert.Equal(t, "p2", recv(t, sAHash))
	assert.Equal(t, "p2", recv(t, sHash))
	assert.Equal(t, "p2", recv(t, sABHash))
	none(t, sA)
}

func TestRetainedWithWildcards(t *testing.T) {
	b := NewBus(32)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("a"), "r0", true))
	c.Publish(b.NewMessage(T("a", "b"), "r1", true))
	c.Publish(b.NewMessage(T("a", "b", "c"), "r2", true))
	c.Publish(b.NewMessage(T("a", "x"), "r3", true))

	assert.ElementsMatch(t, []string{"r0", "r1", "r2", "r3"}, drain(t, c.Subscribe(T("a", "#")), 4))
	assert.ElementsMatch(t, []string{"r1", "r2", "r3"}, drain(t, c.Subscribe(T("a", "+", "#")), 3))
	assert.ElementsMatch(t, []string{"r1", "r3"}, drain(t, c.Subscribe(T("a", "+")), 2))
}

func TestRetainedClear(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	c.Publish(b.NewMessage(T("a", "b"), "keep", true))
	c.Publish(b.NewMessage(T("a", "y"), "other", true))
	c.Publish(b.NewMessage(T("a", "b"), nil, true))

	s := c.Subscribe(T("a", "#"))
	assert.Equal(t, []string{"other"}, drain(t, s, 1))
	none(t, s)
}

func TestFullQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(T("q"))

	for _, p := range []string{"1", "2", "3"} {
		c.Publish(b.NewMessage(T("q"), p, false))
	}
	assert.Equal(t, []string{"2", "3"}, drain(t, s, 2))
}

func TestUnsubscribeClosesAndStopsDelivery(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")
	s := c.Subscribe(T("a", "b"))
	other := c.Subscribe(T("a", "#"))

	s.Unsubscribe()
	s.Unsubscribe()
	_, ok := <-s.Channel()
	assert.False(t, ok)

	c.Publish(b.NewMessage(T("a", "b"), "x", false))
	assert.Equal(t, "x", recv(t, other))

	c.Disconnect()
	_, ok = <-other.Channel()
	assert.False(t, ok)
}

func TestRequestWait(t *testing.T) {
	b := NewBus(8)
	req := b.NewConnection("requester")
	resp := b.NewConnection("responder")

	ctl := sinkBase.Append("control", "read")
	reqs := resp.Subscribe(ctl)
	defer resp.Unsubscribe(reqs)

	go func() {
		if m, ok := <-reqs.Channel(); ok {
			resp.Reply(m, "OK", false)
		}
	}()

	msg := b.NewMessage(ctl, nil, false)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	reply, err := req.RequestWait(ctx, msg)
	require.NoError(t, err)
	assert.Equal(t, "OK", reply.Payload)
	require.NotEmpty(t, msg.ReplyTo)
	assert.True(t, reply.Topic.Equal(msg.ReplyTo))
}

func TestRequestWaitTimeout(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("requester")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := c.RequestWait(ctx, b.NewMessage(T("nobody"), nil, false))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReplyWithoutReplyTo(t *testing.T) {
	b := NewBus(8)
	c := b.NewConnection("x")
	assert.False(t, c.Reply(b.NewMessage(T("a"), nil, false), "nope", false))
}

func TestTopicHelpers(t *testing.T) {
	base := T("a", 1)
	ext := base.Append("b")
	assert.Len(t, base, 2)
	assert.Equal(t, "a/1/b", ext.String())
	assert.True(t, ext.Equal(T("a", 1, "b")))
	assert.False(t, ext.Equal(base))
}

func TestTopicRejectsNonComparable(t *testing.T) {
	assert.Panics(t, func() { _ = T([]byte{1, 2, 3}) })
	assert.Panics(t, func() { _ = T("a", nil) })
}

// ---- helpers ----

func recv(t *testing.T, s *Subscription) any {
	t.Helper()
	select {
	case m := <-s.Channel():
		return m.Payload
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func none(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case m := <-s.Channel():
		t.Fatalf("unexpected message on %v: %#v", s.Topic(), m.Payload)
	case <-time.After(30 * time.Millisecond):
	}
}

func drain(t *testing.T, s *Subscription, n int) []string {
	t.Helper()
	var out []string
	for len(out) < n {
		p, ok := recv(t, s).(string)
		require.True(t, ok)
		out = append(out, p)
	}
	return out
}
