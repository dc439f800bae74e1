// Package pdsink runs one AP33772S as a bus capability. A single worker
// goroutine owns the driver; controls are non-blocking enqueues and results
// come back as events (and replies, when the control carried a reply topic).
//
// Topics, under hal/cap/power/pd_sink/<name>:
//
//	info        retained  types.Info{Detail: types.PDSinkInfo}
//	value       retained  types.PDSinkValue
//	protection  retained  types.ProtectionValue
//	status      retained  types.CapabilityStatus
//	event/<tag>           types.RequestResult or types.StatusEvent
//	control/<verb>        inbound
package pdsink

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"

	"pdsink-go/bus"
	"pdsink-go/drivers/ap33772s"
	"pdsink-go/errcode"
	"pdsink-go/types"
)

// Control verbs.
const (
	VerbRead          = "read"
	VerbRefresh       = "refresh"
	VerbRequestFixed  = "request_fixed"
	VerbRequestPPS    = "request_pps"
	VerbRequestAVS    = "request_avs"
	VerbSetOutput     = "set_output"
	VerbSetProtection = "set_protection"
	VerbSetNTC        = "set_ntc"
)

// EnqueueResult reports whether a control was accepted by the worker queue.
// It says nothing about the outcome, which is published as an event.
type EnqueueResult struct {
	OK    bool
	Error errcode.Code
}

type opCode uint8

const (
	opRead opCode = iota
	opRefresh
	opRequestFixed
	opRequestPPS
	opRequestAVS
	opSetOutput
	opSetProtection
	opSetNTC
)

type request struct {
	op      opCode
	verb    string
	arg     any
	replyTo bus.Topic
}

// Service is a single-goroutine capability wrapping one AP33772S.
type Service struct {
	p    Params
	log  *slog.Logger
	conn *bus.Connection
	i2c  drivers.I2C
	base bus.Topic

	alive  atomic.Bool
	reqCh  chan request
	done   chan struct{}
	ctl    *bus.Subscription
	cancel context.CancelFunc

	// Owned by the worker only:
	dev *ap33772s.Device
}

// New validates p. Nothing touches the bus until Start.
func New(conn *bus.Connection, i2c drivers.I2C, p Params) (*Service, error) {
	if conn == nil || i2c == nil {
		return nil, errcode.InvalidParams
	}
	p, err := p.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Service{
		p:    p,
		log:  p.Logger.With("cap", "pd_sink", "name", p.Name),
		conn: conn,
		i2c:  i2c,
		base: Base(p.Name),
	}, nil
}

// Base returns the topic prefix for a capability name.
func Base(name string) bus.Topic { return bus.T("hal", "cap", "power", "pd_sink", name) }

func (s *Service) Base() bus.Topic { return s.base }

// Start subscribes to control topics and launches the worker. The worker stops
// on ctx cancellation or Close.
func (s *Service) Start(ctx context.Context) error {
	if s.alive.Load() {
		return errcode.Busy
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.reqCh = make(chan request, s.p.QueueLen)
	s.done = make(chan struct{})
	s.ctl = s.conn.Subscribe(s.base.Append("control", bus.SingleWild))

	s.alive.Store(true)
	go s.listen(ctx, s.ctl)
	go s.worker(ctx)
	return nil
}

// Close stops the worker and waits briefly for it to exit.
func (s *Service) Close() error {
	if !s.alive.Load() {
		return nil
	}
	s.cancel()
	t := time.NewTimer(300 * time.Millisecond)
	defer t.Stop()
	select {
	case <-s.done:
		return nil
	case <-t.C:
		return errcode.Timeout
	}
}

// Control enqueues a verb with its payload. Payloads may be values or
// non-nil pointers of the matching types.
func (s *Service) Control(verb string, payload any) EnqueueResult {
	return s.enqueue(verb, payload, nil)
}

func (s *Service) enqueue(verb string, payload any, replyTo bus.Topic) EnqueueResult {
	req := request{verb: verb, replyTo: replyTo}
	ok := true
	switch verb {
	case VerbRead:
		req.op = opRead
	case VerbRefresh:
		req.op = opRefresh
	case VerbRequestFixed:
		req.op = opRequestFixed
		req.arg, ok = asPayload[types.RequestFixed](payload)
	case VerbRequestPPS:
		req.op = opRequestPPS
		req.arg, ok = asPayload[types.RequestPPS](payload)
	case VerbRequestAVS:
		req.op = opRequestAVS
		req.arg, ok = asPayload[types.RequestAVS](payload)
	case VerbSetOutput:
		req.op = opSetOutput
		req.arg, ok = asPayload[types.SetOutput](payload)
	case VerbSetProtection:
		req.op = opSetProtection
		req.arg, ok = asPayload[types.SetProtection](payload)
	case VerbSetNTC:
		req.op = opSetNTC
		req.arg, ok = asPayload[types.SetNTC](payload)
	default:
		return EnqueueResult{Error: errcode.Unsupported}
	}
	if !ok {
		return EnqueueResult{Error: errcode.InvalidPayload}
	}
	if !s.alive.Load() {
		return EnqueueResult{Error: errcode.NotReady}
	}
	select {
	case s.reqCh <- req:
		return EnqueueResult{OK: true}
	default:
		return EnqueueResult{Error: errcode.Busy}
	}
}

// asPayload accepts T or a non-nil *T.
func asPayload[T any](p any) (T, bool) {
	var zero T
	switch x := p.(type) {
	case T:
		return x, true
	case *T:
		if x == nil {
			return zero, false
		}
		return *x, true
	default:
		return zero, false
	}
}

// listen turns control messages into enqueues. Rejected enqueues are answered
// immediately; accepted ones are answered by the worker.
func (s *Service) listen(ctx context.Context, sub *bus.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-sub.Channel():
			if !ok {
				return
			}
			verb, _ := m.Topic[len(m.Topic)-1].(string)
			r := s.enqueue(verb, m.Payload, m.ReplyTo)
			if !r.OK {
				s.log.Warn("control rejected", "verb", verb, "code", r.Error)
				s.conn.Reply(m, types.RequestResult{Verb: verb, Error: string(r.Error)}, false)
			}
		}
	}
}

// ---- publishing helpers ----

func (s *Service) publish(sub string, payload any, retained bool) {
	s.conn.Publish(s.conn.NewMessage(s.base.Append(sub), payload, retained))
}

func (s *Service) event(tag string, payload any) {
	s.conn.Publish(s.conn.NewMessage(s.base.Append("event", tag), payload, false))
}

func (s *Service) status(err error) {
	st := types.CapabilityStatus{Link: types.LinkUp, TS: time.Now().UnixNano()}
	if err != nil {
		st.Link = types.LinkDegraded
		st.Error = string(errcode.Of(err))
	}
	s.publish("status", st, true)
}
