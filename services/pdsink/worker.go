package pdsink

import (
	"context"
	"time"

	"pdsink-go/bus"
	"pdsink-go/drivers/ap33772s"
	"pdsink-go/errcode"
	"pdsink-go/types"
)

// ---- Worker ----

func (s *Service) worker(ctx context.Context) {
	defer close(s.done)
	defer s.cleanup()

	s.configureDevice()

	var tick <-chan time.Time
	if s.p.SampleEvery > 0 {
		t := time.NewTicker(s.p.SampleEvery)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.reqCh:
			s.handle(req)
		case <-tick:
			s.sampleAndPublish()
		}
	}
}

func (s *Service) cleanup() {
	s.alive.Store(false)
	s.conn.Unsubscribe(s.ctl)
	s.publish("status", types.CapabilityStatus{Link: types.LinkDown, TS: time.Now().UnixNano()}, true)
}

// configureDevice builds the driver and reads the profile table. A failure
// leaves the capability degraded; a later "refresh" retries the read.
func (s *Service) configureDevice() {
	s.dev = ap33772s.New(s.i2c, s.p.driverConfig())
	if err := s.dev.Configure(); err != nil {
		s.fail("configure_failed", err)
		return
	}
	s.log.Info("profiles read", "count", s.dev.Profiles().Count())

	if s.p.NTC != nil {
		if err := s.dev.SetNTC(*s.p.NTC); err != nil {
			s.fail("set_ntc_failed", err)
		}
	}
	if s.p.Protection != nil {
		if err := s.dev.ApplyProtection(protectionUpdate(*s.p.Protection)); err != nil {
			s.fail("set_protection_failed", err)
		}
	}

	s.publishInfo()
	s.publishProtection()
	s.sampleAndPublish()
}

func (s *Service) fail(tag string, err error) {
	code := errcode.Of(err)
	s.log.Error("pd sink error", "tag", tag, "code", code, "err", err)
	s.event(tag, types.StatusEvent{Tag: tag, TS: time.Now().UnixNano()})
	s.status(err)
}

// handle runs one control and reports its outcome on event/<verb> and, if
// present, the reply topic.
func (s *Service) handle(req request) {
	res := types.RequestResult{Verb: req.verb}
	var err error

	switch req.op {
	case opRead:
		err = s.sampleAndPublish()

	case opRefresh:
		if err = s.dev.RefreshProfiles(); err == nil {
			s.publishInfo()
		}

	case opRequestFixed:
		v := req.arg.(types.RequestFixed)
		res.Slot = v.Slot
		err = s.sendRequest(&res, func() (ap33772s.RDO, error) { return s.dev.RequestFixed(v.Slot, v.MA) })

	case opRequestPPS:
		v := req.arg.(types.RequestPPS)
		res.Slot = s.slotOr(v.Slot, s.dev.Profiles().PreferredPPS)
		err = s.sendRequest(&res, func() (ap33772s.RDO, error) { return s.dev.RequestPPS(res.Slot, v.MV, v.MA) })

	case opRequestAVS:
		v := req.arg.(types.RequestAVS)
		res.Slot = s.slotOr(v.Slot, s.dev.Profiles().PreferredAVS)
		err = s.sendRequest(&res, func() (ap33772s.RDO, error) { return s.dev.RequestAVS(res.Slot, v.MV, v.MA) })

	case opSetOutput:
		mode := ap33772s.OutputOff
		if req.arg.(types.SetOutput).On {
			mode = ap33772s.OutputOn
		}
		err = s.dev.SetOutput(mode)

	case opSetProtection:
		if err = s.dev.ApplyProtection(protectionUpdate(req.arg.(types.SetProtection))); err == nil {
			s.publishProtection()
		}

	case opSetNTC:
		v := req.arg.(types.SetNTC)
		err = s.dev.SetNTC(ap33772s.NTCTable{R25: v.R25, R50: v.R50, R75: v.R75, R100: v.R100})
	}

	if err != nil {
		res.Error = string(errcode.Of(err))
		s.log.Warn("control failed", "verb", req.verb, "slot", res.Slot, "code", res.Error, "err", err)
	} else {
		res.OK = true
		s.log.Debug("control done", "verb", req.verb, "slot", res.Slot, "rdo", res.RDO)
	}
	s.event(req.verb, res)
	s.reply(req.replyTo, res)
}

func (s *Service) sendRequest(res *types.RequestResult, send func() (ap33772s.RDO, error)) error {
	rdo, err := send()
	if err != nil {
		return err
	}
	res.RDO = uint16(rdo)
	return nil
}

// slotOr returns slot, or the preferred slot when slot is zero. With no
// preferred slot on offer it returns 0, which the driver rejects.
func (s *Service) slotOr(slot int, preferred func() (int, bool)) int {
	if slot != 0 {
		return slot
	}
	p, _ := preferred()
	return p
}

func (s *Service) reply(to bus.Topic, payload any) {
	if len(to) == 0 {
		return
	}
	s.conn.Publish(s.conn.NewMessage(to, payload, false))
}

// ---- Publishing (worker context) ----

func (s *Service) publishInfo() {
	t := s.dev.Profiles()
	info := types.PDSinkInfo{Bus: s.p.Bus, Addr: s.dev.Address(), Profiles: ProfileInfos(t)}
	info.PPSSlot, _ = t.PreferredPPS()
	info.AVSSlot, _ = t.PreferredAVS()
	s.publish("info", types.Info{SchemaVersion: 1, Driver: "ap33772s", Detail: info}, true)
}

// ProfileInfos lists the populated slots of t in slot order.
func ProfileInfos(t *ap33772s.ProfileTable) []types.ProfileInfo {
	var out []types.ProfileInfo
	for _, p := range t.All() {
		if p.Kind == ap33772s.KindUnset {
			continue
		}
		floor, _ := p.VoltageMin_mV()
		out = append(out, types.ProfileInfo{
			Slot:          p.Slot,
			Kind:          p.Kind.String(),
			EPR:           p.EPR(),
			VoltageMax_mV: p.VoltageMax_mV(),
			VoltageMin_mV: floor,
			CurrentMax_mA: p.CurrentMax_mA(),
			Raw:           p.Raw,
		})
	}
	return out
}

func (s *Service) publishProtection() {
	p, err := s.dev.ReadProtection()
	if err != nil {
		s.fail("read_protection_failed", err)
		return
	}
	s.publish("protection", types.ProtectionValue(p), true)
}

// sampleAndPublish publishes telemetry and turns STATUS bits into events.
// Values that fail to read are published as zero alongside a degraded status.
func (s *Service) sampleAndPublish() error {
	ts := time.Now().UnixNano()
	var snap ap33772s.Snapshot
	err := s.dev.SnapshotInto(&snap)

	st, serr := s.dev.ReadStatus()
	if err == nil {
		err = serr
	}

	s.publish("value", types.PDSinkValue{
		VBus_mV: snap.VBus_mV,
		IBus_mA: snap.IBus_mA,
		Temp_C:  snap.Temp_C,
		VReq_mV: snap.VReq_mV,
		IReq_mA: snap.IReq_mA,
		Status:  uint8(st),
		TS:      ts,
	}, true)
	s.status(err)
	if serr == nil {
		s.translateStatus(st, ts)
	}
	return err
}

// translateStatus emits one event per fault or notification bit. STARTED and
// READY are level state, not events.
func (s *Service) translateStatus(st ap33772s.Status, ts int64) {
	for _, n := range ap33772s.StatusNames {
		if n.Bit == ap33772s.StatusStarted || n.Bit == ap33772s.StatusReady || !st.Has(n.Bit) {
			continue
		}
		s.event(n.Name, types.StatusEvent{Tag: n.Name, TS: ts})
	}
	if st.Has(ap33772s.StatusNewPDO) {
		if err := s.dev.RefreshProfiles(); err != nil {
			s.fail("refresh_failed", err)
			return
		}
		s.publishInfo()
		s.event("profiles_refreshed", types.StatusEvent{Tag: "profiles_refreshed", TS: ts})
	}
}
