package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"tinygo.org/x/drivers"

	"pdsink-go/bus"
	"pdsink-go/drivers/ap33772s"
	"pdsink-go/services/pdsink"
	"pdsink-go/types"
)

// ---- monitor ----

func newMonitorCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		count    int
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Print live VBUS telemetry until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be > 0")
			}
			return a.withDevice(func(d *ap33772s.Device) error {
				return a.monitor(cmd.Context(), d, interval, count, asJSON)
			})
		},
	}
	cmd.Flags().DurationVarP(&interval, "interval", "i", time.Second, "sampling interval")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after n samples (0 = until Ctrl-C)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print one JSON object per sample")
	return cmd
}

// monitor samples on one goroutine and renders on another.
func (a *app) monitor(ctx context.Context, d *ap33772s.Device, every time.Duration, count int, asJSON bool) error {
	g, ctx := errgroup.WithContext(ctx)
	samples := make(chan types.PDSinkValue, 4)

	g.Go(func() error {
		defer close(samples)
		t := time.NewTicker(every)
		defer t.Stop()
		for n := 0; count == 0 || n < count; n++ {
			var s ap33772s.Snapshot
			if err := d.SnapshotInto(&s); err != nil {
				a.log.Warn("sample incomplete", "err", err)
			}
			st, err := d.ReadStatus()
			if err != nil {
				a.log.Warn("status read failed", "err", err)
			}
			v := types.PDSinkValue{
				VBus_mV: s.VBus_mV, IBus_mA: s.IBus_mA, Temp_C: s.Temp_C,
				VReq_mV: s.VReq_mV, IReq_mA: s.IReq_mA,
				Status: uint8(st), TS: time.Now().UnixNano(),
			}
			select {
			case samples <- v:
			case <-ctx.Done():
				return nil
			}
			if count != 0 && n+1 == count {
				return nil
			}
			select {
			case <-t.C:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	g.Go(func() error {
		if !asJSON {
			fmt.Fprintln(a.out, "TIME          VBUS      IBUS     TEMP  VREQ      IREQ     STATUS")
		}
		for v := range samples {
			if asJSON {
				if err := writeJSON(a.out, v); err != nil {
					return err
				}
				continue
			}
			fmt.Fprintf(a.out, "%-12s  %-8s  %-7s  %3dC  %-8s  %-7s  %s\n",
				time.Unix(0, v.TS).Format("15:04:05.000"),
				fmtMilli(v.VBus_mV, "V"), fmtMilli(v.IBus_mA, "A"), v.Temp_C,
				fmtMilli(v.VReq_mV, "V"), fmtMilli(v.IReq_mA, "A"), statusString(ap33772s.Status(v.Status)))
		}
		return nil
	})

	return g.Wait()
}

func statusString(st ap33772s.Status) string {
	out := ""
	for _, n := range ap33772s.StatusNames {
		if st.Has(n.Bit) {
			if out != "" {
				out += ","
			}
			out += n.Name
		}
	}
	if out == "" {
		return "-"
	}
	return out
}

// ---- serve ----

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the PD sink service on an in-process bus and log its traffic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := a.open(a.cfg.Bus.Backend, a.cfg.Bus.Name)
			if err != nil {
				return err
			}
			defer b.Close()
			return a.serve(cmd.Context(), bus.NewBus(64), b)
		},
	}
}

func (a *app) serve(ctx context.Context, b *bus.Bus, i2c drivers.I2C) error {
	svc, err := pdsink.New(b.NewConnection("pdsink"), i2c, a.cfg.Params(a.log))
	if err != nil {
		return err
	}
	watch := b.NewConnection("serve")
	sub := watch.Subscribe(svc.Base().Append(bus.MultiWild))
	defer watch.Disconnect()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := svc.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		_ = svc.Close()
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case m, ok := <-sub.Channel():
				if !ok {
					return nil
				}
				a.log.Info("bus", "topic", m.Topic.String(), "retained", m.Retained, "payload", fmt.Sprintf("%+v", m.Payload))
			}
		}
	})
	return g.Wait()
}
