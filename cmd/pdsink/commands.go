package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pdsink-go/drivers/ap33772s"
	"pdsink-go/services/pdsink"
	"pdsink-go/types"
)

// ---- profiles ----

func newProfilesCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the source's advertised power profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDevice(func(d *ap33772s.Device) error {
				t := d.Profiles()
				if asJSON {
					return writeJSON(a.out, pdsink.ProfileInfos(t))
				}
				printProfiles(a.out, t)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func printProfiles(w io.Writer, t *ap33772s.ProfileTable) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tKIND\tRANGE\tVOLTAGE\tCURRENT\tRAW")
	for _, p := range pdsink.ProfileInfos(t) {
		rng := "SPR"
		if p.EPR {
			rng = "EPR"
		}
		volt := fmtMilli(p.VoltageMax_mV, "V")
		if p.Kind != "fixed" {
			lo := "?"
			if p.VoltageMin_mV != 0 {
				lo = fmtMilli(p.VoltageMin_mV, "V")
			}
			volt = lo + "-" + volt
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t0x%04X\n",
			p.Slot, p.Kind, rng, volt, fmtMilli(p.CurrentMax_mA, "A"), p.Raw)
	}
	_ = tw.Flush()
	if s, ok := t.PreferredPPS(); ok {
		fmt.Fprintf(w, "pps slot: %d\n", s)
	}
	if s, ok := t.PreferredAVS(); ok {
		fmt.Fprintf(w, "avs slot: %d\n", s)
	}
}

// fmtMilli renders an integer milli-unit with two decimals, e.g. 3249 → "3.24A".
func fmtMilli(v int, unit string) string {
	return fmt.Sprintf("%d.%02d%s", v/1000, (v%1000)/10, unit)
}

// ---- request ----

func newRequestCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Request a power profile",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "fixed <slot> <mA>",
			Short: "Request a fixed profile",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := ints(args)
				if err != nil {
					return err
				}
				return a.withDevice(func(d *ap33772s.Device) error {
					rdo, err := d.RequestFixed(n[0], n[1])
					return a.reportRDO(rdo, err)
				})
			},
		},
		&cobra.Command{
			Use:   "pps <slot|0> <mV> <mA>",
			Short: "Request a programmable (PPS) voltage; slot 0 uses the first PPS slot",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := ints(args)
				if err != nil {
					return err
				}
				return a.withDevice(func(d *ap33772s.Device) error {
					slot := pickSlot(n[0], d.Profiles().PreferredPPS)
					rdo, err := d.RequestPPS(slot, n[1], n[2])
					return a.reportRDO(rdo, err)
				})
			},
		},
		&cobra.Command{
			Use:   "avs <slot|0> <mV> <mA>",
			Short: "Request an adaptive (AVS) voltage; slot 0 uses the first AVS slot",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := ints(args)
				if err != nil {
					return err
				}
				return a.withDevice(func(d *ap33772s.Device) error {
					slot := pickSlot(n[0], d.Profiles().PreferredAVS)
					rdo, err := d.RequestAVS(slot, n[1], n[2])
					return a.reportRDO(rdo, err)
				})
			},
		},
	)
	return cmd
}

func pickSlot(slot int, preferred func() (int, bool)) int {
	if slot != 0 {
		return slot
	}
	p, _ := preferred()
	return p
}

func (a *app) reportRDO(rdo ap33772s.RDO, err error) error {
	if err != nil {
		return err
	}
	a.log.Info("request sent", "slot", rdo.Slot(), "rdo", fmt.Sprintf("0x%04X", uint16(rdo)))
	fmt.Fprintf(a.out, "slot %d: current_sel %d voltage_sel %d (rdo 0x%04X)\n",
		rdo.Slot(), rdo.CurrentSel(), rdo.VoltageSel(), uint16(rdo))
	return nil
}

// ---- protect ----

func newProtectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protect",
		Short: "Read or change protection thresholds",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the protection thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDevice(func(d *ap33772s.Device) error {
				p, err := d.ReadProtection()
				if err != nil {
					return err
				}
				return writeJSON(a.out, types.ProtectionValue(p))
			})
		},
	}

	var v struct{ vselmin, uvp, ovp, ocp, otp, dr int }
	set := &cobra.Command{
		Use:   "set",
		Short: "Change selected protection thresholds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			var u ap33772s.ProtectionUpdate
			pick := func(name string, src int, dst **int) {
				if f.Changed(name) {
					x := src
					*dst = &x
				}
			}
			pick("vselmin-mv", v.vselmin, &u.VSelMin_mV)
			pick("uvp", v.uvp, &u.UVPPercent)
			pick("ovp-mv", v.ovp, &u.OVPOffset_mV)
			pick("ocp-ma", v.ocp, &u.OCP_mA)
			pick("otp-c", v.otp, &u.OTP_C)
			pick("dr-c", v.dr, &u.Derating_C)
			return a.withDevice(func(d *ap33772s.Device) error {
				if err := d.ApplyProtection(u); err != nil {
					return err
				}
				a.log.Info("protection updated")
				return nil
			})
		},
	}
	sf := set.Flags()
	sf.IntVar(&v.vselmin, "vselmin-mv", 0, "minimum selection voltage (mV, 200 mV steps)")
	sf.IntVar(&v.uvp, "uvp", 0, "under-voltage threshold, percent of VREQ: 70 | 75 | 80")
	sf.IntVar(&v.ovp, "ovp-mv", 0, "over-voltage offset above VREQ (mV, 80 mV steps)")
	sf.IntVar(&v.ocp, "ocp-ma", 0, "over-current threshold (mA, 50 mA steps)")
	sf.IntVar(&v.otp, "otp-c", 0, "over-temperature threshold (°C)")
	sf.IntVar(&v.dr, "dr-c", 0, "de-rating temperature (°C)")

	cmd.AddCommand(get, set)
	return cmd
}

// ---- ntc ----

func newNTCCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ntc <r25> <r50> <r75> <r100>",
		Short: "Program the thermistor resistance table (ohms)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r [4]uint16
			for i, s := range args {
				v, err := strconv.ParseUint(s, 0, 16)
				if err != nil {
					return fmt.Errorf("ntc: %q: %w", s, err)
				}
				r[i] = uint16(v)
			}
			return a.withDevice(func(d *ap33772s.Device) error {
				return d.SetNTC(ap33772s.NTCTable{R25: r[0], R50: r[1], R75: r[2], R100: r[3]})
			})
		},
	}
}

// ---- output ----

func newOutputCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "output on|off",
		Short:     "Switch the VOUT output",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode := ap33772s.OutputOff
			if args[0] == "on" {
				mode = ap33772s.OutputOn
			}
			return a.withDevice(func(d *ap33772s.Device) error { return d.SetOutput(mode) })
		},
	}
}

// ---- helpers ----

func ints(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, s := range args {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %q is not an integer", i+1, s)
		}
		out[i] = v
	}
	return out, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
