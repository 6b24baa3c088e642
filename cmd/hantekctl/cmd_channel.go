package main

import (
	"github.com/spf13/cobra"

	"github.com/hanteker/hantekgo/pkg/scope"
)

var (
	channelNo       int
	channelEnable   bool
	channelDisable  bool
	channelCoupling string
	channelProbe    string
	channelScale    string
	channelOffset   float64
	channelBWLimit  string
)

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Operate on one acquisition channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		if channelEnable && channelDisable {
			return usagef("--enable and --disable are mutually exclusive")
		}
		offsetSet := cmd.Flags().Changed("offset")
		if !channelEnable && !channelDisable && channelCoupling == "" && channelProbe == "" &&
			channelScale == "" && !offsetSet && channelBWLimit == "" {
			return usagef("nothing to do for channel %d", channelNo)
		}

		var coupling scope.Coupling
		if channelCoupling != "" {
			var err error
			if coupling, err = scope.ParseCoupling(channelCoupling); err != nil {
				return usagef("%v", err)
			}
		}
		var probe scope.Probe
		if channelProbe != "" {
			var err error
			if probe, err = scope.ParseProbe(channelProbe); err != nil {
				return usagef("%v", err)
			}
		}
		var scale scope.Scale
		if channelScale != "" {
			var err error
			if scale, err = scope.ParseScale(channelScale); err != nil {
				return usagef("%v", err)
			}
		}
		var bwLimit bool
		if channelBWLimit != "" {
			switch channelBWLimit {
			case "on":
				bwLimit = true
			case "off":
				bwLimit = false
			default:
				return usagef("invalid bandwidth limit %q, want on or off", channelBWLimit)
			}
		}

		d, err := openDevice()
		if err != nil {
			return err
		}
		defer d.Close()

		if channelEnable {
			if err := d.EnableChannel(channelNo); err != nil {
				return err
			}
		}
		if channelDisable {
			if err := d.DisableChannel(channelNo); err != nil {
				return err
			}
		}
		if channelCoupling != "" {
			if err := d.SetCoupling(channelNo, coupling); err != nil {
				return err
			}
		}
		if channelProbe != "" {
			if err := d.SetProbe(channelNo, probe); err != nil {
				return err
			}
		}
		if channelScale != "" {
			if err := d.SetScale(channelNo, scale); err != nil {
				return err
			}
		}
		if offsetSet {
			if err := d.SetOffset(channelNo, channelOffset); err != nil {
				return err
			}
		}
		if channelBWLimit != "" {
			if err := d.SetBandwidthLimit(channelNo, bwLimit); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	channelCmd.Flags().IntVarP(&channelNo, "channel", "c", 1, "Channel number")
	channelCmd.Flags().BoolVar(&channelEnable, "enable", false, "Enable the channel")
	channelCmd.Flags().BoolVar(&channelDisable, "disable", false, "Disable the channel")
	channelCmd.Flags().StringVar(&channelCoupling, "coupling", "", "Coupling (ac, dc, gnd)")
	channelCmd.Flags().StringVar(&channelProbe, "probe", "", "Probe attenuation (x1, x10, x100, x1000)")
	channelCmd.Flags().StringVar(&channelScale, "scale", "", "Vertical scale (10mV .. 10V)")
	channelCmd.Flags().Float64Var(&channelOffset, "offset", 0, "Vertical offset in volts (requires --scale to have been set)")
	channelCmd.Flags().StringVar(&channelBWLimit, "bandwidth-limit", "", "Bandwidth limit (on, off)")
}
