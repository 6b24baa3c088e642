package main

import (
	"github.com/spf13/cobra"

	"github.com/hanteker/hantekgo/pkg/scope"
)

var (
	scopeTimeScale     string
	scopeTimeOffset    float64
	scopeTriggerSource int
	scopeTriggerSlope  string
	scopeTriggerMode   string
	scopeTriggerLevel  float64
)

var scopeCmd = &cobra.Command{
	Use:   "scope",
	Short: "Operate on the scope function: time base and trigger",
	RunE: func(cmd *cobra.Command, args []string) error {
		timeOffsetSet := cmd.Flags().Changed("time-offset")
		triggerSourceSet := cmd.Flags().Changed("trigger-source")
		triggerLevelSet := cmd.Flags().Changed("trigger-level")
		if scopeTimeScale == "" && !timeOffsetSet && !triggerSourceSet &&
			scopeTriggerSlope == "" && scopeTriggerMode == "" && !triggerLevelSet {
			return usagef("nothing to do: pass a time base or trigger flag")
		}

		var timeScale scope.TimeScale
		if scopeTimeScale != "" {
			var err error
			if timeScale, err = scope.ParseTimeScale(scopeTimeScale); err != nil {
				return usagef("%v", err)
			}
		}
		var slope scope.TriggerSlope
		if scopeTriggerSlope != "" {
			var err error
			if slope, err = scope.ParseTriggerSlope(scopeTriggerSlope); err != nil {
				return usagef("%v", err)
			}
		}
		var mode scope.TriggerMode
		if scopeTriggerMode != "" {
			var err error
			if mode, err = scope.ParseTriggerMode(scopeTriggerMode); err != nil {
				return usagef("%v", err)
			}
		}

		d, err := openDevice()
		if err != nil {
			return err
		}
		defer d.Close()

		if scopeTimeScale != "" {
			if err := d.SetTimeScale(timeScale); err != nil {
				return err
			}
		}
		if timeOffsetSet {
			if err := d.SetTimeOffset(scopeTimeOffset); err != nil {
				return err
			}
		}
		if triggerSourceSet {
			if err := d.SetTriggerSource(scopeTriggerSource); err != nil {
				return err
			}
		}
		if scopeTriggerSlope != "" {
			if err := d.SetTriggerSlope(slope); err != nil {
				return err
			}
		}
		if scopeTriggerMode != "" {
			if err := d.SetTriggerMode(mode); err != nil {
				return err
			}
		}
		if triggerLevelSet {
			if err := d.SetTriggerLevel(scopeTriggerLevel); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	scopeCmd.Flags().StringVar(&scopeTimeScale, "time-scale", "", "Time base (5ns .. 500s)")
	scopeCmd.Flags().Float64Var(&scopeTimeOffset, "time-offset", 0, "Horizontal offset (requires --time-scale to have been set)")
	scopeCmd.Flags().IntVar(&scopeTriggerSource, "trigger-source", 1, "Trigger source channel")
	scopeCmd.Flags().StringVar(&scopeTriggerSlope, "trigger-slope", "", "Trigger slope (rising, falling, both)")
	scopeCmd.Flags().StringVar(&scopeTriggerMode, "trigger-mode", "", "Trigger mode (auto, normal, single)")
	scopeCmd.Flags().Float64Var(&scopeTriggerLevel, "trigger-level", 0, "Trigger level in volts")
}
