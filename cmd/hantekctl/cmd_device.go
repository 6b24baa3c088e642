package main

import (
	"github.com/spf13/cobra"

	"github.com/hanteker/hantekgo/pkg/scope"
)

var (
	deviceStart bool
	deviceStop  bool
	deviceMode  string
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Operate on the instrument itself",
	RunE: func(cmd *cobra.Command, args []string) error {
		if deviceStart && deviceStop {
			return usagef("--start and --stop are mutually exclusive")
		}
		if !deviceStart && !deviceStop && deviceMode == "" {
			return usagef("nothing to do: pass --start, --stop or --mode")
		}

		var mode scope.ScreenMode
		if deviceMode != "" {
			var err error
			mode, err = scope.ParseScreenMode(deviceMode)
			if err != nil {
				return usagef("%v", err)
			}
		}

		d, err := openDevice()
		if err != nil {
			return err
		}
		defer d.Close()

		if deviceMode != "" {
			if err := d.SetScreenMode(mode); err != nil {
				return err
			}
		}
		if deviceStart {
			return d.Start()
		}
		if deviceStop {
			return d.Stop()
		}
		return nil
	},
}

func init() {
	deviceCmd.Flags().BoolVar(&deviceStart, "start", false, "Start acquisition")
	deviceCmd.Flags().BoolVar(&deviceStop, "stop", false, "Stop acquisition")
	deviceCmd.Flags().StringVarP(&deviceMode, "mode", "m", "", "Switch device function (scope, dmm, awg)")
}
