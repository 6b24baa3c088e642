package main

import (
	"github.com/spf13/cobra"

	"github.com/hanteker/hantekgo/pkg/scope"
)

var (
	awgType       string
	awgFrequency  float64
	awgAmplitude  float64
	awgOffset     float64
	awgDutySquare float64
	awgDutyRamp   float64
	awgTrapHigh   float64
	awgTrapLow    float64
	awgTrapRise   float64
	awgStart      bool
	awgStop       bool
)

var awgCmd = &cobra.Command{
	Use:   "awg",
	Short: "Operate on the arbitrary waveform generator",
	RunE: func(cmd *cobra.Command, args []string) error {
		if awgStart && awgStop {
			return usagef("--start and --stop are mutually exclusive")
		}
		trapSet := cmd.Flags().Changed("duty-trap-high") || cmd.Flags().Changed("duty-trap-low") ||
			cmd.Flags().Changed("duty-trap-rise")
		if trapSet && !(cmd.Flags().Changed("duty-trap-high") && cmd.Flags().Changed("duty-trap-low") &&
			cmd.Flags().Changed("duty-trap-rise")) {
			return usagef("--duty-trap-high, --duty-trap-low and --duty-trap-rise must be given together")
		}

		var typ scope.AWGType
		if awgType != "" {
			var err error
			if typ, err = scope.ParseAWGType(awgType); err != nil {
				return usagef("%v", err)
			}
		}

		d, err := openDevice()
		if err != nil {
			return err
		}
		defer d.Close()

		if awgType != "" {
			if err := d.SetAWGType(typ); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("frequency") {
			if err := d.SetAWGFrequency(awgFrequency); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("amplitude") {
			if err := d.SetAWGAmplitude(awgAmplitude); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("offset") {
			if err := d.SetAWGOffset(awgOffset); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("duty-square") {
			if err := d.SetAWGDutySquare(awgDutySquare); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("duty-ramp") {
			if err := d.SetAWGDutyRamp(awgDutyRamp); err != nil {
				return err
			}
		}
		if trapSet {
			if err := d.SetAWGDutyTrap(awgTrapHigh, awgTrapLow, awgTrapRise); err != nil {
				return err
			}
		}
		if awgStart {
			return d.StartAWG()
		}
		if awgStop {
			return d.StopAWG()
		}
		return nil
	},
}

func init() {
	awgCmd.Flags().StringVarP(&awgType, "type", "t", "", "Waveform type (square, ramp, sin, trap, arb1-arb4)")
	awgCmd.Flags().Float64Var(&awgFrequency, "frequency", 0, "Frequency in Hz")
	awgCmd.Flags().Float64VarP(&awgAmplitude, "amplitude", "a", 0, "Amplitude in volts")
	awgCmd.Flags().Float64VarP(&awgOffset, "offset", "o", 0, "Offset in volts")
	awgCmd.Flags().Float64Var(&awgDutySquare, "duty-square", 0, "Square duty cycle as a fraction (0-1)")
	awgCmd.Flags().Float64Var(&awgDutyRamp, "duty-ramp", 0, "Ramp duty cycle as a fraction (0-1)")
	awgCmd.Flags().Float64Var(&awgTrapHigh, "duty-trap-high", 0, "Trapezoid high fraction (0-1)")
	awgCmd.Flags().Float64Var(&awgTrapLow, "duty-trap-low", 0, "Trapezoid low fraction (0-1)")
	awgCmd.Flags().Float64Var(&awgTrapRise, "duty-trap-rise", 0, "Trapezoid rise fraction (0-1)")
	awgCmd.Flags().BoolVar(&awgStart, "start", false, "Start the generator")
	awgCmd.Flags().BoolVar(&awgStop, "stop", false, "Stop the generator")
}
