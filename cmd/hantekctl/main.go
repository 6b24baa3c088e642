package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hanteker/hantekgo/pkg/proto"
	"github.com/hanteker/hantekgo/pkg/session"
	"github.com/hanteker/hantekgo/pkg/usb"
)

var rootCmd = &cobra.Command{
	Use:   "hantekctl",
	Short: "hantekctl controls Hantek handheld oscilloscopes over USB",
	Long: `Control a Hantek handheld oscilloscope/AWG/DMM combo over USB: start and
stop acquisition, configure channels, time base, trigger and the waveform
generator.

Accessing the device usually needs a udev rule or elevated privileges.`,
	SilenceUsage: true,
}

var (
	flagTimeout uint
	flagKind    string
)

func main() {
	rootCmd.PersistentFlags().UintVar(&flagTimeout, "timeout", 1000, "USB I/O timeout in milliseconds")
	rootCmd.PersistentFlags().StringVar(&flagKind, "kind", "", "Instrument model to open (default: scan the device table)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(deviceCmd)
	rootCmd.AddCommand(channelCmd)
	rootCmd.AddCommand(scopeCmd)
	rootCmd.AddCommand(awgCmd)
	rootCmd.AddCommand(printCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func init() {
	// Bridges glog's -v/-logtostderr flags into cobra's flag set.
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
}

// usageError marks caller mistakes that warrant the usage exit code.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func exitCode(err error) int {
	var ue *usageError
	var de *proto.DeviceError
	switch {
	case errors.As(err, &ue), errors.Is(err, proto.ErrInvalidChannel):
		return 2
	case errors.Is(err, usb.ErrNotFound):
		return 3
	case errors.Is(err, usb.ErrPermission):
		return 4
	case errors.Is(err, usb.ErrInUse):
		return 5
	case errors.Is(err, session.ErrCommunication), errors.Is(err, usb.ErrTimeout),
		errors.Is(err, usb.ErrDetached), errors.Is(err, usb.ErrIO):
		return 6
	case errors.Is(err, proto.ErrProtocol), errors.As(err, &de):
		return 7
	}
	return 1
}
