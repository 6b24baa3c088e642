package usb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/gousb"
)

var (
	// ErrNotFound means no attached USB device matched the requested
	// vendor/product identifiers.
	ErrNotFound = errors.New("device not found")

	// ErrPermission means the OS denied access to the device node. On
	// Linux this usually means a missing udev rule or running without
	// elevated privileges.
	ErrPermission = errors.New("permission denied opening device")

	// ErrInUse means another process or session holds the interface.
	ErrInUse = errors.New("device interface already in use")

	// ErrTimeout is a transfer that did not complete in time.
	ErrTimeout = errors.New("usb transfer timed out")

	// ErrIO is any other transport-level transfer failure.
	ErrIO = errors.New("usb i/o error")

	// ErrDetached means the device disappeared from the bus; the handle
	// is dead and no further transfers can succeed.
	ErrDetached = errors.New("device detached")
)

// classifyOpen maps gousb/libusb errors raised while opening and claiming
// a device onto the package sentinels.
func classifyOpen(err error) error {
	switch {
	case errors.Is(err, gousb.ErrorAccess):
		return fmt.Errorf("%w: %v", ErrPermission, err)
	case errors.Is(err, gousb.ErrorBusy):
		return fmt.Errorf("%w: %v", ErrInUse, err)
	case errors.Is(err, gousb.ErrorNoDevice), errors.Is(err, gousb.ErrorNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
}

// classifyTransfer maps transfer errors. Context expiry is how gousb
// reports our per-operation deadline.
func classifyTransfer(err error) error {
	switch {
	case errors.Is(err, gousb.ErrorTimeout), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, gousb.ErrorNoDevice):
		return fmt.Errorf("%w: %v", ErrDetached, err)
	default:
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
}
