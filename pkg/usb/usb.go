// Package usb is the transport layer: it opens a single Hantek instrument
// by vendor/product ID, claims its default interface, and exposes blocking
// bulk writes and reads with per-operation timeouts. All libusb errors are
// classified into a small set of sentinels so callers can tell "plug it
// in" from "run with the right permissions" from "try again".
package usb

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/google/gousb"
	"github.com/hashicorp/go-multierror"

	"github.com/hanteker/hantekgo/pkg/devices"
)

// Device is an open, claimed USB handle to exactly one instrument. It is
// not safe for concurrent use; the session layer serializes access.
type Device struct {
	ctx    *gousb.Context
	dev    *gousb.Device
	done   func()
	out    *gousb.OutEndpoint
	in     *gousb.InEndpoint
	closed bool
}

// Open locates the single device matching vid:pid, claims its default
// interface and resolves the bulk endpoints named by the protocol table.
// Fails with ErrNotFound, ErrPermission or ErrInUse as appropriate.
func Open(vid, pid gousb.ID, proto devices.Protocol) (*Device, error) {
	ctx, err := newContext()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize USB: %w", err)
	}

	dev, err := ctx.OpenDeviceWithVIDPID(vid, pid)
	if err != nil {
		ctx.Close()
		return nil, classifyOpen(err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("%w: no device matching %s:%s", ErrNotFound, vid, pid)
	}

	intf, done, err := dev.DefaultInterface()
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, classifyOpen(err)
	}

	out, err := intf.OutEndpoint(proto.OutEndpoint)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("%w: no bulk OUT endpoint %d: %v", ErrIO, proto.OutEndpoint, err)
	}

	var in *gousb.InEndpoint
	if proto.Ack.Length > 0 || proto.InEndpoint > 0 {
		in, err = intf.InEndpoint(proto.InEndpoint)
		if err != nil {
			done()
			dev.Close()
			ctx.Close()
			return nil, fmt.Errorf("%w: no bulk IN endpoint %d: %v", ErrIO, proto.InEndpoint, err)
		}
	}

	glog.V(1).Infof("Opened %s:%s, bus=%03d address=%03d", vid, pid, dev.Desc.Bus, dev.Desc.Address)
	return &Device{ctx: ctx, dev: dev, done: done, out: out, in: in}, nil
}

// Write sends one command buffer on the bulk OUT endpoint, blocking until
// the transfer completes or the timeout expires.
func (d *Device) Write(p []byte, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := d.out.WriteContext(ctx, p)
	if err != nil {
		return classifyTransfer(err)
	}
	if n != len(p) {
		return fmt.Errorf("%w: short write (%d of %d bytes)", ErrIO, n, len(p))
	}
	return nil
}

// Read fills p from the bulk IN endpoint, blocking until data arrives or
// the timeout expires. Returns the number of bytes read.
func (d *Device) Read(p []byte, timeout time.Duration) (int, error) {
	if d.in == nil {
		return 0, fmt.Errorf("%w: device has no IN endpoint configured", ErrIO)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	n, err := d.in.ReadContext(ctx, p)
	if err != nil {
		return n, classifyTransfer(err)
	}
	return n, nil
}

// Info describes the opened device for display purposes. Descriptor
// strings may be empty when the device does not provide them.
type Info struct {
	Bus, Address int
	VID, PID     gousb.ID
	Speed        string
	Manufacturer string
	Product      string
}

func (i Info) String() string {
	return fmt.Sprintf("USB Bus=%03d Device=%03d ID=%s:%s Speed=%s\nmanufacturer=%s\nproduct=%s",
		i.Bus, i.Address, i.VID, i.PID, i.Speed, i.Manufacturer, i.Product)
}

func (d *Device) Info() Info {
	info := Info{
		Bus:     d.dev.Desc.Bus,
		Address: d.dev.Desc.Address,
		VID:     d.dev.Desc.Vendor,
		PID:     d.dev.Desc.Product,
		Speed:   fmt.Sprintf("%v", d.dev.Desc.Speed),
	}
	if s, err := d.dev.Manufacturer(); err == nil {
		info.Manufacturer = s
	}
	if s, err := d.dev.Product(); err == nil {
		info.Product = s
	}
	return info
}

// Close releases the interface claim, the device and the USB context.
// Idempotent.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var errs error
	if d.done != nil {
		d.done()
		d.done = nil
	}
	if err := d.dev.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("when closing device: %w", err))
	}
	if err := d.ctx.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("when closing context: %w", err))
	}
	return errs
}

// newContext initializes libusb on a separate goroutine so an unusable
// libusb install surfaces as an error instead of a panic.
func newContext() (*gousb.Context, error) {
	resC := make(chan *gousb.Context)
	errC := make(chan error)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errC <- fmt.Errorf("%v", r)
			}
		}()

		resC <- gousb.NewContext()
	}()

	select {
	case err := <-errC:
		return nil, err
	case res := <-resC:
		return res, nil
	}
}
