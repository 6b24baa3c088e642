// Package scope is the public command facade: one method per instrument
// operation, each driving a single command through the device session and
// recording the result in a local configuration cache.
package scope

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/hashicorp/go-multierror"

	"github.com/hanteker/hantekgo/pkg/devices"
	"github.com/hanteker/hantekgo/pkg/proto"
	"github.com/hanteker/hantekgo/pkg/session"
	"github.com/hanteker/hantekgo/pkg/usb"
)

// Device is one open instrument. Methods are blocking; the underlying
// session serializes access, so sharing a Device across goroutines is
// safe in the sense that a racing call fails with session.ErrBusy rather
// than corrupting the in-flight command.
type Device struct {
	desc devices.Description
	sess *session.Session
	hw   *usb.Device
	cfg  *Config
}

// Open opens the attached instrument of the given kind.
func Open(kind devices.Kind, opts ...session.Option) (*Device, error) {
	desc, err := devices.ByKind(kind)
	if err != nil {
		return nil, err
	}
	hw, err := usb.Open(desc.VID, desc.PID, desc.Protocol)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", desc.Kind, err)
	}
	glog.Infof("Found %s", desc.Kind)
	d := New(desc, hw, opts...)
	d.hw = hw
	return d, nil
}

// OpenAny scans the device table and opens the first attached instrument.
// Errors from every candidate are accumulated so a permission problem on
// the matching device is not masked by not-found on the others.
func OpenAny(opts ...session.Option) (*Device, error) {
	var errs error
	for _, desc := range devices.Table() {
		hw, err := usb.Open(desc.VID, desc.PID, desc.Protocol)
		if err != nil {
			if !errors.Is(err, usb.ErrNotFound) {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", desc.Kind, err))
			}
			continue
		}
		glog.Infof("Found %s", desc.Kind)
		d := New(desc, hw, opts...)
		d.hw = hw
		return d, nil
	}
	if errs == nil {
		return nil, usb.ErrNotFound
	}
	return nil, errs
}

// New builds a Device over an already-open transport. The transport is
// owned by the returned Device from here on.
func New(desc devices.Description, t session.Transport, opts ...session.Option) *Device {
	return &Device{
		desc: desc,
		sess: session.New(t, desc.Protocol, opts...),
		cfg:  newConfig(desc.Channels),
	}
}

// Close releases the session and its transport. Idempotent.
func (d *Device) Close() error {
	return d.sess.Close()
}

// Description returns the instrument model this device was opened as.
func (d *Device) Description() devices.Description { return d.desc }

// Config exposes the last-observed instrument configuration.
func (d *Device) Config() *Config { return d.cfg }

// Start puts the scope into acquisition.
func (d *Device) Start() error {
	glog.V(1).Infof("Setting device to Start")
	if err := d.sess.Send(proto.Start()); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	d.cfg.Running = ptr(true)
	return nil
}

// Stop halts acquisition.
func (d *Device) Stop() error {
	glog.V(1).Infof("Setting device to Stop")
	if err := d.sess.Send(proto.Stop()); err != nil {
		return fmt.Errorf("failed to stop: %w", err)
	}
	d.cfg.Running = ptr(false)
	return nil
}

// SetScreenMode switches the instrument between its scope, DMM and AWG
// functions.
func (d *Device) SetScreenMode(m ScreenMode) error {
	glog.V(1).Infof("Setting screen mode, mode=%s", m)
	if err := d.sess.Send(proto.ScreenMode(byte(m))); err != nil {
		return fmt.Errorf("failed to set screen mode %s: %w", m, err)
	}
	d.cfg.Screen = &m
	return nil
}

// Status refreshes and returns the per-channel enable states. Instruments
// whose protocol table declares no response report from the cache alone.
func (d *Device) Status() (map[int]ChannelState, error) {
	if d.desc.Protocol.Ack.Length > 0 {
		raw, err := d.sess.SendReply(proto.QueryStatus(), d.desc.Protocol.Ack.Length+d.desc.Channels)
		if err != nil {
			return nil, fmt.Errorf("failed to query status: %w", err)
		}
		decoded, err := proto.DecodeStatus(d.desc, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to query status: %w", err)
		}
		for n, st := range decoded {
			if ch, ok := d.cfg.Channels[n]; ok {
				ch.State = st
			}
		}
	}

	states := make(map[int]ChannelState, d.desc.Channels)
	for n, ch := range d.cfg.Channels {
		states[n] = ch.State
	}
	return states, nil
}

// Info renders the device identity for display. USB descriptor details are
// only available when the Device was opened over real hardware.
func (d *Device) Info() string {
	var b strings.Builder
	fmt.Fprintf(&b, "model=%s channels=%d protocol=v%d\n", d.desc.Kind, d.desc.Channels, d.desc.Protocol.Version)
	if d.hw != nil {
		b.WriteString(d.hw.Info().String())
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Summary renders the cached configuration, one line per known setting.
func (d *Device) Summary() string {
	var b strings.Builder

	if d.cfg.Running != nil {
		fmt.Fprintf(&b, "running=%v\n", *d.cfg.Running)
	}
	if d.cfg.Screen != nil {
		fmt.Fprintf(&b, "screen=%s\n", *d.cfg.Screen)
	}

	chans := make([]int, 0, len(d.cfg.Channels))
	for n := range d.cfg.Channels {
		chans = append(chans, n)
	}
	sort.Ints(chans)
	for _, n := range chans {
		ch := d.cfg.Channels[n]
		fmt.Fprintf(&b, "channel %d: %s", n, ch.State)
		if ch.Coupling != nil {
			fmt.Fprintf(&b, " coupling=%s", *ch.Coupling)
		}
		if ch.Probe != nil {
			fmt.Fprintf(&b, " probe=%s", *ch.Probe)
		}
		if ch.Scale != nil {
			fmt.Fprintf(&b, " scale=%s", *ch.Scale)
		}
		if ch.Offset != nil {
			fmt.Fprintf(&b, " offset=%gV", *ch.Offset)
		}
		if ch.BandwidthLimit != nil {
			fmt.Fprintf(&b, " bwlimit=%v", *ch.BandwidthLimit)
		}
		b.WriteString("\n")
	}

	if d.cfg.TimeScale != nil {
		fmt.Fprintf(&b, "time scale=%s\n", *d.cfg.TimeScale)
	}
	if d.cfg.TimeOffset != nil {
		fmt.Fprintf(&b, "time offset=%g\n", *d.cfg.TimeOffset)
	}
	if d.cfg.TriggerSource != nil {
		fmt.Fprintf(&b, "trigger source=channel %d\n", *d.cfg.TriggerSource)
	}
	if d.cfg.TriggerSlope != nil {
		fmt.Fprintf(&b, "trigger slope=%s\n", *d.cfg.TriggerSlope)
	}
	if d.cfg.TriggerMode != nil {
		fmt.Fprintf(&b, "trigger mode=%s\n", *d.cfg.TriggerMode)
	}
	if d.cfg.TriggerLevel != nil {
		fmt.Fprintf(&b, "trigger level=%gV\n", *d.cfg.TriggerLevel)
	}
	if d.cfg.AWG.Type != nil {
		fmt.Fprintf(&b, "awg type=%s\n", *d.cfg.AWG.Type)
	}
	if d.cfg.AWG.Running != nil {
		fmt.Fprintf(&b, "awg running=%v\n", *d.cfg.AWG.Running)
	}

	return strings.TrimRight(b.String(), "\n")
}

func ptr[T any](v T) *T { return &v }
