package scope

import (
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/hanteker/hantekgo/pkg/proto"
)

// channel validates the index against the instrument before any command is
// built, so a bad index never reaches the transport.
func (d *Device) channel(n int) (*ChannelConfig, error) {
	ch, ok := d.cfg.Channels[n]
	if !ok {
		return nil, fmt.Errorf("%w: channel %d, instrument has %d", proto.ErrInvalidChannel, n, d.desc.Channels)
	}
	return ch, nil
}

// EnableChannel turns acquisition channel n on.
func (d *Device) EnableChannel(n int) error {
	ch, err := d.channel(n)
	if err != nil {
		return err
	}
	cmd, err := proto.EnableChannel(d.desc.Channels, n)
	if err != nil {
		return err
	}
	glog.V(1).Infof("Enabling channel, channel=%d", n)
	if err := d.sess.Send(cmd); err != nil {
		return fmt.Errorf("failed to enable channel %d: %w", n, err)
	}
	ch.State = ChannelEnabled
	return nil
}

// DisableChannel turns acquisition channel n off.
func (d *Device) DisableChannel(n int) error {
	ch, err := d.channel(n)
	if err != nil {
		return err
	}
	cmd, err := proto.DisableChannel(d.desc.Channels, n)
	if err != nil {
		return err
	}
	glog.V(1).Infof("Disabling channel, channel=%d", n)
	if err := d.sess.Send(cmd); err != nil {
		return fmt.Errorf("failed to disable channel %d: %w", n, err)
	}
	ch.State = ChannelDisabled
	return nil
}

func (d *Device) SetCoupling(n int, c Coupling) error {
	ch, err := d.channel(n)
	if err != nil {
		return err
	}
	cmd, err := proto.ChannelCoupling(d.desc.Channels, n, byte(c))
	if err != nil {
		return err
	}
	glog.V(1).Infof("Setting coupling, channel=%d coupling=%s", n, c)
	if err := d.sess.Send(cmd); err != nil {
		return fmt.Errorf("failed to set channel %d coupling: %w", n, err)
	}
	ch.Coupling = &c
	return nil
}

func (d *Device) SetProbe(n int, p Probe) error {
	ch, err := d.channel(n)
	if err != nil {
		return err
	}
	cmd, err := proto.ChannelProbe(d.desc.Channels, n, byte(p))
	if err != nil {
		return err
	}
	glog.V(1).Infof("Setting probe, channel=%d probe=%s", n, p)
	if err := d.sess.Send(cmd); err != nil {
		return fmt.Errorf("failed to set channel %d probe: %w", n, err)
	}
	ch.Probe = &p
	return nil
}

// SetScale sets the vertical sensitivity and records the offset window the
// instrument will map subsequent SetOffset calls onto (±4 divisions).
func (d *Device) SetScale(n int, s Scale) error {
	ch, err := d.channel(n)
	if err != nil {
		return err
	}
	cmd, err := proto.ChannelScale(d.desc.Channels, n, byte(s))
	if err != nil {
		return err
	}
	glog.V(1).Infof("Setting scale, channel=%d scale=%s", n, s)
	if err := d.sess.Send(cmd); err != nil {
		return fmt.Errorf("failed to set channel %d scale: %w", n, err)
	}
	ch.Scale = &s
	ch.offsetAdj = &Adjustment{Upper: 4 * s.Volts(), Lower: -4 * s.Volts()}
	return nil
}

// SetOffset moves the channel's vertical offset, in volts. Requires a
// scale to have been set through this Device first: the instrument takes
// the offset as a 0-200 position inside the scale-dependent window.
func (d *Device) SetOffset(n int, offset float64) error {
	ch, err := d.channel(n)
	if err != nil {
		return err
	}
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return fmt.Errorf("invalid offset for channel %d: %v", n, offset)
	}
	if ch.offsetAdj == nil {
		return fmt.Errorf("cannot set offset for channel %d: no scale recorded yet", n)
	}
	if !ch.offsetAdj.usable() {
		return fmt.Errorf("cannot set offset for channel %d: offset window is unusable", n)
	}

	adj := *ch.offsetAdj
	raw := (offset - adj.Lower) * 200 / (adj.Upper - adj.Lower)
	if raw < 0 || raw > 255 {
		return fmt.Errorf("offset %gV out of range [%g, %g] for channel %d", offset, adj.Lower, adj.Upper, n)
	}

	cmd, err := proto.ChannelOffset(d.desc.Channels, n, byte(raw))
	if err != nil {
		return err
	}
	glog.V(1).Infof("Setting offset, channel=%d offset=%g raw=%d", n, offset, byte(raw))
	if err := d.sess.Send(cmd); err != nil {
		return fmt.Errorf("failed to set channel %d offset: %w", n, err)
	}
	ch.Offset = &offset
	return nil
}

func (d *Device) SetBandwidthLimit(n int, on bool) error {
	ch, err := d.channel(n)
	if err != nil {
		return err
	}
	cmd, err := proto.ChannelBandwidthLimit(d.desc.Channels, n, on)
	if err != nil {
		return err
	}
	glog.V(1).Infof("Setting bandwidth limit, channel=%d on=%v", n, on)
	if err := d.sess.Send(cmd); err != nil {
		return fmt.Errorf("failed to set channel %d bandwidth limit: %w", n, err)
	}
	ch.BandwidthLimit = &on
	return nil
}
