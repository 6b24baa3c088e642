package scope

import (
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/hanteker/hantekgo/pkg/proto"
)

// SetTimeScale sets the horizontal time base and records the offset window
// subsequent SetTimeOffset calls are mapped onto (±15 divisions of the raw
// time-base code, matching the instrument firmware's arithmetic).
func (d *Device) SetTimeScale(t TimeScale) error {
	glog.V(1).Infof("Setting time scale, time_scale=%s", t)
	if err := d.sess.Send(proto.TimeScale(byte(t))); err != nil {
		return fmt.Errorf("failed to set time scale %s: %w", t, err)
	}
	d.cfg.TimeScale = &t
	raw := float64(t)
	d.cfg.timeAdj = &Adjustment{Upper: 15 * raw, Lower: -15 * raw}
	return nil
}

// SetTimeOffset moves the horizontal offset. Requires a time scale to have
// been set through this Device first.
func (d *Device) SetTimeOffset(offset float64) error {
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		return fmt.Errorf("invalid time offset: %v", offset)
	}
	if d.cfg.timeAdj == nil {
		return fmt.Errorf("cannot set time offset: no time scale recorded yet")
	}
	if !d.cfg.timeAdj.usable() {
		return fmt.Errorf("cannot set time offset: offset window is unusable")
	}

	adj := *d.cfg.timeAdj
	raw := offset - adj.Lower/15*6
	raw *= 15 * 2 * 25
	raw /= adj.Upper - adj.Lower
	raw = math.Round(raw)
	if raw < 0 || raw > math.MaxUint32 {
		return fmt.Errorf("time offset %g out of range [%g, %g]", offset, adj.Lower, adj.Upper)
	}

	glog.V(1).Infof("Setting time offset, offset=%g raw=%d", offset, uint32(raw))
	if err := d.sess.Send(proto.TimeOffset(uint32(raw))); err != nil {
		return fmt.Errorf("failed to set time offset: %w", err)
	}
	d.cfg.TimeOffset = &offset
	return nil
}

// SetTriggerSource selects the trigger channel and records the level
// window from that channel's scale, which must have been set first.
func (d *Device) SetTriggerSource(n int) error {
	ch, err := d.channel(n)
	if err != nil {
		return err
	}
	if ch.Scale == nil {
		return fmt.Errorf("cannot use channel %d as trigger source: no scale recorded yet", n)
	}
	cmd, err := proto.TriggerSource(d.desc.Channels, n)
	if err != nil {
		return err
	}
	glog.V(1).Infof("Setting trigger source, channel=%d", n)
	if err := d.sess.Send(cmd); err != nil {
		return fmt.Errorf("failed to set trigger source: %w", err)
	}
	d.cfg.TriggerSource = &n
	volts := ch.Scale.Volts()
	d.cfg.triggerAdj = &Adjustment{Upper: 4 * volts, Lower: -4 * volts}
	return nil
}

func (d *Device) SetTriggerSlope(s TriggerSlope) error {
	glog.V(1).Infof("Setting trigger slope, slope=%s", s)
	if err := d.sess.Send(proto.TriggerSlope(byte(s))); err != nil {
		return fmt.Errorf("failed to set trigger slope %s: %w", s, err)
	}
	d.cfg.TriggerSlope = &s
	return nil
}

func (d *Device) SetTriggerMode(m TriggerMode) error {
	glog.V(1).Infof("Setting trigger mode, mode=%s", m)
	if err := d.sess.Send(proto.TriggerMode(byte(m))); err != nil {
		return fmt.Errorf("failed to set trigger mode %s: %w", m, err)
	}
	d.cfg.TriggerMode = &m
	return nil
}

// SetTriggerLevel sets the trigger threshold in volts, mapped into the
// window recorded by SetTriggerSource.
func (d *Device) SetTriggerLevel(level float64) error {
	if math.IsNaN(level) || math.IsInf(level, 0) {
		return fmt.Errorf("invalid trigger level: %v", level)
	}
	if d.cfg.triggerAdj == nil {
		return fmt.Errorf("cannot set trigger level: no trigger source recorded yet")
	}
	if !d.cfg.triggerAdj.usable() {
		return fmt.Errorf("cannot set trigger level: level window is unusable")
	}

	adj := *d.cfg.triggerAdj
	raw := (level - adj.Lower) * 200 / (adj.Upper - adj.Lower)
	if raw < 0 || raw > 255 {
		return fmt.Errorf("trigger level %gV out of range [%g, %g]", level, adj.Lower, adj.Upper)
	}

	glog.V(1).Infof("Setting trigger level, level=%g raw=%d", level, byte(raw))
	if err := d.sess.Send(proto.TriggerLevel(byte(raw))); err != nil {
		return fmt.Errorf("failed to set trigger level: %w", err)
	}
	d.cfg.TriggerLevel = &level
	return nil
}
