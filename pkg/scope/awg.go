package scope

import (
	"fmt"
	"math"

	"github.com/golang/glog"

	"github.com/hanteker/hantekgo/pkg/proto"
)

// dutyByte converts a 0..1 fraction to the whole-percent byte the AWG
// expects.
func dutyByte(duty float64, what string) (byte, error) {
	if math.IsNaN(duty) || duty < 0 || duty > 1 {
		return 0, fmt.Errorf("invalid %s %v, want a fraction in [0, 1]", what, duty)
	}
	return byte(math.Round(duty * 100)), nil
}

// voltWords converts volts to the millivolt-magnitude and sign words the
// AWG amplitude/offset commands carry.
func voltWords(volts float64, what string) (uint16, bool, error) {
	if math.IsNaN(volts) || math.IsInf(volts, 0) {
		return 0, false, fmt.Errorf("invalid %s: %v", what, volts)
	}
	mv := math.Abs(volts) * 1000
	if mv > math.MaxUint16 {
		return 0, false, fmt.Errorf("%s %gV out of range", what, volts)
	}
	return uint16(mv), math.Signbit(volts), nil
}

func (d *Device) SetAWGType(t AWGType) error {
	glog.V(1).Infof("Setting awg type, type=%s", t)
	if err := d.sess.Send(proto.AWGType(byte(t))); err != nil {
		return fmt.Errorf("failed to set awg type %s: %w", t, err)
	}
	d.cfg.AWG.Type = &t
	return nil
}

func (d *Device) SetAWGFrequency(hz float64) error {
	if math.IsNaN(hz) || hz < 0 || hz > math.MaxUint32 {
		return fmt.Errorf("invalid awg frequency: %v", hz)
	}
	glog.V(1).Infof("Setting awg frequency, frequency=%g", hz)
	if err := d.sess.Send(proto.AWGFrequency(uint32(hz))); err != nil {
		return fmt.Errorf("failed to set awg frequency: %w", err)
	}
	d.cfg.AWG.Frequency = &hz
	return nil
}

func (d *Device) SetAWGAmplitude(volts float64) error {
	mv, neg, err := voltWords(volts, "awg amplitude")
	if err != nil {
		return err
	}
	glog.V(1).Infof("Setting awg amplitude, amplitude=%g raw=%d/%v", volts, mv, neg)
	if err := d.sess.Send(proto.AWGAmplitude(mv, neg)); err != nil {
		return fmt.Errorf("failed to set awg amplitude: %w", err)
	}
	d.cfg.AWG.Amplitude = &volts
	return nil
}

func (d *Device) SetAWGOffset(volts float64) error {
	mv, neg, err := voltWords(volts, "awg offset")
	if err != nil {
		return err
	}
	glog.V(1).Infof("Setting awg offset, offset=%g raw=%d/%v", volts, mv, neg)
	if err := d.sess.Send(proto.AWGOffset(mv, neg)); err != nil {
		return fmt.Errorf("failed to set awg offset: %w", err)
	}
	d.cfg.AWG.Offset = &volts
	return nil
}

func (d *Device) SetAWGDutySquare(duty float64) error {
	raw, err := dutyByte(duty, "square duty")
	if err != nil {
		return err
	}
	glog.V(1).Infof("Setting awg square duty, duty=%g raw=%d", duty, raw)
	if err := d.sess.Send(proto.AWGDutySquare(uint16(raw))); err != nil {
		return fmt.Errorf("failed to set awg square duty: %w", err)
	}
	d.cfg.AWG.DutySquare = &duty
	return nil
}

func (d *Device) SetAWGDutyRamp(duty float64) error {
	raw, err := dutyByte(duty, "ramp duty")
	if err != nil {
		return err
	}
	glog.V(1).Infof("Setting awg ramp duty, duty=%g raw=%d", duty, raw)
	if err := d.sess.Send(proto.AWGDutyRamp(uint16(raw))); err != nil {
		return fmt.Errorf("failed to set awg ramp duty: %w", err)
	}
	d.cfg.AWG.DutyRamp = &duty
	return nil
}

func (d *Device) SetAWGDutyTrap(high, low, rise float64) error {
	rawHigh, err := dutyByte(high, "trap duty high")
	if err != nil {
		return err
	}
	rawLow, err := dutyByte(low, "trap duty low")
	if err != nil {
		return err
	}
	rawRise, err := dutyByte(rise, "trap duty rise")
	if err != nil {
		return err
	}
	glog.V(1).Infof("Setting awg trap duty, high=%g low=%g rise=%g", high, low, rise)
	if err := d.sess.Send(proto.AWGDutyTrap(rawRise, rawHigh, rawLow)); err != nil {
		return fmt.Errorf("failed to set awg trap duty: %w", err)
	}
	d.cfg.AWG.DutyTrap = &TrapDuty{High: high, Low: low, Rise: rise}
	return nil
}

func (d *Device) StartAWG() error {
	glog.V(1).Infof("Setting awg to Start")
	if err := d.sess.Send(proto.AWGStart()); err != nil {
		return fmt.Errorf("failed to start awg: %w", err)
	}
	d.cfg.AWG.Running = ptr(true)
	return nil
}

func (d *Device) StopAWG() error {
	glog.V(1).Infof("Setting awg to Stop")
	if err := d.sess.Send(proto.AWGStop()); err != nil {
		return fmt.Errorf("failed to stop awg: %w", err)
	}
	d.cfg.AWG.Running = ptr(false)
	return nil
}
