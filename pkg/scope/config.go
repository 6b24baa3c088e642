package scope

import (
	"fmt"
	"math"
	"strings"

	"github.com/hanteker/hantekgo/pkg/proto"
)

// ChannelState is the last-observed acquisition state of one channel,
// re-exported from the codec that decodes it off the wire.
type ChannelState = proto.ChannelState

const (
	ChannelUnknown  = proto.ChannelUnknown
	ChannelDisabled = proto.ChannelDisabled
	ChannelEnabled  = proto.ChannelEnabled
)

// ScreenMode selects which of the instrument's functions owns the screen.
type ScreenMode byte

const (
	ScreenScope ScreenMode = 0x00
	ScreenDMM   ScreenMode = 0x01
	ScreenAWG   ScreenMode = 0x02
)

var screenModeNames = map[ScreenMode]string{
	ScreenScope: "scope",
	ScreenDMM:   "dmm",
	ScreenAWG:   "awg",
}

func (m ScreenMode) String() string { return enumName(screenModeNames, m) }

func ParseScreenMode(s string) (ScreenMode, error) { return parseEnum(screenModeNames, s, "mode") }

type Coupling byte

const (
	CouplingAC  Coupling = 0x00
	CouplingDC  Coupling = 0x01
	CouplingGND Coupling = 0x02
)

var couplingNames = map[Coupling]string{
	CouplingAC:  "ac",
	CouplingDC:  "dc",
	CouplingGND: "gnd",
}

func (c Coupling) String() string { return enumName(couplingNames, c) }

func ParseCoupling(s string) (Coupling, error) { return parseEnum(couplingNames, s, "coupling") }

type Probe byte

const (
	ProbeX1    Probe = 0x00
	ProbeX10   Probe = 0x01
	ProbeX100  Probe = 0x02
	ProbeX1000 Probe = 0x03
)

var probeNames = map[Probe]string{
	ProbeX1:    "x1",
	ProbeX10:   "x10",
	ProbeX100:  "x100",
	ProbeX1000: "x1000",
}

func (p Probe) String() string { return enumName(probeNames, p) }

func ParseProbe(s string) (Probe, error) { return parseEnum(probeNames, s, "probe") }

// Scale is the vertical sensitivity. The wire code is the index into the
// instrument's fixed 1-2-5 ladder.
type Scale byte

var scaleNames = []string{
	"10mV", "20mV", "50mV", "100mV", "200mV", "500mV",
	"1V", "2V", "5V", "10V",
}

var scaleVolts = []float64{
	0.01, 0.02, 0.05, 0.1, 0.2, 0.5,
	1, 2, 5, 10,
}

func (s Scale) String() string {
	if int(s) < len(scaleNames) {
		return scaleNames[s]
	}
	return fmt.Sprintf("Scale(0x%02x)", byte(s))
}

// Volts is the full-scale step in volts per division.
func (s Scale) Volts() float64 {
	if int(s) < len(scaleVolts) {
		return scaleVolts[s]
	}
	return 0
}

func ParseScale(s string) (Scale, error) {
	for i, name := range scaleNames {
		if strings.EqualFold(name, s) {
			return Scale(i), nil
		}
	}
	return 0, fmt.Errorf("invalid scale %q (known: %s)", s, strings.Join(scaleNames, ", "))
}

// TimeScale is the horizontal time base; the wire code indexes the ladder
// from 5ns/div to 500s/div.
type TimeScale byte

var timeScaleNames = []string{
	"5ns", "10ns", "20ns", "50ns", "100ns", "200ns", "500ns",
	"1us", "2us", "5us", "10us", "20us", "50us", "100us", "200us", "500us",
	"1ms", "2ms", "5ms", "10ms", "20ms", "50ms", "100ms", "200ms", "500ms",
	"1s", "2s", "5s", "10s", "20s", "50s", "100s", "200s", "500s",
}

func (t TimeScale) String() string {
	if int(t) < len(timeScaleNames) {
		return timeScaleNames[t]
	}
	return fmt.Sprintf("TimeScale(0x%02x)", byte(t))
}

func ParseTimeScale(s string) (TimeScale, error) {
	for i, name := range timeScaleNames {
		if strings.EqualFold(name, s) {
			return TimeScale(i), nil
		}
	}
	return 0, fmt.Errorf("invalid time scale %q", s)
}

type TriggerSlope byte

const (
	SlopeRising  TriggerSlope = 0x00
	SlopeFalling TriggerSlope = 0x01
	SlopeBoth    TriggerSlope = 0x02
)

var triggerSlopeNames = map[TriggerSlope]string{
	SlopeRising:  "rising",
	SlopeFalling: "falling",
	SlopeBoth:    "both",
}

func (t TriggerSlope) String() string { return enumName(triggerSlopeNames, t) }

func ParseTriggerSlope(s string) (TriggerSlope, error) {
	return parseEnum(triggerSlopeNames, s, "trigger slope")
}

type TriggerMode byte

const (
	TriggerAuto   TriggerMode = 0x00
	TriggerNormal TriggerMode = 0x01
	TriggerSingle TriggerMode = 0x02
)

var triggerModeNames = map[TriggerMode]string{
	TriggerAuto:   "auto",
	TriggerNormal: "normal",
	TriggerSingle: "single",
}

func (t TriggerMode) String() string { return enumName(triggerModeNames, t) }

func ParseTriggerMode(s string) (TriggerMode, error) {
	return parseEnum(triggerModeNames, s, "trigger mode")
}

type AWGType byte

const (
	AWGSquare AWGType = 0x00
	AWGRamp   AWGType = 0x01
	AWGSin    AWGType = 0x02
	AWGTrap   AWGType = 0x03
	AWGArb1   AWGType = 0x04
	AWGArb2   AWGType = 0x05
	AWGArb3   AWGType = 0x06
	AWGArb4   AWGType = 0x07
)

var awgTypeNames = map[AWGType]string{
	AWGSquare: "square",
	AWGRamp:   "ramp",
	AWGSin:    "sin",
	AWGTrap:   "trap",
	AWGArb1:   "arb1",
	AWGArb2:   "arb2",
	AWGArb3:   "arb3",
	AWGArb4:   "arb4",
}

func (t AWGType) String() string { return enumName(awgTypeNames, t) }

func ParseAWGType(s string) (AWGType, error) { return parseEnum(awgTypeNames, s, "awg type") }

func enumName[E comparable](names map[E]string, v E) string {
	if n, ok := names[v]; ok {
		return n
	}
	return "unknown"
}

func parseEnum[E comparable](names map[E]string, s, what string) (E, error) {
	var zero E
	for v, name := range names {
		if strings.EqualFold(name, s) {
			return v, nil
		}
	}
	known := make([]string, 0, len(names))
	for _, name := range names {
		known = append(known, name)
	}
	return zero, fmt.Errorf("invalid %s %q (known: %s)", what, s, strings.Join(known, ", "))
}

// Adjustment is the value range the instrument maps a user-facing setting
// onto. The device takes offsets and trigger levels as a 0-200 position
// inside this window, so the window must be recorded (by setting a scale)
// before those conversions are possible.
type Adjustment struct {
	Upper, Lower float64
}

func (a Adjustment) usable() bool {
	if math.IsNaN(a.Upper) || math.IsInf(a.Upper, 0) {
		return false
	}
	if math.IsNaN(a.Lower) || math.IsInf(a.Lower, 0) {
		return false
	}
	if a.Upper == 0 && a.Lower == 0 {
		return false
	}
	return a.Upper > a.Lower
}

// ChannelConfig is the last-observed configuration of one channel.
type ChannelConfig struct {
	State          ChannelState
	Coupling       *Coupling
	Probe          *Probe
	Scale          *Scale
	Offset         *float64
	BandwidthLimit *bool

	offsetAdj *Adjustment
}

// AWGConfig is the last-observed generator configuration.
type AWGConfig struct {
	Type       *AWGType
	Frequency  *float64
	Amplitude  *float64
	Offset     *float64
	DutySquare *float64
	DutyRamp   *float64
	DutyTrap   *TrapDuty
	Running    *bool
}

type TrapDuty struct {
	High, Low, Rise float64
}

// Config caches what the library last told (or asked) the instrument.
// It lives and dies with the owning Device and is never persisted.
type Config struct {
	Screen  *ScreenMode
	Running *bool

	Channels map[int]*ChannelConfig

	TimeScale  *TimeScale
	TimeOffset *float64
	timeAdj    *Adjustment

	TriggerSource *int
	TriggerSlope  *TriggerSlope
	TriggerMode   *TriggerMode
	TriggerLevel  *float64
	triggerAdj    *Adjustment

	AWG AWGConfig
}

func newConfig(channels int) *Config {
	c := &Config{Channels: make(map[int]*ChannelConfig, channels)}
	for n := 1; n <= channels; n++ {
		c.Channels[n] = &ChannelConfig{State: ChannelUnknown}
	}
	return c
}
