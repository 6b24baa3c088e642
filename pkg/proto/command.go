// Package proto is the single place that knows the instrument's wire
// format. Commands are built through typed constructors, encoded into
// fixed 10-byte frames, and responses are classified against the model's
// protocol table. Nothing in here performs I/O.
package proto

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hanteker/hantekgo/pkg/devices"
)

// ErrInvalidChannel is returned by channel-addressed constructors before
// any frame byte is produced.
var ErrInvalidChannel = errors.New("invalid channel")

// FrameLen is the fixed report size every supported firmware expects.
const FrameLen = 10

// Frame is one encoded command:
//
//	[0] idx    [1] magic    [2:4] function (LE)    [4] opcode
//	[5:9] operand    [9] trailer
type Frame [FrameLen]byte

type valKind int

const (
	valBytes valKind = iota // four independent bytes
	valWords                // two little-endian uint16
	valDword                // one little-endian uint32
)

// Command is one control operation, ready to encode. The zero value is not
// usable; build Commands through the constructors below.
type Command struct {
	fn   Func
	op   byte
	kind valKind
	b    [4]byte
	w    [2]uint16
	d    uint32
}

// Encode produces the frame for c under the given protocol table. Pure and
// deterministic: the same Command and table always yield identical bytes.
func (c Command) Encode(p devices.Protocol) Frame {
	var f Frame
	f[0] = p.Idx
	f[1] = p.Magic
	binary.LittleEndian.PutUint16(f[2:4], uint16(c.fn))
	f[4] = c.op
	switch c.kind {
	case valBytes:
		copy(f[5:9], c.b[:])
	case valWords:
		binary.LittleEndian.PutUint16(f[5:7], c.w[0])
		binary.LittleEndian.PutUint16(f[7:9], c.w[1])
	case valDword:
		binary.LittleEndian.PutUint32(f[5:9], c.d)
	}
	// f[9] is always zero on every traced firmware.
	return f
}

// Op returns the frame opcode, exposed for logging.
func (c Command) Op() byte { return c.op }

func byteCmd(fn Func, op byte, v0 byte) Command {
	return Command{fn: fn, op: op, kind: valBytes, b: [4]byte{v0, 0, 0, 0}}
}

func bytesCmd(fn Func, op byte, v0, v1, v2, v3 byte) Command {
	return Command{fn: fn, op: op, kind: valBytes, b: [4]byte{v0, v1, v2, v3}}
}

func wordsCmd(fn Func, op byte, w0, w1 uint16) Command {
	return Command{fn: fn, op: op, kind: valWords, w: [2]uint16{w0, w1}}
}

func dwordCmd(fn Func, op byte, d uint32) Command {
	return Command{fn: fn, op: op, kind: valDword, d: d}
}

// channelOp resolves a channel-addressed opcode, validating the index
// against the instrument's channel count.
func channelOp(base byte, channels, n int) (byte, error) {
	if n < 1 || n > channels {
		return 0, fmt.Errorf("%w: channel %d, instrument has %d", ErrInvalidChannel, n, channels)
	}
	return base + channelOpStride*byte(n-1), nil
}

// Start puts the scope into acquisition.
func Start() Command { return byteCmd(FuncScopeSetting, opScopeStartStop, 1) }

// Stop halts acquisition.
func Stop() Command { return byteCmd(FuncScopeSetting, opScopeStartStop, 0) }

// QueryStatus asks the instrument to report its per-channel enable state.
func QueryStatus() Command { return byteCmd(FuncScopeSetting, opScopeStatus, 0) }

func EnableChannel(channels, n int) (Command, error) {
	op, err := channelOp(opScopeEnable, channels, n)
	if err != nil {
		return Command{}, err
	}
	return byteCmd(FuncScopeSetting, op, 1), nil
}

func DisableChannel(channels, n int) (Command, error) {
	op, err := channelOp(opScopeEnable, channels, n)
	if err != nil {
		return Command{}, err
	}
	return byteCmd(FuncScopeSetting, op, 0), nil
}

func ChannelCoupling(channels, n int, code byte) (Command, error) {
	op, err := channelOp(opScopeCoupling, channels, n)
	if err != nil {
		return Command{}, err
	}
	return byteCmd(FuncScopeSetting, op, code), nil
}

func ChannelProbe(channels, n int, code byte) (Command, error) {
	op, err := channelOp(opScopeProbe, channels, n)
	if err != nil {
		return Command{}, err
	}
	return byteCmd(FuncScopeSetting, op, code), nil
}

func ChannelScale(channels, n int, code byte) (Command, error) {
	op, err := channelOp(opScopeScale, channels, n)
	if err != nil {
		return Command{}, err
	}
	return byteCmd(FuncScopeSetting, op, code), nil
}

func ChannelOffset(channels, n int, raw byte) (Command, error) {
	op, err := channelOp(opScopeOffset, channels, n)
	if err != nil {
		return Command{}, err
	}
	return byteCmd(FuncScopeSetting, op, raw), nil
}

func ChannelBandwidthLimit(channels, n int, on bool) (Command, error) {
	op, err := channelOp(opScopeBWLimit, channels, n)
	if err != nil {
		return Command{}, err
	}
	var v byte
	if on {
		v = 1
	}
	return byteCmd(FuncScopeSetting, op, v), nil
}

func TimeScale(code byte) Command {
	return byteCmd(FuncScopeSetting, opScopeTimeScale, code)
}

func TimeOffset(raw uint32) Command {
	return dwordCmd(FuncScopeSetting, opScopeTimeOffset, raw)
}

// TriggerSource selects the trigger channel; the wire value is zero-based.
func TriggerSource(channels, n int) (Command, error) {
	if n < 1 || n > channels {
		return Command{}, fmt.Errorf("%w: channel %d, instrument has %d", ErrInvalidChannel, n, channels)
	}
	return byteCmd(FuncScopeSetting, opScopeTriggerSource, byte(n-1)), nil
}

func TriggerSlope(code byte) Command {
	return byteCmd(FuncScopeSetting, opScopeTriggerSlope, code)
}

func TriggerMode(code byte) Command {
	return byteCmd(FuncScopeSetting, opScopeTriggerMode, code)
}

func TriggerLevel(raw byte) Command {
	return byteCmd(FuncScopeSetting, opScopeTriggerLevel, raw)
}

func ScreenMode(code byte) Command {
	return byteCmd(FuncScreenSetting, 0, code)
}

func AWGType(code byte) Command {
	return byteCmd(FuncAWGSetting, opAWGType, code)
}

func AWGFrequency(hz uint32) Command {
	return dwordCmd(FuncAWGSetting, opAWGFrequency, hz)
}

// AWGAmplitude carries millivolt magnitude and a sign word.
func AWGAmplitude(millivolts uint16, negative bool) Command {
	var sign uint16
	if negative {
		sign = 1
	}
	return wordsCmd(FuncAWGSetting, opAWGAmplitude, millivolts, sign)
}

func AWGOffset(millivolts uint16, negative bool) Command {
	var sign uint16
	if negative {
		sign = 1
	}
	return wordsCmd(FuncAWGSetting, opAWGOffset, millivolts, sign)
}

// AWGDutySquare carries the duty cycle in whole-percent units (0-100).
func AWGDutySquare(percent uint16) Command {
	return wordsCmd(FuncAWGSetting, opAWGSquareDuty, percent, 0)
}

func AWGDutyRamp(percent uint16) Command {
	return wordsCmd(FuncAWGSetting, opAWGRampDuty, percent, 0)
}

// AWGDutyTrap orders its operands rise, high, low on the wire.
func AWGDutyTrap(rise, high, low byte) Command {
	return bytesCmd(FuncAWGSetting, opAWGTrapDuty, rise, high, low, 0)
}

func AWGStart() Command { return byteCmd(FuncAWGSetting, opAWGStartStop, 1) }

func AWGStop() Command { return byteCmd(FuncAWGSetting, opAWGStartStop, 0) }
