package proto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanteker/hantekgo/pkg/devices"
)

var testProto = devices.Protocol{
	Version:     1,
	Idx:         0x00,
	Magic:       0x0a,
	OutEndpoint: 2,
	InEndpoint:  1,
	Ack: devices.AckSpec{
		Length: 1,
		OK:     0x00,
		Errors: map[byte]string{0x01: "command rejected"},
	},
}

func TestEncodeGoldenFrames(t *testing.T) {
	for _, tc := range []struct {
		name string
		cmd  Command
		want Frame
	}{
		{
			name: "start",
			cmd:  Start(),
			want: Frame{0x00, 0x0a, 0x00, 0x00, 0x0c, 0x01, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "stop",
			cmd:  Stop(),
			want: Frame{0x00, 0x0a, 0x00, 0x00, 0x0c, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "query status",
			cmd:  QueryStatus(),
			want: Frame{0x00, 0x0a, 0x00, 0x00, 0x15, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name: "time offset dword little endian",
			cmd:  TimeOffset(0x01020304),
			want: Frame{0x00, 0x0a, 0x00, 0x00, 0x0f, 0x04, 0x03, 0x02, 0x01, 0x00},
		},
		{
			name: "awg amplitude words little endian with sign",
			cmd:  AWGAmplitude(1250, true),
			want: Frame{0x00, 0x0a, 0x02, 0x00, 0x02, 0xe2, 0x04, 0x01, 0x00, 0x00},
		},
		{
			name: "awg trap duty byte order rise high low",
			cmd:  AWGDutyTrap(15, 80, 10),
			want: Frame{0x00, 0x0a, 0x02, 0x00, 0x06, 0x0f, 0x50, 0x0a, 0x00, 0x00},
		},
		{
			name: "screen mode uses screen function",
			cmd:  ScreenMode(0x02),
			want: Frame{0x00, 0x0a, 0x03, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00, 0x00},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cmd.Encode(testProto))
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	cmd, err := EnableChannel(2, 2)
	require.NoError(t, err)
	assert.Equal(t, cmd.Encode(testProto), cmd.Encode(testProto))
}

func TestChannelOpcodeStride(t *testing.T) {
	ch1, err := EnableChannel(2, 1)
	require.NoError(t, err)
	ch2, err := EnableChannel(2, 2)
	require.NoError(t, err)

	f1 := ch1.Encode(testProto)
	f2 := ch2.Encode(testProto)
	assert.Equal(t, byte(0x00), f1[4])
	assert.Equal(t, byte(0x06), f2[4])
	assert.Equal(t, byte(0x01), f1[5])
	assert.Equal(t, byte(0x01), f2[5])
}

func TestInvalidChannel(t *testing.T) {
	for _, n := range []int{0, -1, 3} {
		_, err := EnableChannel(2, n)
		assert.ErrorIs(t, err, ErrInvalidChannel, "enable channel %d", n)
		_, err = DisableChannel(2, n)
		assert.ErrorIs(t, err, ErrInvalidChannel, "disable channel %d", n)
		_, err = ChannelCoupling(2, n, 0)
		assert.ErrorIs(t, err, ErrInvalidChannel, "coupling channel %d", n)
		_, err = TriggerSource(2, n)
		assert.ErrorIs(t, err, ErrInvalidChannel, "trigger source channel %d", n)
	}
}

func TestDecodeAck(t *testing.T) {
	assert.NoError(t, DecodeAck(testProto, []byte{0x00}))

	err := DecodeAck(testProto, []byte{0x01})
	var de *DeviceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, byte(0x01), de.Code)
	assert.Contains(t, de.Error(), "command rejected")

	assert.ErrorIs(t, DecodeAck(testProto, []byte{0x7f}), ErrProtocol)
	assert.ErrorIs(t, DecodeAck(testProto, nil), ErrProtocol)
}

func TestDecodeAckNoAckProtocol(t *testing.T) {
	p := testProto
	p.Ack = devices.AckSpec{}
	assert.NoError(t, DecodeAck(p, nil))
	assert.NoError(t, DecodeAck(p, []byte{0xff}))
}

func TestDecodeStatus(t *testing.T) {
	desc := devices.Description{Kind: "2d42", Channels: 2, Protocol: testProto}

	states, err := DecodeStatus(desc, []byte{0x00, 0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, ChannelEnabled, states[1])
	assert.Equal(t, ChannelDisabled, states[2])

	states, err = DecodeStatus(desc, []byte{0x00, 0x02, 0x01})
	require.NoError(t, err)
	assert.Equal(t, ChannelUnknown, states[1])
	assert.Equal(t, ChannelEnabled, states[2])

	// A short reply still reports every channel, uncovered ones unknown.
	states, err = DecodeStatus(desc, []byte{0x00, 0x01})
	require.NoError(t, err)
	assert.Equal(t, ChannelEnabled, states[1])
	assert.Equal(t, ChannelUnknown, states[2])
}

func TestDecodeStatusRejectedReply(t *testing.T) {
	desc := devices.Description{Kind: "2d42", Channels: 2, Protocol: testProto}

	_, err := DecodeStatus(desc, []byte{0x01, 0x01, 0x00})
	var de *DeviceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, byte(0x01), de.Code)

	_, err = DecodeStatus(desc, nil)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestDecodeAckUnknownNeverSuccess(t *testing.T) {
	for b := 0x02; b <= 0xff; b++ {
		err := DecodeAck(testProto, []byte{byte(b)})
		require.Error(t, err, "status byte 0x%02x", b)
		var de *DeviceError
		if !errors.As(err, &de) {
			assert.ErrorIs(t, err, ErrProtocol)
		}
	}
}
