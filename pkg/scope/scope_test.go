package scope

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanteker/hantekgo/pkg/devices"
	"github.com/hanteker/hantekgo/pkg/proto"
	"github.com/hanteker/hantekgo/pkg/session"
	"github.com/hanteker/hantekgo/pkg/usb"
)

var testDesc = devices.Description{
	Kind:     devices.Hantek2D42,
	VID:      0x0483,
	PID:      0x2d42,
	Channels: 2,
	Protocol: devices.Protocol{
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
	},
}

// fakeTransport records frames and scripts replies; an empty reply queue
// acknowledges everything.
type fakeTransport struct {
	mu      sync.Mutex
	writes  [][]byte
	replies [][]byte
}

func (f *fakeTransport) Write(p []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, append([]byte(nil), p...))
	return nil
}

func (f *fakeTransport) Read(p []byte, _ time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) > 0 {
		n := copy(p, f.replies[0])
		f.replies = f.replies[1:]
		return n, nil
	}
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func (f *fakeTransport) Close() error { return nil }

func newTestDevice(f *fakeTransport) *Device {
	return New(testDesc, f, session.WithBackoff(time.Millisecond))
}

// silentTransport accepts writes and never answers, like the 2D42
// firmware, which does not acknowledge setting writes.
type silentTransport struct {
	fakeTransport
}

func (f *silentTransport) Read(p []byte, _ time.Duration) (int, error) {
	return 0, usb.ErrTimeout
}

func TestBuiltinTableMatchesSilentFirmware(t *testing.T) {
	desc, err := devices.ByKind(devices.Hantek2D42)
	require.NoError(t, err)
	require.Equal(t, 0, desc.Protocol.Ack.Length)

	f := &silentTransport{}
	d := New(desc, f, session.WithBackoff(time.Millisecond))

	require.NoError(t, d.Start())
	require.NoError(t, d.EnableChannel(1))
	assert.Len(t, f.writes, 2)
}

func TestStartEnableStatusScenario(t *testing.T) {
	f := &fakeTransport{
		replies: [][]byte{
			{0x00},             // start ack
			{0x00},             // enable ack
			{0x00, 0x01, 0x00}, // status: ack, ch1 enabled, ch2 disabled
		},
	}
	d := newTestDevice(f)

	require.NoError(t, d.Start())
	require.NoError(t, d.EnableChannel(1))

	states, err := d.Status()
	require.NoError(t, err)
	assert.Equal(t, ChannelEnabled, states[1])
	assert.Equal(t, ChannelDisabled, states[2])
	assert.Len(t, f.writes, 3)
}

func TestInvalidChannelPerformsNoIO(t *testing.T) {
	f := &fakeTransport{}
	d := newTestDevice(f)

	assert.ErrorIs(t, d.EnableChannel(3), proto.ErrInvalidChannel)
	assert.ErrorIs(t, d.DisableChannel(0), proto.ErrInvalidChannel)
	assert.ErrorIs(t, d.SetCoupling(17, CouplingDC), proto.ErrInvalidChannel)
	assert.ErrorIs(t, d.SetOffset(-1, 0.5), proto.ErrInvalidChannel)
	assert.Empty(t, f.writes)
}

func TestEnableDisableUpdatesCache(t *testing.T) {
	f := &fakeTransport{}
	d := newTestDevice(f)

	require.NoError(t, d.EnableChannel(2))
	assert.Equal(t, ChannelEnabled, d.Config().Channels[2].State)
	require.NoError(t, d.DisableChannel(2))
	assert.Equal(t, ChannelDisabled, d.Config().Channels[2].State)
	assert.Equal(t, ChannelUnknown, d.Config().Channels[1].State)
}

func TestOffsetRequiresScale(t *testing.T) {
	f := &fakeTransport{}
	d := newTestDevice(f)

	err := d.SetOffset(1, 0.5)
	require.Error(t, err)
	assert.Empty(t, f.writes, "offset without a scale must not reach the transport")
}

func TestOffsetMapsIntoScaleWindow(t *testing.T) {
	f := &fakeTransport{}
	d := newTestDevice(f)

	require.NoError(t, d.SetScale(1, Scale(6))) // 1V/div, window ±4V
	require.NoError(t, d.SetOffset(1, 2.0))

	require.Len(t, f.writes, 2)
	offsetFrame := f.writes[1]
	assert.Equal(t, byte(0x05), offsetFrame[4])
	// (2 - (-4)) * 200 / 8
	assert.Equal(t, byte(150), offsetFrame[5])
}

func TestOffsetOutOfWindow(t *testing.T) {
	f := &fakeTransport{}
	d := newTestDevice(f)

	require.NoError(t, d.SetScale(1, Scale(0))) // 10mV/div, window ±40mV
	err := d.SetOffset(1, 1.0)
	require.Error(t, err)
	assert.Len(t, f.writes, 1, "only the scale command may reach the transport")
}

func TestTriggerLevelRequiresSource(t *testing.T) {
	f := &fakeTransport{}
	d := newTestDevice(f)

	require.Error(t, d.SetTriggerLevel(0.1))

	require.NoError(t, d.SetScale(1, Scale(6)))
	require.NoError(t, d.SetTriggerSource(1))
	require.NoError(t, d.SetTriggerLevel(0.0))

	require.Len(t, f.writes, 3)
	levelFrame := f.writes[2]
	assert.Equal(t, byte(0x14), levelFrame[4])
	assert.Equal(t, byte(100), levelFrame[5])
}

func TestTriggerSourceRequiresScale(t *testing.T) {
	f := &fakeTransport{}
	d := newTestDevice(f)

	require.Error(t, d.SetTriggerSource(1))
	assert.Empty(t, f.writes)
}

func TestTimeOffsetRequiresTimeScale(t *testing.T) {
	f := &fakeTransport{}
	d := newTestDevice(f)

	require.Error(t, d.SetTimeOffset(0.5))
	assert.Empty(t, f.writes)

	require.NoError(t, d.SetTimeScale(TimeScale(16))) // 1ms/div
	require.NoError(t, d.SetTimeOffset(1.0))
	assert.Len(t, f.writes, 2)
}

func TestAWGDutyValidation(t *testing.T) {
	f := &fakeTransport{}
	d := newTestDevice(f)

	require.Error(t, d.SetAWGDutySquare(1.5))
	require.Error(t, d.SetAWGDutyRamp(-0.1))
	require.Error(t, d.SetAWGDutyTrap(0.5, 2.0, 0.1))
	assert.Empty(t, f.writes)

	require.NoError(t, d.SetAWGDutySquare(0.5))
	require.Len(t, f.writes, 1)
	assert.Equal(t, byte(50), f.writes[0][5])
}

func TestStatusFromCacheWhenNoAck(t *testing.T) {
	desc := testDesc
	desc.Protocol.Ack = devices.AckSpec{}
	f := &fakeTransport{}
	d := New(desc, f, session.WithBackoff(time.Millisecond))

	require.NoError(t, d.EnableChannel(1))

	states, err := d.Status()
	require.NoError(t, err)
	assert.Equal(t, ChannelEnabled, states[1])
	assert.Equal(t, ChannelUnknown, states[2])
	// One frame for the enable; no status query without a reply channel.
	assert.Len(t, f.writes, 1)
}

func TestCloseIsIdempotent(t *testing.T) {
	d := newTestDevice(&fakeTransport{})
	require.NoError(t, d.Close())
	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Start(), session.ErrNotOpen)
}

func TestParsersRoundTrip(t *testing.T) {
	c, err := ParseCoupling("AC")
	require.NoError(t, err)
	assert.Equal(t, CouplingAC, c)

	s, err := ParseScale("500mV")
	require.NoError(t, err)
	assert.Equal(t, Scale(5), s)
	assert.Equal(t, "500mV", s.String())

	ts, err := ParseTimeScale("20us")
	require.NoError(t, err)
	assert.Equal(t, "20us", ts.String())

	_, err = ParseScale("15V")
	assert.Error(t, err)
	_, err = ParseTriggerMode("sometimes")
	assert.Error(t, err)
}
