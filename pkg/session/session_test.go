package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanteker/hantekgo/pkg/devices"
	"github.com/hanteker/hantekgo/pkg/proto"
	"github.com/hanteker/hantekgo/pkg/usb"
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

// fakeTransport scripts per-call write errors and read replies. An empty
// reply queue answers with zero bytes, which the test protocol table reads
// as an acknowledgement.
type fakeTransport struct {
	mu        sync.Mutex
	writes    [][]byte
	writeErrs []error
	replies   [][]byte
	readErrs  []error
	closed    int

	writeStarted chan struct{}
	writeGate    chan struct{}
}

func (f *fakeTransport) Write(p []byte, _ time.Duration) error {
	f.mu.Lock()
	f.writes = append(f.writes, append([]byte(nil), p...))
	var err error
	if len(f.writeErrs) > 0 {
		err = f.writeErrs[0]
		f.writeErrs = f.writeErrs[1:]
	}
	started := f.writeStarted
	gate := f.writeGate
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeTransport) Read(p []byte, _ time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.readErrs) > 0 {
		err := f.readErrs[0]
		f.readErrs = f.readErrs[1:]
		return 0, err
	}
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

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

func (f *fakeTransport) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func newTestSession(f *fakeTransport) *Session {
	return New(f, testProto, WithBackoff(time.Millisecond))
}

func TestSendAcknowledged(t *testing.T) {
	f := &fakeTransport{}
	s := newTestSession(f)

	require.NoError(t, s.Send(proto.Start()))
	assert.Equal(t, 1, f.writeCount())
	assert.Equal(t, Open, s.State())
}

func TestSendFrameBytesReachTransport(t *testing.T) {
	f := &fakeTransport{}
	s := newTestSession(f)

	require.NoError(t, s.Send(proto.Start()))
	want := proto.Start().Encode(testProto)
	require.Len(t, f.writes, 1)
	assert.Equal(t, want[:], f.writes[0])
}

func TestWriteRetrySucceedsWithinBound(t *testing.T) {
	f := &fakeTransport{
		writeErrs: []error{usb.ErrTimeout, usb.ErrTimeout, nil},
	}
	s := newTestSession(f)

	require.NoError(t, s.Send(proto.Start()))
	assert.Equal(t, 3, f.writeCount())
	assert.Equal(t, Open, s.State())
}

func TestWriteRetryExhausted(t *testing.T) {
	f := &fakeTransport{
		writeErrs: []error{usb.ErrTimeout, usb.ErrTimeout, usb.ErrTimeout},
	}
	s := newTestSession(f)

	err := s.Send(proto.Start())
	assert.ErrorIs(t, err, ErrCommunication)
	assert.Equal(t, 3, f.writeCount())
	assert.Equal(t, Open, s.State())
}

func TestWriteRetryBoundConfigurable(t *testing.T) {
	f := &fakeTransport{
		writeErrs: []error{usb.ErrIO},
	}
	s := New(f, testProto, WithRetries(0), WithBackoff(time.Millisecond))

	err := s.Send(proto.Start())
	assert.ErrorIs(t, err, ErrCommunication)
	assert.Equal(t, 1, f.writeCount())
}

func TestDeviceErrorNotRetried(t *testing.T) {
	f := &fakeTransport{replies: [][]byte{{0x01}}}
	s := newTestSession(f)

	err := s.Send(proto.Start())
	var de *proto.DeviceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, byte(0x01), de.Code)
	assert.Equal(t, 1, f.writeCount())
	assert.Equal(t, Open, s.State())
}

func TestUnknownStatusIsProtocolError(t *testing.T) {
	f := &fakeTransport{replies: [][]byte{{0x77}}}
	s := newTestSession(f)

	err := s.Send(proto.Start())
	assert.ErrorIs(t, err, proto.ErrProtocol)
	assert.Equal(t, 1, f.writeCount())
	assert.Equal(t, Open, s.State())
}

func TestReadFailureEscalates(t *testing.T) {
	f := &fakeTransport{readErrs: []error{usb.ErrTimeout}}
	s := newTestSession(f)

	err := s.Send(proto.Start())
	assert.ErrorIs(t, err, ErrCommunication)
	assert.Equal(t, Open, s.State())
}

func TestConcurrentSendFailsBusy(t *testing.T) {
	f := &fakeTransport{
		writeStarted: make(chan struct{}, 1),
		writeGate:    make(chan struct{}),
	}
	s := newTestSession(f)

	done := make(chan error, 1)
	go func() { done <- s.Send(proto.Start()) }()

	<-f.writeStarted
	assert.Equal(t, Busy, s.State())
	assert.ErrorIs(t, s.Send(proto.Stop()), ErrBusy)

	close(f.writeGate)
	require.NoError(t, <-done)
	assert.Equal(t, Open, s.State())
	assert.Equal(t, 1, f.writeCount())
}

func TestSendOnClosedSession(t *testing.T) {
	f := &fakeTransport{}
	s := newTestSession(f)

	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Send(proto.Start()), ErrNotOpen)
	assert.Equal(t, 0, f.writeCount())
}

func TestCloseIdempotent(t *testing.T) {
	f := &fakeTransport{}
	s := newTestSession(f)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, f.closed)
	assert.Equal(t, Closed, s.State())
}

func TestDetachedDeviceClosesSession(t *testing.T) {
	f := &fakeTransport{
		writeErrs: []error{fmt.Errorf("%w: yanked mid-command", usb.ErrDetached)},
	}
	s := newTestSession(f)

	err := s.Send(proto.Start())
	assert.ErrorIs(t, err, ErrCommunication)
	assert.Equal(t, 1, f.writeCount(), "a detached device must not be retried")
	assert.Equal(t, Closed, s.State())

	assert.ErrorIs(t, s.Send(proto.Start()), ErrNotOpen)
}

func TestSendReplyReturnsPayload(t *testing.T) {
	f := &fakeTransport{replies: [][]byte{{0x00, 0x01, 0x00}}}
	s := newTestSession(f)

	buf, err := s.SendReply(proto.QueryStatus(), 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x01, 0x00}, buf)
}

func TestStateNeverLeftBusy(t *testing.T) {
	scripts := []*fakeTransport{
		{},
		{writeErrs: []error{usb.ErrTimeout, usb.ErrTimeout, usb.ErrTimeout}},
		{replies: [][]byte{{0x01}}},
		{replies: [][]byte{{0x77}}},
		{readErrs: []error{usb.ErrIO}},
	}
	for i, f := range scripts {
		s := newTestSession(f)
		_ = s.Send(proto.Start())
		assert.NotEqual(t, Busy, s.State(), "script %d", i)
	}
}
