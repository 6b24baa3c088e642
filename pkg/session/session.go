// Package session sequences codec-encoded commands over one open
// transport. It enforces the core invariant of the whole library: at most
// one command is in flight on a device handle at any time. Transient
// transport failures on the write path are retried a bounded number of
// times; protocol-level rejections never are.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/hanteker/hantekgo/pkg/devices"
	"github.com/hanteker/hantekgo/pkg/proto"
	"github.com/hanteker/hantekgo/pkg/usb"
)

var (
	// ErrNotOpen means the session was closed (explicitly or because the
	// device disappeared) and cannot send.
	ErrNotOpen = errors.New("session is not open")

	// ErrBusy means another command is in flight. The caller raced a
	// concurrent Send; the in-flight write is not disturbed.
	ErrBusy = errors.New("session busy")

	// ErrCommunication means the transport kept failing after all
	// retries. It wraps the final transport error.
	ErrCommunication = errors.New("communication with instrument failed")
)

// Transport is the blocking byte-level access the session drives. Satisfied
// by *usb.Device; tests substitute fakes.
type Transport interface {
	Write(p []byte, timeout time.Duration) error
	Read(p []byte, timeout time.Duration) (int, error)
	Close() error
}

type State int

const (
	Closed State = iota
	Open
	Busy
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Busy:
		return "busy"
	}
	return "invalid"
}

type Session struct {
	mu    sync.Mutex
	state State

	t     Transport
	proto devices.Protocol

	timeout time.Duration
	retries int
	backoff time.Duration
}

type Option func(*Session)

// WithTimeout sets the per-I/O-operation timeout (default 1s).
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithRetries sets how many times a failed write is re-attempted before
// escalating to ErrCommunication (default 2).
func WithRetries(n int) Option {
	return func(s *Session) { s.retries = n }
}

// WithBackoff sets the pause between write attempts (default 50ms).
func WithBackoff(d time.Duration) Option {
	return func(s *Session) { s.backoff = d }
}

// New takes ownership of the transport and returns an open session.
func New(t Transport, p devices.Protocol, opts ...Option) *Session {
	s := &Session{
		state:   Open,
		t:       t,
		proto:   p,
		timeout: time.Second,
		retries: 2,
		backoff: 50 * time.Millisecond,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State reports the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Send issues one command and, when the protocol table declares an ack,
// reads and classifies it. Returns nil on acknowledgement.
func (s *Session) Send(cmd proto.Command) error {
	buf, err := s.roundTrip(cmd, s.proto.Ack.Length)
	if err != nil {
		return err
	}
	return proto.DecodeAck(s.proto, buf)
}

// SendReply issues one command expecting a replyLen-byte response, checks
// the leading status byte and returns the whole buffer. Used for queries
// whose reply carries payload past the ack.
func (s *Session) SendReply(cmd proto.Command, replyLen int) ([]byte, error) {
	buf, err := s.roundTrip(cmd, replyLen)
	if err != nil {
		return nil, err
	}
	if err := proto.DecodeAck(s.proto, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *Session) roundTrip(cmd proto.Command, replyLen int) ([]byte, error) {
	if err := s.begin(); err != nil {
		return nil, err
	}
	dead := false
	defer func() { s.finish(dead) }()

	frame := cmd.Encode(s.proto)
	glog.V(2).Infof("Sending frame, op=0x%02x bytes=%x", cmd.Op(), frame)

	if err := s.write(frame[:]); err != nil {
		dead = errors.Is(err, usb.ErrDetached)
		return nil, err
	}

	if replyLen <= 0 {
		return nil, nil
	}

	buf := make([]byte, replyLen)
	n, err := s.t.Read(buf, s.timeout)
	if err != nil {
		dead = errors.Is(err, usb.ErrDetached)
		return nil, fmt.Errorf("%w: reading response: %w", ErrCommunication, err)
	}
	return buf[:n], nil
}

// write attempts the bulk transfer, retrying timeouts and I/O hiccups up
// to the configured bound. A detached device aborts immediately; there is
// nothing left to retry against.
func (s *Session) write(frame []byte) error {
	var last error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			glog.V(1).Infof("Retrying command write, attempt=%d/%d", attempt, s.retries)
			time.Sleep(s.backoff)
		}
		err := s.t.Write(frame, s.timeout)
		if err == nil {
			return nil
		}
		if errors.Is(err, usb.ErrDetached) {
			return fmt.Errorf("%w: %w", ErrCommunication, err)
		}
		if !errors.Is(err, usb.ErrTimeout) && !errors.Is(err, usb.ErrIO) {
			return err
		}
		last = err
	}
	return fmt.Errorf("%w: %w", ErrCommunication, last)
}

func (s *Session) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case Closed:
		return ErrNotOpen
	case Busy:
		return ErrBusy
	}
	s.state = Busy
	return nil
}

// finish returns the session to Open, or to Closed when the handle died
// mid-command. Runs on every Send path, success or failure, so the session
// is never left Busy.
func (s *Session) finish(dead bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Busy {
		return
	}
	if dead {
		s.state = Closed
		return
	}
	s.state = Open
}

// Close releases the transport. Idempotent. Closing while a command is in
// flight closes the transport underneath it; the in-flight call returns a
// transport error and the session stays Closed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return nil
	}
	s.state = Closed
	s.mu.Unlock()
	return s.t.Close()
}
