package proto

import (
	"errors"
	"fmt"

	"github.com/hanteker/hantekgo/pkg/devices"
)

// ErrProtocol means the instrument answered with bytes the protocol table
// does not recognize. Unknown status values are never treated as success.
var ErrProtocol = errors.New("unrecognized instrument response")

// DeviceError is a rejection reported by the instrument itself.
type DeviceError struct {
	Code byte
	Name string
}

func (e *DeviceError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("instrument reported error 0x%02x", e.Code)
	}
	return fmt.Sprintf("instrument reported error 0x%02x (%s)", e.Code, e.Name)
}

// ChannelState is a channel's acquisition state as reported in a status
// reply.
type ChannelState int

const (
	ChannelUnknown ChannelState = iota
	ChannelDisabled
	ChannelEnabled
)

func (s ChannelState) String() string {
	switch s {
	case ChannelDisabled:
		return "disabled"
	case ChannelEnabled:
		return "enabled"
	}
	return "unknown"
}

// DecodeStatus interprets a status-query reply: the ack bytes, then one
// state byte per channel (0 disabled, 1 enabled, anything else unknown).
// Channels the reply does not cover report as unknown.
func DecodeStatus(d devices.Description, buf []byte) (map[int]ChannelState, error) {
	if err := DecodeAck(d.Protocol, buf); err != nil {
		return nil, err
	}
	var payload []byte
	if d.Protocol.Ack.Length < len(buf) {
		payload = buf[d.Protocol.Ack.Length:]
	}
	states := make(map[int]ChannelState, d.Channels)
	for n := 1; n <= d.Channels; n++ {
		st := ChannelUnknown
		if n-1 < len(payload) {
			switch payload[n-1] {
			case 0:
				st = ChannelDisabled
			case 1:
				st = ChannelEnabled
			}
		}
		states[n] = st
	}
	return states, nil
}

// DecodeAck classifies the leading status byte of a response under the
// model's ack table. Returns nil on acknowledgement, a *DeviceError for a
// known error code and ErrProtocol for anything else. Models whose table
// declares no ack treat every completed write as acknowledged.
func DecodeAck(p devices.Protocol, buf []byte) error {
	if p.Ack.Length == 0 {
		return nil
	}
	if len(buf) < p.Ack.Length {
		return fmt.Errorf("%w: short response (%d of %d bytes)", ErrProtocol, len(buf), p.Ack.Length)
	}
	status := buf[0]
	if status == p.Ack.OK {
		return nil
	}
	if name, ok := p.Ack.Errors[status]; ok {
		return &DeviceError{Code: status, Name: name}
	}
	return fmt.Errorf("%w: status byte 0x%02x", ErrProtocol, status)
}
