// Package devices holds the table of supported Hantek instruments: USB
// identifiers, channel counts, and the versioned wire-protocol constants
// each model expects. Everything model-specific the rest of the library
// needs is data in this table, so supporting a new model or firmware
// protocol variant means adding an entry (or shipping a YAML override),
// not touching the codec.
package devices

import (
	"fmt"
	"sync"

	"github.com/google/gousb"
)

type Kind string

const (
	Hantek2D42 Kind = "2d42"
)

func (k Kind) String() string {
	switch k {
	case Hantek2D42:
		return "Hantek 2D42"
	}
	return "UNKNOWN"
}

// AckSpec describes how (and whether) an instrument acknowledges a command
// frame. Length 0 means the firmware never answers setting writes; a
// completed bulk write then counts as acknowledged.
type AckSpec struct {
	Length int             `yaml:"length"`
	OK     byte            `yaml:"ok"`
	Errors map[byte]string `yaml:"errors"`
}

// Protocol is the wire-protocol table for one instrument model. The frame
// prelude bytes and endpoint numbers are not documented by the vendor and
// were captured from USB traces, hence the explicit version so traces of a
// newer firmware can coexist with the old ones.
type Protocol struct {
	Version     int     `yaml:"version"`
	Idx         byte    `yaml:"idx"`
	Magic       byte    `yaml:"magic"`
	OutEndpoint int     `yaml:"out_endpoint"`
	InEndpoint  int     `yaml:"in_endpoint"`
	Ack         AckSpec `yaml:"ack"`
}

type Description struct {
	Kind     Kind
	VID, PID gousb.ID
	Channels int
	Protocol Protocol
}

var (
	tableMu      sync.Mutex
	descriptions = builtins()
)

func builtins() []Description {
	return []Description{
		{
			Kind:     Hantek2D42,
			VID:      0x0483,
			PID:      0x2d42,
			Channels: 2,
			Protocol: Protocol{
				Version:     1,
				Idx:         0x00,
				Magic:       0x0a,
				OutEndpoint: 2,
				InEndpoint:  1,
				// The 2D42 firmware never answers setting writes; the
				// zero Ack marks a completed bulk write as the
				// acknowledgement.
			},
		},
	}
}

// Table returns a copy of the known instrument descriptions, built-ins
// plus any loaded overrides. Callers cannot alias the registry.
func Table() []Description {
	tableMu.Lock()
	defer tableMu.Unlock()
	out := make([]Description, len(descriptions))
	copy(out, descriptions)
	return out
}

func ByKind(k Kind) (Description, error) {
	tableMu.Lock()
	defer tableMu.Unlock()
	for _, d := range descriptions {
		if d.Kind == k {
			return d, nil
		}
	}
	return Description{}, fmt.Errorf("unknown instrument kind %q", k)
}
