package devices

import (
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"github.com/golang/glog"
	"github.com/google/gousb"
	"gopkg.in/yaml.v3"
)

// override mirrors Description for YAML decoding. gousb.ID is kept out of
// the file format so a hand-written override stays plain integers.
type override struct {
	Kind     string   `yaml:"kind"`
	VID      uint16   `yaml:"vid"`
	PID      uint16   `yaml:"pid"`
	Channels int      `yaml:"channels"`
	Protocol Protocol `yaml:"protocol"`
}

// DefaultOverridePath returns the per-user override file location,
// typically ~/.config/hantekctl/devices.yaml.
func DefaultOverridePath() (string, error) {
	return xdg.ConfigFile("hantekctl/devices.yaml")
}

// LoadOverrides merges instrument descriptions from a YAML file into the
// table. Entries with a kind matching a built-in replace it; new kinds are
// appended. A missing file is not an error, a malformed one is.
func LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("could not read device overrides: %w", err)
	}

	var overrides []override
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("could not parse device overrides at %s: %w", path, err)
	}

	tableMu.Lock()
	defer tableMu.Unlock()
	for i, o := range overrides {
		d, err := o.description()
		if err != nil {
			return fmt.Errorf("device override %d at %s: %w", i, path, err)
		}
		replaced := false
		for j := range descriptions {
			if descriptions[j].Kind == d.Kind {
				descriptions[j] = d
				replaced = true
				break
			}
		}
		if !replaced {
			descriptions = append(descriptions, d)
		}
		glog.V(1).Infof("Loaded device override for %s (protocol v%d)", d.Kind, d.Protocol.Version)
	}
	return nil
}

func (o override) description() (Description, error) {
	if o.Kind == "" {
		return Description{}, fmt.Errorf("missing kind")
	}
	if o.VID == 0 || o.PID == 0 {
		return Description{}, fmt.Errorf("missing vid/pid for kind %q", o.Kind)
	}
	if o.Channels < 1 {
		return Description{}, fmt.Errorf("kind %q must have at least one channel", o.Kind)
	}
	if o.Protocol.Version < 1 {
		return Description{}, fmt.Errorf("kind %q has no protocol version", o.Kind)
	}
	if o.Protocol.Ack.Length < 0 {
		return Description{}, fmt.Errorf("kind %q has negative ack length", o.Kind)
	}
	return Description{
		Kind:     Kind(o.Kind),
		VID:      gousb.ID(o.VID),
		PID:      gousb.ID(o.PID),
		Channels: o.Channels,
		Protocol: o.Protocol,
	}, nil
}
