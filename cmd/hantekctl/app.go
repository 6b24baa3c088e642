package main

import (
	"time"

	"github.com/golang/glog"

	"github.com/hanteker/hantekgo/pkg/devices"
	"github.com/hanteker/hantekgo/pkg/scope"
	"github.com/hanteker/hantekgo/pkg/session"
)

// openDevice loads any user device overrides and opens the instrument
// selected by --kind, or the first attached known model.
func openDevice() (*scope.Device, error) {
	if path, err := devices.DefaultOverridePath(); err == nil {
		if err := devices.LoadOverrides(path); err != nil {
			return nil, err
		}
	} else {
		glog.V(1).Infof("No user config dir available: %v", err)
	}

	opts := []session.Option{
		session.WithTimeout(time.Duration(flagTimeout) * time.Millisecond),
	}
	if flagKind != "" {
		return scope.Open(devices.Kind(flagKind), opts...)
	}
	return scope.OpenAny(opts...)
}
