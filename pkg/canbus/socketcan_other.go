//go:build !linux

package canbus

import (
	"errors"
	"runtime"
)

// OpenSocketCAN is only available on Linux.
func OpenSocketCAN(ifname string) (Bus, error) {
	return nil, errors.New("canbus: " + ifname + ": socketcan not supported on " + runtime.GOOS)
}
