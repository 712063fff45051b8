// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import "errors"

// ErrUnsupported is returned by operations the current platform cannot
// perform.
var ErrUnsupported = errors.New("operation not supported on this platform")

// Provider exposes the named host operations. Textual values are
// returned as strings, counts as unsigned integers, and measurements
// as floats; the dispatcher maps each to the matching payload variant.
type Provider interface {
	// Shutdown powers the machine off.
	Shutdown() error
	// Reboot restarts the machine.
	Reboot() error

	// Arch returns the CPU architecture the daemon was built for.
	Arch() (string, error)
	// OS returns the operating system the daemon was built for.
	OS() (string, error)
	// OSRelease returns the kernel release string.
	OSRelease() (string, error)
	// OSInfo returns a one-line description of the distribution and kernel.
	OSInfo() (string, error)

	// CPUNum returns the number of online CPUs.
	CPUNum() (uint32, error)
	// CPUSpeed returns the CPU clock in MHz.
	CPUSpeed() (uint32, error)
	// CPUInfo returns a one-line description of the processor.
	CPUInfo() (string, error)
	// Temperature returns the CPU temperature in degrees Celsius.
	Temperature() (float64, error)

	// StorageTotal returns the size of the storage filesystem in kilobytes.
	StorageTotal() (uint64, error)
	// StorageFree returns the free space of the storage filesystem in kilobytes.
	StorageFree() (uint64, error)
	// DiskInfo returns a human-readable storage summary.
	DiskInfo() (string, error)

	// Uptime returns the time since boot as a duration string.
	Uptime() (string, error)
	// BootTime returns the boot timestamp in RFC 3339 format (UTC).
	BootTime() (string, error)
}

// Options configures a System provider. Zero values select defaults.
type Options struct {
	// ShutdownCommand is the argv run by Shutdown.
	// Default: shutdown -h now
	ShutdownCommand []string

	// RebootCommand is the argv run by Reboot.
	// Default: shutdown -r now
	RebootCommand []string

	// StoragePath is the mount point reported by the storage queries.
	// Default: /
	StoragePath string

	// ThermalZone is the sysfs temperature file read by Temperature.
	// Default: the first /sys/class/thermal/thermal_zone*/temp.
	ThermalZone string
}

func (o Options) withDefaults() Options {
	if len(o.ShutdownCommand) == 0 {
		o.ShutdownCommand = []string{"shutdown", "-h", "now"}
	}
	if len(o.RebootCommand) == 0 {
		o.RebootCommand = []string{"shutdown", "-r", "now"}
	}
	if o.StoragePath == "" {
		o.StoragePath = "/"
	}
	return o
}
