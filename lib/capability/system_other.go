// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package capability

import "runtime"

// Compile-time interface check.
var _ Provider = (*System)(nil)

// System is the provider for platforms without a native
// implementation. Build information is available; everything that
// needs the kernel fails with ErrUnsupported.
type System struct {
	options Options
}

// NewSystem returns a provider for the local machine.
func NewSystem(options Options) *System {
	return &System{options: options.withDefaults()}
}

func (s *System) Shutdown() error               { return ErrUnsupported }
func (s *System) Reboot() error                 { return ErrUnsupported }
func (s *System) Arch() (string, error)         { return runtime.GOARCH, nil }
func (s *System) OS() (string, error)           { return runtime.GOOS, nil }
func (s *System) OSRelease() (string, error)    { return "", ErrUnsupported }
func (s *System) OSInfo() (string, error)       { return "", ErrUnsupported }
func (s *System) CPUNum() (uint32, error)       { return uint32(runtime.NumCPU()), nil }
func (s *System) CPUSpeed() (uint32, error)     { return 0, ErrUnsupported }
func (s *System) CPUInfo() (string, error)      { return "", ErrUnsupported }
func (s *System) Temperature() (float64, error) { return 0, ErrUnsupported }
func (s *System) StorageTotal() (uint64, error) { return 0, ErrUnsupported }
func (s *System) StorageFree() (uint64, error)  { return 0, ErrUnsupported }
func (s *System) DiskInfo() (string, error)     { return "", ErrUnsupported }
func (s *System) Uptime() (string, error)       { return "", ErrUnsupported }
func (s *System) BootTime() (string, error)     { return "", ErrUnsupported }
