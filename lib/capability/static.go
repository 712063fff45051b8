// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import "sync"

// Compile-time interface check.
var _ Provider = (*Static)(nil)

// Static is a Provider that returns fixed values. Power operations are
// counted instead of executed. A non-nil Err fails every operation,
// and entries in Errors fail individual operations by name ("Shutdown",
// "CPUSpeed", ...). Static is used by tests and by liond's --dry-run
// mode.
type Static struct {
	ArchValue         string
	OSValue           string
	OSReleaseValue    string
	OSInfoValue       string
	CPUNumValue       uint32
	CPUSpeedValue     uint32
	CPUInfoValue      string
	TemperatureValue  float64
	StorageTotalValue uint64
	StorageFreeValue  uint64
	DiskInfoValue     string
	UptimeValue       string
	BootTimeValue     string

	Err    error
	Errors map[string]error

	mu        sync.Mutex
	shutdowns int
	reboots   int
}

// Shutdowns returns how many times Shutdown succeeded.
func (s *Static) Shutdowns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdowns
}

// Reboots returns how many times Reboot succeeded.
func (s *Static) Reboots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reboots
}

func (s *Static) fail(operation string) error {
	if s.Err != nil {
		return s.Err
	}
	return s.Errors[operation]
}

func (s *Static) Shutdown() error {
	if err := s.fail("Shutdown"); err != nil {
		return err
	}
	s.mu.Lock()
	s.shutdowns++
	s.mu.Unlock()
	return nil
}

func (s *Static) Reboot() error {
	if err := s.fail("Reboot"); err != nil {
		return err
	}
	s.mu.Lock()
	s.reboots++
	s.mu.Unlock()
	return nil
}

func (s *Static) Arch() (string, error)         { return s.ArchValue, s.fail("Arch") }
func (s *Static) OS() (string, error)           { return s.OSValue, s.fail("OS") }
func (s *Static) OSRelease() (string, error)    { return s.OSReleaseValue, s.fail("OSRelease") }
func (s *Static) OSInfo() (string, error)       { return s.OSInfoValue, s.fail("OSInfo") }
func (s *Static) CPUNum() (uint32, error)       { return s.CPUNumValue, s.fail("CPUNum") }
func (s *Static) CPUSpeed() (uint32, error)     { return s.CPUSpeedValue, s.fail("CPUSpeed") }
func (s *Static) CPUInfo() (string, error)      { return s.CPUInfoValue, s.fail("CPUInfo") }
func (s *Static) Temperature() (float64, error) { return s.TemperatureValue, s.fail("Temperature") }
func (s *Static) StorageTotal() (uint64, error) { return s.StorageTotalValue, s.fail("StorageTotal") }
func (s *Static) StorageFree() (uint64, error)  { return s.StorageFreeValue, s.fail("StorageFree") }
func (s *Static) DiskInfo() (string, error)     { return s.DiskInfoValue, s.fail("DiskInfo") }
func (s *Static) Uptime() (string, error)       { return s.UptimeValue, s.fail("Uptime") }
func (s *Static) BootTime() (string, error)     { return s.BootTimeValue, s.fail("BootTime") }
