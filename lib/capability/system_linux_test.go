// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// writeSyntheticFile creates a file at the given path within root,
// creating parent directories as needed.
func writeSyntheticFile(t *testing.T, root, path, content string) {
	t.Helper()
	fullPath := filepath.Join(root, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(fullPath), err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", fullPath, err)
	}
}

// newSyntheticSystem returns a System reading from a temporary tree.
func newSyntheticSystem(t *testing.T, options Options) (*System, string) {
	t.Helper()
	root := t.TempDir()
	system := newSystemFrom(options,
		filepath.Join(root, "proc"),
		filepath.Join(root, "sys"),
		filepath.Join(root, "etc"))
	return system, root
}

func TestSystemFromSyntheticFS(t *testing.T) {
	system, root := newSyntheticSystem(t, Options{})

	writeSyntheticFile(t, root, "proc/cpuinfo",
		"processor\t: 0\nmodel name\t: AMD EPYC 7763 64-Core Processor\ncpu MHz\t\t: 2445.123\n\n"+
			"processor\t: 1\nmodel name\t: AMD EPYC 7763 64-Core Processor\ncpu MHz\t\t: 1500.000\n\n")
	writeSyntheticFile(t, root, "proc/stat",
		"cpu  10 20 30 40\nintr 12345 0 0\nbtime 1700000000\nprocesses 42\n")
	writeSyntheticFile(t, root, "proc/sys/kernel/osrelease", "6.1.0-18-amd64\n")
	writeSyntheticFile(t, root, "sys/class/thermal/thermal_zone1/temp", "61000\n")
	writeSyntheticFile(t, root, "sys/class/thermal/thermal_zone0/temp", "47500\n")
	writeSyntheticFile(t, root, "etc/os-release",
		"# comment\nNAME=\"Debian GNU/Linux\"\nPRETTY_NAME=\"Debian GNU/Linux 12 (bookworm)\"\nID=debian\n")

	speed, err := system.CPUSpeed()
	if err != nil {
		t.Fatalf("CPUSpeed: %v", err)
	}
	if speed != 2445 {
		t.Errorf("CPUSpeed = %d, want 2445", speed)
	}

	info, err := system.CPUInfo()
	if err != nil {
		t.Fatalf("CPUInfo: %v", err)
	}
	if !strings.HasPrefix(info, "AMD EPYC 7763 64-Core Processor, ") {
		t.Errorf("CPUInfo = %q, want model name prefix", info)
	}
	if !strings.HasSuffix(info, "@ 2445 MHz") {
		t.Errorf("CPUInfo = %q, want speed suffix", info)
	}

	bootTime, err := system.BootTime()
	if err != nil {
		t.Fatalf("BootTime: %v", err)
	}
	if bootTime != "2023-11-14T22:13:20Z" {
		t.Errorf("BootTime = %q, want 2023-11-14T22:13:20Z", bootTime)
	}

	release, err := system.OSRelease()
	if err != nil {
		t.Fatalf("OSRelease: %v", err)
	}
	if release != "6.1.0-18-amd64" {
		t.Errorf("OSRelease = %q, want 6.1.0-18-amd64", release)
	}

	osInfo, err := system.OSInfo()
	if err != nil {
		t.Fatalf("OSInfo: %v", err)
	}
	if !strings.HasPrefix(osInfo, "Debian GNU/Linux 12 (bookworm), Linux ") {
		t.Errorf("OSInfo = %q, want PRETTY_NAME then kernel", osInfo)
	}

	// Zones are sorted, so thermal_zone0 wins regardless of creation order.
	temperature, err := system.Temperature()
	if err != nil {
		t.Fatalf("Temperature: %v", err)
	}
	if temperature != 47.5 {
		t.Errorf("Temperature = %v, want 47.5", temperature)
	}
}

func TestCPUSpeedFallsBackToCpufreq(t *testing.T) {
	system, root := newSyntheticSystem(t, Options{})

	// ARM boards omit "cpu MHz".
	writeSyntheticFile(t, root, "proc/cpuinfo",
		"processor\t: 0\nBogoMIPS\t: 108.00\n\nHardware\t: BCM2835\nModel\t\t: Raspberry Pi 4 Model B Rev 1.4\n")
	writeSyntheticFile(t, root, "sys/devices/system/cpu/cpu0/cpufreq/cpuinfo_max_freq", "1800000\n")

	speed, err := system.CPUSpeed()
	if err != nil {
		t.Fatalf("CPUSpeed: %v", err)
	}
	if speed != 1800 {
		t.Errorf("CPUSpeed = %d, want 1800", speed)
	}

	info, err := system.CPUInfo()
	if err != nil {
		t.Fatalf("CPUInfo: %v", err)
	}
	if !strings.HasPrefix(info, "Raspberry Pi 4 Model B Rev 1.4, ") {
		t.Errorf("CPUInfo = %q, want Model prefix", info)
	}
}

func TestMissingSourcesFail(t *testing.T) {
	system, _ := newSyntheticSystem(t, Options{})

	if _, err := system.CPUSpeed(); err == nil {
		t.Error("CPUSpeed with no cpuinfo or cpufreq should fail")
	}
	if _, err := system.BootTime(); err == nil {
		t.Error("BootTime with no /proc/stat should fail")
	}
	if _, err := system.Temperature(); err == nil {
		t.Error("Temperature with no thermal zone should fail")
	}
}

func TestConfiguredThermalZone(t *testing.T) {
	root := t.TempDir()
	zone := filepath.Join(root, "hwmon", "temp1_input")
	writeSyntheticFile(t, root, "hwmon/temp1_input", "-5250\n")

	system := newSystemFrom(Options{ThermalZone: zone},
		filepath.Join(root, "proc"), filepath.Join(root, "sys"), filepath.Join(root, "etc"))

	temperature, err := system.Temperature()
	if err != nil {
		t.Fatalf("Temperature: %v", err)
	}
	if temperature != -5.25 {
		t.Errorf("Temperature = %v, want -5.25", temperature)
	}
}

func TestStorageQueries(t *testing.T) {
	system, _ := newSyntheticSystem(t, Options{StoragePath: t.TempDir()})

	total, err := system.StorageTotal()
	if err != nil {
		t.Fatalf("StorageTotal: %v", err)
	}
	free, err := system.StorageFree()
	if err != nil {
		t.Fatalf("StorageFree: %v", err)
	}
	if total == 0 {
		t.Error("StorageTotal = 0, want a positive size")
	}
	if free > total {
		t.Errorf("StorageFree = %d exceeds StorageTotal = %d", free, total)
	}

	summary, err := system.DiskInfo()
	if err != nil {
		t.Fatalf("DiskInfo: %v", err)
	}
	if !strings.Contains(summary, "total") || !strings.Contains(summary, "free") {
		t.Errorf("DiskInfo = %q, want total and free figures", summary)
	}
}

func TestStorageMissingPath(t *testing.T) {
	system, root := newSyntheticSystem(t, Options{})
	system.options.StoragePath = filepath.Join(root, "does-not-exist")

	if _, err := system.StorageTotal(); err == nil {
		t.Error("StorageTotal on a missing path should fail")
	}
	if _, err := system.DiskInfo(); err == nil {
		t.Error("DiskInfo on a missing path should fail")
	}
}

func TestBuildInformation(t *testing.T) {
	system := NewSystem(Options{})

	arch, err := system.Arch()
	if err != nil || arch != runtime.GOARCH {
		t.Errorf("Arch = %q, %v; want %q", arch, err, runtime.GOARCH)
	}
	osName, err := system.OS()
	if err != nil || osName != "linux" {
		t.Errorf("OS = %q, %v; want linux", osName, err)
	}
	count, err := system.CPUNum()
	if err != nil || count == 0 {
		t.Errorf("CPUNum = %d, %v; want a positive count", count, err)
	}
	uptime, err := system.Uptime()
	if err != nil || uptime == "" {
		t.Errorf("Uptime = %q, %v; want a duration", uptime, err)
	}
}

func TestPowerCommands(t *testing.T) {
	system, _ := newSyntheticSystem(t, Options{
		RebootCommand: []string{"systemctl", "reboot"},
	})

	var calls [][]string
	system.run = func(name string, args ...string) ([]byte, error) {
		calls = append(calls, append([]string{name}, args...))
		return nil, nil
	}

	if err := system.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := system.Reboot(); err != nil {
		t.Fatalf("Reboot: %v", err)
	}

	want := []string{"shutdown -h now", "systemctl reboot"}
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d", len(calls), len(want))
	}
	for i, call := range calls {
		if got := strings.Join(call, " "); got != want[i] {
			t.Errorf("call %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestPowerCommandFailureIncludesOutput(t *testing.T) {
	system, _ := newSyntheticSystem(t, Options{})

	exitErr := errors.New("exit status 1")
	system.run = func(name string, args ...string) ([]byte, error) {
		return []byte("Failed to set wall message, ignoring: Interactive authentication required.\npermission denied\n"), exitErr
	}

	err := system.Shutdown()
	if err == nil {
		t.Fatal("Shutdown should fail when the command fails")
	}
	if !errors.Is(err, exitErr) {
		t.Errorf("error %v does not wrap the command error", err)
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("error %q does not carry the command output", err)
	}
	if !strings.HasPrefix(err.Error(), "shutdown -h now: ") {
		t.Errorf("error %q does not name the command", err)
	}
}
