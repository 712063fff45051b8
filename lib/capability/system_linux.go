// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"
)

// Compile-time interface check.
var _ Provider = (*System)(nil)

// System reads host state from the running Linux kernel. It holds no
// mutable state and is safe for concurrent use.
type System struct {
	options Options

	procRoot string
	sysRoot  string
	etcRoot  string

	// run executes a power command and returns its combined output.
	run func(name string, args ...string) ([]byte, error)
}

// NewSystem returns a provider for the local machine.
func NewSystem(options Options) *System {
	return newSystemFrom(options, "/proc", "/sys", "/etc")
}

// newSystemFrom is the testable constructor. It accepts root paths for
// /proc, /sys and /etc so tests can point at synthetic filesystems.
func newSystemFrom(options Options, procRoot, sysRoot, etcRoot string) *System {
	return &System{
		options:  options.withDefaults(),
		procRoot: procRoot,
		sysRoot:  sysRoot,
		etcRoot:  etcRoot,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).CombinedOutput()
		},
	}
}

func (s *System) Shutdown() error {
	return s.runPowerCommand(s.options.ShutdownCommand)
}

func (s *System) Reboot() error {
	return s.runPowerCommand(s.options.RebootCommand)
}

// runPowerCommand runs argv and folds the command's own output into
// the error so the client sees why it failed (typically a permissions
// message from shutdown(8)).
func (s *System) runPowerCommand(argv []string) error {
	output, err := s.run(argv[0], argv[1:]...)
	if err == nil {
		return nil
	}
	detail := strings.TrimSpace(string(output))
	if detail == "" {
		return fmt.Errorf("%s: %w", strings.Join(argv, " "), err)
	}
	return fmt.Errorf("%s: %w: %s", strings.Join(argv, " "), err, detail)
}

func (s *System) Arch() (string, error) {
	return runtime.GOARCH, nil
}

func (s *System) OS() (string, error) {
	return runtime.GOOS, nil
}

// OSRelease returns the kernel release, preferring procfs so it
// reflects the kernel the daemon runs under even inside a container
// with a faked uname.
func (s *System) OSRelease() (string, error) {
	if release := readFileString(filepath.Join(s.procRoot, "sys/kernel/osrelease")); release != "" {
		return release, nil
	}
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	return unix.ByteSliceToString(utsname.Release[:]), nil
}

// OSInfo combines the distribution name from os-release(5) with the
// kernel identification from uname(2), e.g.
// "Debian GNU/Linux 12 (bookworm), Linux 6.1.0-18-amd64 x86_64".
func (s *System) OSInfo() (string, error) {
	var utsname unix.Utsname
	if err := unix.Uname(&utsname); err != nil {
		return "", fmt.Errorf("uname: %w", err)
	}
	kernel := strings.Join([]string{
		unix.ByteSliceToString(utsname.Sysname[:]),
		unix.ByteSliceToString(utsname.Release[:]),
		unix.ByteSliceToString(utsname.Machine[:]),
	}, " ")

	release := readOSRelease(filepath.Join(s.etcRoot, "os-release"))
	name := release["PRETTY_NAME"]
	if name == "" {
		name = release["NAME"]
	}
	if name == "" {
		return kernel, nil
	}
	return name + ", " + kernel, nil
}

func (s *System) CPUNum() (uint32, error) {
	return uint32(runtime.NumCPU()), nil
}

// CPUSpeed reads the current clock of the first CPU from
// /proc/cpuinfo. Architectures that do not report "cpu MHz" there
// (most ARM boards) fall back to the cpufreq maximum frequency.
func (s *System) CPUSpeed() (uint32, error) {
	if value, ok := readKeyValue(filepath.Join(s.procRoot, "cpuinfo"), "cpu MHz"); ok {
		megahertz, err := strconv.ParseFloat(value, 64)
		if err == nil && megahertz > 0 {
			return uint32(math.Round(megahertz)), nil
		}
	}
	kilohertz, err := readFileInt64(filepath.Join(s.sysRoot, "devices/system/cpu/cpu0/cpufreq/cpuinfo_max_freq"))
	if err != nil {
		return 0, fmt.Errorf("cpu speed unavailable: %w", err)
	}
	if kilohertz <= 0 {
		return 0, errors.New("cpu speed unavailable: cpufreq reports zero")
	}
	return uint32(kilohertz / 1000), nil
}

// CPUInfo describes the processor, e.g.
// "AMD EPYC 7763 64-Core Processor, 8 CPUs @ 2445 MHz".
func (s *System) CPUInfo() (string, error) {
	cpuinfo := filepath.Join(s.procRoot, "cpuinfo")
	model, ok := readKeyValue(cpuinfo, "model name")
	if !ok {
		// ARM kernels report the SoC under "Model" or "Hardware".
		if model, ok = readKeyValue(cpuinfo, "Model"); !ok {
			model, ok = readKeyValue(cpuinfo, "Hardware")
		}
	}
	if !ok || model == "" {
		model = runtime.GOARCH
	}

	count, _ := s.CPUNum()
	description := fmt.Sprintf("%s, %d CPUs", model, count)
	if speed, err := s.CPUSpeed(); err == nil {
		description += fmt.Sprintf(" @ %d MHz", speed)
	}
	return description, nil
}

// Temperature reads the configured thermal zone, or the first zone the
// kernel exposes. sysfs reports millidegrees Celsius.
func (s *System) Temperature() (float64, error) {
	path := s.options.ThermalZone
	if path == "" {
		zones, _ := filepath.Glob(filepath.Join(s.sysRoot, "class/thermal/thermal_zone*/temp"))
		if len(zones) == 0 {
			return 0, errors.New("no thermal zone found")
		}
		sort.Strings(zones)
		path = zones[0]
	}
	millidegrees, err := readFileInt64(path)
	if err != nil {
		return 0, fmt.Errorf("reading temperature: %w", err)
	}
	return float64(millidegrees) / 1000, nil
}

// storage returns total and free kilobytes of the storage filesystem.
// Free counts all free blocks, including those reserved for root.
func (s *System) storage() (total, free uint64, err error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(s.options.StoragePath, &stat); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", s.options.StoragePath, err)
	}
	blockSize := uint64(stat.Bsize)
	return stat.Blocks * blockSize / 1024, stat.Bfree * blockSize / 1024, nil
}

func (s *System) StorageTotal() (uint64, error) {
	total, _, err := s.storage()
	return total, err
}

func (s *System) StorageFree() (uint64, error) {
	_, free, err := s.storage()
	return free, err
}

// DiskInfo summarizes the storage filesystem, e.g.
// "/: 118 GiB total, 42 GiB free, 76 GiB used (64.4%)".
func (s *System) DiskInfo() (string, error) {
	total, free, err := s.storage()
	if err != nil {
		return "", err
	}
	used := total - free
	percent := 0.0
	if total > 0 {
		percent = float64(used) / float64(total) * 100
	}
	return fmt.Sprintf("%s: %s total, %s free, %s used (%.1f%%)",
		s.options.StoragePath,
		humanize.IBytes(total*1024),
		humanize.IBytes(free*1024),
		humanize.IBytes(used*1024),
		percent,
	), nil
}

func (s *System) Uptime() (string, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return "", fmt.Errorf("sysinfo: %w", err)
	}
	return (time.Duration(info.Uptime) * time.Second).String(), nil
}

// BootTime reads the "btime" line of /proc/stat (seconds since the
// epoch), which unlike now-minus-uptime does not drift with NTP steps.
func (s *System) BootTime() (string, error) {
	value, ok := readKeyValue(filepath.Join(s.procRoot, "stat"), "btime")
	if !ok {
		return "", errors.New("boot time unavailable: no btime in /proc/stat")
	}
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return "", fmt.Errorf("boot time unavailable: %w", err)
	}
	return time.Unix(seconds, 0).UTC().Format(time.RFC3339), nil
}
