// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"strings"
)

// Command selects whether a request changes state (SET) or reads it
// (GET).
type Command uint8

const (
	CommandSet Command = 0
	CommandGet Command = 1
)

func (c Command) String() string {
	switch c {
	case CommandSet:
		return "SET"
	case CommandGet:
		return "GET"
	default:
		return fmt.Sprintf("Command(%d)", uint8(c))
	}
}

// Valid reports whether c is a known command.
func (c Command) Valid() bool {
	return c == CommandSet || c == CommandGet
}

// PowerType selects a power-control operation.
type PowerType uint8

const (
	PowerShutdown PowerType = 0
	PowerReboot   PowerType = 1
)

var powerTypeNames = []string{
	PowerShutdown: "SHUTDOWN",
	PowerReboot:   "REBOOT",
}

func (p PowerType) String() string {
	if p.Valid() {
		return powerTypeNames[p]
	}
	return fmt.Sprintf("PowerType(%d)", uint8(p))
}

// Valid reports whether p is a known power operation.
func (p PowerType) Valid() bool {
	return int(p) < len(powerTypeNames)
}

// PowerTypes returns every known power operation in wire order.
func PowerTypes() []PowerType {
	types := make([]PowerType, len(powerTypeNames))
	for i := range types {
		types[i] = PowerType(i)
	}
	return types
}

// ParsePowerType accepts a power operation name in any case.
func ParsePowerType(name string) (PowerType, error) {
	index, ok := lookupName(powerTypeNames, name)
	if !ok {
		return 0, fmt.Errorf("unknown power type %q", name)
	}
	return PowerType(index), nil
}

// SysInfoType selects a system-information query.
type SysInfoType uint8

const (
	SysInfoArch SysInfoType = iota
	SysInfoOS
	SysInfoOSRelease
	SysInfoCPUNum
	SysInfoCPUSpeed
	SysInfoStorageTotal
	SysInfoStorageFree
	SysInfoUptime
	SysInfoTemperature
	SysInfoBootTime
	SysInfoOSInfo
	SysInfoCPUInfo
	SysInfoDiskInfo
)

var sysInfoTypeNames = []string{
	SysInfoArch:         "ARCH",
	SysInfoOS:           "OS",
	SysInfoOSRelease:    "OS_RELEASE",
	SysInfoCPUNum:       "CPU_NUM",
	SysInfoCPUSpeed:     "CPU_SPEED",
	SysInfoStorageTotal: "STORAGE_TOTAL",
	SysInfoStorageFree:  "STORAGE_FREE",
	SysInfoUptime:       "UPTIME",
	SysInfoTemperature:  "TEMPERATURE",
	SysInfoBootTime:     "BOOT_TIME",
	SysInfoOSInfo:       "OS_INFO",
	SysInfoCPUInfo:      "CPU_INFO",
	SysInfoDiskInfo:     "DISK_INFO",
}

func (s SysInfoType) String() string {
	if s.Valid() {
		return sysInfoTypeNames[s]
	}
	return fmt.Sprintf("SysInfoType(%d)", uint8(s))
}

// Valid reports whether s is a known query.
func (s SysInfoType) Valid() bool {
	return int(s) < len(sysInfoTypeNames)
}

// SysInfoTypes returns every known query in wire order.
func SysInfoTypes() []SysInfoType {
	types := make([]SysInfoType, len(sysInfoTypeNames))
	for i := range types {
		types[i] = SysInfoType(i)
	}
	return types
}

// ParseSysInfoType accepts "CPU_NUM", "cpu_num" and "cpu-num" alike.
func ParseSysInfoType(name string) (SysInfoType, error) {
	index, ok := lookupName(sysInfoTypeNames, name)
	if !ok {
		return 0, fmt.Errorf("unknown sysinfo type %q", name)
	}
	return SysInfoType(index), nil
}

// Status reports the outcome of a request.
type Status uint8

const (
	StatusOK   Status = 0
	StatusFail Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusFail:
		return "FAIL"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusOK || s == StatusFail
}

func lookupName(names []string, name string) (int, bool) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(name), "-", "_"))
	for index, candidate := range names {
		if candidate == normalized {
			return index, true
		}
	}
	return 0, false
}
