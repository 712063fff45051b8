// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"fmt"
	"strings"

	"github.com/lion-device/lion/lib/capability"
	"github.com/lion-device/lion/lib/protocol"
)

// route is the routing key.
type route struct {
	command protocol.Command
	kind    protocol.ResourceKind
	subtype uint8
}

// action is what a route resolves to.
type action struct {
	resource protocol.Resource

	// operation is the Provider method name, used in logs.
	operation string

	// description completes "failed to ..." in the error log.
	description string

	// confirm requires the request payload to be bval == true.
	confirm bool

	invoke func(capability.Provider) (*protocol.Payload, error)
}

// table lists every supported request. Adding a sub-type is one line.
var table = []action{
	power(protocol.PowerShutdown, "Shutdown", "power off the board", capability.Provider.Shutdown),
	power(protocol.PowerReboot, "Reboot", "reboot the board", capability.Provider.Reboot),

	query(protocol.SysInfoArch, "Arch", capability.Provider.Arch, protocol.Text),
	query(protocol.SysInfoOS, "OS", capability.Provider.OS, protocol.Text),
	query(protocol.SysInfoOSRelease, "OSRelease", capability.Provider.OSRelease, protocol.Text),
	query(protocol.SysInfoOSInfo, "OSInfo", capability.Provider.OSInfo, protocol.Text),
	query(protocol.SysInfoCPUNum, "CPUNum", capability.Provider.CPUNum, protocol.Uint),
	query(protocol.SysInfoCPUSpeed, "CPUSpeed", capability.Provider.CPUSpeed, protocol.Uint),
	query(protocol.SysInfoCPUInfo, "CPUInfo", capability.Provider.CPUInfo, protocol.Text),
	query(protocol.SysInfoTemperature, "Temperature", capability.Provider.Temperature, protocol.Real),
	query(protocol.SysInfoStorageTotal, "StorageTotal", capability.Provider.StorageTotal, protocol.Uint64),
	query(protocol.SysInfoStorageFree, "StorageFree", capability.Provider.StorageFree, protocol.Uint64),
	query(protocol.SysInfoDiskInfo, "DiskInfo", capability.Provider.DiskInfo, protocol.Text),
	query(protocol.SysInfoUptime, "Uptime", capability.Provider.Uptime, protocol.Text),
	query(protocol.SysInfoBootTime, "BootTime", capability.Provider.BootTime, protocol.Text),
}

// power builds a SET entry for a confirmed power operation. Success
// carries no payload.
func power(powerType protocol.PowerType, operation, description string, call func(capability.Provider) error) action {
	return action{
		resource:    protocol.Power(powerType),
		operation:   operation,
		description: description,
		confirm:     true,
		invoke: func(provider capability.Provider) (*protocol.Payload, error) {
			return nil, call(provider)
		},
	}
}

// query builds a GET entry whose result is wrapped into a payload.
func query[T any](sysInfoType protocol.SysInfoType, operation string, call func(capability.Provider) (T, error), wrap func(T) *protocol.Payload) action {
	return action{
		resource:    protocol.SysInfo(sysInfoType),
		operation:   operation,
		description: "read " + strings.ToLower(strings.ReplaceAll(sysInfoType.String(), "_", " ")),
		invoke: func(provider capability.Provider) (*protocol.Payload, error) {
			value, err := call(provider)
			if err != nil {
				return nil, err
			}
			return wrap(value), nil
		},
	}
}

func (a action) key() route {
	command := protocol.CommandGet
	if a.resource.Kind() == protocol.ResourcePower {
		command = protocol.CommandSet
	}
	return route{command: command, kind: a.resource.Kind(), subtype: a.resource.Subtype()}
}

// buildRoutes indexes the table, rejecting duplicate keys.
func buildRoutes(actions []action) map[route]action {
	routes := make(map[route]action, len(actions))
	for _, a := range actions {
		key := a.key()
		if existing, ok := routes[key]; ok {
			panic(fmt.Sprintf("dispatch: %s registered by both %s and %s", a.resource, existing.operation, a.operation))
		}
		routes[key] = a
	}
	return routes
}
