// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package dispatch

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"

	"github.com/lion-device/lion/lib/capability"
	"github.com/lion-device/lion/lib/clock"
	"github.com/lion-device/lion/lib/metrics"
	"github.com/lion-device/lion/lib/protocol"
)

// Dispatcher routes requests to a capability provider. It holds no
// per-request state and is safe for concurrent use by every worker.
type Dispatcher struct {
	provider capability.Provider
	logger   *slog.Logger
	metrics  *metrics.Collector
	clock    clock.Clock
	routes   map[route]action
}

// New creates a Dispatcher calling into provider. A nil logger uses
// slog.Default; a nil collector disables metrics.
func New(provider capability.Provider, logger *slog.Logger, collector *metrics.Collector) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		provider: provider,
		logger:   logger,
		metrics:  collector,
		clock:    clock.Real(),
		routes:   buildRoutes(table),
	}
}

// Dispatch executes request and returns its response. The response's
// command and resource always echo the request.
func (d *Dispatcher) Dispatch(request *protocol.Request) *protocol.Response {
	response := protocol.NewResponse(request)
	started := d.clock.Now()
	defer func() {
		d.metrics.ObserveDispatch(request.Command.String(), request.Resource.String(),
			response.Status.String(), d.clock.Since(started))
	}()

	kind := request.Resource.Kind()
	if kind == protocol.ResourceNone {
		d.logger.Debug("request has no resource", "command", request.Command)
		response.Payload = protocol.Text(protocol.NotSupported)
		return response
	}

	entry, ok := d.routes[route{command: request.Command, kind: kind, subtype: request.Resource.Subtype()}]
	if !ok {
		d.logger.Warn("no handler for request",
			"command", request.Command,
			"resource", request.Resource,
		)
		return response
	}

	if entry.confirm {
		if confirmed, _ := request.Payload.AsBool(); !confirmed {
			d.logger.Debug("power request not confirmed",
				"resource", request.Resource,
				"payload", request.Payload,
			)
			return response
		}
		d.logger.Info("executing power request", "operation", entry.operation)
	}

	payload, err := d.invoke(entry)
	if err != nil {
		d.logger.Error("failed to "+entry.description,
			"operation", entry.operation,
			"error", err,
		)
		response.Payload = protocol.Text(err.Error())
		return response
	}

	response.Status = protocol.StatusOK
	response.Payload = payload
	return response
}

// invoke calls the capability, converting a panic into an error so a
// misbehaving provider fails one request instead of the worker.
func (d *Dispatcher) invoke(entry action) (payload *protocol.Payload, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			d.logger.Error("capability panicked",
				"operation", entry.operation,
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
			payload = nil
			err = fmt.Errorf("%s: internal error: %v", entry.operation, recovered)
		}
	}()
	return entry.invoke(d.provider)
}

// Route describes one supported request.
type Route struct {
	Command  protocol.Command
	Resource protocol.Resource

	// Operation is the capability.Provider method the route calls.
	Operation string

	// Confirm is true when the request must carry bval == true.
	Confirm bool
}

// Routes lists the supported requests, ordered by command, resource
// kind and sub-type.
func Routes() []Route {
	routes := make([]Route, 0, len(table))
	for _, entry := range table {
		key := entry.key()
		routes = append(routes, Route{
			Command:   key.command,
			Resource:  entry.resource.Clone(),
			Operation: entry.operation,
			Confirm:   entry.confirm,
		})
	}
	sort.Slice(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if a.Command != b.Command {
			return a.Command < b.Command
		}
		if a.Resource.Kind() != b.Resource.Kind() {
			return a.Resource.Kind() < b.Resource.Kind()
		}
		return a.Resource.Subtype() < b.Resource.Subtype()
	})
	return routes
}
