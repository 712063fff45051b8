// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lion-device/lion/lib/broker"
	"github.com/lion-device/lion/lib/capability"
	"github.com/lion-device/lion/lib/dispatch"
	"github.com/lion-device/lion/lib/metrics"
	"github.com/lion-device/lion/lib/worker"
	"github.com/lion-device/lion/transport"
)

// DefaultBackend is the worker endpoint used when Options.Backend is
// empty. Workers run in-process, so an inproc endpoint avoids a socket.
const DefaultBackend = "inproc://workers"

// Options configures Start.
type Options struct {
	// Frontend is the client-facing endpoint. Required.
	Frontend string

	// Backend is the broker-to-worker endpoint. Default: DefaultBackend.
	Backend string

	// Workers is the number of concurrent workers. Must be at least 1.
	Workers int

	// Provider executes the capabilities. Required.
	Provider capability.Provider

	Logger  *slog.Logger
	Metrics *metrics.Collector
}

// Handle controls a running daemon.
type Handle struct {
	transport *transport.Context
	frontend  string
	logger    *slog.Logger

	done chan struct{}
	err  error
}

// Start launches the daemon. When Start returns, the frontend is bound
// and accepting clients. Cancelling ctx stops the daemon as Stop does.
func Start(ctx context.Context, options Options) (*Handle, error) {
	if options.Frontend == "" {
		return nil, errors.New("daemon: frontend endpoint is required")
	}
	if options.Provider == nil {
		return nil, errors.New("daemon: capability provider is required")
	}
	if options.Backend == "" {
		options.Backend = DefaultBackend
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transportContext := transport.NewContext()
	requestBroker, err := broker.Listen(transportContext, broker.Config{
		Frontend: options.Frontend,
		Backend:  options.Backend,
		Logger:   logger,
		Metrics:  options.Metrics,
	})
	if err != nil {
		transportContext.Terminate()
		return nil, fmt.Errorf("daemon: %w", err)
	}

	pool, err := worker.NewPool(worker.PoolConfig{
		Size:       options.Workers,
		Transport:  transportContext,
		Backend:    requestBroker.Backend(),
		Dispatcher: dispatch.New(options.Provider, logger, options.Metrics),
		Logger:     logger,
		Metrics:    options.Metrics,
	})
	if err != nil {
		transportContext.Terminate()
		return nil, fmt.Errorf("daemon: %w", err)
	}

	handle := &Handle{
		transport: transportContext,
		frontend:  requestBroker.Frontend(),
		logger:    logger,
		done:      make(chan struct{}),
	}

	// Shutdown travels through the transport, not through these
	// contexts: the broker and pool see ErrTerminated.
	runContext := context.WithoutCancel(ctx)

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		failures []error
	)
	run := func(name string, serve func(context.Context) error) {
		defer wg.Done()
		err := serve(runContext)
		if err != nil {
			logger.Error(name+" failed", "error", err)
			errMu.Lock()
			failures = append(failures, fmt.Errorf("%s: %w", name, err))
			errMu.Unlock()
		}
		// Neither half is useful without the other.
		transportContext.Terminate()
	}
	wg.Add(2)
	go run("broker", requestBroker.Serve)
	go run("worker pool", pool.Run)

	go func() {
		wg.Wait()
		handle.err = errors.Join(failures...)
		close(handle.done)
		logger.Info("daemon stopped")
	}()

	go func() {
		select {
		case <-ctx.Done():
			logger.Info("daemon context cancelled, stopping")
			transportContext.Terminate()
		case <-handle.done:
		}
	}()

	logger.Info("daemon started",
		"frontend", handle.frontend,
		"backend", options.Backend,
		"workers", options.Workers,
	)
	return handle, nil
}

// Frontend returns the bound frontend endpoint. With a "tcp://...:0"
// frontend it reports the port the kernel chose.
func (h *Handle) Frontend() string {
	return h.frontend
}

// Stop terminates the transport context and waits for the broker and
// every worker to return, or for ctx to expire. Returns the daemon's
// failure, if any; a clean shutdown returns nil. Safe to call more
// than once.
func (h *Handle) Stop(ctx context.Context) error {
	h.transport.Terminate()
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return fmt.Errorf("daemon: waiting for shutdown: %w", ctx.Err())
	}
}

// Done is closed once the broker and all workers have returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the daemon stops and returns its failure, if any.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}
