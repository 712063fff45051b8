// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lion-device/lion/lib/metrics"
	"github.com/lion-device/lion/transport"
)

// Backoff between attempts to reconnect a worker to the broker.
const (
	redialMinDelay = 50 * time.Millisecond
	redialMaxDelay = 2 * time.Second
)

// PoolConfig configures a Pool.
type PoolConfig struct {
	// Size is the number of workers. Must be at least 1.
	Size int

	// Transport is the context the backend listener was bound on. For
	// inproc backends it must be the same context.
	Transport *transport.Context

	// Backend is the broker's backend endpoint.
	Backend string

	Dispatcher Dispatcher
	Logger     *slog.Logger
	Metrics    *metrics.Collector
}

// Pool runs a fixed set of workers.
type Pool struct {
	config PoolConfig
	logger *slog.Logger
}

// NewPool validates config and returns a pool ready to Run.
func NewPool(config PoolConfig) (*Pool, error) {
	if config.Size < 1 {
		return nil, fmt.Errorf("worker pool size must be at least 1, got %d", config.Size)
	}
	if config.Transport == nil {
		return nil, errors.New("worker pool requires a transport context")
	}
	if config.Dispatcher == nil {
		return nil, errors.New("worker pool requires a dispatcher")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{config: config, logger: logger}, nil
}

// Run connects every worker to the backend and serves until ctx is
// cancelled or the transport context is terminated. A worker whose
// broker connection fails reconnects; one bad exchange never shrinks
// the pool. Returns an error only if the initial connections cannot be
// made.
func (p *Pool) Run(ctx context.Context) error {
	conns := make([]*transport.Conn, 0, p.config.Size)
	for i := 0; i < p.config.Size; i++ {
		conn, err := p.config.Transport.Dial(ctx, p.config.Backend)
		if err != nil {
			for _, established := range conns {
				established.Close()
			}
			if errors.Is(err, transport.ErrTerminated) {
				return nil
			}
			return fmt.Errorf("connecting worker %d: %w", i, err)
		}
		conns = append(conns, conn)
	}
	p.logger.Info("worker pool started", "workers", p.config.Size, "backend", p.config.Backend)

	var wg sync.WaitGroup
	for i, conn := range conns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.serve(ctx, i, conn)
		}()
	}
	wg.Wait()

	p.logger.Info("worker pool stopped")
	return nil
}

// serve runs worker id on conn, reconnecting each time the connection
// fails, until the pool is stopped.
func (p *Pool) serve(ctx context.Context, id int, conn *transport.Conn) {
	for {
		current := conn
		stopClosing := context.AfterFunc(ctx, func() { current.Close() })
		err := New(id, current, p.config.Dispatcher, p.logger, p.config.Metrics).Run()
		stopClosing()
		current.Close()
		if err == nil || ctx.Err() != nil {
			return
		}

		p.logger.Warn("worker lost its broker connection, reconnecting", "worker", id, "error", err)
		p.config.Metrics.WorkerReconnect()
		if conn = p.redial(ctx, id); conn == nil {
			return
		}
	}
}

// redial connects to the backend again, backing off between attempts.
// Returns nil once the pool is stopped.
func (p *Pool) redial(ctx context.Context, id int) *transport.Conn {
	delay := redialMinDelay
	for {
		conn, err := p.config.Transport.Dial(ctx, p.config.Backend)
		if err == nil {
			p.logger.Info("worker reconnected", "worker", id)
			return conn
		}
		if errors.Is(err, transport.ErrTerminated) || ctx.Err() != nil {
			return nil
		}
		p.logger.Warn("reconnecting worker failed", "worker", id, "error", err, "retry_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-p.config.Transport.Done():
			timer.Stop()
			return nil
		}
		delay = min(2*delay, redialMaxDelay)
	}
}
