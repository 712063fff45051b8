// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lion-device/lion/lib/metrics"
	"github.com/lion-device/lion/transport"
)

// outboxSize bounds the messages queued for one peer. A client only
// ever has one request outstanding, so overflowing this means the peer
// stopped reading and is disconnected.
const outboxSize = 64

// Config holds the broker's dependencies.
type Config struct {
	// Frontend is the client-facing endpoint, e.g. "tcp://*:5555".
	Frontend string

	// Backend is the worker-facing endpoint, e.g. "inproc://workers".
	Backend string

	Logger  *slog.Logger
	Metrics *metrics.Collector
}

// Broker routes client requests to workers. Create with Listen, run
// with Serve.
type Broker struct {
	frontend *transport.Listener
	backend  *transport.Listener
	logger   *slog.Logger
	metrics  *metrics.Collector

	events  chan event
	stopped chan struct{}

	// activeGoroutines tracks accept loops and per-peer goroutines so
	// Serve returns only after all of them exit.
	activeGoroutines sync.WaitGroup
}

// Listen binds both endpoints on transportContext. Workers may dial
// the backend as soon as Listen returns; their connections are
// accepted once Serve runs.
func Listen(transportContext *transport.Context, config Config) (*Broker, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	frontend, err := transportContext.Listen(config.Frontend)
	if err != nil {
		return nil, fmt.Errorf("binding frontend: %w", err)
	}
	backend, err := transportContext.Listen(config.Backend)
	if err != nil {
		frontend.Close()
		return nil, fmt.Errorf("binding backend: %w", err)
	}

	return &Broker{
		frontend: frontend,
		backend:  backend,
		logger:   logger,
		metrics:  config.Metrics,
		events:   make(chan event),
		stopped:  make(chan struct{}),
	}, nil
}

// Frontend returns the bound frontend endpoint.
func (b *Broker) Frontend() string {
	return b.frontend.Endpoint()
}

// Backend returns the bound backend endpoint.
func (b *Broker) Backend() string {
	return b.backend.Endpoint()
}

// Serve runs the broker until ctx is cancelled or the transport
// context is terminated, in both cases returning nil. Any other reason
// the broker cannot continue is returned as an error. Serve may be
// called once.
func (b *Broker) Serve(ctx context.Context) error {
	b.logger.Info("broker serving",
		"frontend", b.frontend.Endpoint(),
		"backend", b.backend.Endpoint(),
	)

	b.activeGoroutines.Add(2)
	go b.acceptLoop(b.frontend, roleClient)
	go b.acceptLoop(b.backend, roleWorker)

	state := newRoutingState(b)
	err := b.run(ctx, state)

	// Unblock every goroutine still sending to the loop, then close
	// all connections so readers and writers exit.
	close(b.stopped)
	b.frontend.Close()
	b.backend.Close()
	state.closeAll()
	b.activeGoroutines.Wait()

	b.metrics.SetQueueDepth(0)
	b.metrics.SetReadyWorkers(0)
	b.metrics.SetClients(0)

	if err != nil {
		return err
	}
	b.logger.Info("broker stopped")
	return nil
}

func (b *Broker) run(ctx context.Context, state *routingState) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-b.events:
			if err := state.handle(ev); err != nil {
				if errors.Is(err, transport.ErrTerminated) {
					return nil
				}
				return err
			}
			state.publishGauges()
		}
	}
}

// deliver passes ev to the event loop. Returns false once the loop has
// stopped.
func (b *Broker) deliver(ev event) bool {
	select {
	case b.events <- ev:
		return true
	case <-b.stopped:
		return false
	}
}

func (b *Broker) acceptLoop(listener *transport.Listener, role peerRole) {
	defer b.activeGoroutines.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, transport.ErrTerminated) || errors.Is(err, transport.ErrClosed) {
				b.deliver(event{kind: eventAcceptStopped, role: role, err: err})
				return
			}
			b.logger.Error("accept failed", "role", role, "error", err)
			continue
		}

		p := newPeer(conn, role)
		if role == roleClient {
			identity := uuid.New()
			p.identity = identity[:]
		}
		if !b.deliver(event{kind: eventConnected, peer: p}) {
			conn.Close()
			return
		}
		b.activeGoroutines.Add(2)
		go b.readLoop(p)
		go b.writeLoop(p)
	}
}

// readLoop forwards every message from p to the event loop, then
// reports the disconnect.
func (b *Broker) readLoop(p *peer) {
	defer b.activeGoroutines.Done()
	for {
		message, err := p.conn.Recv()
		if err != nil {
			b.deliver(event{kind: eventDisconnected, peer: p, err: err})
			return
		}
		if !b.deliver(event{kind: eventMessage, peer: p, message: message}) {
			return
		}
	}
}

// writeLoop drains p's outbox. A send failure closes the connection,
// which makes readLoop report the disconnect.
func (b *Broker) writeLoop(p *peer) {
	defer b.activeGoroutines.Done()
	for {
		select {
		case message := <-p.outbox:
			if err := p.conn.Send(message); err != nil {
				if !errors.Is(err, transport.ErrTerminated) && !transport.IsDisconnect(err) {
					b.logger.Warn("send failed", "role", p.role, "peer", p.conn.Peer(), "error", err)
				}
				p.conn.Close()
				return
			}
		case <-p.removed:
			return
		}
	}
}
