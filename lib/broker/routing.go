// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"errors"
	"fmt"

	"github.com/lion-device/lion/lib/protocol"
	"github.com/lion-device/lion/transport"
)

type peerRole string

const (
	roleClient peerRole = "client"
	roleWorker peerRole = "worker"
)

type peer struct {
	conn *transport.Conn
	role peerRole

	// identity is the routing envelope of a client. Nil for workers.
	identity []byte

	outbox chan transport.Message

	// removed is closed by the event loop when it forgets the peer.
	removed chan struct{}
}

func newPeer(conn *transport.Conn, role peerRole) *peer {
	return &peer{
		conn:    conn,
		role:    role,
		outbox:  make(chan transport.Message, outboxSize),
		removed: make(chan struct{}),
	}
}

type eventKind int

const (
	eventConnected eventKind = iota
	eventMessage
	eventDisconnected
	eventAcceptStopped
)

type event struct {
	kind    eventKind
	peer    *peer
	role    peerRole
	message transport.Message
	err     error
}

// routingState is owned by the event loop goroutine.
type routingState struct {
	broker *Broker

	// clients maps string(identity) to the client connection.
	clients map[string]*peer
	workers map[*peer]struct{}

	// ready holds idle workers, longest-waiting first.
	ready []*peer

	// pending holds [identity, body...] messages awaiting a worker.
	pending []transport.Message

	// inFlight maps a busy worker to the identity it is serving.
	inFlight map[*peer]string
}

func newRoutingState(b *Broker) *routingState {
	return &routingState{
		broker:   b,
		clients:  make(map[string]*peer),
		workers:  make(map[*peer]struct{}),
		inFlight: make(map[*peer]string),
	}
}

func (s *routingState) handle(ev event) error {
	switch ev.kind {
	case eventConnected:
		s.connected(ev.peer)
	case eventMessage:
		if ev.peer.role == roleClient {
			s.clientMessage(ev.peer, ev.message)
		} else {
			s.workerMessage(ev.peer, ev.message)
		}
	case eventDisconnected:
		s.disconnected(ev.peer, ev.err)
	case eventAcceptStopped:
		if errors.Is(ev.err, transport.ErrTerminated) {
			return transport.ErrTerminated
		}
		return fmt.Errorf("%s listener stopped: %w", ev.role, ev.err)
	}
	return nil
}

func (s *routingState) connected(p *peer) {
	logger := s.broker.logger
	if p.role == roleClient {
		s.clients[string(p.identity)] = p
		logger.Debug("client connected", "peer", p.conn.Peer(), "identity", fmt.Sprintf("%x", p.identity))
		return
	}
	s.workers[p] = struct{}{}
	logger.Debug("worker connected", "peer", p.conn.Peer(), "workers", len(s.workers))
	s.workerReady(p)
}

func (s *routingState) clientMessage(client *peer, message transport.Message) {
	if _, ok := s.clients[string(client.identity)]; !ok {
		return
	}

	envelope := make(transport.Message, 0, len(message)+1)
	envelope = append(envelope, client.identity)
	envelope = append(envelope, message...)

	// A message the client could send may no longer fit once the
	// identity frame is added. It is answered here, never forwarded.
	if err := transport.CheckLimits(envelope); err != nil {
		s.broker.logger.Warn("rejecting oversized client message",
			"peer", client.conn.Peer(), "frames", len(message), "size", message.EncodedSize())
		s.reject(client, "request too large: "+err.Error())
		return
	}

	if len(s.ready) == 0 {
		s.pending = append(s.pending, envelope)
		return
	}
	worker := s.ready[0]
	s.ready = s.ready[1:]
	s.assign(worker, envelope)
}

// reject answers client with a FAIL response carrying reason.
func (s *routingState) reject(client *peer, reason string) {
	s.broker.metrics.Rejected()
	body, err := protocol.EncodeResponse(protocol.Failure(reason))
	if err != nil {
		s.broker.logger.Error("encoding rejection", "error", err)
		s.removeClient(client)
		return
	}
	s.send(client, transport.Message{body})
}

func (s *routingState) workerMessage(worker *peer, message transport.Message) {
	if _, ok := s.workers[worker]; !ok {
		return
	}
	if _, busy := s.inFlight[worker]; !busy {
		s.broker.logger.Warn("reply from idle worker dropped", "peer", worker.conn.Peer())
		return
	}
	delete(s.inFlight, worker)

	if len(message) < 2 {
		s.broker.logger.Warn("worker reply without identity and body dropped",
			"peer", worker.conn.Peer(), "frames", len(message))
	} else if client, ok := s.clients[string(message[0])]; ok {
		s.send(client, message[1:])
	} else {
		s.broker.logger.Debug("reply for departed client dropped", "identity", fmt.Sprintf("%x", message[0]))
	}

	s.workerReady(worker)
}

// workerReady hands the oldest pending request to worker, or parks it
// in the ready queue.
func (s *routingState) workerReady(worker *peer) {
	if len(s.pending) > 0 {
		envelope := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.assign(worker, envelope)
		return
	}
	s.ready = append(s.ready, worker)
}

func (s *routingState) assign(worker *peer, envelope transport.Message) {
	s.inFlight[worker] = string(envelope[0])
	s.send(worker, envelope)
}

// send queues message for p. A full outbox means p stopped reading.
func (s *routingState) send(p *peer, message transport.Message) {
	select {
	case p.outbox <- message:
	default:
		s.broker.logger.Warn("peer outbox full, disconnecting", "role", p.role, "peer", p.conn.Peer())
		p.conn.Close()
	}
}

func (s *routingState) disconnected(p *peer, err error) {
	logger := s.broker.logger
	if !errors.Is(err, transport.ErrTerminated) && !errors.Is(err, transport.ErrClosed) && !transport.IsDisconnect(err) {
		logger.Warn("connection failed", "role", p.role, "peer", p.conn.Peer(), "error", err)
	}

	if p.role == roleClient {
		s.removeClient(p)
		logger.Debug("client disconnected", "identity", fmt.Sprintf("%x", p.identity))
		return
	}

	if _, ok := s.workers[p]; !ok {
		return
	}
	delete(s.workers, p)
	for i, candidate := range s.ready {
		if candidate == p {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			break
		}
	}
	if identity, busy := s.inFlight[p]; busy {
		delete(s.inFlight, p)
		if client, ok := s.clients[identity]; ok {
			logger.Warn("worker lost with a request in flight, closing client",
				"worker", p.conn.Peer(), "client", client.conn.Peer())
			s.removeClient(client)
		}
	}
	close(p.removed)
	p.conn.Close()
	logger.Debug("worker disconnected", "workers", len(s.workers))
}

// removeClient forgets client and drops its queued requests.
func (s *routingState) removeClient(client *peer) {
	key := string(client.identity)
	if s.clients[key] != client {
		return
	}
	delete(s.clients, key)

	kept := s.pending[:0]
	for _, envelope := range s.pending {
		if string(envelope[0]) != key {
			kept = append(kept, envelope)
		}
	}
	for i := len(kept); i < len(s.pending); i++ {
		s.pending[i] = nil
	}
	s.pending = kept

	close(client.removed)
	client.conn.Close()
}

// closeAll closes every connection the loop still knows about.
func (s *routingState) closeAll() {
	for _, client := range s.clients {
		close(client.removed)
		client.conn.Close()
	}
	for worker := range s.workers {
		close(worker.removed)
		worker.conn.Close()
	}
	s.clients = nil
	s.workers = nil
	s.ready = nil
	s.pending = nil
}

func (s *routingState) publishGauges() {
	collector := s.broker.metrics
	collector.SetQueueDepth(len(s.pending))
	collector.SetReadyWorkers(len(s.ready))
	collector.SetClients(len(s.clients))
}
