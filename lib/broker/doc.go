// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package broker relays requests between clients and a pool of
// workers.
//
// Clients connect to the frontend endpoint and send request messages.
// The broker tags each with the client's identity (a random UUID) and
// forwards [identity, body...] to a worker on the backend endpoint.
// Workers answer with [identity, body...]; the broker strips the
// identity and delivers the rest to that client.
//
// Load balancing is pull-based: a worker is ready when it connects and
// again after each reply, and each request goes to the worker that has
// been ready longest. Requests arriving while no worker is ready wait
// in an unbounded FIFO queue. A worker that disconnects with a request
// in flight takes that request with it; the broker closes the waiting
// client's connection so the client sees an error instead of hanging.
// A request too large to forward once tagged is answered by the broker
// itself with a FAIL response.
//
// All routing state is owned by a single event-loop goroutine. Each
// connection has a reader goroutine feeding the loop and a writer
// goroutine draining a bounded outbox, so one slow peer never stalls
// the others.
package broker
