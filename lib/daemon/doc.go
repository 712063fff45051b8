// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package daemon assembles and supervises the request-serving core:
// one transport context, the broker, and a pool of workers sharing a
// dispatcher over a capability provider.
//
// [Start] binds both endpoints, launches everything, and returns a
// [Handle]. Shutdown is driven by the transport: [Handle.Stop] (or
// cancelling the context given to Start) terminates the transport
// context, which unblocks the broker and every worker with
// transport.ErrTerminated, and then waits for them to return.
package daemon
