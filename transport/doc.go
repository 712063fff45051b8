// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package transport carries multi-frame messages between the daemon's
// broker, its workers, and clients.
//
// A [Context] owns every [Listener] and [Conn] created through it.
// [Context.Terminate] closes all of them at once; any Accept, Recv or
// Send blocked on them (or issued afterwards) returns [ErrTerminated].
// Broker and workers treat that error as their stop signal, which is
// how the daemon shuts down.
//
// Endpoints are URLs in one of three schemes:
//
//	tcp://host:port   TCP; "*" as host listens on all interfaces
//	ipc:///run/x.sock Unix domain socket
//	inproc://name     in-memory pipe, reachable only through the same Context
//
// On the wire each [Message] is a 4-byte big-endian length followed by
// one CBOR array of byte strings, one per frame. A message carries at
// most [codec.MaxFrames] frames and [codec.MaxMessageSize] bytes;
// anything larger is a protocol error that closes the connection.
package transport
