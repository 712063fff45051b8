// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package client talks to a running daemon's frontend.
//
// A [Client] holds one connection and carries one request at a time.
// [Client.Do] sends a request and returns the daemon's response as-is;
// [Client.Get] and [Client.Set] wrap it, turning a FAIL status into an
// [*Error] that carries the daemon's explanation.
package client
