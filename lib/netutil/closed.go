// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil classifies network errors.
package netutil

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// IsExpectedCloseError reports whether err is a peer going away rather
// than a fault. A client that hangs up after its reply, or a worker
// dropped by the broker, surfaces as EOF, net.ErrClosed, EPIPE or
// ECONNRESET on tcp:// and ipc:// connections. inproc:// connections
// are in-memory pipes and report the same event as io.ErrClosedPipe.
// Callers use this to keep routine disconnects out of warning logs.
func IsExpectedCloseError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.EPIPE || errno == syscall.ECONNRESET
	}
	return false
}
