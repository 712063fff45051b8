// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Lion packages.
//
// [SocketDir] creates a temporary directory in /tmp suitable for Unix
// domain sockets. This exists because Unix domain sockets have a
// 108-byte path limit (sun_path in sockaddr_un), and some test runners
// set TMPDIR to paths that exceed it. The directory is automatically
// removed when the test completes.
//
// [RequireReceive] and [RequireClosed] bound waits on channels;
// [RequireReturn] bounds a blocking call such as Conn.Recv. A test that
// would otherwise hang fails with a message naming what it waited for.
//
// [NewLogger] returns a logger backed by a [LogBuffer] so tests can
// assert on log output from concurrent goroutines.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, such as inproc endpoint names and sentinel payloads.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no Lion-internal dependencies.
package testutil
