// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package worker executes requests relayed by the broker.
//
// A [Worker] owns one backend connection and loops: receive
// [identity, request], decode, dispatch, encode, reply
// [identity, response]. Every received message is answered, including
// malformed ones (with a FAIL response describing the problem), because
// the broker considers a worker busy until it replies. The loop ends
// without error when the transport context is terminated or the
// connection is closed locally.
//
// A [Pool] runs a fixed number of workers, each on its own connection,
// and returns once all of them have stopped.
package worker
