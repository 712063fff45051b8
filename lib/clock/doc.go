// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the current time so latency accounting can be
// tested deterministically. Production code uses [Real]; tests use
// [Fake] and move time with [FakeClock.Advance].
package clock
