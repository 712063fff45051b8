// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var uniqueCounter atomic.Uint64

// UniqueID returns a string of the form "prefix-N" where N is a
// monotonically increasing integer. Use this instead of time.Now() when
// tests need unique identifiers for inproc endpoint names, request IDs, or
// sentinel payloads that must be distinguishable in shared logs.
//
//	name := testutil.UniqueID("workers")   // "workers-1", "workers-2", ...
//	sentinel := testutil.UniqueID("client") // "client-3", ...
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, uniqueCounter.Add(1))
}
