// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// newTraceID returns a ULID correlating the log lines of one request.
// ULIDs sort by creation time, so traces order naturally in log search.
func newTraceID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
