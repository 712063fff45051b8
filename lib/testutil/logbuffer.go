// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
)

// LogBuffer collects text-format log output from concurrent goroutines.
// Unlike a logger writing to t.Log, it stays valid after the test
// returns, so goroutines still draining during cleanup cannot panic
// the test binary.
type LogBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

// NewLogger returns a debug-level logger writing into a fresh LogBuffer.
//
//	logger, logs := testutil.NewLogger()
//	...
//	if !logs.Contains("failed to power off the board") { ... }
func NewLogger() (*slog.Logger, *LogBuffer) {
	logs := &LogBuffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, logs
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(p)
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}

// Contains reports whether the collected output contains substring.
func (b *LogBuffer) Contains(substring string) bool {
	return strings.Contains(b.String(), substring)
}
