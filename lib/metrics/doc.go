// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exports the daemon's Prometheus instrumentation.
//
// A [Collector] owns a private registry holding the dispatch counters
// and latency histogram, the decode failure counter, and the broker
// gauges. Every method is a no-op on a nil *Collector, so components
// accept an optional collector without nil checks at each call site.
// [Serve] exposes the registry over HTTP at /metrics.
package metrics
