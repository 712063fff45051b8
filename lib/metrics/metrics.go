// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "lion"

// Collector holds the daemon's metrics.
type Collector struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	dispatchSeconds *prometheus.HistogramVec
	decodeFailures  prometheus.Counter
	reconnects      prometheus.Counter
	rejected        prometheus.Counter

	queueDepth   prometheus.Gauge
	readyWorkers prometheus.Gauge
	clients      prometheus.Gauge
}

// New creates a Collector registered on a fresh registry together with
// the Go runtime and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests dispatched, by command, resource and status.",
		}, []string{"command", "resource", "status"}),
		dispatchSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent executing a capability, by resource.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"resource"}),
		decodeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_failures_total",
			Help:      "Requests that could not be decoded.",
		}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "worker",
			Name:      "reconnects_total",
			Help:      "Times a worker reconnected after losing the broker.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "rejected_total",
			Help:      "Client requests answered by the broker because they could not be forwarded.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "queue_depth",
			Help:      "Requests waiting for a ready worker.",
		}),
		readyWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "ready_workers",
			Help:      "Workers idle and waiting for a request.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broker",
			Name:      "clients",
			Help:      "Connected frontend clients.",
		}),
	}
	c.registry.MustRegister(
		c.requests,
		c.dispatchSeconds,
		c.decodeFailures,
		c.reconnects,
		c.rejected,
		c.queueDepth,
		c.readyWorkers,
		c.clients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the registry the collector's metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveDispatch records one dispatched request.
func (c *Collector) ObserveDispatch(command, resource, status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(command, resource, status).Inc()
	c.dispatchSeconds.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// DecodeFailure records a request that could not be decoded.
func (c *Collector) DecodeFailure() {
	if c == nil {
		return
	}
	c.decodeFailures.Inc()
}

// WorkerReconnect records a worker reconnecting to the broker.
func (c *Collector) WorkerReconnect() {
	if c == nil {
		return
	}
	c.reconnects.Inc()
}

// Rejected records a client request the broker answered itself.
func (c *Collector) Rejected() {
	if c == nil {
		return
	}
	c.rejected.Inc()
}

// SetQueueDepth records the number of pending requests.
func (c *Collector) SetQueueDepth(depth int) {
	if c == nil {
		return
	}
	c.queueDepth.Set(float64(depth))
}

// SetReadyWorkers records the number of idle workers.
func (c *Collector) SetReadyWorkers(count int) {
	if c == nil {
		return
	}
	c.readyWorkers.Set(float64(count))
}

// SetClients records the number of connected clients.
func (c *Collector) SetClients(count int) {
	if c == nil {
		return
	}
	c.clients.Set(float64(count))
}
