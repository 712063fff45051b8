// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilCollectorIsNoop(t *testing.T) {
	var collector *Collector
	collector.ObserveDispatch("GET", "sysinfo/ARCH", "OK", time.Millisecond)
	collector.DecodeFailure()
	collector.WorkerReconnect()
	collector.Rejected()
	collector.SetQueueDepth(3)
	collector.SetReadyWorkers(2)
	collector.SetClients(1)
	if collector.Registry() != nil {
		t.Error("nil collector should have a nil registry")
	}
}

func TestObserveDispatch(t *testing.T) {
	collector := New()

	collector.ObserveDispatch("GET", "sysinfo/ARCH", "OK", time.Millisecond)
	collector.ObserveDispatch("GET", "sysinfo/ARCH", "OK", 2*time.Millisecond)
	collector.ObserveDispatch("SET", "power/SHUTDOWN", "FAIL", time.Millisecond)

	if got := testutil.ToFloat64(collector.requests.WithLabelValues("GET", "sysinfo/ARCH", "OK")); got != 2 {
		t.Errorf("GET sysinfo/ARCH OK = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.requests.WithLabelValues("SET", "power/SHUTDOWN", "FAIL")); got != 1 {
		t.Errorf("SET power/SHUTDOWN FAIL = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(collector.dispatchSeconds); got != 2 {
		t.Errorf("histogram series = %d, want 2", got)
	}
}

func TestGauges(t *testing.T) {
	collector := New()
	collector.SetQueueDepth(7)
	collector.SetReadyWorkers(3)
	collector.SetClients(2)
	collector.DecodeFailure()
	collector.WorkerReconnect()
	collector.WorkerReconnect()
	collector.Rejected()

	for _, tc := range []struct {
		name string
		got  float64
		want float64
	}{
		{"queue_depth", testutil.ToFloat64(collector.queueDepth), 7},
		{"ready_workers", testutil.ToFloat64(collector.readyWorkers), 3},
		{"clients", testutil.ToFloat64(collector.clients), 2},
		{"decode_failures_total", testutil.ToFloat64(collector.decodeFailures), 1},
		{"worker_reconnects_total", testutil.ToFloat64(collector.reconnects), 2},
		{"broker_rejected_total", testutil.ToFloat64(collector.rejected), 1},
	} {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestServeExposesMetrics(t *testing.T) {
	collector := New()
	collector.ObserveDispatch("GET", "sysinfo/OS", "OK", time.Millisecond)

	listener, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- Serve(ctx, listener, collector, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	response, err := http.Get("http://" + listener.Addr().String() + "/metrics")
	if err != nil {
		cancel()
		t.Fatalf("GET /metrics: %v", err)
	}
	body, err := io.ReadAll(response.Body)
	response.Body.Close()
	if err != nil {
		cancel()
		t.Fatalf("reading body: %v", err)
	}
	if !strings.Contains(string(body), `lion_requests_total{command="GET",resource="sysinfo/OS",status="OK"} 1`) {
		t.Errorf("exposition missing request counter:\n%s", body)
	}

	cancel()
	select {
	case err := <-serveDone:
		if err != nil {
			t.Errorf("Serve returned %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
