// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lion-device/lion/lib/capability"
	"github.com/lion-device/lion/lib/daemon"
	"github.com/lion-device/lion/lib/testutil"
)

func startDaemon(t *testing.T, provider capability.Provider) string {
	t.Helper()
	logger, _ := testutil.NewLogger()
	handle, err := daemon.Start(context.Background(), daemon.Options{
		Frontend: "ipc://" + filepath.Join(testutil.SocketDir(t), "lion.sock"),
		Workers:  2,
		Provider: provider,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		handle.Stop(ctx)
	})
	return handle.Frontend()
}

func runCommand(t *testing.T, stdout output, args ...string) (string, error) {
	t.Helper()
	var buffer, stderr bytes.Buffer
	stdout.writer = &buffer
	err := run(args, stdout, &stderr)
	return buffer.String(), err
}

func TestGetPiped(t *testing.T) {
	endpoint := startDaemon(t, &capability.Static{ArchValue: "aarch64", CPUNumValue: 4, TemperatureValue: 41.5})

	got, err := runCommand(t, output{}, "--endpoint", endpoint, "get", "arch", "cpu-num", "TEMPERATURE")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := "ARCH\taarch64\nCPU_NUM\t4\nTEMPERATURE\t41.5\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestGetTerminalAligns(t *testing.T) {
	endpoint := startDaemon(t, &capability.Static{ArchValue: "aarch64", OSReleaseValue: "6.6.0"})

	got, err := runCommand(t, output{terminal: true}, "-e", endpoint, "get", "arch", "os_release")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := "ARCH        aarch64\nOS_RELEASE  6.6.0\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestGetJSON(t *testing.T) {
	endpoint := startDaemon(t, &capability.Static{StorageTotalValue: 1 << 33, OSValue: "linux"})

	got, err := runCommand(t, output{}, "--endpoint", endpoint, "--json", "get", "storage_total", "os")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal([]byte(got), &rows); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, got)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0]["type"] != "STORAGE_TOTAL" || rows[0]["variant"] != "lval" || rows[0]["value"] != float64(1<<33) {
		t.Errorf("row 0 = %v", rows[0])
	}
	if rows[1]["type"] != "OS" || rows[1]["variant"] != "sval" || rows[1]["value"] != "linux" {
		t.Errorf("row 1 = %v", rows[1])
	}
}

func TestGetFailures(t *testing.T) {
	provider := &capability.Static{
		ArchValue: "x86_64",
		Errors:    map[string]error{"Temperature": errors.New("no thermal zone")},
	}
	endpoint := startDaemon(t, provider)

	_, err := runCommand(t, output{}, "--endpoint", endpoint, "get", "temperature")
	if err == nil || !strings.Contains(err.Error(), "no thermal zone") {
		t.Errorf("single failing get = %v", err)
	}

	got, err := runCommand(t, output{}, "--endpoint", endpoint, "get", "all")
	if err == nil || !strings.Contains(err.Error(), "1 of 13 queries failed") {
		t.Errorf("get all error = %v", err)
	}
	if !strings.Contains(got, "ARCH\tx86_64\n") || !strings.Contains(got, "TEMPERATURE\t") {
		t.Errorf("get all output = %q", got)
	}
}

func TestSetRequiresConfirm(t *testing.T) {
	provider := &capability.Static{}
	endpoint := startDaemon(t, provider)

	_, err := runCommand(t, output{}, "--endpoint", endpoint, "set", "reboot")
	if err == nil || !strings.Contains(err.Error(), "--confirm") {
		t.Errorf("unconfirmed set = %v", err)
	}
	if provider.Reboots() != 0 {
		t.Fatalf("unconfirmed set rebooted %d times", provider.Reboots())
	}

	got, err := runCommand(t, output{}, "--endpoint", endpoint, "set", "reboot", "--confirm")
	if err != nil {
		t.Fatalf("confirmed set: %v", err)
	}
	if got != "reboot requested\n" {
		t.Errorf("output = %q", got)
	}
	if provider.Reboots() != 1 {
		t.Errorf("Reboots() = %d, want 1", provider.Reboots())
	}
}

func TestList(t *testing.T) {
	got, err := runCommand(t, output{}, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"COMMAND", "power/SHUTDOWN", "needs --confirm", "sysinfo/DISK_INFO", "DiskInfo"} {
		if !strings.Contains(got, want) {
			t.Errorf("list output missing %q:\n%s", want, got)
		}
	}

	got, err = runCommand(t, output{}, "--json", "list")
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var entries []map[string]any
	if err := json.Unmarshal([]byte(got), &entries); err != nil {
		t.Fatalf("list --json output: %v", err)
	}
	if len(entries) != 15 {
		t.Errorf("list --json has %d entries, want 15", len(entries))
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{nil, "missing command"},
		{[]string{"reset"}, "unknown command"},
		{[]string{"get"}, "needs a sysinfo type"},
		{[]string{"get", "voltage"}, "unknown sysinfo type"},
		{[]string{"set"}, "exactly one power type"},
		{[]string{"set", "hibernate"}, "unknown power type"},
		{[]string{"list", "extra"}, "no arguments"},
	}
	for _, test := range tests {
		_, err := runCommand(t, output{}, test.args...)
		if err == nil || !strings.Contains(err.Error(), test.want) {
			t.Errorf("run(%v) = %v, want error containing %q", test.args, err, test.want)
		}
	}
}

func TestDialFailure(t *testing.T) {
	endpoint := "ipc://" + filepath.Join(testutil.SocketDir(t), "absent.sock")
	_, err := runCommand(t, output{}, "--endpoint", endpoint, "--timeout", "1s", "get", "arch")
	if err == nil || !strings.Contains(err.Error(), "connecting to") {
		t.Errorf("get without daemon = %v", err)
	}
}

func TestGetCBORDiagnostic(t *testing.T) {
	endpoint := startDaemon(t, &capability.Static{
		ArchValue: "aarch64",
		Errors:    map[string]error{"Uptime": errors.New("sysinfo unavailable")},
	})

	got, err := runCommand(t, output{}, "--endpoint", endpoint, "--cbor", "get", "arch", "uptime")
	if err != nil {
		t.Fatalf("get --cbor: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Fatalf("output = %q, want two lines", got)
	}
	for _, want := range []string{"ARCH\t", `"sval": "aarch64"`, `"status": 0`} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("ARCH line %q missing %q", lines[0], want)
		}
	}
	// FAIL responses are printed rather than reported as errors.
	for _, want := range []string{"UPTIME\t", `"status": 1`, "sysinfo unavailable"} {
		if !strings.Contains(lines[1], want) {
			t.Errorf("UPTIME line %q missing %q", lines[1], want)
		}
	}

	if _, err := runCommand(t, output{}, "--json", "--cbor", "list"); err == nil {
		t.Error("expected --json with --cbor to be rejected")
	}
}
