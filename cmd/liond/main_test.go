// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/lion-device/lion/lib/capability"
	"github.com/lion-device/lion/lib/client"
	"github.com/lion-device/lion/lib/config"
	"github.com/lion-device/lion/lib/protocol"
	"github.com/lion-device/lion/lib/testutil"
)

func TestParseFlags(t *testing.T) {
	var output bytes.Buffer
	opts, err := parseFlags([]string{"-c", "/etc/lion.yaml", "-d", "--dry-run"}, &output)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.configPath != "/etc/lion.yaml" || !opts.daemon || !opts.dryRun || opts.showVersion {
		t.Errorf("options = %+v", opts)
	}

	opts, err = parseFlags([]string{"--config=lion.toml", "--version"}, &output)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if opts.configPath != "lion.toml" || !opts.showVersion || opts.daemon {
		t.Errorf("options = %+v", opts)
	}

	if _, err := parseFlags([]string{"--help"}, &output); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("--help error = %v, want pflag.ErrHelp", err)
	}
	if !strings.Contains(output.String(), "--dry-run") {
		t.Errorf("usage output missing flags: %q", output.String())
	}

	if _, err := parseFlags([]string{"extra"}, &output); err == nil {
		t.Error("expected error for positional argument")
	}
	if _, err := parseFlags([]string{"--no-such-flag"}, &output); err == nil {
		t.Error("expected error for unknown flag")
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	directory := t.TempDir()
	flagPath := filepath.Join(directory, "flag.yaml")
	environmentPath := filepath.Join(directory, "environment.yaml")
	os.WriteFile(flagPath, []byte("backend:\n  workers: 2\n"), 0o644)
	os.WriteFile(environmentPath, []byte("backend:\n  workers: 3\n"), 0o644)

	t.Setenv(config.EnvironmentVariable, environmentPath)

	cfg, source, err := loadConfig(flagPath)
	if err != nil {
		t.Fatalf("loadConfig(flag): %v", err)
	}
	if source != flagPath || cfg.Backend.Workers != 2 {
		t.Errorf("flag config: source=%s workers=%d", source, cfg.Backend.Workers)
	}

	cfg, source, err = loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig(env): %v", err)
	}
	if source != environmentPath || cfg.Backend.Workers != 3 {
		t.Errorf("environment config: source=%s workers=%d", source, cfg.Backend.Workers)
	}

	// Neither set, and no conf/default.yaml relative to the package
	// directory: built-in defaults.
	t.Setenv(config.EnvironmentVariable, "")
	cfg, source, err = loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig(defaults): %v", err)
	}
	if source != "defaults" || cfg.Backend.Workers != config.Default().Backend.Workers {
		t.Errorf("default config: source=%s workers=%d", source, cfg.Backend.Workers)
	}
}

func TestShippedDefaultConfigIsValid(t *testing.T) {
	cfg, err := config.LoadFile(filepath.Join("..", "..", defaultConfigPath))
	if err != nil {
		t.Fatalf("loading shipped config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("shipped config invalid: %v", err)
	}
}

func TestNewProviderDryRun(t *testing.T) {
	logger, logs := testutil.NewLogger()
	provider := newProvider(config.Default(), true, logger)

	static, ok := provider.(*capability.Static)
	if !ok {
		t.Fatalf("dry-run provider is %T, want *capability.Static", provider)
	}
	if err := static.Shutdown(); err != nil {
		t.Fatalf("dry-run Shutdown: %v", err)
	}
	if static.Shutdowns() != 1 {
		t.Errorf("Shutdowns() = %d, want 1", static.Shutdowns())
	}
	if arch, _ := static.Arch(); arch != runtime.GOARCH {
		t.Errorf("Arch() = %q", arch)
	}
	if !logs.Contains("dry run") {
		t.Errorf("dry run not logged: %s", logs.String())
	}

	if _, ok := newProvider(config.Default(), false, logger).(*capability.System); !ok {
		t.Error("expected *capability.System without --dry-run")
	}
}

func TestServeAnswersUntilCancelled(t *testing.T) {
	cfg := config.Default()
	cfg.Frontend.Address = "ipc://" + filepath.Join(testutil.SocketDir(t), "lion.sock")
	cfg.Backend.Workers = 2
	cfg.Metrics.Listen = "127.0.0.1:0"

	provider := &capability.Static{ArchValue: "riscv64"}
	logger, logs := testutil.NewLogger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- serve(ctx, cfg, provider, logger) }()

	var lion *client.Client
	deadline := time.Now().Add(5 * time.Second)
	for {
		var err error
		dialContext, cancelDial := context.WithTimeout(context.Background(), time.Second)
		lion, err = client.Dial(dialContext, cfg.Frontend.Address)
		cancelDial()
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("daemon never accepted connections: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	defer lion.Close()

	requestContext, cancelRequest := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelRequest()
	payload, err := lion.Get(requestContext, protocol.SysInfoArch)
	if err != nil {
		t.Fatalf("Get(ARCH): %v", err)
	}
	if text, _ := payload.AsText(); text != "riscv64" {
		t.Errorf("ARCH = %v, want riscv64", payload)
	}

	cancel()
	if err := testutil.RequireReceive(t, served, 15*time.Second, "serve did not return after cancel"); err != nil {
		t.Errorf("serve returned %v, want nil", err)
	}
	if !logs.Contains("terminating") {
		t.Errorf("shutdown not logged: %s", logs.String())
	}
}

func TestServeFailsOnUnbindableFrontend(t *testing.T) {
	cfg := config.Default()
	cfg.Frontend.Address = "tcp://256.0.0.1:1"
	logger, _ := testutil.NewLogger()

	if err := serve(context.Background(), cfg, &capability.Static{}, logger); err == nil {
		t.Fatal("expected error for unbindable frontend")
	}
}
