// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Liond is the Lion device-management daemon. It accepts typed power
// and system-information requests on the frontend endpoint, hands each
// one to a pool of workers through the broker, and replies with the
// capability's result.
//
// In console mode liond runs in the foreground until SIGINT or SIGTERM.
// With --daemon it detaches into a new session, changes to the
// configured working directory with umask 027, and writes a pid file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/lion-device/lion/lib/capability"
	"github.com/lion-device/lion/lib/config"
	"github.com/lion-device/lion/lib/daemon"
	"github.com/lion-device/lion/lib/logging"
	"github.com/lion-device/lion/lib/metrics"
	"github.com/lion-device/lion/lib/process"
	"github.com/lion-device/lion/lib/version"
)

// defaultConfigPath is tried when neither --config nor LION_CONFIG is set.
const defaultConfigPath = "conf/default.yaml"

// stopTimeout bounds the wait for in-flight requests on shutdown.
const stopTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		process.Fatal(err)
	}
}

type options struct {
	configPath  string
	daemon      bool
	dryRun      bool
	showVersion bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet("liond", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "config file (default: $LION_CONFIG, then "+defaultConfigPath+")")
	flagSet.BoolVarP(&opts.daemon, "daemon", "d", false, "run as a daemon")
	flagSet.BoolVar(&opts.dryRun, "dry-run", false, "serve fixed values and never execute power commands")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flagSet.Usage = func() {
		fmt.Fprintf(output, "Usage: liond [flags]\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if flagSet.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}
	return opts, nil
}

func run(args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	if opts.showVersion {
		fmt.Printf("liond %s\n", version.Full())
		return nil
	}

	cfg, source, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if opts.daemon && !isDaemonChild() {
		return detach(args)
	}

	logger, logCloser, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	if opts.daemon {
		pidFile, err := enterDaemon(cfg.Daemon)
		if err != nil {
			logger.Error("daemonizing failed", "error", err)
			return err
		}
		defer pidFile.Remove()
		logger.Info("running as a daemon",
			"pid", os.Getpid(),
			"pid_file", pidFile.Path(),
			"working_directory", cfg.Daemon.WorkingDirectory,
		)
	} else {
		logger.Info("running in console mode")
	}
	logger.Info("configuration loaded", "source", source, "version", version.Info())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, newProvider(cfg, opts.dryRun, logger), logger)
}

// loadConfig resolves the config file: --config, then LION_CONFIG, then
// defaultConfigPath if it exists, then built-in defaults. It returns
// the file used, or "defaults".
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.LoadFile(path)
		return cfg, path, err
	}
	if environmentPath := os.Getenv(config.EnvironmentVariable); environmentPath != "" {
		cfg, err := config.Load()
		return cfg, environmentPath, err
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		cfg, err := config.LoadFile(defaultConfigPath)
		return cfg, defaultConfigPath, err
	}
	return config.Default(), "defaults", nil
}

func newProvider(cfg *config.Config, dryRun bool, logger *slog.Logger) capability.Provider {
	if dryRun {
		logger.Warn("dry run: power requests are counted, never executed")
		return &capability.Static{
			ArchValue:         runtime.GOARCH,
			OSValue:           runtime.GOOS,
			OSReleaseValue:    "dry-run",
			OSInfoValue:       "Lion dry run, " + runtime.GOOS + " " + runtime.GOARCH,
			CPUNumValue:       uint32(runtime.NumCPU()),
			CPUInfoValue:      fmt.Sprintf("dry run, %d CPUs", runtime.NumCPU()),
			StorageTotalValue: 1 << 20,
			StorageFreeValue:  1 << 19,
			DiskInfoValue:     "512 MiB free of 1.0 GiB",
			UptimeValue:       "0s",
			BootTimeValue:     time.Now().UTC().Format(time.RFC3339),
		}
	}
	return capability.NewSystem(capability.Options{
		ShutdownCommand: cfg.Power.ShutdownCommand,
		RebootCommand:   cfg.Power.RebootCommand,
		StoragePath:     cfg.SysInfo.StoragePath,
		ThermalZone:     cfg.SysInfo.ThermalZone,
	})
}

// serve runs the daemon until ctx is cancelled or the daemon stops on
// its own. A signal-driven stop is not an error.
func serve(ctx context.Context, cfg *config.Config, provider capability.Provider, logger *slog.Logger) error {
	collector := metrics.New()

	metricsContext, cancelMetrics := context.WithCancel(context.Background())
	defer cancelMetrics()
	metricsDone := make(chan struct{})
	if cfg.Metrics.Listen != "" {
		listener, err := metrics.Listen(cfg.Metrics.Listen)
		if err != nil {
			return err
		}
		go func() {
			defer close(metricsDone)
			if err := metrics.Serve(metricsContext, listener, collector, logger); err != nil {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	} else {
		close(metricsDone)
	}
	defer func() {
		cancelMetrics()
		<-metricsDone
	}()

	// Stop is driven from here so "terminating" is logged before the
	// transport goes away.
	handle, err := daemon.Start(context.Background(), daemon.Options{
		Frontend: cfg.Frontend.Address,
		Backend:  cfg.Backend.Address,
		Workers:  cfg.Backend.Workers,
		Provider: provider,
		Logger:   logger,
		Metrics:  collector,
	})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		logger.Info("terminating")
		stopContext, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		return handle.Stop(stopContext)
	case <-handle.Done():
		return handle.Wait()
	}
}
