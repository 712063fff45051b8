// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/lion-device/lion/transport"
)

// EnvironmentVariable names the variable [Load] reads the config path from.
const EnvironmentVariable = "LION_CONFIG"

// Config is the complete configuration of liond.
type Config struct {
	// Frontend is where clients connect.
	Frontend FrontendConfig `yaml:"frontend" toml:"frontend"`

	// Backend is where the worker pool connects to the broker.
	Backend BackendConfig `yaml:"backend" toml:"backend"`

	// Logging configures the log sinks.
	Logging LoggingConfig `yaml:"logging" toml:"logging"`

	// Daemon configures detached (--daemon) operation.
	Daemon DaemonConfig `yaml:"daemon" toml:"daemon"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`

	// Power configures the commands behind the power operations.
	Power PowerConfig `yaml:"power" toml:"power"`

	// SysInfo configures the system-information sources.
	SysInfo SysInfoConfig `yaml:"sysinfo" toml:"sysinfo"`
}

// FrontendConfig configures the client-facing endpoint.
type FrontendConfig struct {
	// Address is the transport endpoint clients connect to.
	// Default: tcp://*:5555
	Address string `yaml:"address" toml:"address"`
}

// BackendConfig configures the worker-facing endpoint and pool.
type BackendConfig struct {
	// Address is the transport endpoint workers connect to. An inproc
	// endpoint keeps worker traffic inside the process.
	// Default: inproc://workers
	Address string `yaml:"address" toml:"address"`

	// Workers is the number of worker goroutines.
	// Default: 4
	Workers int `yaml:"workers" toml:"workers"`
}

// LoggingConfig configures where and how liond logs.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level" toml:"level"`

	// Format is text or json.
	// Default: text
	Format string `yaml:"format" toml:"format"`

	// Path is a file that receives a copy of every log record, in
	// addition to stderr. Empty disables the file sink.
	Path string `yaml:"path" toml:"path"`
}

// DaemonConfig configures detached operation.
type DaemonConfig struct {
	// PidFile receives the daemon's process id.
	// Default: /run/lion.pid
	PidFile string `yaml:"pid_file" toml:"pid_file"`

	// WorkingDirectory is the daemon's working directory.
	// Default: /
	WorkingDirectory string `yaml:"working_directory" toml:"working_directory"`
}

// MetricsConfig configures the Prometheus HTTP listener.
type MetricsConfig struct {
	// Listen is a host:port for the /metrics endpoint. Empty disables it.
	Listen string `yaml:"listen" toml:"listen"`
}

// PowerConfig configures the power commands.
type PowerConfig struct {
	// ShutdownCommand is the argv run to power off.
	// Default: [shutdown, -h, now]
	ShutdownCommand []string `yaml:"shutdown_command" toml:"shutdown_command"`

	// RebootCommand is the argv run to reboot.
	// Default: [shutdown, -r, now]
	RebootCommand []string `yaml:"reboot_command" toml:"reboot_command"`
}

// SysInfoConfig configures the system-information sources.
type SysInfoConfig struct {
	// StoragePath is the mount point the storage queries report on.
	// Default: /
	StoragePath string `yaml:"storage_path" toml:"storage_path"`

	// ThermalZone is a sysfs temperature file. Empty selects the first
	// thermal zone.
	ThermalZone string `yaml:"thermal_zone" toml:"thermal_zone"`
}

// Default returns the default configuration. LoadFile decodes the file
// on top of it, so a config file only needs the values it changes.
func Default() *Config {
	return &Config{
		Frontend: FrontendConfig{
			Address: "tcp://*:5555",
		},
		Backend: BackendConfig{
			Address: "inproc://workers",
			Workers: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Daemon: DaemonConfig{
			PidFile:          "/run/lion.pid",
			WorkingDirectory: "/",
		},
		Power: PowerConfig{
			ShutdownCommand: []string{"shutdown", "-h", "now"},
			RebootCommand:   []string{"shutdown", "-r", "now"},
		},
		SysInfo: SysInfoConfig{
			StoragePath: "/",
		},
	}
}

// Load loads configuration from the file named by LION_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your lion config file, or use --config flag", EnvironmentVariable)
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The result is
// not validated; callers run Validate once any flag overrides are
// applied.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	cfg.expandVariables()

	return cfg, nil
}

// loadFile decodes a single configuration file into c, choosing the
// decoder by extension.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err = toml.Decode(string(data), c)
		return err
	case ".json", ".jsonc":
		// JSON is a subset of YAML once comments and trailing commas
		// are gone.
		return yaml.Unmarshal(jsonc.ToJSON(data), c)
	default:
		return yaml.Unmarshal(data, c)
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Logging.Path = expandVars(c.Logging.Path, vars)
	c.Daemon.PidFile = expandVars(c.Daemon.PidFile, vars)
	c.Daemon.WorkingDirectory = expandVars(c.Daemon.WorkingDirectory, vars)
	c.SysInfo.StoragePath = expandVars(c.SysInfo.StoragePath, vars)
	c.SysInfo.ThermalZone = expandVars(c.SysInfo.ThermalZone, vars)
	c.Frontend.Address = expandVars(c.Frontend.Address, vars)
	c.Backend.Address = expandVars(c.Backend.Address, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. Every problem found is
// reported, joined into one error.
func (c *Config) Validate() error {
	var errs []error

	if c.Frontend.Address == "" {
		errs = append(errs, fmt.Errorf("frontend.address is required"))
	} else if _, err := transport.ParseEndpoint(c.Frontend.Address); err != nil {
		errs = append(errs, fmt.Errorf("frontend.address: %w", err))
	}

	if c.Backend.Address == "" {
		errs = append(errs, fmt.Errorf("backend.address is required"))
	} else if _, err := transport.ParseEndpoint(c.Backend.Address); err != nil {
		errs = append(errs, fmt.Errorf("backend.address: %w", err))
	}

	if c.Frontend.Address != "" && c.Frontend.Address == c.Backend.Address {
		errs = append(errs, fmt.Errorf("frontend.address and backend.address must differ"))
	}

	if c.Backend.Workers < 1 {
		errs = append(errs, fmt.Errorf("backend.workers must be at least 1, got %d", c.Backend.Workers))
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	validFormats := []string{"text", "json"}
	if !contains(validFormats, c.Logging.Format) {
		errs = append(errs, fmt.Errorf("invalid logging.format: %q (must be one of %v)", c.Logging.Format, validFormats))
	}

	if len(c.Power.ShutdownCommand) == 0 {
		errs = append(errs, fmt.Errorf("power.shutdown_command is required"))
	}
	if len(c.Power.RebootCommand) == 0 {
		errs = append(errs, fmt.Errorf("power.reboot_command is required"))
	}

	if c.SysInfo.StoragePath == "" {
		errs = append(errs, fmt.Errorf("sysinfo.storage_path is required"))
	}

	return errors.Join(errs...)
}

// SlogLevel parses Level into a slog level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("invalid logging.level: %q (must be one of debug, info, warn, error)", l.Level)
	}
	return level, nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
