// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/lion-device/lion/lib/config"
	"github.com/lion-device/lion/lib/process"
)

// daemonChildEnvironment marks the detached copy of liond.
const daemonChildEnvironment = "LION_DAEMON_CHILD"

func isDaemonChild() bool {
	return os.Getenv(daemonChildEnvironment) == "1"
}

// detach re-executes liond with the same arguments in a new session,
// with standard streams on /dev/null, and returns once it has started.
// The child inherits the working directory so relative config paths
// resolve the same way; it moves to the configured directory itself.
func detach(args []string) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating liond executable: %w", err)
	}
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer devNull.Close()

	command := exec.Command(executable, args...)
	command.Env = append(os.Environ(), daemonChildEnvironment+"=1")
	command.Stdin = devNull
	command.Stdout = devNull
	command.Stderr = devNull
	command.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := command.Start(); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}
	fmt.Printf("liond: daemon started (pid %d)\n", command.Process.Pid)
	return command.Process.Release()
}

// enterDaemon applies the daemon's process environment: umask 027, the
// configured working directory, and the pid file.
func enterDaemon(cfg config.DaemonConfig) (*process.PidFile, error) {
	unix.Umask(0o027)
	if err := os.Chdir(cfg.WorkingDirectory); err != nil {
		return nil, fmt.Errorf("changing to working directory: %w", err)
	}
	return process.WritePidFile(cfg.PidFile)
}
