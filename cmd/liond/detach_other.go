// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package main

import (
	"errors"

	"github.com/lion-device/lion/lib/config"
	"github.com/lion-device/lion/lib/process"
)

var errNoDaemon = errors.New("--daemon is only supported on unix systems")

func isDaemonChild() bool { return false }

func detach([]string) error { return errNoDaemon }

func enterDaemon(config.DaemonConfig) (*process.PidFile, error) { return nil, errNoDaemon }
