// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package process

import (
	"errors"

	"golang.org/x/sys/unix"
)

func alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
