// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// PidFile is a pid file owned by the current process.
type PidFile struct {
	path string
}

// WritePidFile records the current process id at path. It refuses to
// overwrite a pid file naming another live process.
func WritePidFile(path string) (*PidFile, error) {
	if pid, err := ReadPidFile(path); err == nil && pid != os.Getpid() && alive(pid) {
		return nil, fmt.Errorf("pid file %s: process %d is still running", path, pid)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating pid file directory: %w", err)
	}
	temporary := path + ".tmp"
	if err := os.WriteFile(temporary, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		return nil, fmt.Errorf("writing pid file: %w", err)
	}
	if err := os.Rename(temporary, path); err != nil {
		os.Remove(temporary)
		return nil, fmt.Errorf("writing pid file: %w", err)
	}
	return &PidFile{path: path}, nil
}

// ReadPidFile returns the process id stored at path.
func ReadPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s: malformed contents %q", path, data)
	}
	return pid, nil
}

// Path returns the file's location.
func (p *PidFile) Path() string { return p.path }

// Remove deletes the pid file if it still names this process.
func (p *PidFile) Remove() error {
	pid, err := ReadPidFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if pid != os.Getpid() {
		return nil
	}
	return os.Remove(p.path)
}
