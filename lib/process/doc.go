// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers for the Lion binaries:
// reporting a fatal error from main() before or after the structured
// logger exists, and writing and removing the daemon's pid file.
package process
