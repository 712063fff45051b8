// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for the Lion
// binaries.
//
// Three package-level variables are injected at build time via
// -ldflags -X:
//
//	go build -ldflags "-X github.com/lion-device/lion/lib/version.GitCommit=$(git rev-parse --short HEAD)"
//
// When GitCommit is not injected, the VCS revision recorded by the Go
// toolchain is used if the binary carries one.
package version
