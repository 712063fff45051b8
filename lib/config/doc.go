// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the Lion daemon.
//
// Configuration is loaded from a single file named either by the
// LION_CONFIG environment variable (via [Load]) or by the --config flag
// (via [LoadFile]). Values absent from the file keep the defaults from
// [Default].
//
// The file format follows the extension: .yaml and .yml (and anything
// unrecognised) are YAML, .json and .jsonc are JSON with optional
// comments, and .toml is TOML. All three use the same key names.
//
// Path fields support ${VAR} and ${VAR:-default} expansion after
// loading. No environment variable overrides a configured value.
//
// This package depends on no other Lion packages except transport,
// which it uses to validate endpoint syntax.
package config
