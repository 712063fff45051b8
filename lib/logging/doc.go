// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package logging builds the daemon's [log/slog] logger from a
// [config.LoggingConfig]. Records always go to the console writer and,
// when a log path is configured, are copied to that file as well.
package logging
