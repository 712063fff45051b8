// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

// Package capability implements the host operations the daemon exposes:
// power control and system-information queries.
//
// [Provider] is the interface the dispatcher calls into. Each method is
// a simple blocking call that returns a scalar or fails with an error
// whose text is sent back to the client verbatim. Implementations must
// be safe for concurrent use: every worker shares one provider.
//
// [System] is the Linux implementation. It reads /proc, /sys and
// /etc/os-release, uses uname(2), sysinfo(2) and statfs(2) through
// golang.org/x/sys/unix, and performs power operations by running the
// configured shutdown and reboot commands. The filesystem roots are
// injectable so tests can point at a synthetic tree. On other
// platforms the operations that need the kernel fail with
// [ErrUnsupported]. [Static] returns fixed values for tests and dry runs.
package capability
