// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestCommitFrom(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs", Value: "git"},
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.modified", Value: "true"},
	}

	commit, dirty := commitFrom("unknown", settings)
	if commit != "0123456" || !dirty {
		t.Errorf("commitFrom(unknown) = %q, %v; want 0123456, true", commit, dirty)
	}

	commit, _ = commitFrom("feedbee", settings)
	if commit != "feedbee" {
		t.Errorf("injected commit should win, got %q", commit)
	}

	commit, dirty = commitFrom("unknown", nil)
	if commit != "unknown" || dirty {
		t.Errorf("commitFrom without settings = %q, %v", commit, dirty)
	}
}

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.HasPrefix(info, Version+" (") {
		t.Errorf("Info() = %q, want prefix %q", info, Version+" (")
	}

	full := Full()
	if !strings.HasPrefix(full, info) || !strings.Contains(full, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() = %q", full)
	}
}
