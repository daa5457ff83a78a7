// Copyright (c) 2025-2026 STX Works
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import "fmt"

// Info contains build-time version information injected via ldflags.
type Info struct {
	Version   string `json:"version"`    // Semantic version from git tags
	GitCommit string `json:"git_commit"` // Short git commit hash
	BuildTime string `json:"build_time"` // Build timestamp in RFC3339 format
}

// String renders the info in one line for logs and the -version flag.
func (i Info) String() string {
	return fmt.Sprintf("osksite %s (commit: %s, built: %s)", i.Version, i.GitCommit, i.BuildTime)
}
