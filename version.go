/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Build metadata, overridable at link time:
//
//	go build -ldflags "-X github.com/suparena/itemstore.GitCommit=$(git rev-parse HEAD)"
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// GetVersionInfo returns the build metadata. A commit or date not set at
// link time falls back to the vcs stamps of the binary, when present.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.GitCommit == "unknown":
			info.GitCommit = s.Value
		case s.Key == "vcs.time" && info.BuildDate == "unknown":
			info.BuildDate = s.Value
		}
	}
	return info
}

// String renders one field per line.
func (v VersionInfo) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "itemstore version %s\n", v.Version)
	fmt.Fprintf(&b, "Git commit: %s\n", v.GitCommit)
	fmt.Fprintf(&b, "Build date: %s\n", v.BuildDate)
	fmt.Fprintf(&b, "Go version: %s\n", v.GoVersion)
	return b.String()
}
