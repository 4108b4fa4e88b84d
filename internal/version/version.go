// Package version reports the build identity of the attrstore binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/attrstore/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/attrstore/internal/version.Commit=abc123"
var (
	Version = ""
	Commit  = ""
)

// BuildInfo identifies a build.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Dirty     bool   `json:"dirty,omitempty"`
	GoVersion string `json:"go_version"`
}

// Get returns the build identity. Values not set by ldflags come from the
// module and VCS information embedded by the Go toolchain.
func Get() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromBuildInfo(&info, bi)
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	return info
}

func fillFromBuildInfo(info *BuildInfo, bi *debug.BuildInfo) {
	if info.Version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	var revision, vcsTime string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.time":
			vcsTime = s.Value
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}

	if info.Commit == "" && revision != "" {
		info.Commit = revision[:min(7, len(revision))]
	}
	// 2025-01-31T10:00:00Z -> dev-20250131
	if info.Version == "" && len(vcsTime) >= 10 {
		info.Version = "dev-" + strings.ReplaceAll(vcsTime[:10], "-", "")
	}
}

// String formats the build identity on one line.
func (b BuildInfo) String() string {
	commit := b.Commit
	if b.Dirty {
		commit += "-dirty"
	}
	return fmt.Sprintf("%s (commit: %s, %s)", b.Version, commit, b.GoVersion)
}

// Full returns the one-line build identity.
func Full() string {
	return Get().String()
}
