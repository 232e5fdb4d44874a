package app

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/heartmarshall/laborhub-backend/internal/app.Version=1.4.0".
// Commit falls back to the VCS revision stamped by the go tool.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// BuildVersion is the version string reported by the startup log and /health.
func BuildVersion() string {
	return formatVersion(Version, resolveCommit(Commit, debug.ReadBuildInfo), BuildTime)
}

func formatVersion(version, commit, built string) string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, built)
}

func resolveCommit(commit string, readInfo func() (*debug.BuildInfo, bool)) string {
	if commit != "unknown" {
		return commit
	}
	info, ok := readInfo()
	if !ok {
		return commit
	}

	var rev string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return commit
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}
