// Package version holds build metadata for codeintel.
package version

import "runtime/debug"

// Overridden at build time:
// go build -ldflags "-X codeintel/internal/version.Version=0.3.0 -X codeintel/internal/version.Commit=abc123"
var (
	Version   = "0.1.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version with a short commit suffix when known.
func Info() string {
	commit := resolvedCommit()
	if commit != "unknown" && len(commit) > 7 {
		return Version + " (" + commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line version banner.
func Full() string {
	return "codeintel version " + Version + "\n" +
		"Commit: " + resolvedCommit() + "\n" +
		"Built: " + BuildDate
}

// resolvedCommit falls back to the VCS revision embedded by the Go
// toolchain when no commit was injected.
func resolvedCommit() string {
	if Commit != "unknown" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return Commit
}
