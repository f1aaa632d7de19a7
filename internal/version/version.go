// Package version exposes the build version of the daemon.
package version

import (
	"fmt"
	"runtime/debug"
)

// These can be set at build time via ldflags:
//
//	go build -ldflags="-X github.com/bitsplusatoms/hkbutton/internal/version.Version=v1.2.3 \
//	                   -X github.com/bitsplusatoms/hkbutton/internal/version.Commit=abc123"
var (
	// Version is the semantic version of the daemon.
	Version = ""
	// Commit is the git commit hash.
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		populateFromBuildInfo()
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

func populateFromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	var revision, modified string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		}
	}

	if Commit == "" && revision != "" {
		if len(revision) > 7 {
			revision = revision[:7]
		}
		Commit = revision
		if modified == "true" {
			Commit += "-dirty"
		}
	}
}

// Full returns the version string including the commit.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
