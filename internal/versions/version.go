// Package versions exposes the build version of the ral-sponsors binary.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

const unknown = "unknown"

// Set at build time via -ldflags.
var (
	// Version is the release version of ral-sponsors
	Version = "dev"
	// Commit is the git commit hash of the build
	Commit = unknown
	// BuildDate is the date when the binary was built
	BuildDate = unknown
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo resolves the build metadata, falling back to the VCS
// information the Go toolchain embeds into dev builds.
func GetVersionInfo() VersionInfo {
	return resolve(Version, Commit, BuildDate)
}

func resolve(version, commit, date string) VersionInfo {
	if strings.HasPrefix(version, "dev") {
		commit, date = fromBuildInfo(commit, date)
	}

	if t, err := time.Parse(time.RFC3339, date); err == nil {
		date = t.Format("2006-01-02 15:04:05 MST")
	}

	// A bare "dev" without ldflags gets a version derived from the commit.
	if version == "dev" {
		version = fmt.Sprintf("build-%.8s", commit)
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// fromBuildInfo fills unknown commit and date values from the embedded VCS
// build settings, when present.
func fromBuildInfo(commit, date string) (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, date
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if commit == unknown {
				commit = setting.Value
			}
		case "vcs.time":
			if date == unknown {
				date = setting.Value
			}
		}
	}
	return commit, date
}
