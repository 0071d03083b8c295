// Package buildinfo provides build-time version information for the
// netdiagram binary and the layout server's health endpoint.
//
// Variables are set via ldflags during build:
//
//	go build -ldflags "-X github.com/matzehuels/netdiagram/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/netdiagram/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/netdiagram/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/netdiagram
//
// A binary built without ldflags, for example by go install, falls back to
// the module version and VCS stamp the Go toolchain embeds.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the semantic version (e.g., "v1.2.3").
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// Info is the build of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go"`
}

// Get returns the build info, filling unset ldflags values from the
// embedded module build info.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	return fill(info, bi)
}

func fill(info Info, bi *debug.BuildInfo) Info {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "none" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		}
	}
	return info
}

// String returns the formatted build information.
func String() string {
	info := Get()
	return fmt.Sprintf("netdiagram %s\ncommit: %s\nbuilt: %s\ngo: %s", info.Version, info.Commit, info.Date, info.GoVersion)
}

// Template returns the version template string for cobra.
func Template() string {
	info := Get()
	return fmt.Sprintf("{{.Name}} %s\ncommit: %s\nbuilt: %s\ngo: %s\n", info.Version, info.Commit, info.Date, info.GoVersion)
}
