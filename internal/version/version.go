// Package version reports which astrw build is running.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"runtime"
	"runtime/debug"
	"sync"
)

// Set with -ldflags "-X github.com/standardbeagle/astrw/internal/version.GitCommit=..."
var (
	Version   = "0.3.0"
	BuildDate = "development"
	GitCommit = "unknown"
)

// Info describes the running binary
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	BuildID   string `json:"build_id"`
}

// String formats the info for --version style output
func (i Info) String() string {
	return "astrw " + i.Version + " (commit: " + i.Commit + ", built: " + i.BuildDate + ", " + i.GoVersion + ", build: " + i.BuildID + ")"
}

var (
	buildID   string
	buildOnce sync.Once
)

// Get returns the build information
func Get() Info {
	buildOnce.Do(func() { buildID = fingerprint() })
	return Info{
		Version:   Version,
		Commit:    GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		BuildID:   buildID,
	}
}

// fingerprint hashes the module identity and VCS state embedded by the Go linker.
// Binaries built without build info fall back to version and commit.
func fingerprint() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Version + "-" + GitCommit
	}

	h := sha256.New()
	for _, s := range []string{info.GoVersion, info.Main.Path, info.Main.Version} {
		h.Write([]byte(s))
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" || s.Key == "vcs.modified" || s.Key == "vcs.time" {
			h.Write([]byte(s.Key + "=" + s.Value))
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
