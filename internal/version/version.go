// Package version describes the running disposeflow build.
package version

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Set with -ldflags "-X github.com/standardbeagle/disposeflow/internal/version.GitCommit=..."
var (
	Version   = "0.3.0"
	BuildDate = "development"
	GitCommit = "unknown"
)

// Build is what a client needs to tell two disposeflow binaries apart
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	// Modified is set when the binary was built from a dirty checkout
	Modified bool `json:"modified"`
	// ID fingerprints the toolchain, module and VCS state
	ID string `json:"id"`
}

var (
	current     Build
	currentOnce sync.Once
)

// Current returns the running build. Link-time values win over the VCS
// stamps the Go toolchain embeds.
func Current() Build {
	currentOnce.Do(func() {
		info, _ := debug.ReadBuildInfo()
		current = describe(info)
	})
	return current
}

func describe(info *debug.BuildInfo) Build {
	b := Build{Version: Version, Commit: GitCommit, Date: BuildDate}
	if info == nil {
		b.ID = Version + "-" + GitCommit
		return b
	}
	b.GoVersion = info.GoVersion

	h := xxhash.New()
	h.WriteString(info.GoVersion)
	h.WriteString(info.Main.Path)
	h.WriteString(info.Main.Version)
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "unknown" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "development" {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		default:
			continue
		}
		h.WriteString(s.Key)
		h.WriteString(s.Value)
	}
	b.ID = fmt.Sprintf("%016x", h.Sum64())
	return b
}

// Short is the version reported in protocol handshakes: version+id
func (b Build) Short() string {
	return b.Version + "+" + b.ID
}

func (b Build) String() string {
	s := "disposeflow " + b.Version + " (commit: " + b.Commit + ", built: " + b.Date
	if b.Modified {
		s += ", modified"
	}
	return s + ")"
}
