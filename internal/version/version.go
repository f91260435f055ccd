// Package version provides build-time version information for uprava.
package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set via ldflags.
// Example: go build -ldflags="-X github.com/andywolf/uprava/internal/version.Version=v0.3.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Short returns the bare version.
func Short() string {
	return Version
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}

// Info returns a single-line version string.
// Format: "uprava v0.3.0 (commit: abc1234, built: 2026-01-15T10:30:00Z, go: go1.23.x)"
func Info() string {
	return fmt.Sprintf("uprava %s (commit: %s, built: %s, go: %s)",
		Version, shortCommit(), BuildDate, runtime.Version())
}

// Full returns a multi-line verbose version output.
func Full() string {
	return fmt.Sprintf(`uprava %s
  Commit:     %s
  Built:      %s
  Go version: %s
  OS/Arch:    %s/%s`,
		Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
