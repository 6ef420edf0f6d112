// Package version holds build metadata injected with -ldflags.
package version

import "fmt"

// Set via -ldflags "-X fetchrelay/internal/version.Version=..." at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns a one-line description of the build.
func Info() string {
	return fmt.Sprintf("fetchrelay %s (commit %s, built %s)", Version, Commit, Date)
}
