// Package version holds build metadata injected with -ldflags -X.
package version

import "fmt"

var (
	Version   = "0.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String formats the build metadata for the -version flag.
func String() string {
	return fmt.Sprintf("statuspage %s (commit %s, built %s)", Version, GitCommit, BuildDate)
}
