// Package version holds build metadata injected via ldflags:
//
//	-X github.com/kailas-cloud/footrag/internal/version.Version=v0.3.0
package version

import "fmt"

//nolint:revive // Set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// String renders "footrag <version> (<commit>, <date>)".
func String() string {
	return fmt.Sprintf("footrag %s (%s, %s)", Version, Commit, Date)
}
