// Package version carries release identification stamped in at link
// time via -ldflags "-X charscan/internal/version.Version=...".
package version

import "fmt"

var (
	// Version is the release tag, or the dev default when built
	// straight from a checkout.
	Version = "0.1.0-dev"

	// GitCommit is the short hash of the commit the binary was
	// built from.
	GitCommit = "unknown"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// String renders the full identification line used in logs and the
// about dialog.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
