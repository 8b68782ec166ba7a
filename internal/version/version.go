// Package version holds build identification, set through -ldflags at release time.
package version

import "fmt"

// Name is the connector's product name.
const Name = "llmconnector"

var (
	// Version is the semantic version of the build.
	Version = "1.0.0"
	// Commit is the git commit the binary was built from.
	Commit = "none"
	// Date is the build timestamp.
	Date = "unknown"
)

// Info returns a one-line description of the build.
func Info() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s)", Name, Version, Commit, Date)
}
