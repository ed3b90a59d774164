package version

import (
	"fmt"

	"keylock/core"
)

var (
	// Version is the semantic version of the host tools.
	Version = "0.1.0"
	// Commit is the short git SHA embedded at build time.
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
)

// Short returns only the semantic version.
func Short() string {
	return Version
}

// Full returns the version with commit, build time and the firmware
// version the tools were built against.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s, firmware: %s",
		Version, Commit, BuildTime, core.FirmwareVersion)
}
