// Package version exposes build metadata for the host tools.
//
// Version, Commit and BuildTime are injected with -ldflags and default to
// values suitable for local builds.
package version
