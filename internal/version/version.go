// Package version holds the CLI's version string, overridable at link
// time with -ldflags "-X .../internal/version.Version=...".
package version

// Version is the semantic version of this build.
var Version = "0.1.0"
