// Package version carries build metadata for the lightcurve.report
// binaries, overridden at link time via -ldflags -X.
package version

var (
	// Version is the release tag, "dev" for local builds
	Version = "dev"
	// GitSHA is the git commit the binary was built from
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)
