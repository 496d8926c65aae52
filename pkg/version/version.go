// Package version exposes the build version of bulkrun.
package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Set at build time via -ldflags "-X github.com/rshade/bulkrun/pkg/version.version=...".
var (
	version   = "0.1.0-dev" //nolint:gochecknoglobals // Overridden by ldflags
	gitCommit = "unknown"   //nolint:gochecknoglobals // Overridden by ldflags
	buildDate = "unknown"   //nolint:gochecknoglobals // Overridden by ldflags
)

// GetVersion returns the semantic version of the binary.
func GetVersion() string {
	return version
}

// GetGitCommit returns the commit the binary was built from.
func GetGitCommit() string {
	return gitCommit
}

// GetBuildDate returns the build timestamp.
func GetBuildDate() string {
	return buildDate
}

// Parse returns the binary's version as a semver.Version.
func Parse() (*semver.Version, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("parsing build version %q: %w", version, err)
	}
	return v, nil
}

// IsCompatible reports whether a file written by version other can be read by
// this binary: same major version, and not written by a newer minor release.
// An empty other is treated as compatible.
func IsCompatible(other string) (bool, error) {
	if other == "" {
		return true, nil
	}

	current, err := Parse()
	if err != nil {
		return false, err
	}

	v, err := semver.NewVersion(other)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", other, err)
	}

	if v.Major() != current.Major() {
		return false, nil
	}
	return v.Minor() <= current.Minor(), nil
}
