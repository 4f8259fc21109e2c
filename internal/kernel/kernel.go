// Package kernel inspects the running kernel.
package kernel

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
)

// gfeaturesSince is the first release with the ETHTOOL_GFEATURES ioctl.
var gfeaturesSince = semver.MustParse("2.6.39")

// ParseRelease parses a kernel release string such as "6.8.0-45-generic".
// Trailing vendor parts and four-component releases ("2.6.32.27") are
// tolerated.
func ParseRelease(release string) (*semver.Version, error) {
	release = strings.TrimSpace(release)
	core, suffix, _ := strings.Cut(release, "-")
	parts := strings.Split(core, ".")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	core = strings.Join(parts, ".")
	if suffix != "" {
		core += "-" + suffix
	}

	v, err := semver.NewVersion(core)
	if err != nil {
		return nil, fmt.Errorf("parse kernel release %q: %w", release, err)
	}
	return v, nil
}

// SupportsGFeatures reports whether a kernel release can answer
// ETHTOOL_GFEATURES.
func SupportsGFeatures(release string) bool {
	v, err := ParseRelease(release)
	if err != nil {
		return false
	}
	// Compare without the pre-release part: "5.10.0-rc1" still has the ioctl.
	core, err := semver.NewVersion(fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch()))
	if err != nil {
		return false
	}
	return !core.LessThan(gfeaturesSince)
}
