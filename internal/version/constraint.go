package version

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/tsukumogami/verse/internal/pep440"
)

// ParseConstraint parses a semver range expression such as ">= 1.2, < 2"
// or "~1.4". An empty expression returns nil, meaning no constraint.
func ParseConstraint(expr string) (*semver.Constraints, error) {
	if expr == "" {
		return nil, nil
	}
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return nil, &ResolverError{
			Type:    ErrTypeValidation,
			Source:  "constraint",
			Message: fmt.Sprintf("invalid constraint %q", expr),
			Err:     err,
		}
	}
	return c, nil
}

// toSemver coerces the first three release segments into a semver value.
// Pre-release, post and dev markers are left out so that pre-release
// selection stays governed by Checker.IncludePrereleases alone.
func toSemver(v pep440.Version) *semver.Version {
	return semver.New(uint64(v.Major()), uint64(v.Minor()), uint64(v.Micro()), "", "")
}

// FilterConstraint keeps the versions whose release segments satisfy c.
func FilterConstraint(versions []pep440.Version, c *semver.Constraints) []pep440.Version {
	if c == nil {
		return versions
	}
	out := make([]pep440.Version, 0, len(versions))
	for _, v := range versions {
		if c.Check(toSemver(v)) {
			out = append(out, v)
		}
	}
	return out
}
