package version

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Masterminds/semver/v3"

	"github.com/tsukumogami/verse/internal/pep440"
)

// Source produces the known versions of a project. Implementations may
// return versions in any order.
type Source interface {
	Versions(ctx context.Context) ([]pep440.Version, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context) ([]pep440.Version, error)

// Versions calls f.
func (f SourceFunc) Versions(ctx context.Context) ([]pep440.Version, error) {
	return f(ctx)
}

// StaticSource returns a Source that always yields versions.
func StaticSource(versions []pep440.Version) Source {
	return SourceFunc(func(context.Context) ([]pep440.Version, error) {
		return versions, nil
	})
}

// Checker binds a project identity to its version source and derives the
// latest, latest-per-major and latest-per-minor views from it.
//
// A Checker holds no mutable state once built, so one value may be shared by
// concurrent callers.
type Checker struct {
	Project

	// Source supplies the project's versions. A nil Source is a contract
	// violation and every operation fails with ErrNotImplemented.
	Source Source

	// IncludePrereleases makes pre-releases and dev releases selectable.
	IncludePrereleases bool

	// Constraint, when set, restricts selection to matching versions.
	Constraint *semver.Constraints
}

// GetVersions returns every version the source knows about, unfiltered.
func (c *Checker) GetVersions(ctx context.Context) ([]pep440.Version, error) {
	if c.Source == nil {
		return nil, fmt.Errorf("%s: %w", c.label(), ErrNotImplemented)
	}
	return c.Source.Versions(ctx)
}

// Latest returns the canonical string of the greatest selectable version.
func (c *Checker) Latest(ctx context.Context) (string, error) {
	versions, err := c.selectable(ctx)
	if err != nil {
		return "", err
	}

	latest := versions[0]
	for _, v := range versions[1:] {
		if v.Compare(latest) > 0 {
			latest = v
		}
	}
	return latest.String(), nil
}

// LatestByMajor maps each major number to the greatest version in that line.
func (c *Checker) LatestByMajor(ctx context.Context) (map[string]string, error) {
	versions, err := c.selectable(ctx)
	if err != nil {
		return nil, err
	}
	return groupLatest(versions, MajorKey, pep440.Compare)
}

// LatestByMinor maps each "major.minor" pair to the greatest version in that
// line. A version without a minor segment groups under minor 0.
func (c *Checker) LatestByMinor(ctx context.Context) (map[string]string, error) {
	versions, err := c.selectable(ctx)
	if err != nil {
		return nil, err
	}
	return groupLatest(versions, MinorKey, pep440.Compare)
}

// selectable fetches the versions and applies the pre-release and constraint
// filters. It never returns an empty slice without an error.
func (c *Checker) selectable(ctx context.Context) ([]pep440.Version, error) {
	versions, err := c.GetVersions(ctx)
	if err != nil {
		return nil, err
	}

	if !c.IncludePrereleases {
		versions = FilterStable(versions)
	}
	if c.Constraint != nil {
		versions = FilterConstraint(versions, c.Constraint)
	}

	if len(versions) == 0 {
		return nil, fmt.Errorf("%s: %w", c.label(), ErrNoVersions)
	}
	return versions, nil
}

func (c *Checker) label() string {
	switch {
	case c.Slug != "":
		return c.Slug
	case c.Repository != "":
		return c.Repository
	default:
		return "checker"
	}
}

// FilterStable drops pre-releases and dev releases. Post releases are kept.
func FilterStable(versions []pep440.Version) []pep440.Version {
	out := make([]pep440.Version, 0, len(versions))
	for _, v := range versions {
		if !v.IsPreRelease() {
			out = append(out, v)
		}
	}
	return out
}

// MajorKey groups versions by their first release segment.
func MajorKey(v pep440.Version) string {
	return strconv.Itoa(v.Major())
}

// MinorKey groups versions by their first two release segments.
func MinorKey(v pep440.Version) string {
	return strconv.Itoa(v.Major()) + "." + strconv.Itoa(v.Minor())
}
