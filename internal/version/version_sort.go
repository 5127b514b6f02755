package version

import (
	"slices"

	"github.com/tsukumogami/verse/internal/pep440"
)

// SortDescending returns a copy of versions sorted latest first.
// The input slice is not modified.
func SortDescending(versions []pep440.Version) []pep440.Version {
	result := slices.Clone(versions)
	slices.SortStableFunc(result, func(a, b pep440.Version) int {
		return b.Compare(a)
	})
	return result
}

// IsSortedDescending checks if versions are sorted latest first.
func IsSortedDescending(versions []pep440.Version) bool {
	for i := 1; i < len(versions); i++ {
		if versions[i-1].Compare(versions[i]) < 0 {
			return false
		}
	}
	return true
}

// Strings renders versions in canonical form, preserving order.
func Strings(versions []pep440.Version) []string {
	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.String()
	}
	return out
}
