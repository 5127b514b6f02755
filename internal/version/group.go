package version

import (
	"slices"

	"github.com/tsukumogami/verse/internal/pep440"
)

// groupLatest returns, for every key, the greatest version carrying it.
//
// The input order is not trusted: versions are sorted descending with cmp
// first, then scanned once taking the first version seen per key. The scan
// verifies the sort it just performed. Any adjacent pair in ascending order,
// or a later group member greater than the group's recorded maximum, means
// cmp is not a consistent total order and yields an *OrderingError.
func groupLatest(versions []pep440.Version, key func(pep440.Version) string, cmp func(a, b pep440.Version) int) (map[string]string, error) {
	sorted := slices.Clone(versions)
	slices.SortStableFunc(sorted, func(a, b pep440.Version) int {
		return cmp(b, a)
	})

	result := make(map[string]string)
	top := make(map[string]pep440.Version)

	for i, v := range sorted {
		if i > 0 && cmp(sorted[i-1], v) < 0 {
			return nil, &OrderingError{
				Previous: sorted[i-1].String(),
				Current:  v.String(),
			}
		}

		k := key(v)
		best, seen := top[k]
		if !seen {
			top[k] = v
			result[k] = v.String()
			continue
		}
		if cmp(v, best) > 0 {
			return nil, &OrderingError{
				Group:    k,
				Previous: best.String(),
				Current:  v.String(),
			}
		}
	}

	return result, nil
}
