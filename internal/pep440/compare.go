package pep440

// Pre-release ranks. A dev release of a final version sorts below every
// pre-release of the same release segment.
var preReleaseRank = map[string]int{
	"a":  -3,
	"b":  -2,
	"rc": -1,
	"":   0,
}

// Compare returns -1, 0 or +1 depending on whether v sorts before, equal to
// or after other. The local label does not take part in ordering.
func (v Version) Compare(other Version) int {
	if c := cmpInt(v.epoch, other.epoch); c != 0 {
		return c
	}
	if c := cmpRelease(v.release, other.release); c != 0 {
		return c
	}
	if c := cmpPre(v, other); c != 0 {
		return c
	}
	if c := cmpPost(v, other); c != 0 {
		return c
	}
	return cmpDev(v, other)
}

// Equal reports whether v and other are the same version after
// normalization, e.g. "1.0" and "1.0.0".
func (v Version) Equal(other Version) bool {
	return v.Compare(other) == 0
}

// LessThan reports whether v sorts before other.
func (v Version) LessThan(other Version) bool {
	return v.Compare(other) < 0
}

// GreaterThan reports whether v sorts after other.
func (v Version) GreaterThan(other Version) bool {
	return v.Compare(other) > 0
}

// Compare is a free-function form of Version.Compare, convenient for
// slices.SortFunc.
func Compare(a, b Version) int {
	return a.Compare(b)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// cmpRelease compares release segments, padding the shorter one with zeros.
func cmpRelease(a, b []int) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(a) {
			x = a[i]
		}
		if i < len(b) {
			y = b[i]
		}
		if c := cmpInt(x, y); c != 0 {
			return c
		}
	}
	return 0
}

func preKey(v Version) (rank, n int) {
	if v.preL == "" && !v.hasPost && v.hasDev {
		return -4, 0
	}
	return preReleaseRank[v.preL], v.preN
}

func cmpPre(a, b Version) int {
	ar, an := preKey(a)
	br, bn := preKey(b)
	if c := cmpInt(ar, br); c != 0 {
		return c
	}
	return cmpInt(an, bn)
}

func cmpPost(a, b Version) int {
	ap, bp := -1, -1
	if a.hasPost {
		ap = a.post
	}
	if b.hasPost {
		bp = b.post
	}
	return cmpInt(ap, bp)
}

func cmpDev(a, b Version) int {
	switch {
	case !a.hasDev && !b.hasDev:
		return 0
	case !a.hasDev:
		return 1
	case !b.hasDev:
		return -1
	default:
		return cmpInt(a.dev, b.dev)
	}
}
