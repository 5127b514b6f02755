// Package pep440 parses and orders version strings following the PEP 440
// version scheme, including the permissive spellings that the scheme
// requires tools to normalize (leading "v", "-rc1", "17.03", "1.0-1", ...).
//
// Canonical public version identifiers have the form:
//
//	[N!]N(.N)*[{a|b|rc}N][.postN][.devN][+local]
package pep440

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxVersionLength is the longest input Parse accepts.
const MaxVersionLength = 128

// ErrInvalidVersion is wrapped by every ParseError.
var ErrInvalidVersion = errors.New("invalid version")

// ParseError reports a string that does not conform to the version scheme.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid version: %q", e.Input)
	}
	return fmt.Sprintf("invalid version %q: %s", e.Input, e.Reason)
}

// Unwrap returns ErrInvalidVersion so callers can use errors.Is.
func (e *ParseError) Unwrap() error {
	return ErrInvalidVersion
}

// Version is an immutable parsed version. The zero value is not a valid
// version; obtain one through Parse or MustParse.
type Version struct {
	epoch   int
	release []int
	preL    string // "a", "b" or "rc"; empty when not a pre-release
	preN    int
	post    int
	hasPost bool
	dev     int
	hasDev  bool
	local   string
}

// reVersion is the permissive pattern from the scheme's appendix, with the
// verbose-mode whitespace removed. Longer alternatives come first because Go
// alternation is leftmost-first.
var reVersion = regexp.MustCompile(`(?i)^\s*v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?P<pre>[-_.]?(?P<pre_l>alpha|a|beta|b|preview|pre|c|rc)[-_.]?(?P<pre_n>[0-9]+)?)?` +
	`(?P<post>(?:-(?P<post_n1>[0-9]+))|(?:[-_.]?(?P<post_l>post|rev|r)[-_.]?(?P<post_n2>[0-9]+)?))?` +
	`(?P<dev>[-_.]?(?P<dev_l>dev)[-_.]?(?P<dev_n>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?` +
	`\s*$`)

var (
	idxEpoch   = reVersion.SubexpIndex("epoch")
	idxRelease = reVersion.SubexpIndex("release")
	idxPreL    = reVersion.SubexpIndex("pre_l")
	idxPreN    = reVersion.SubexpIndex("pre_n")
	idxPost    = reVersion.SubexpIndex("post")
	idxPostN1  = reVersion.SubexpIndex("post_n1")
	idxPostN2  = reVersion.SubexpIndex("post_n2")
	idxDev     = reVersion.SubexpIndex("dev")
	idxDevN    = reVersion.SubexpIndex("dev_n")
	idxLocal   = reVersion.SubexpIndex("local")
)

// preReleaseSpelling maps every accepted pre-release spelling to its
// canonical letter.
var preReleaseSpelling = map[string]string{
	"a":       "a",
	"alpha":   "a",
	"b":       "b",
	"beta":    "b",
	"c":       "rc",
	"rc":      "rc",
	"pre":     "rc",
	"preview": "rc",
}

// Parse parses s into a Version, applying the scheme's normalizations.
func Parse(s string) (Version, error) {
	if len(s) > MaxVersionLength {
		return Version{}, &ParseError{Input: s[:32] + "...", Reason: fmt.Sprintf("longer than %d characters", MaxVersionLength)}
	}

	m := reVersion.FindStringSubmatch(s)
	if m == nil {
		return Version{}, &ParseError{Input: s}
	}

	var v Version
	var err error

	if e := m[idxEpoch]; e != "" {
		if v.epoch, err = strconv.Atoi(e); err != nil {
			return Version{}, &ParseError{Input: s, Reason: "epoch out of range"}
		}
	}

	for _, seg := range strings.Split(m[idxRelease], ".") {
		n, err := strconv.Atoi(seg)
		if err != nil {
			return Version{}, &ParseError{Input: s, Reason: "release segment out of range"}
		}
		v.release = append(v.release, n)
	}

	if l := m[idxPreL]; l != "" {
		v.preL = preReleaseSpelling[strings.ToLower(l)]
		if v.preN, err = atoiDefault(m[idxPreN]); err != nil {
			return Version{}, &ParseError{Input: s, Reason: "pre-release number out of range"}
		}
	}

	if m[idxPost] != "" {
		v.hasPost = true
		if v.post, err = atoiDefault(m[idxPostN1] + m[idxPostN2]); err != nil {
			return Version{}, &ParseError{Input: s, Reason: "post-release number out of range"}
		}
	}

	if m[idxDev] != "" {
		v.hasDev = true
		if v.dev, err = atoiDefault(m[idxDevN]); err != nil {
			return Version{}, &ParseError{Input: s, Reason: "dev-release number out of range"}
		}
	}

	if l := m[idxLocal]; l != "" {
		parts := strings.FieldsFunc(strings.ToLower(l), func(r rune) bool {
			return r == '-' || r == '_' || r == '.'
		})
		v.local = strings.Join(parts, ".")
	}

	return v, nil
}

// MustParse is like Parse but panics on error. Intended for tables and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func atoiDefault(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

// String returns the canonical form. Release segments are rendered as
// parsed, so "1.0" stays "1.0" while "17.03" becomes "17.3".
func (v Version) String() string {
	var sb strings.Builder
	sb.WriteString(v.Public())
	if v.local != "" {
		sb.WriteByte('+')
		sb.WriteString(v.local)
	}
	return sb.String()
}

// Public returns the canonical form without the local label.
func (v Version) Public() string {
	var sb strings.Builder
	if v.epoch > 0 {
		sb.WriteString(strconv.Itoa(v.epoch))
		sb.WriteByte('!')
	}
	sb.WriteString(v.BaseVersion())
	if v.preL != "" {
		sb.WriteString(v.preL)
		sb.WriteString(strconv.Itoa(v.preN))
	}
	if v.hasPost {
		sb.WriteString(".post")
		sb.WriteString(strconv.Itoa(v.post))
	}
	if v.hasDev {
		sb.WriteString(".dev")
		sb.WriteString(strconv.Itoa(v.dev))
	}
	return sb.String()
}

// BaseVersion returns the release segments joined by dots.
func (v Version) BaseVersion() string {
	parts := make([]string, len(v.release))
	for i, n := range v.release {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

// IsValid reports whether v was produced by Parse.
func (v Version) IsValid() bool {
	return len(v.release) > 0
}

// Epoch returns the epoch segment (0 when absent).
func (v Version) Epoch() int { return v.epoch }

// Release returns a copy of the release segments.
func (v Version) Release() []int {
	out := make([]int, len(v.release))
	copy(out, v.release)
	return out
}

func (v Version) releaseSegment(n int) int {
	if n < len(v.release) {
		return v.release[n]
	}
	return 0
}

// Major returns the first release segment.
func (v Version) Major() int { return v.releaseSegment(0) }

// Minor returns the second release segment, or 0 when absent.
func (v Version) Minor() int { return v.releaseSegment(1) }

// Micro returns the third release segment, or 0 when absent.
func (v Version) Micro() int { return v.releaseSegment(2) }

// Local returns the normalized local label.
func (v Version) Local() string { return v.local }

// IsPreRelease reports whether v is a pre-release or a developmental release.
func (v Version) IsPreRelease() bool { return v.preL != "" || v.hasDev }

// IsPostRelease reports whether v carries a post-release segment.
func (v Version) IsPostRelease() bool { return v.hasPost }

// IsDevRelease reports whether v carries a dev segment.
func (v Version) IsDevRelease() bool { return v.hasDev }
