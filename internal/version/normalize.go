package version

import "strings"

// NormalizeFunc rewrites a raw tag name into a string the version parser can
// accept. Implementations must be total: output that still fails to parse is
// skipped by the tag source, never reported as an error.
type NormalizeFunc func(tag string) string

// Identity returns the tag unchanged. The parser already tolerates a
// leading "v".
func Identity(tag string) string {
	return tag
}

// StripPrefix removes a literal prefix when present.
// Examples:
//   - StripPrefix("go")("go1.8") → "1.8"
//   - StripPrefix("release-")("release-1.11.9") → "1.11.9"
func StripPrefix(prefix string) NormalizeFunc {
	return func(tag string) string {
		return strings.TrimPrefix(tag, prefix)
	}
}

// Remove deletes every occurrence of marker.
// Example: Remove("-ce")("v17.03.0-ce") → "v17.03.0"
func Remove(marker string) NormalizeFunc {
	if marker == "" {
		return Identity
	}
	return func(tag string) string {
		return strings.ReplaceAll(tag, marker, "")
	}
}

// ReplaceAll substitutes every occurrence of old with new.
// Example: ReplaceAll("_", ".")("2_7_1") → "2.7.1"
func ReplaceAll(old, new string) NormalizeFunc {
	if old == "" {
		return Identity
	}
	return func(tag string) string {
		return strings.ReplaceAll(tag, old, new)
	}
}

// Chain applies fns left to right. Nil entries are ignored.
func Chain(fns ...NormalizeFunc) NormalizeFunc {
	return func(tag string) string {
		for _, fn := range fns {
			if fn != nil {
				tag = fn(tag)
			}
		}
		return tag
	}
}
