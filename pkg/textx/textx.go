// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"
)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	// strip control chars outside tab/newline/carriage return
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Truncate shortens s to at most max characters, replacing the tail with a
// three-character ellipsis. Strings already within the limit come back
// unchanged, so truncation is idempotent.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

var quotePairs = [][2]rune{
	{'"', '"'},
	{'\'', '\''},
	{'“', '”'}, // curly double
	{'‘', '’'}, // curly single
}

// NormalizeQuery cleans a model-produced search query: keep the first line,
// trim whitespace and strip a single pair of surrounding straight or curly
// quotes.
func NormalizeQuery(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	r := []rune(s)
	if len(r) >= 2 {
		for _, p := range quotePairs {
			if r[0] == p[0] && r[len(r)-1] == p[1] {
				s = strings.TrimSpace(string(r[1 : len(r)-1]))
				break
			}
		}
	}
	return s
}

// SliceRunes returns the half-open code-point range [start,end) of text.
// Out-of-range bounds are clamped; an empty or inverted range yields "".
// Offsets are code points because that is the unit the upstream parser
// emits; byte slicing here would silently mis-cut multibyte text.
func SliceRunes(text string, start, end int) string {
	r := []rune(text)
	if start < 0 {
		start = 0
	}
	if end > len(r) {
		end = len(r)
	}
	if start >= end {
		return ""
	}
	return string(r[start:end])
}
