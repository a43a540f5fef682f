// Package textutil provides small text helpers for artifact naming and
// caption layout.
package textutil

import (
	"strings"
	"unicode"
)

const maxFileNameLength = 120

// SanitizeFileName strips characters that are unsafe in file names and
// collapses runs of whitespace into single underscores. The result is
// trimmed to a length that stays well inside filesystem limits.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastUnderscore := false
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|' || r == 0:
			// drop
		case unicode.IsSpace(r):
			if !lastUnderscore && b.Len() > 0 {
				b.WriteRune('_')
				lastUnderscore = true
			}
		default:
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	out := strings.Trim(b.String(), "._ ")
	if out == "" {
		return "untitled"
	}
	return TruncateRunes(out, maxFileNameLength)
}

// TruncateRunes shortens s to at most n runes.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
