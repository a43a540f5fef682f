package textutil

import (
	"strings"

	"golang.org/x/text/width"
)

// DisplayWidth returns the terminal cell width of s, counting East
// Asian wide and fullwidth runes as two cells.
func DisplayWidth(s string) int {
	total := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			total += 2
		default:
			total++
		}
	}
	return total
}

// WrapToWidth breaks s into lines no wider than max display cells.
// Breaks happen between runes rather than words so Chinese narration,
// which carries no spaces, wraps evenly. Existing newlines are kept.
func WrapToWidth(s string, max int) []string {
	if max <= 0 {
		return []string{s}
	}
	var lines []string
	for _, segment := range strings.Split(s, "\n") {
		lines = append(lines, wrapSegment(segment, max)...)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

func wrapSegment(s string, max int) []string {
	if s == "" {
		return []string{""}
	}
	var (
		lines []string
		b     strings.Builder
		used  int
	)
	for _, r := range s {
		w := 1
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			w = 2
		}
		if used+w > max && b.Len() > 0 {
			lines = append(lines, b.String())
			b.Reset()
			used = 0
		}
		b.WriteRune(r)
		used += w
	}
	if b.Len() > 0 {
		lines = append(lines, b.String())
	}
	return lines
}
