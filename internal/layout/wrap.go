// internal/layout/wrap.go
package layout

import (
	"strings"
	"unicode/utf8"
)

// WrapText greedily wraps text on whitespace so no line exceeds width runes.
// A word longer than width is hard-split. Text that already fits comes back
// trimmed as a single line; empty text yields one empty line.
func WrapText(text string, width int) []string {
	text = strings.TrimSpace(text)
	if width <= 0 || utf8.RuneCountInString(text) <= width {
		return []string{text}
	}

	var lines []string
	var cur []rune

	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)

		if len(cur) > 0 && len(cur)+1+len(w) <= width {
			cur = append(cur, ' ')
			cur = append(cur, w...)
			continue
		}
		flush()

		for len(w) > width {
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		cur = append(cur, w...)
	}
	flush()

	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// Truncate cuts s to at most width runes
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}
