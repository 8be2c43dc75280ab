package views

import (
	"strings"
	"unicode/utf8"
)

// Truncate shortens display text to roughly max bytes, preferring to cut
// at a word boundary, and appends an ellipsis. A cut landing inside a
// multi-byte rune backs up to the rune start so the output stays valid
// UTF-8. Text within the limit is returned unchanged.
func Truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := text[:max]
	if i := strings.LastIndex(cut, " "); i > max*3/4 {
		cut = cut[:i]
	}
	for len(cut) > 0 {
		if r, size := utf8.DecodeLastRuneInString(cut); r == utf8.RuneError && size <= 1 {
			cut = cut[:len(cut)-1]
			continue
		}
		break
	}
	return cut + "..."
}
