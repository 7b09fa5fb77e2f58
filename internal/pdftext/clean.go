package pdftext

import (
	"strings"
	"unicode"
)

// Clean normalizes extracted page text for indexing: control characters and
// private-use runes are dropped (the snippet markers live in the private-use
// area, so indexed text must never contain them) and whitespace runs collapse
// to single spaces.
func Clean(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || unicode.Is(unicode.Co, r) {
			return ' '
		}
		return r
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}
