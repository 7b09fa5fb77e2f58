// Package snippet extracts a highlighted context window around the first
// query match in a page's text.
package snippet

import (
	"strings"

	"github.com/bunko-dev/bunko/internal/token"
)

// Sentinel markers wrapping the matched span. Private-use runes: they never
// occur in indexed text (pdftext.Clean strips the private-use area), so a
// downstream renderer can split on them without re-tokenizing. Version 1 of
// the highlight protocol; bump both together if the pair ever changes.
const (
	MarkStart = "\uE000"
	MarkEnd   = "\uE001"
)

// DefaultWindow is the context size, in runes, on each side of a match.
const DefaultWindow = 80

// Build returns a window of text around the first occurrence of any of the
// folded tokens, with the matched span wrapped in MarkStart/MarkEnd. The
// match is located on the folded form of text, so it is case-insensitive and
// normalization-aware. If no token occurs (the caller normally only passes
// pages already known to match), the unmarked head of the text is returned.
func Build(text string, folded []string, window int) string {
	if window <= 0 {
		window = DefaultWindow
	}

	runes := []rune(text)
	start, end, ok := findFirst(runes, folded)
	if !ok {
		if len(runes) > window*2 {
			return strings.TrimSpace(string(runes[:window*2])) + "..."
		}
		return strings.TrimSpace(text)
	}

	lo := start - window
	if lo < 0 {
		lo = 0
	}
	hi := end + window
	if hi > len(runes) {
		hi = len(runes)
	}

	// Extend the clipped edges to whitespace so words are not cut in half.
	for lo > 0 && !isBoundary(runes[lo-1]) {
		lo--
	}
	for hi < len(runes) && !isBoundary(runes[hi]) {
		hi++
	}

	var b strings.Builder
	if lo > 0 {
		b.WriteString("...")
	}
	b.WriteString(strings.TrimLeft(string(runes[lo:start]), " "))
	b.WriteString(MarkStart)
	b.WriteString(string(runes[start:end]))
	b.WriteString(MarkEnd)
	b.WriteString(strings.TrimRight(string(runes[end:hi]), " "))
	if hi < len(runes) {
		b.WriteString("...")
	}
	return b.String()
}

// findFirst locates the earliest occurrence, by rune offset, of any folded
// token in runes. Matching folds each candidate span, which keeps offsets
// valid in the original text even when folding changes rune counts
// (ligatures, full-width forms).
func findFirst(runes []rune, folded []string) (start, end int, ok bool) {
	best := -1
	bestEnd := 0
	for _, tok := range folded {
		if tok == "" {
			continue
		}
		s, e, found := indexFolded(runes, tok)
		if found && (best == -1 || s < best) {
			best, bestEnd = s, e
		}
	}
	if best == -1 {
		return 0, 0, false
	}
	return best, bestEnd, true
}

// indexFolded scans for the folded token. The matching span can be shorter
// than the token (folding expands ligatures, "ﬁ" to "fi") or longer (folding
// composes combining sequences, "e"+U+0301 to "é"), so each candidate grows
// one rune at a time until its folded form overtakes the token.
func indexFolded(runes []rune, tok string) (start, end int, ok bool) {
	for i := 0; i < len(runes); i++ {
		for span := 1; i+span <= len(runes); span++ {
			f := token.Fold(string(runes[i : i+span]))
			if f == tok {
				return i, i + span, true
			}
			if len(f) > len(tok) {
				break
			}
		}
	}
	return 0, 0, false
}

func isBoundary(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}
