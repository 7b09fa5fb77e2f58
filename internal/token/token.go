// Package token splits query and page text into searchable tokens and folds
// text into a canonical matching form.
package token

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Tokenize splits text into an ordered sequence of tokens. A token is either
// a double-quoted phrase, taken verbatim (trimmed) as a single atomic token,
// or a maximal run of token runes: ASCII letters, digits, underscore, CJK
// ideographs, Hiragana, Katakana, the prolonged-sound mark and the iteration
// marks 々〆〤. Everything else separates tokens. Empty or whitespace-only
// input yields nil.
func Tokenize(text string) []string {
	var tokens []string
	runes := []rune(text)

	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '"':
			// Quoted phrase: verbatim up to the closing quote (or end).
			j := i + 1
			for j < len(runes) && runes[j] != '"' {
				j++
			}
			phrase := strings.TrimSpace(string(runes[i+1 : j]))
			if phrase != "" {
				tokens = append(tokens, phrase)
			}
			if j < len(runes) {
				j++ // skip closing quote
			}
			i = j
		case isTokenRune(r):
			j := i + 1
			for j < len(runes) && isTokenRune(runes[j]) {
				j++
			}
			tokens = append(tokens, string(runes[i:j]))
			i = j
		default:
			i++
		}
	}
	return tokens
}

// Fold converts text to its canonical matching form: NFKC-normalized and
// lowercased. Indexed page text and query tokens go through the same fold,
// which makes matching case-insensitive and normalization-aware (full-width
// alphanumerics, half-width katakana, compatibility ligatures).
func Fold(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// FoldAll folds every token. Tokens folding to the empty string are dropped.
func FoldAll(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if f := Fold(t); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// isTokenRune reports whether r belongs to the token character class
// [0-9A-Za-z_一-龯ぁ-ゔァ-ヴー々〆〤].
func isTokenRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	case r == '_':
		return true
	case r >= 0x4E00 && r <= 0x9FAF: // CJK ideographs 一-龯
		return true
	case r >= 0x3041 && r <= 0x3094: // Hiragana ぁ-ゔ
		return true
	case r >= 0x30A1 && r <= 0x30F4: // Katakana ァ-ヴ
		return true
	case r == 0x30FC: // prolonged sound mark ー
		return true
	case r == 0x3005 || r == 0x3006 || r == 0x3024: // 々〆〤
		return true
	}
	return false
}
