// Package textnorm provides the pure text normalization applied to every
// document and query before embedding.
package textnorm

import (
	"strings"
	"unicode"
)

// Normalize lowercases the text and strips every rune that is not a letter,
// digit, or whitespace, then trims surrounding whitespace. Idempotent.
func Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
