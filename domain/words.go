package domain

import (
	"strings"
	"unicode"
)

// SplitWords breaks text into word tokens on any non-letter, non-digit rune.
func SplitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// NormalizeToken lower-cases a token and strips surrounding punctuation, the
// form used for keyword and transcript matching.
func NormalizeToken(token string) string {
	trimmed := strings.TrimFunc(token, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.ToLower(trimmed)
}

// ContainsToken reports whether text contains keyword as a whole word,
// case-insensitively. Substring hits inside longer words do not count.
func ContainsToken(text, keyword string) bool {
	want := NormalizeToken(keyword)
	if want == "" {
		return false
	}
	for _, tok := range SplitWords(text) {
		if strings.ToLower(tok) == want {
			return true
		}
	}
	return false
}
