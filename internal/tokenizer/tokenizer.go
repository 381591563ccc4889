// Package tokenizer provides text tokenisation for the experience index. It
// lower-cases input, splits on non-word boundaries, and drops terms shorter
// than two characters. No stemming and no stop-word removal: queries must
// match stored terms literally.
package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const minTermLength = 2

// Tokenize breaks text into a deduplicated set of lowercased terms, in first
// occurrence order. Word characters are Unicode letters, digits, and the
// underscore, which keeps Latin words whole and splits CJK text into
// ideograph runs.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !isWordRune(r)
	})
	terms := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, word := range words {
		// Length in runes, not bytes: a single CJK ideograph is one
		// character and falls below the floor.
		if utf8.RuneCountInString(word) < minTermLength {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		terms = append(terms, word)
	}
	return terms
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
