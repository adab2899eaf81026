package recommend

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it on non-alphanumeric boundaries,
// dropping empty tokens. Tokens feed the keyword sub-scores only; semantic
// similarity always runs on the raw query text.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
