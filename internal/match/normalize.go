package match

import (
	"strings"
	"unicode"
)

// Normalize folds a name for fuzzy comparison: CamelCase words and
// separated words are joined and lower-cased, so ReadOnly, read-only and
// read_only all become readonly.
func Normalize(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for _, word := range Words(s) {
		b.WriteString(strings.ToLower(word))
	}

	return b.String()
}

// Words splits a name into its CamelCase or separated words.
//
//	"PrimaryKey"    -> ["Primary", "Key"]
//	"not-defaulted" -> ["not", "defaulted"]
//	"HTTPStatus"    -> ["HTTP", "Status"]
func Words(s string) []string {
	var (
		words   []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			flush()

			continue
		}

		if i > 0 && startsWord(runes, i) {
			flush()
		}

		current.WriteRune(r)
	}

	flush()

	return words
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// startsWord reports whether runes[i] begins a new word: a lower to upper
// transition, or the last capital of an acronym followed by lower case.
func startsWord(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) || isSeparator(prev) {
		return false
	}

	if !unicode.IsUpper(prev) {
		return true
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
