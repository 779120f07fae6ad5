package common

import (
	"unicode"
	"unicode/utf8"
)

// UnknownStr is printed for enum values without a name.
const UnknownStr = "unknown"

// UpperFirst returns s with its first rune upper-cased.
func UpperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}

// LowerFirst returns s with its first rune lower-cased.
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}

	return string(unicode.ToLower(r)) + s[size:]
}
