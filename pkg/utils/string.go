package utils

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis is appended to truncated strings.
const Ellipsis = "…"

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// NormalizeWhitespace replaces runs of whitespace, newlines included, with a single space.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateString cuts str to at most maxRunes runes and appends an ellipsis
// when anything was cut.
func (s *StringHelper) TruncateString(str string, maxRunes int) string {
	if maxRunes < 0 || utf8.RuneCountInString(str) <= maxRunes {
		return str
	}

	runes := []rune(str)

	return string(runes[:maxRunes]) + Ellipsis
}

// Capitalize upper-cases the first rune and lower-cases the rest.
func (s *StringHelper) Capitalize(str string) string {
	if str == "" {
		return str
	}

	first, size := utf8.DecodeRuneInString(str)

	return strings.ToUpper(string(first)) + strings.ToLower(str[size:])
}
