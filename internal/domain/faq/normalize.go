package faq

import (
	"strings"
	"unicode"
)

// NormalizeText trims, drops every rune that is not a word character,
// whitespace or one of "?!.", and collapses whitespace runs to one space.
// NormalizeText(NormalizeText(s)) == NormalizeText(s).
func NormalizeText(s string) string {
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			builder.WriteRune(' ')
		case isWordRune(r), r == '?', r == '!', r == '.':
			builder.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(builder.String()), " ")
}

// isWordRune matches the Unicode word class: letters, marks, every numeric
// category (so "²" survives) and the underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

// dedupKey folds case so "How?" and "how?" collapse to one corpus entry.
func dedupKey(question string) string {
	return strings.ToLower(NormalizeText(question))
}
