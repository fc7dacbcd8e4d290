package strings

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold normalizes s for comparison: Unicode NFKC, case folding, and
// whitespace collapsed to single spaces with the ends trimmed.
//
// Casers are stateful, so one is built per call.
func Fold(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// EqualFold reports whether a and b are equal after Fold.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}

// Upper returns the NFKC-normalized, whitespace-collapsed upper-case form of s.
func Upper(s string) string {
	return cases.Upper(language.Und).String(Collapse(s))
}

// Lower returns the NFKC-normalized, whitespace-collapsed lower-case form of s.
func Lower(s string) string {
	return cases.Lower(language.Und).String(Collapse(s))
}

// Title returns the NFKC-normalized, whitespace-collapsed title-case form of s.
func Title(s string) string {
	return cases.Title(language.Und).String(Collapse(s))
}

// Collapse NFKC-normalizes s and collapses runs of whitespace to one space.
func Collapse(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}
