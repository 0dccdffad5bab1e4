package typesystem

import "golang.org/x/text/cases"

// Fold returns the Unicode case fold of s. Names that compare equal under EqualFold
// fold to the same string, so folded names are usable as map keys.
func Fold(s string) string {
	// A Caser keeps state between calls and must not be shared.
	return cases.Fold().String(s)
}

// EqualFold reports whether a and b are equal under Unicode case folding.
func EqualFold(a, b string) bool {
	return a == b || Fold(a) == Fold(b)
}
