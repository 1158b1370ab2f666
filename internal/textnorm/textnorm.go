// Package textnorm provides the Unicode normalization shared by text
// matching and entity keys.
package textnorm

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s in NFKC form with Unicode case folding applied. The
// cases.Caser is not safe for concurrent use, so one is built per call.
func Fold(s string) string {
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFKC.String(s))
}

// Key trims and folds s for use as a case-insensitive identity.
func Key(s string) string {
	return Fold(strings.TrimSpace(s))
}
