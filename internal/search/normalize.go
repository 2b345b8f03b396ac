package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// fold normalizes s for case-insensitive exact comparison: trimmed, NFC,
// and Unicode case-folded.
func fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(s))
}

// sameFold reports whether a and b are equal under fold.
func sameFold(a, b string) bool {
	return fold(a) == fold(b)
}
