package domain

import (
	"fmt"
	"strings"
)

// NormalizeSearchText lowercases text and collapses every run of whitespace
// into one space, trimming both ends. Vietnamese diacritics are preserved, so
// "Nguyễn" does not match "nguyen".
func NormalizeSearchText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ContainsText reports whether the display form of v contains query.
// query must already be normalized. nil never matches.
func ContainsText(v any, query string) bool {
	if v == nil {
		return false
	}
	return strings.Contains(NormalizeSearchText(fmt.Sprint(v)), query)
}
