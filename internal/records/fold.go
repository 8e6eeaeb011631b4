package records

import (
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of s for case-insensitive comparison.
// A Caser keeps state, so one is built per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether substr is within s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}
