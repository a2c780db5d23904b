package report

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores a and b from 0 (nothing in common) to 100 (equal,
// ignoring case and surrounding space) using edit distance relative to the
// longer string.
func Similarity(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 100
	}

	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	distance := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * float64(longest-distance) / float64(longest)))
}
