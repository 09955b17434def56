package resolve

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Threshold is the minimum similarity score for an unranked fuzzy match to be
// accepted without asking the user.
const Threshold = 0.6

// Score returns the normalized similarity between two strings in [0,1].
// 1.0 means identical ignoring case, 0.0 means maximally dissimilar for
// their lengths: 1 - distance/max(len(a), len(b)).
func Score(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	la := len([]rune(a))
	lb := len([]rune(b))
	if la == 0 && lb == 0 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(a, b)
	longest := la
	if lb > longest {
		longest = lb
	}
	return 1.0 - float64(distance)/float64(longest)
}
