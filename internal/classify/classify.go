// Package classify holds the two ELF classifiers: a frequency-ranked
// abbreviation rule classifier and a complement naive Bayes model over the
// fused feature space.
package classify

import (
	"cmp"
	"slices"

	"github.com/rotisserie/eris"
)

// ErrNotFitted is returned when a classifier is used before Fit.
var ErrNotFitted = eris.New("classify: classifier has not been fitted")

// Scored is one ranked class.
type Scored struct {
	Code  string  `json:"code"`
	Score float64 `json:"score"`
}

// SortScored orders by descending score, ties by ascending code.
func SortScored(s []Scored) {
	slices.SortStableFunc(s, func(a, b Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
}

// Top returns at most k leading entries of an already sorted slice.
// k <= 0 keeps every entry.
func Top(s []Scored, k int) []Scored {
	if k > 0 && k < len(s) {
		return s[:k]
	}
	return s
}
