package reconciliation

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// SimilarityFunc returns a similarity in [0,1] between two normalized labels.
type SimilarityFunc func(a, b string) float64

var unitCost = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// LevenshteinSimilarity is one minus the edit distance over the longer length.
func LevenshteinSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	d := levenshtein.DistanceForStrings(ra, rb, unitCost)
	return 1 - float64(d)/float64(longest)
}

// TokenSimilarity is the Jaccard index of the whitespace separated tokens.
func TokenSimilarity(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

// DefaultSimilarity takes the best of character and token similarity, so that
// reordered words and small typos both score well.
func DefaultSimilarity(a, b string) float64 {
	return max(LevenshteinSimilarity(a, b), TokenSimilarity(a, b))
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
