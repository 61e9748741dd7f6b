// Package scoring ranks candidates by affinity to a traveler profile.
package scoring

import (
	"slices"

	"github.com/codeGROOVE-dev/tripweave/pkg/lexicon"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
)

// Weights applied by Score.
const (
	RatingWeight = 5.0
	PhotoBonus   = 20.0
	TraitWeight  = 3.0
)

// Score returns the affinity of c for profile and the traits that contributed.
// Only traits with a non-zero weight are reported.
func Score(c *place.Candidate, profile *place.Profile) (float64, []string) {
	score := c.Rating * RatingWeight
	if c.HasPhoto() {
		score += PhotoBonus
	}
	var matched []string
	for _, trait := range lexicon.Traits(c.Categories) {
		w := profile.Weight(trait)
		if w == 0 {
			continue
		}
		score += w * TraitWeight
		matched = append(matched, trait)
	}
	return score, matched
}

// Rank annotates every candidate with its score and sorts descending.
// Equal scores keep their input order.
func Rank(candidates []place.Candidate, profile *place.Profile) []place.Candidate {
	for i := range candidates {
		candidates[i].Score, candidates[i].MatchedTraits = Score(&candidates[i], profile)
	}
	slices.SortStableFunc(candidates, func(a, b place.Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return candidates
}
