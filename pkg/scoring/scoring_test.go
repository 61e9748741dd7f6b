package scoring

import (
	"math"
	"slices"
	"testing"

	"github.com/codeGROOVE-dev/tripweave/pkg/place"
)

func TestScore(t *testing.T) {
	profile := &place.Profile{Traits: map[string]float64{"nature": 4, "Culture": 2, "nightlife": -3}}

	tests := []struct {
		name        string
		candidate   place.Candidate
		want        float64
		wantMatched []string
	}{
		{
			name:      "rating only",
			candidate: place.Candidate{Rating: 4.2, Categories: []string{"Bookstore"}},
			want:      21,
		},
		{
			name:      "photo bonus",
			candidate: place.Candidate{Rating: 4, Photos: []place.Photo{{Ref: "p1"}}},
			want:      40,
		},
		{
			name:        "weighted trait, case-insensitive profile key",
			candidate:   place.Candidate{Rating: 4, Categories: []string{"Botanical Garden"}},
			want:        20 + 4*3,
			wantMatched: []string{"nature"},
		},
		{
			name:        "negative weight lowers score",
			candidate:   place.Candidate{Rating: 4, Categories: []string{"Cocktail Bar"}},
			want:        20 - 9,
			wantMatched: []string{"nightlife"},
		},
		{
			name:        "zero-weight traits are ignored",
			candidate:   place.Candidate{Categories: []string{"Art Museum"}},
			want:        2 * 3,
			wantMatched: []string{"culture"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, matched := Score(&tt.candidate, profile)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
			if !slices.Equal(matched, tt.wantMatched) {
				t.Errorf("matched = %v, want %v", matched, tt.wantMatched)
			}
		})
	}
}

func TestScoreNilProfile(t *testing.T) {
	c := place.Candidate{Rating: 3, Categories: []string{"Park"}}
	got, matched := Score(&c, nil)
	if got != 15 || len(matched) != 0 {
		t.Errorf("Score(nil profile) = %v %v, want 15 []", got, matched)
	}
}

func TestRankStable(t *testing.T) {
	candidates := []place.Candidate{
		{ID: "a", Rating: 3},
		{ID: "b", Rating: 5},
		{ID: "c", Rating: 3},
		{ID: "d", Rating: 4, Categories: []string{"Park"}},
		{ID: "e", Rating: 3},
	}
	profile := &place.Profile{Traits: map[string]float64{"nature": 1}}

	ranked := Rank(candidates, profile)

	var ids []string
	for _, c := range ranked {
		ids = append(ids, c.ID)
	}
	want := []string{"b", "d", "a", "c", "e"}
	if !slices.Equal(ids, want) {
		t.Errorf("Rank order = %v, want %v", ids, want)
	}
	if ranked[1].Score != 23 {
		t.Errorf("d score = %v, want 23", ranked[1].Score)
	}
	if !slices.Equal(ranked[1].MatchedTraits, []string{"nature"}) {
		t.Errorf("d matched = %v", ranked[1].MatchedTraits)
	}
}
