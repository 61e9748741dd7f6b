package lexicon

import (
	"slices"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		place        string
		categories   []string
		want         Class
		wantMeal     bool
		wantActivity bool
	}{
		{
			name:         "plain restaurant",
			place:        "Luigi's",
			categories:   []string{"Italian Restaurant"},
			want:         Meal,
			wantMeal:     true,
			wantActivity: false,
		},
		{
			name:         "food hall is both",
			place:        "Central Food Hall",
			categories:   []string{"Food Hall"},
			want:         Activity,
			wantMeal:     true,
			wantActivity: true,
		},
		{
			name:         "gastropub is nightlife",
			place:        "The Anchor",
			categories:   []string{"Pub", "Restaurant"},
			want:         Nightlife,
			wantMeal:     true,
			wantActivity: false,
		},
		{
			name:         "wine bar",
			place:        "Le Verre",
			categories:   []string{"Wine Bar"},
			want:         Nightlife,
			wantMeal:     false,
			wantActivity: true,
		},
		{
			name:         "barber is not a bar",
			place:        "Sharp Cuts",
			categories:   []string{"Barber"},
			want:         Unknown,
			wantMeal:     false,
			wantActivity: true,
		},
		{
			name:         "museum via google type",
			place:        "City Museum",
			categories:   []string{"museum", "point_of_interest"},
			want:         Activity,
			wantActivity: true,
		},
		{
			name:         "plural category",
			place:        "Harbor",
			categories:   []string{"Museums"},
			want:         Activity,
			wantActivity: true,
		},
		{
			name:       "snake case type",
			place:      "Sunrise",
			categories: []string{"night_club"},
			want:       Nightlife,
			// not food, so usable as an activity
			wantActivity: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Inspect(tt.place, tt.categories)
			if got := c.Class(); got != tt.want {
				t.Errorf("Class() = %s, want %s", got, tt.want)
			}
			if c.IsMeal() != tt.wantMeal {
				t.Errorf("IsMeal() = %v, want %v", c.IsMeal(), tt.wantMeal)
			}
			if c.IsActivity() != tt.wantActivity {
				t.Errorf("IsActivity() = %v, want %v", c.IsActivity(), tt.wantActivity)
			}
		})
	}
}

func TestDurationFor(t *testing.T) {
	tests := []struct {
		categories []string
		want       int
	}{
		{[]string{"Art Museum"}, 120},
		{[]string{"museums"}, 120},
		{[]string{"amusement_park"}, 180},
		{[]string{"Scenic Lookout"}, 30},
		{[]string{"Wine Bar"}, 90},
		{[]string{"Something Else"}, DefaultDuration},
		{nil, DefaultDuration},
	}
	for _, tt := range tests {
		if got := DurationFor(tt.categories); got != tt.want {
			t.Errorf("DurationFor(%v) = %d, want %d", tt.categories, got, tt.want)
		}
	}
}

func TestMatchesSlot(t *testing.T) {
	if !MatchesSlot("breakfast", "Sunrise Bakery", nil) {
		t.Error("bakery name should match breakfast")
	}
	if !MatchesSlot("Breakfast", "Joe's", []string{"cafe"}) {
		t.Error("slot lookup should be case-insensitive")
	}
	if MatchesSlot("dinner", "Sunrise Bakery", []string{"bakery"}) {
		t.Error("bakery should not match dinner")
	}
	if MatchesSlot("lunch", "Anything", []string{"restaurant"}) {
		t.Error("unknown slot should never match")
	}
}

func TestTraits(t *testing.T) {
	got := Traits([]string{"Art Gallery"})
	want := []string{"art", "culture"}
	if !slices.Equal(got, want) {
		t.Errorf("Traits(Art Gallery) = %v, want %v", got, want)
	}
	if !MatchesTrait([]string{"Botanical Garden"}, "Nature") {
		t.Error("botanical garden should match nature")
	}
	if MatchesTrait([]string{"Botanical Garden"}, "nonexistent") {
		t.Error("unknown trait should not match")
	}
	if len(Traits(nil)) != 0 {
		t.Error("no categories should yield no traits")
	}
}

func TestPools(t *testing.T) {
	tests := []struct {
		name               string
		place              string
		categories         []string
		wantMeal, wantActv bool
	}{
		{"restaurant", "Luigi's", []string{"Italian Restaurant"}, true, false},
		{"food hall", "Central Food Hall", []string{"Food Hall"}, true, true},
		{"gastropub", "The Anchor", []string{"Pub", "Restaurant"}, false, true},
		{"cocktail bar", "Le Bar", []string{"Cocktail Bar"}, false, true},
		{"museum", "City Museum", []string{"museum"}, false, true},
		{"unclassified", "Sharp Cuts", []string{"Barber"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meal, actv := Inspect(tt.place, tt.categories).Pools()
			if meal != tt.wantMeal || actv != tt.wantActv {
				t.Errorf("Pools() = (%v, %v), want (%v, %v)", meal, actv, tt.wantMeal, tt.wantActv)
			}
		})
	}
}

func TestTablesAreCopies(t *testing.T) {
	kw := TraitKeywords("nature")
	kw[0] = "mutated"
	if TraitKeywords("nature")[0] == "mutated" {
		t.Error("TraitKeywords must return a copy")
	}
	base := BaselineFoodTags()
	base[0] = "mutated"
	if BaselineFoodTags()[0] == "mutated" {
		t.Error("BaselineFoodTags must return a copy")
	}
	if len(traitKeywords) != 13 {
		t.Errorf("got %d traits, want 13", len(traitKeywords))
	}
	if !slices.Contains(FoodTraits(), "foodie") {
		t.Error("foodie should be a food trait")
	}
}
