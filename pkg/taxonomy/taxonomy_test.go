package taxonomy

import (
	"errors"
	"slices"
	"testing"
)

func TestTopLevelOf(t *testing.T) {
	tax := Default()
	tests := []struct {
		id   string
		want string
	}{
		{"taco_place", "food"},
		{"restaurant", "food"},
		{"food", "food"},
		{"cocktail_bar", "nightlife"},
		{"castle", "arts_entertainment"},
		{"not-a-category", "not-a-category"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := tax.TopLevelOf(tt.id); got != tt.want {
				t.Errorf("TopLevelOf(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestTopLevelOfIdempotent(t *testing.T) {
	tax := Default()
	for _, id := range append(tax.order, "unknown") {
		once := tax.TopLevelOf(id)
		if twice := tax.TopLevelOf(once); twice != once {
			t.Errorf("TopLevelOf(TopLevelOf(%q)) = %q, want %q", id, twice, once)
		}
	}
}

func TestExpand(t *testing.T) {
	tax := Default()

	got := tax.Expand("restaurant")
	if got[0] != "restaurant" {
		t.Errorf("Expand should start with the id itself, got %v", got)
	}
	if !slices.Contains(got, "taco_place") {
		t.Errorf("Expand(restaurant) missing taco_place: %v", got)
	}
	if slices.Contains(got, "cafe") {
		t.Errorf("Expand(restaurant) should not contain sibling cafe: %v", got)
	}

	// Overlapping inputs are deduplicated.
	got = tax.Expand("food", "restaurant", "taco_place")
	seen := map[string]bool{}
	for _, id := range got {
		if seen[id] {
			t.Fatalf("Expand returned duplicate %q: %v", id, got)
		}
		seen[id] = true
	}
	if !seen["coffee_shop"] || !seen["brunch_spot"] {
		t.Errorf("Expand(food) missing grandchildren: %v", got)
	}

	if got := tax.Expand("mystery"); !slices.Equal(got, []string{"mystery"}) {
		t.Errorf("Expand(unknown) = %v, want [mystery]", got)
	}
}

func TestExpandTopLevel(t *testing.T) {
	tax := Default()
	got := tax.ExpandTopLevel("taco_place")
	for _, want := range []string{"food", "cafe", "bakery", "sushi_restaurant"} {
		if !slices.Contains(got, want) {
			t.Errorf("ExpandTopLevel(taco_place) missing %q", want)
		}
	}
	if slices.Contains(got, "bar") {
		t.Errorf("ExpandTopLevel(taco_place) leaked into nightlife: %v", got)
	}
}

func TestMatchName(t *testing.T) {
	tax := Default()
	if got := tax.MatchName("taco"); !slices.Equal(got, []string{"taco_place"}) {
		t.Errorf("MatchName(taco) = %v", got)
	}
	// Tag containing the category name also matches.
	if got := tax.MatchName("rooftop cocktail bar"); !slices.Contains(got, "cocktail_bar") || !slices.Contains(got, "bar") {
		t.Errorf("MatchName(rooftop cocktail bar) = %v", got)
	}
	if got := tax.MatchName("  "); got != nil {
		t.Errorf("MatchName(blank) = %v, want nil", got)
	}
}

func TestNewRejectsCycles(t *testing.T) {
	_, err := New([]Node{
		{ID: "a", Name: "A", Parent: "c"},
		{ID: "b", Name: "B", Parent: "a"},
		{ID: "c", Name: "C", Parent: "b"},
	})
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("New() error = %v, want ErrCycle", err)
	}

	_, err = New([]Node{{ID: "a", Name: "A", Parent: "a"}})
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("self parent: error = %v, want ErrCycle", err)
	}
}

func TestNewRejectsBadReferences(t *testing.T) {
	if _, err := New([]Node{{ID: "a", Parent: "ghost"}}); !errors.Is(err, ErrUnknownParent) {
		t.Errorf("error = %v, want ErrUnknownParent", err)
	}
	if _, err := New([]Node{{ID: "a"}, {ID: "a"}}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("error = %v, want ErrDuplicateID", err)
	}
}

func TestDeepChainNeedsNoGuard(t *testing.T) {
	// Deeper than any fixed runtime guard would allow.
	var nodes []Node
	prev := ""
	for i := range 50 {
		id := string(rune('A'+i%26)) + string(rune('a'+i/26))
		nodes = append(nodes, Node{ID: id, Name: id, Parent: prev})
		prev = id
	}
	tax, err := New(nodes)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := tax.TopLevelOf(prev); got != nodes[0].ID {
		t.Errorf("TopLevelOf(leaf) = %q, want %q", got, nodes[0].ID)
	}
}

func TestLookupCopiesChildren(t *testing.T) {
	tax := Default()
	n, ok := tax.Lookup("food")
	if !ok {
		t.Fatal("food missing")
	}
	n.Children[0] = "mutated"
	again, _ := tax.Lookup("food")
	if again.Children[0] == "mutated" {
		t.Error("Lookup leaked internal children slice")
	}
}
