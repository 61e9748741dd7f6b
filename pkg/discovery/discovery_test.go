package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/tripweave/pkg/hours"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
	"github.com/codeGROOVE-dev/tripweave/pkg/store"
	"github.com/codeGROOVE-dev/tripweave/pkg/transit"
)

// fakeSource returns a fixed batch of places per call, numbered so every call
// yields distinct external ids.
type fakeSource struct {
	perCall     func(call int) []place.RawPlace
	failZones   map[int]bool
	details     map[string]place.Details
	nameResults []place.RawPlace
	calls       atomic.Int32
	nameCalls   atomic.Int32
	detailCalls atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	mu          sync.Mutex
	seen        []place.Coordinates
}

func (f *fakeSource) SearchByLocation(ctx context.Context, lat, lng, _ float64, _ []string) ([]place.RawPlace, error) {
	n := int(f.calls.Add(1))
	f.mu.Lock()
	f.seen = append(f.seen, place.Coordinates{Lat: lat, Lng: lng})
	f.mu.Unlock()
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("call without deadline")
	}
	if f.failZones[n] {
		return nil, errors.New("provider unavailable")
	}
	if f.perCall == nil {
		return nil, nil
	}
	return f.perCall(n), nil
}

func (f *fakeSource) SearchByName(_ context.Context, _, _ string, _ []string) ([]place.RawPlace, error) {
	f.nameCalls.Add(1)
	return f.nameResults, nil
}

func (f *fakeSource) FetchDetails(_ context.Context, ref string) (place.Details, error) {
	f.detailCalls.Add(1)
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if cur <= peak || f.maxInFlight.CompareAndSwap(peak, cur) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	d, ok := f.details[ref]
	if !ok {
		return place.Details{}, fmt.Errorf("no details for %s", ref)
	}
	return d, nil
}

func raws(prefix string, meals, activities int) []place.RawPlace {
	var out []place.RawPlace
	for i := range meals {
		out = append(out, place.RawPlace{
			ExternalID: fmt.Sprintf("%s-meal-%d", prefix, i),
			Name:       fmt.Sprintf("Diner %s %d", prefix, i),
			Location:   place.Coordinates{Lat: 45.5, Lng: -73.5},
			Types:      []string{"restaurant", "point_of_interest"},
			Rating:     4,
		})
	}
	for i := range activities {
		out = append(out, place.RawPlace{
			ExternalID: fmt.Sprintf("%s-act-%d", prefix, i),
			Name:       fmt.Sprintf("Gallery %s %d", prefix, i),
			Location:   place.Coordinates{Lat: 45.5, Lng: -73.5},
			Types:      []string{"art_gallery"},
		})
	}
	return out
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

var montreal = place.City{ID: "mtl", Name: "Montreal", Region: "QC", Center: &place.Coordinates{Lat: 45.5, Lng: -73.57}}

func TestThresholds(t *testing.T) {
	tests := []struct {
		days, meals, activities int
	}{
		{1, 20, 30},
		{3, 20, 30},
		{7, 28, 35},
		{10, 40, 50},
	}
	for _, tt := range tests {
		got := Thresholds(tt.days)
		if got.MinMeals != tt.meals || got.MinActivities != tt.activities {
			t.Errorf("Thresholds(%d) = %+v, want {%d %d}", tt.days, got, tt.meals, tt.activities)
		}
	}
}

func TestZones(t *testing.T) {
	center := place.Coordinates{Lat: 45.5, Lng: -73.57}
	zones := Zones(center, 3)
	if len(zones) != 9 {
		t.Fatalf("got %d zones, want 9", len(zones))
	}
	if zones[0] != center {
		t.Errorf("first zone = %v, want center", zones[0])
	}
	for i, z := range zones[1:] {
		if d := transit.Distance(center, z); math.Abs(d-3) > 0.05 {
			t.Errorf("zone %d is %.3f km from center, want 3", i+1, d)
		}
	}
	if zones[1].Lat <= center.Lat || zones[5].Lat >= center.Lat {
		t.Error("zone 1 should be north and zone 5 south")
	}
	if zones[3].Lng <= center.Lng || zones[7].Lng >= center.Lng {
		t.Error("zone 3 should be east and zone 7 west")
	}
}

func TestTargetCategories(t *testing.T) {
	e := New(store.NewMemory(nil), WithLogger(quietLogger()))

	base := e.TargetCategories(nil)
	for _, id := range []string{"restaurant", "cafe", "bakery", "breakfast_spot"} {
		if !slices.Contains(base.CategoryIDs, id) {
			t.Errorf("baseline targets missing %q: %v", id, base.CategoryIDs)
		}
	}

	profile := &place.Profile{
		Traits: map[string]float64{"Nature": 3, "nightlife": -2},
		Liked:  []string{"culture-vulture"},
	}
	got := e.TargetCategories(profile)
	for _, id := range []string{"park", "museum", "art_gallery", "theater"} {
		if !slices.Contains(got.CategoryIDs, id) {
			t.Errorf("targets missing %q", id)
		}
	}
	if slices.Contains(got.CategoryIDs, "night_club") {
		t.Error("negative trait should not contribute targets")
	}
	if !slices.Contains(got.Tags, "nature") || !slices.Contains(got.Tags, "museum") {
		t.Errorf("tags = %v", got.Tags)
	}

	f := e.Filter(got)
	if !slices.Contains(f.CategoryIDs, "taco_place") {
		t.Error("filter should broaden restaurant to the whole food family")
	}
	if !e.Filter(base).Empty() {
		t.Error("a profile without interests should query the whole city")
	}
}

func TestFindCandidatesWithoutInterestsQueriesWholeCity(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)
	src := &fakeSource{}
	e := New(mem, WithSource(src), WithLogger(quietLogger()))

	seed := raws("seed", 20, 30)
	seed = append(seed, place.RawPlace{
		ExternalID: "bowl-1",
		Name:       "Lucky Strike",
		Location:   place.Coordinates{Lat: 45.5, Lng: -73.5},
		Types:      []string{"bowling_alley"},
	})
	pre := make([]place.Candidate, 0, len(seed))
	for _, r := range seed {
		pre = append(pre, e.toCandidate("mtl", r))
	}
	if _, err := mem.BulkUpsert(ctx, pre); err != nil {
		t.Fatal(err)
	}

	profile := &place.Profile{Traits: map[string]float64{"nightlife": -3}}
	if f := e.Filter(e.TargetCategories(profile)); !f.Empty() {
		t.Fatalf("filter = %+v, want empty", f)
	}
	got, err := e.FindCandidates(ctx, montreal, profile, Thresholds(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(seed) {
		t.Errorf("got %d candidates, want all %d stored", len(got), len(seed))
	}
	if !slices.ContainsFunc(got, func(c place.Candidate) bool { return c.Name == "Lucky Strike" }) {
		t.Error("a place outside the baseline food tags should still be selected")
	}
	if src.calls.Load() != 0 {
		t.Errorf("source called %d times, want 0", src.calls.Load())
	}
}

func TestFindCandidatesSatisfiedByStore(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)
	src := &fakeSource{}
	e := New(mem, WithSource(src), WithLogger(quietLogger()))

	pre := make([]place.Candidate, 0, 50)
	for _, r := range raws("seed", 20, 30) {
		pre = append(pre, e.toCandidate("mtl", r))
	}
	if _, err := mem.BulkUpsert(ctx, pre); err != nil {
		t.Fatal(err)
	}

	got, err := e.FindCandidates(ctx, montreal, nil, Thresholds(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 50 {
		t.Errorf("got %d candidates, want 50", len(got))
	}
	if src.calls.Load() != 0 {
		t.Errorf("source called %d times, want 0", src.calls.Load())
	}
}

func TestFindCandidatesEarlyExit(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)
	// Each call yields 10 meals and 15 activities; the first batch of two
	// zones satisfies a 1-day trip.
	src := &fakeSource{perCall: func(n int) []place.RawPlace {
		return raws(fmt.Sprintf("z%d", n), 10, 15)
	}}
	e := New(mem, WithSource(src), WithLogger(quietLogger()))

	got, err := e.FindCandidates(ctx, montreal, nil, Thresholds(1))
	if err != nil {
		t.Fatal(err)
	}
	if n := src.calls.Load(); n != 2 {
		t.Errorf("source called %d times, want 2 (one batch)", n)
	}
	meals, activities := Counts(got)
	if meals != 20 || activities != 30 {
		t.Errorf("counts = %d meals, %d activities", meals, activities)
	}
}

func TestFindCandidatesDedupAcrossZones(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)
	// Every zone returns the same places, so the pool never fills and all
	// nine zones are searched.
	src := &fakeSource{perCall: func(int) []place.RawPlace { return raws("same", 3, 3) }}
	e := New(mem, WithSource(src), WithLogger(quietLogger()))

	got, err := e.FindCandidates(ctx, montreal, nil, Thresholds(1))
	if err != nil {
		t.Fatal(err)
	}
	if n := src.calls.Load(); n != 9 {
		t.Errorf("source called %d times, want 9", n)
	}
	if len(got) != 6 || mem.Len() != 6 {
		t.Errorf("got %d candidates, store holds %d; want 6", len(got), mem.Len())
	}
}

func TestFindCandidatesSourceFailuresAreNotFatal(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{
		failZones: map[int]bool{1: true, 2: true, 3: true},
		perCall:   func(n int) []place.RawPlace { return raws(fmt.Sprintf("z%d", n), 1, 1) },
	}
	e := New(store.NewMemory(nil), WithSource(src), WithLogger(quietLogger()))

	got, err := e.FindCandidates(ctx, montreal, nil, Thresholds(1))
	if err != nil {
		t.Fatalf("source failures must not fail discovery: %v", err)
	}
	if len(got) != 12 {
		t.Errorf("got %d candidates from the 6 healthy zones, want 12", len(got))
	}
}

func TestFindCandidatesCallBudget(t *testing.T) {
	src := &fakeSource{perCall: func(n int) []place.RawPlace { return raws(fmt.Sprintf("z%d", n), 1, 1) }}
	e := New(store.NewMemory(nil), WithSource(src), WithLogger(quietLogger()),
		WithConfig(Config{MaxExternalCalls: 3}))

	if _, err := e.FindCandidates(context.Background(), montreal, nil, Thresholds(1)); err != nil {
		t.Fatal(err)
	}
	if n := src.calls.Load(); n != 3 {
		t.Errorf("source called %d times, want budget of 3", n)
	}
}

func TestFindCandidatesNameFallback(t *testing.T) {
	src := &fakeSource{nameResults: raws("name", 2, 2)}
	e := New(store.NewMemory(nil), WithSource(src), WithLogger(quietLogger()))
	city := place.City{ID: "village", Name: "Small Village"}

	got, err := e.FindCandidates(context.Background(), city, nil, Thresholds(1))
	if err != nil {
		t.Fatal(err)
	}
	if src.calls.Load() != 0 || src.nameCalls.Load() != 1 {
		t.Errorf("calls: location=%d name=%d, want 0 and 1", src.calls.Load(), src.nameCalls.Load())
	}
	if len(got) != 4 {
		t.Errorf("got %d candidates, want 4", len(got))
	}
}

type failingStore struct{ store.CandidateStore }

func (failingStore) Query(context.Context, string, store.Filter) ([]place.Candidate, error) {
	return nil, errors.New("connection refused")
}

func TestFindCandidatesStoreErrorIsFatal(t *testing.T) {
	e := New(failingStore{}, WithLogger(quietLogger()))
	if _, err := e.FindCandidates(context.Background(), montreal, nil, Thresholds(1)); err == nil {
		t.Fatal("expected store error to propagate")
	}
}

func TestEnrichFromExternalDetails(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)

	details := make(map[string]place.Details)
	var candidates []place.Candidate
	for i := range 8 {
		ext := fmt.Sprintf("g%d", i)
		candidates = append(candidates, place.Candidate{
			ID:          fmt.Sprintf("c%d", i),
			ExternalIDs: []string{ext},
			CityID:      "mtl",
			Name:        fmt.Sprintf("Place %d", i),
		})
		if i != 2 {
			details[ext] = place.Details{Hours: hours.AlwaysOpen(), Photos: []place.Photo{{Ref: "p" + ext}}}
		}
	}
	// Already complete; must be skipped.
	candidates[1].Hours = hours.AlwaysOpen()
	candidates[1].Photos = []place.Photo{{Ref: "have"}}
	if _, err := mem.BulkUpsert(ctx, candidates); err != nil {
		t.Fatal(err)
	}

	src := &fakeSource{details: details}
	e := New(mem, WithSource(src), WithLogger(quietLogger()), WithConfig(Config{EnrichConcurrency: 2}))

	n := e.EnrichFromExternalDetails(ctx, candidates, 5)
	// Targets are c0, c2, c3, c4, c5; c2 has no details.
	if n != 4 {
		t.Errorf("enriched %d, want 4", n)
	}
	if got := src.detailCalls.Load(); got != 5 {
		t.Errorf("detail calls = %d, want 5", got)
	}
	if peak := src.maxInFlight.Load(); peak > 2 {
		t.Errorf("peak concurrency %d exceeds cap 2", peak)
	}
	if !candidates[0].HasPhoto() || candidates[1].Photos[0].Ref != "have" || candidates[6].HasPhoto() {
		t.Error("in-place enrichment wrong")
	}

	stored, err := mem.Query(ctx, "mtl", store.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if !stored[0].HasPhoto() {
		t.Error("enrichment not persisted")
	}
}

func TestCallBudgetShared(t *testing.T) {
	ctx := WithCallBudget(context.Background(), 2)
	if RemainingCalls(ctx) != 2 {
		t.Fatalf("RemainingCalls = %d", RemainingCalls(ctx))
	}
	b := budgetFrom(ctx)
	if !b.take() || !b.take() || b.take() {
		t.Error("budget of 2 should allow exactly two calls")
	}
	if RemainingCalls(ctx) != 0 || RemainingCalls(context.Background()) != -1 {
		t.Error("RemainingCalls wrong after exhaustion")
	}
}
