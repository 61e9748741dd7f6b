package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codeGROOVE-dev/tripweave/pkg/discovery"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
	"github.com/codeGROOVE-dev/tripweave/pkg/store"
)

type stubSource struct {
	places  []place.RawPlace
	fail    bool
	calls   atomic.Int32
	details atomic.Int32
}

func (s *stubSource) SearchByLocation(_ context.Context, _, _, _ float64, _ []string) ([]place.RawPlace, error) {
	s.calls.Add(1)
	if s.fail {
		return nil, errors.New("quota exceeded")
	}
	return s.places, nil
}

func (s *stubSource) SearchByName(_ context.Context, _, _ string, _ []string) ([]place.RawPlace, error) {
	s.calls.Add(1)
	if s.fail {
		return nil, errors.New("quota exceeded")
	}
	return s.places, nil
}

func (s *stubSource) FetchDetails(_ context.Context, ref string) (place.Details, error) {
	s.details.Add(1)
	return place.Details{Photos: []place.Photo{{Ref: "photo-" + ref}}}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

var lisbon = place.City{ID: "lis", Name: "Lisbon", Region: "PT", Center: &place.Coordinates{Lat: 38.72, Lng: -9.14}}

func seeded(t *testing.T, meals, activities int) *store.Memory {
	t.Helper()
	mem := store.NewMemory(quietLogger())
	if err := mem.AddCity(context.Background(), lisbon); err != nil {
		t.Fatal(err)
	}
	var cs []place.Candidate
	for i := range meals {
		cs = append(cs, place.Candidate{
			CityID:      lisbon.ID,
			Name:        fmt.Sprintf("Tasca %d", i),
			Location:    place.Coordinates{Lat: 38.72, Lng: -9.14},
			Categories:  []string{"Restaurant"},
			ExternalIDs: []string{fmt.Sprintf("meal-%d", i)},
			Rating:      4.2,
		})
	}
	for i := range activities {
		cs = append(cs, place.Candidate{
			CityID:      lisbon.ID,
			Name:        fmt.Sprintf("Gallery %d", i),
			Location:    place.Coordinates{Lat: 38.72, Lng: -9.14},
			Categories:  []string{"Art Gallery"},
			ExternalIDs: []string{fmt.Sprintf("act-%d", i)},
			Rating:      4.0,
		})
	}
	if _, err := mem.BulkUpsert(context.Background(), cs); err != nil {
		t.Fatalf("seeding store: %v", err)
	}
	return mem
}

func weekend() Request {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return Request{
		CityID:  lisbon.ID,
		Start:   start,
		End:     start.AddDate(0, 0, 1),
		Profile: &place.Profile{Traits: map[string]float64{"art": 2}},
	}
}

func newPlanner(t *testing.T, opts ...Option) *Planner {
	t.Helper()
	p, err := NewWithLogger(context.Background(), quietLogger(), opts...)
	if err != nil {
		t.Fatalf("NewWithLogger: %v", err)
	}
	return p
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(context.Background()); err == nil {
		t.Fatal("New without a store should fail")
	}
}

func TestGenerate(t *testing.T) {
	mem := seeded(t, 20, 30)
	src := &stubSource{}
	n := 0
	p := newPlanner(t, WithStore(mem), WithSource(src), WithIDs(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))

	it, err := p.Generate(context.Background(), weekend())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(it.Days) != 2 {
		t.Fatalf("got %d days, want 2", len(it.Days))
	}
	if it.CityID != lisbon.ID {
		t.Errorf("CityID = %q, want %q", it.CityID, lisbon.ID)
	}
	if it.ActivityCount() == 0 {
		t.Fatal("itinerary has no activities")
	}
	if dups := it.Duplicates(); len(dups) > 0 {
		t.Errorf("places repeated across the trip: %v", dups)
	}
	if got := src.calls.Load(); got != 0 {
		t.Errorf("store satisfied the request but made %d searches", got)
	}
	if got := src.details.Load(); got != DefaultEnrichLimit {
		t.Errorf("fetched details for %d places, want %d", got, DefaultEnrichLimit)
	}
}

func TestGenerateUnknownCity(t *testing.T) {
	p := newPlanner(t, WithStore(seeded(t, 1, 1)))
	req := weekend()
	req.CityID = "atlantis"
	_, err := p.Generate(context.Background(), req)
	if !errors.Is(err, store.ErrCityNotFound) {
		t.Fatalf("err = %v, want ErrCityNotFound", err)
	}
}

func TestGenerateMissingCity(t *testing.T) {
	p := newPlanner(t, WithStore(seeded(t, 1, 1)))
	req := weekend()
	req.CityID = ""
	if _, err := p.Generate(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestGenerateSourceFailureDegrades(t *testing.T) {
	src := &stubSource{fail: true}
	cfg := discovery.DefaultConfig()
	cfg.MaxExternalCalls = 4
	p := newPlanner(t, WithStore(seeded(t, 3, 2)), WithSource(src), WithDiscoveryConfig(cfg), WithEnrichLimit(0))

	it, err := p.Generate(context.Background(), weekend())
	if err != nil {
		t.Fatalf("source failures should not be fatal: %v", err)
	}
	if it.ActivityCount() == 0 {
		t.Error("stored candidates should still be scheduled")
	}
	if got := src.calls.Load(); got > 4 {
		t.Errorf("made %d external calls, budget was 4", got)
	}
}

func TestStream(t *testing.T) {
	p := newPlanner(t, WithStore(seeded(t, 20, 30)))
	var stages []Stage
	var last Event
	for e := range p.Stream(context.Background(), weekend()) {
		stages = append(stages, e.Stage)
		last = e
	}
	want := []Stage{Scouting, Scoring, Enriching, Scheduling, Done}
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage %d = %s, want %s", i, stages[i], want[i])
		}
	}
	if last.Itinerary == nil || len(last.Itinerary.Days) != 2 {
		t.Error("done event should carry the itinerary")
	}
}

func TestStreamFailure(t *testing.T) {
	p := newPlanner(t, WithStore(seeded(t, 1, 1)))
	req := weekend()
	req.CityID = "atlantis"
	var last Event
	for e := range p.Stream(context.Background(), req) {
		last = e
	}
	if last.Stage != Failed {
		t.Fatalf("last stage = %s, want failed", last.Stage)
	}
	if !errors.Is(last.Err, store.ErrCityNotFound) || last.Error == "" {
		t.Errorf("failed event = %+v", last)
	}
	if !last.Stage.Terminal() {
		t.Error("failed should be terminal")
	}
}

func TestStreamCancelled(t *testing.T) {
	p := newPlanner(t, WithStore(seeded(t, 20, 30)))
	ctx, cancel := context.WithCancel(context.Background())
	ch := p.Stream(ctx, weekend())
	cancel()
	// The channel must close whether or not anything is read.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream did not close after cancellation")
		}
	}
}
