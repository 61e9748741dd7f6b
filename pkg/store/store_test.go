package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/codeGROOVE-dev/tripweave/pkg/hours"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
)

func candidate(id, ext, name string, categories ...string) place.Candidate {
	return place.Candidate{
		ID:          id,
		ExternalIDs: []string{ext},
		CityID:      "paris",
		Name:        name,
		Location:    place.Coordinates{Lat: 48.85, Lng: 2.35},
		Categories:  categories,
	}
}

func TestFilterMatch(t *testing.T) {
	c := place.Candidate{Categories: []string{"Taco Place"}, CategoryIDs: []string{"taco_place"}}
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"by id", Filter{CategoryIDs: []string{"museum", "taco_place"}}, true},
		{"by label", Filter{Labels: []string{"TACO"}}, true},
		{"blank label ignored", Filter{Labels: []string{"  "}}, false},
		{"no match", Filter{CategoryIDs: []string{"museum"}, Labels: []string{"park"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(&c); got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemoryBulkUpsertDedup(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)

	batch := []place.Candidate{
		candidate("", "g1", "Louvre", "Museum"),
		candidate("", "g2", "Cafe Flore", "Cafe"),
	}
	n, err := m.BulkUpsert(ctx, batch)
	if err != nil || n != 2 {
		t.Fatalf("first upsert = %d, %v; want 2, nil", n, err)
	}

	// Same external ids again, different internal ids: nothing new.
	n, err = m.BulkUpsert(ctx, batch)
	if err != nil || n != 0 {
		t.Fatalf("second upsert = %d, %v; want 0, nil", n, err)
	}
	if m.Len() != 2 {
		t.Errorf("Len = %d, want 2", m.Len())
	}

	found, err := m.ExistingExternalIDs(ctx, []string{"g1", "g3"})
	if err != nil {
		t.Fatal(err)
	}
	if !found["g1"] || found["g3"] {
		t.Errorf("ExistingExternalIDs = %v", found)
	}
}

func TestMemoryConcurrentUpsert(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.BulkUpsert(ctx, []place.Candidate{candidate("", "same", "Shared", "Park")}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if m.Len() != 1 {
		t.Errorf("Len = %d after racing inserts, want 1", m.Len())
	}
}

func TestMemorySkipsInvalid(t *testing.T) {
	m := NewMemory(nil)
	bad := candidate("x", "g9", "", "Park")
	n, err := m.BulkUpsert(context.Background(), []place.Candidate{bad})
	if err != nil || n != 0 {
		t.Errorf("upsert of nameless candidate = %d, %v; want 0, nil", n, err)
	}
}

func TestMemoryQueryAndEnrich(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(nil)
	c := candidate("c1", "g1", "Louvre", "Museum")
	c.CategoryIDs = []string{"museum"}
	other := candidate("c2", "g2", "Tate", "Museum")
	other.CityID = "london"
	if _, err := m.BulkUpsert(ctx, []place.Candidate{c, other}); err != nil {
		t.Fatal(err)
	}

	got, err := m.Query(ctx, "paris", Filter{CategoryIDs: []string{"museum"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("Query = %+v", got)
	}

	d := place.Details{Hours: hours.AlwaysOpen(), Website: "https://louvre.fr"}
	if err := m.EnrichDetails(ctx, "c1", d); err != nil {
		t.Fatal(err)
	}
	got, _ = m.Query(ctx, "paris", Filter{})
	if got[0].Website != "https://louvre.fr" || len(got[0].Hours) != 1 {
		t.Errorf("enrichment not applied: %+v", got[0])
	}

	if err := m.EnrichDetails(ctx, "missing", d); !errors.Is(err, ErrCandidateNotFound) {
		t.Errorf("EnrichDetails(missing) = %v, want ErrCandidateNotFound", err)
	}
}

func TestMemoryCity(t *testing.T) {
	m := NewMemory(nil)
	if err := m.AddCity(context.Background(), place.City{ID: "paris", Name: "Paris"}); err != nil {
		t.Fatal(err)
	}
	if c, err := m.City(context.Background(), "paris"); err != nil || c.Name != "Paris" {
		t.Errorf("City(paris) = %+v, %v", c, err)
	}
	if _, err := m.City(context.Background(), "atlantis"); !errors.Is(err, ErrCityNotFound) {
		t.Errorf("City(atlantis) = %v, want ErrCityNotFound", err)
	}
}

func TestDecode(t *testing.T) {
	good := candidate("c1", "g1", "Louvre", "Museum")
	good.Hours = []hours.Period{{Open: hours.Point{Day: 1, Time: "0900"}, Close: &hours.Point{Day: 1, Time: "1800"}}}
	rec, err := Encode(&good)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(rec)
	if err != nil {
		t.Fatalf("Decode(good) = %v", err)
	}
	if got.Name != "Louvre" || len(got.Hours) != 1 || got.PrimaryExternalID() != "g1" {
		t.Errorf("Decode(good) = %+v", got)
	}

	tests := []struct {
		name   string
		mutate func(*Record)
	}{
		{"bad json", func(r *Record) { r.Categories = "{not json" }},
		{"wrong shape", func(r *Record) { r.Hours = `{"open":1}` }},
		{"bad hours time", func(r *Record) {
			r.Hours = `[{"open":{"day":1,"time":"9am"}}]`
		}},
		{"bad day", func(r *Record) {
			r.Hours = `[{"open":{"day":9,"time":"0900"}}]`
		}},
		{"missing name", func(r *Record) { r.Name = "" }},
		{"latitude", func(r *Record) { r.Lat = 123 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := rec
			tt.mutate(&r)
			if _, err := Decode(r); !errors.Is(err, ErrMalformedRecord) {
				t.Errorf("Decode = %v, want ErrMalformedRecord", err)
			}
		})
	}
}
