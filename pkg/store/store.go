// Package store defines the persistence contracts the planner depends on and
// an in-memory implementation.
//
// Implementations deduplicate by external id with insert-if-absent semantics,
// so concurrent requests for the same city can race safely.
package store

import (
	"context"
	"errors"
	"strings"

	"github.com/codeGROOVE-dev/tripweave/pkg/place"
)

var (
	// ErrCityNotFound is returned when a city id is unknown.
	ErrCityNotFound = errors.New("city not found")
	// ErrCandidateNotFound is returned when enriching an unknown candidate.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrMalformedRecord marks a persisted row that failed validation.
	ErrMalformedRecord = errors.New("malformed record")
)

// Filter selects candidates within a city. A candidate matches when it
// carries any of CategoryIDs, or when any Label is a case-insensitive
// substring of one of its category names. An empty filter matches everything.
type Filter struct {
	CategoryIDs []string
	Labels      []string
}

// Empty reports whether the filter has no constraints.
func (f Filter) Empty() bool {
	return len(f.CategoryIDs) == 0 && len(f.Labels) == 0
}

// Match applies the filter to c.
func (f Filter) Match(c *place.Candidate) bool {
	if f.Empty() {
		return true
	}
	for _, want := range f.CategoryIDs {
		for _, id := range c.CategoryIDs {
			if id == want {
				return true
			}
		}
	}
	for _, label := range f.Labels {
		label = strings.ToLower(strings.TrimSpace(label))
		if label == "" {
			continue
		}
		for _, name := range c.Categories {
			if strings.Contains(strings.ToLower(name), label) {
				return true
			}
		}
	}
	return false
}

// CandidateStore persists discovered candidates.
type CandidateStore interface {
	// Query returns the valid candidates for a city matching f. Malformed
	// rows are skipped, never returned as an error.
	Query(ctx context.Context, cityID string, f Filter) ([]place.Candidate, error)
	// ExistingExternalIDs reports which of ids are already stored.
	ExistingExternalIDs(ctx context.Context, ids []string) (map[string]bool, error)
	// BulkUpsert inserts candidates whose external ids are not yet stored and
	// returns how many were inserted. Candidates without an ID get one.
	BulkUpsert(ctx context.Context, candidates []place.Candidate) (int, error)
	// EnrichDetails backfills empty fields of a stored candidate.
	EnrichDetails(ctx context.Context, id string, d place.Details) error
}

// CityStore resolves cities.
type CityStore interface {
	City(ctx context.Context, id string) (place.City, error)
	AddCity(ctx context.Context, c place.City) error
}

// Store is both contracts, as every shipped backend provides.
type Store interface {
	CandidateStore
	CityStore
}
