package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/codeGROOVE-dev/tripweave/pkg/place"
)

var _ Store = (*Memory)(nil)

// Memory is a mutex-guarded in-process Store. It is used by tests and by
// the CLI when no database is configured.
type Memory struct {
	logger     *slog.Logger
	cities     map[string]place.City
	candidates map[string]place.Candidate
	byExternal map[string]string
	order      []string
	mu         sync.RWMutex
}

// NewMemory returns an empty store.
func NewMemory(logger *slog.Logger) *Memory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memory{
		logger:     logger,
		cities:     make(map[string]place.City),
		candidates: make(map[string]place.Candidate),
		byExternal: make(map[string]string),
	}
}

// AddCity registers or replaces a city.
func (m *Memory) AddCity(_ context.Context, c place.City) error {
	if c.ID == "" {
		return fmt.Errorf("%w: city without id", ErrMalformedRecord)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cities[c.ID] = c
	return nil
}

// City implements CityStore.
func (m *Memory) City(_ context.Context, id string) (place.City, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cities[id]
	if !ok {
		return place.City{}, fmt.Errorf("city %q: %w", id, ErrCityNotFound)
	}
	return c, nil
}

// Query implements CandidateStore. Results are in insertion order.
func (m *Memory) Query(ctx context.Context, cityID string, f Filter) ([]place.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []place.Candidate
	for _, id := range m.order {
		c := m.candidates[id]
		if c.CityID != cityID || !f.Match(&c) {
			continue
		}
		out = append(out, c.Clone())
	}
	return out, nil
}

// ExistingExternalIDs implements CandidateStore.
func (m *Memory) ExistingExternalIDs(_ context.Context, ids []string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	found := make(map[string]bool)
	for _, id := range ids {
		if _, ok := m.byExternal[id]; ok {
			found[id] = true
		}
	}
	return found, nil
}

// BulkUpsert implements CandidateStore. Invalid candidates are logged and skipped.
func (m *Memory) BulkUpsert(ctx context.Context, candidates []place.Candidate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := 0
	for i := range candidates {
		c := candidates[i].Clone()
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if err := Validate(&c); err != nil {
			m.logger.Warn("skipping candidate", "name", c.Name, "error", err)
			continue
		}
		if m.known(&c) {
			continue
		}
		c.Score, c.MatchedTraits = 0, nil
		m.candidates[c.ID] = c
		m.order = append(m.order, c.ID)
		for _, ext := range c.ExternalIDs {
			m.byExternal[ext] = c.ID
		}
		inserted++
	}
	return inserted, nil
}

func (m *Memory) known(c *place.Candidate) bool {
	if _, ok := m.candidates[c.ID]; ok {
		return true
	}
	for _, ext := range c.ExternalIDs {
		if _, ok := m.byExternal[ext]; ok {
			return true
		}
	}
	return false
}

// EnrichDetails implements CandidateStore.
func (m *Memory) EnrichDetails(_ context.Context, id string, d place.Details) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return fmt.Errorf("candidate %q: %w", id, ErrCandidateNotFound)
	}
	c.ApplyDetails(d)
	m.candidates[id] = c
	return nil
}

// Len returns the number of stored candidates.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.candidates)
}
