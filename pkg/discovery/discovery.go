// Package discovery finds candidates for a city, topping up the store from an
// external place source when it holds too few.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codeGROOVE-dev/tripweave/pkg/lexicon"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
	"github.com/codeGROOVE-dev/tripweave/pkg/store"
	"github.com/codeGROOVE-dev/tripweave/pkg/taxonomy"
)

// PlaceSource is an external provider of places. Implementations may be rate
// limited or unavailable; the engine treats every error as "no data".
type PlaceSource interface {
	SearchByLocation(ctx context.Context, lat, lng, radiusKm float64, categoryIDs []string) ([]place.RawPlace, error)
	SearchByName(ctx context.Context, name, region string, categoryIDs []string) ([]place.RawPlace, error)
	FetchDetails(ctx context.Context, ref string) (place.Details, error)
}

// Requirements are the minimum pool sizes for a trip.
type Requirements struct {
	MinMeals      int
	MinActivities int
}

// Thresholds scales Requirements with trip length in days.
func Thresholds(days int) Requirements {
	return Requirements{
		MinMeals:      max(20, 4*days),
		MinActivities: max(30, 5*days),
	}
}

// Config holds the exploration tunables.
type Config struct {
	ZoneRadiusKm        float64
	BatchSize           int
	EnrichConcurrency   int
	MaxExternalCalls    int
	ExternalCallTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		ZoneRadiusKm:        3,
		BatchSize:           2,
		EnrichConcurrency:   5,
		MaxExternalCalls:    25,
		ExternalCallTimeout: 10 * time.Second,
	}
}

// Engine runs discovery against a store and an optional source.
type Engine struct {
	store  store.CandidateStore
	source PlaceSource
	tax    *taxonomy.Taxonomy
	logger *slog.Logger
	cfg    Config
}

// Option configures an Engine.
type Option func(*Engine)

// WithSource enables external exploration.
func WithSource(src PlaceSource) Option {
	return func(e *Engine) { e.source = src }
}

// WithTaxonomy replaces the default category forest.
func WithTaxonomy(t *taxonomy.Taxonomy) Option {
	return func(e *Engine) { e.tax = t }
}

// WithConfig replaces the tunables. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		def := DefaultConfig()
		if cfg.ZoneRadiusKm <= 0 {
			cfg.ZoneRadiusKm = def.ZoneRadiusKm
		}
		if cfg.BatchSize <= 0 {
			cfg.BatchSize = def.BatchSize
		}
		if cfg.EnrichConcurrency <= 0 {
			cfg.EnrichConcurrency = def.EnrichConcurrency
		}
		if cfg.MaxExternalCalls <= 0 {
			cfg.MaxExternalCalls = def.MaxExternalCalls
		}
		if cfg.ExternalCallTimeout <= 0 {
			cfg.ExternalCallTimeout = def.ExternalCallTimeout
		}
		e.cfg = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New returns an Engine over st.
func New(st store.CandidateStore, opts ...Option) *Engine {
	e := &Engine{
		store: st,
		tax:   taxonomy.Default(),
		cfg:   DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Config returns the effective tunables.
func (e *Engine) Config() Config {
	return e.cfg
}

// Targets is the category selection derived from a profile.
type Targets struct {
	// CategoryIDs are taxonomy ids whose names matched a tag.
	CategoryIDs []string
	// Tags are the raw interest tags, used as free-text labels.
	Tags []string
	// Interests is false when only the baseline food tags were derived.
	Interests bool
}

// Filter broadens the targets to their top-level families. Without any
// interests there is nothing to narrow by, so the whole city is selected.
func (e *Engine) Filter(t Targets) store.Filter {
	if !t.Interests {
		return store.Filter{}
	}
	return store.Filter{
		CategoryIDs: e.tax.ExpandTopLevel(t.CategoryIDs...),
		Labels:      t.Tags,
	}
}

// TargetCategories derives the categories to search for profile: tags from
// liked archetypes and from positively weighted traits (the trait plus its
// keywords), always including the baseline food tags.
func (e *Engine) TargetCategories(profile *place.Profile) Targets {
	var tags []string
	add := func(ts ...string) {
		for _, t := range ts {
			t = strings.ToLower(strings.TrimSpace(t))
			if t != "" && !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
	}
	add(lexicon.BaselineFoodTags()...)
	baseline := len(tags)

	if profile != nil {
		for _, id := range profile.Liked {
			add(lexicon.Archetypes[strings.ToLower(id)]...)
		}
		traits := make([]string, 0, len(profile.Traits))
		for trait, w := range profile.Traits {
			if w > 0 {
				traits = append(traits, strings.ToLower(trait))
			}
		}
		slices.Sort(traits)
		for _, trait := range traits {
			add(trait)
			add(lexicon.TraitKeywords(trait)...)
		}
	}

	var ids []string
	for _, tag := range tags {
		for _, id := range e.tax.MatchName(tag) {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	return Targets{CategoryIDs: ids, Tags: tags, Interests: len(tags) > baseline}
}

// Counts tallies candidates by the scheduling pools they will join. A food
// venue that is also a destination counts toward both.
func Counts(candidates []place.Candidate) (meals, activities int) {
	for i := range candidates {
		meal, activity := lexicon.Inspect(candidates[i].Name, candidates[i].Categories).Pools()
		if meal {
			meals++
		}
		if activity {
			activities++
		}
	}
	return meals, activities
}

func (r Requirements) satisfied(candidates []place.Candidate) bool {
	meals, activities := Counts(candidates)
	return meals >= r.MinMeals && activities >= r.MinActivities
}

// FindCandidates returns the stored candidates for city matching profile,
// first exploring the external source if the store falls short of req.
// Store errors are returned; source errors are logged and ignored.
func (e *Engine) FindCandidates(ctx context.Context, city place.City, profile *place.Profile, req Requirements) ([]place.Candidate, error) {
	targets := e.TargetCategories(profile)
	filter := e.Filter(targets)

	candidates, err := e.store.Query(ctx, city.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("querying candidates for %s: %w", city.ID, err)
	}
	meals, activities := Counts(candidates)
	e.logger.Debug("store candidates",
		"city", city.ID, "total", len(candidates), "meals", meals, "activities", activities,
		"min_meals", req.MinMeals, "min_activities", req.MinActivities)

	if req.satisfied(candidates) {
		return candidates, nil
	}
	if e.source == nil {
		e.logger.Debug("candidate pool short and no source configured", "city", city.ID)
		return candidates, nil
	}

	ctx = withDefaultBudget(ctx, e.cfg.MaxExternalCalls)
	if city.Center != nil && city.Center.Valid() {
		return e.exploreZones(ctx, city, targets, filter, req, candidates)
	}

	e.logger.Info("city has no coordinates, searching by name", "city", city.ID, "name", city.Name)
	raws := e.searchByName(ctx, city, targets.CategoryIDs)
	if _, err := e.persist(ctx, city.ID, raws); err != nil {
		return nil, err
	}
	candidates, err = e.store.Query(ctx, city.ID, filter)
	if err != nil {
		return nil, fmt.Errorf("re-querying candidates for %s: %w", city.ID, err)
	}
	return candidates, nil
}

// exploreZones searches the zones around the city center in parallel batches,
// persisting after each batch and stopping once req is met.
func (e *Engine) exploreZones(ctx context.Context, city place.City, targets Targets, filter store.Filter,
	req Requirements, candidates []place.Candidate,
) ([]place.Candidate, error) {
	zones := Zones(*city.Center, e.cfg.ZoneRadiusKm)
	batches := 0
	for start := 0; start < len(zones); start += e.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			e.logger.Warn("exploration cancelled", "city", city.ID, "error", err)
			break
		}
		batch := zones[start:min(start+e.cfg.BatchSize, len(zones))]
		batches++

		var raws []place.RawPlace
		var mu sync.Mutex
		var wg sync.WaitGroup
		for i, z := range batch {
			wg.Add(1)
			go func(n int, z place.Coordinates) {
				defer wg.Done()
				found := e.searchZone(ctx, n, z, targets.CategoryIDs)
				mu.Lock()
				raws = append(raws, found...)
				mu.Unlock()
			}(start+i, z)
		}
		wg.Wait()

		inserted, err := e.persist(ctx, city.ID, raws)
		if err != nil {
			return nil, err
		}
		candidates, err = e.store.Query(ctx, city.ID, filter)
		if err != nil {
			return nil, fmt.Errorf("re-querying candidates for %s: %w", city.ID, err)
		}
		meals, activities := Counts(candidates)
		e.logger.Debug("exploration batch complete",
			"city", city.ID, "batch", batches, "fetched", len(raws), "inserted", inserted,
			"meals", meals, "activities", activities)

		if req.satisfied(candidates) {
			e.logger.Info("candidate pool satisfied", "city", city.ID, "batches", batches, "zones", len(zones))
			break
		}
		if budgetFrom(ctx).exhausted() {
			e.logger.Warn("external call budget exhausted", "city", city.ID, "batches", batches)
			break
		}
	}
	return candidates, nil
}

func (e *Engine) searchZone(ctx context.Context, n int, z place.Coordinates, categoryIDs []string) []place.RawPlace {
	if !budgetFrom(ctx).take() {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.ExternalCallTimeout)
	defer cancel()
	raws, err := e.source.SearchByLocation(callCtx, z.Lat, z.Lng, e.cfg.ZoneRadiusKm, categoryIDs)
	if err != nil {
		e.logger.Warn("zone search failed", "zone", n, "lat", z.Lat, "lng", z.Lng, "error", err)
		return nil
	}
	e.logger.Debug("zone searched", "zone", n, "results", len(raws))
	return raws
}

func (e *Engine) searchByName(ctx context.Context, city place.City, categoryIDs []string) []place.RawPlace {
	if !budgetFrom(ctx).take() {
		return nil
	}
	callCtx, cancel := context.WithTimeout(ctx, e.cfg.ExternalCallTimeout)
	defer cancel()
	raws, err := e.source.SearchByName(callCtx, city.Name, city.Region, categoryIDs)
	if err != nil {
		e.logger.Warn("name search failed", "city", city.ID, "error", err)
		return nil
	}
	return raws
}

// persist deduplicates raws by external id, first within the fetch and then
// against the store, and inserts the rest.
func (e *Engine) persist(ctx context.Context, cityID string, raws []place.RawPlace) (int, error) {
	seen := make(map[string]bool, len(raws))
	var fresh []place.RawPlace
	var ids []string
	for _, r := range raws {
		if r.ExternalID == "" || strings.TrimSpace(r.Name) == "" || seen[r.ExternalID] {
			continue
		}
		seen[r.ExternalID] = true
		fresh = append(fresh, r)
		ids = append(ids, r.ExternalID)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	existing, err := e.store.ExistingExternalIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("checking existing places: %w", err)
	}
	var candidates []place.Candidate
	for _, r := range fresh {
		if existing[r.ExternalID] {
			continue
		}
		candidates = append(candidates, e.toCandidate(cityID, r))
	}
	if len(candidates) == 0 {
		return 0, nil
	}
	n, err := e.store.BulkUpsert(ctx, candidates)
	if err != nil {
		return 0, fmt.Errorf("saving discovered places: %w", err)
	}
	return n, nil
}

// genericTypes carry no category meaning.
var genericTypes = map[string]bool{
	"point_of_interest": true,
	"establishment":     true,
	"premise":           true,
	"political":         true,
	"locality":          true,
}

func (e *Engine) toCandidate(cityID string, r place.RawPlace) place.Candidate {
	var names, ids []string
	for _, t := range r.Types {
		if genericTypes[t] {
			continue
		}
		if _, ok := e.tax.Lookup(t); ok {
			ids = append(ids, t)
		}
		if name := e.tax.Name(t); !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return place.Candidate{
		ID:          uuid.New().String(),
		ExternalIDs: []string{r.ExternalID},
		CityID:      cityID,
		Name:        strings.TrimSpace(r.Name),
		Location:    r.Location,
		Categories:  names,
		CategoryIDs: ids,
		Rating:      r.Rating,
		RatingCount: r.RatingCount,
		PriceLevel:  r.PriceLevel,
		Hours:       r.Hours,
		Photos:      r.Photos,
		Address:     r.Address,
	}
}
