// Package planner assembles itineraries: discovery, scoring, enrichment,
// and scheduling for a single request.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/tripweave/pkg/discovery"
	"github.com/codeGROOVE-dev/tripweave/pkg/itinerary"
	"github.com/codeGROOVE-dev/tripweave/pkg/schedule"
	"github.com/codeGROOVE-dev/tripweave/pkg/scoring"
	"github.com/codeGROOVE-dev/tripweave/pkg/store"
)

// DefaultEnrichLimit is how many top-ranked candidates get details fetched.
const DefaultEnrichLimit = 5

// ErrInvalidRequest is returned for requests missing a city.
var ErrInvalidRequest = errors.New("invalid request")

// eventBuffer bounds queued progress events per stream.
const eventBuffer = 8

// Planner generates itineraries.
type Planner struct {
	logger      *slog.Logger
	cities      store.CityStore
	discovery   *discovery.Engine
	scheduler   *schedule.Scheduler
	enrichLimit int
}

// NewWithLogger creates a Planner with a custom logger.
func NewWithLogger(_ context.Context, logger *slog.Logger, opts ...Option) (*Planner, error) {
	optHolder := &OptionHolder{enrichLimit: DefaultEnrichLimit}
	for _, opt := range opts {
		opt(optHolder)
	}
	if optHolder.store == nil {
		return nil, errors.New("planner: a store is required")
	}

	discOpts := []discovery.Option{discovery.WithLogger(logger)}
	if optHolder.source != nil {
		discOpts = append(discOpts, discovery.WithSource(optHolder.source))
	}
	if optHolder.discovery != nil {
		discOpts = append(discOpts, discovery.WithConfig(*optHolder.discovery))
	}

	schedOpts := []schedule.Option{schedule.WithLogger(logger)}
	if optHolder.schedule != nil {
		schedOpts = append(schedOpts, schedule.WithConfig(*optHolder.schedule))
	}
	if optHolder.newID != nil {
		schedOpts = append(schedOpts, schedule.WithIDs(optHolder.newID))
	}

	return &Planner{
		logger:      logger,
		cities:      optHolder.store,
		discovery:   discovery.New(optHolder.store, discOpts...),
		scheduler:   schedule.New(schedOpts...),
		enrichLimit: optHolder.enrichLimit,
	}, nil
}

// New creates a Planner with the default logger.
func New(ctx context.Context, opts ...Option) (*Planner, error) {
	return NewWithLogger(ctx, slog.Default(), opts...)
}

// Generate builds an itinerary for req. Only city resolution and store
// failures are returned; external source problems degrade the result.
func (p *Planner) Generate(ctx context.Context, req Request) (*itinerary.Itinerary, error) {
	return p.run(ctx, req, func(Event) {})
}

// Stream runs Generate in the background and reports progress on the
// returned channel, which is closed after a Done or Failed event. Progress
// events are dropped rather than delaying generation when the reader falls
// behind; the terminal event is always delivered unless ctx is cancelled.
func (p *Planner) Stream(ctx context.Context, req Request) <-chan Event {
	ch := make(chan Event, eventBuffer)
	go func() {
		defer close(ch)
		emit := func(e Event) {
			select {
			case ch <- e:
			default:
				p.logger.Debug("progress event dropped", "stage", e.Stage)
			}
		}
		it, err := p.run(ctx, req, emit)
		final := Event{At: time.Now(), Stage: Done, Itinerary: it}
		if err != nil {
			final = Event{At: time.Now(), Stage: Failed, Err: err, Error: err.Error()}
		}
		select {
		case ch <- final:
		case <-ctx.Done():
		}
	}()
	return ch
}

func (p *Planner) run(ctx context.Context, req Request, emit func(Event)) (*itinerary.Itinerary, error) {
	if req.CityID == "" {
		return nil, fmt.Errorf("%w: missing city", ErrInvalidRequest)
	}
	progress := func(stage Stage, format string, args ...any) {
		emit(Event{At: time.Now(), Stage: stage, Message: fmt.Sprintf(format, args...)})
	}
	started := time.Now()

	progress(Scouting, "Scouting places in %s", req.CityID)
	city, err := p.cities.City(ctx, req.CityID)
	if err != nil {
		return nil, fmt.Errorf("resolving city: %w", err)
	}

	days := schedule.DayCount(req.Start, req.End)
	ctx = discovery.WithCallBudget(ctx, p.discovery.Config().MaxExternalCalls)
	candidates, err := p.discovery.FindCandidates(ctx, city, req.Profile, discovery.Thresholds(days))
	if err != nil {
		return nil, fmt.Errorf("finding candidates: %w", err)
	}

	progress(Scoring, "Ranking %d places", len(candidates))
	ranked := scoring.Rank(candidates, req.Profile)

	if p.enrichLimit > 0 {
		progress(Enriching, "Checking hours and photos")
		if n := p.discovery.EnrichFromExternalDetails(ctx, ranked, p.enrichLimit); n > 0 {
			// New photos change scores.
			ranked = scoring.Rank(ranked, req.Profile)
		}
	}

	progress(Scheduling, "Planning %d days", days)
	it := p.scheduler.Build(schedule.Request{
		CityID:     city.ID,
		Start:      req.Start,
		End:        req.End,
		Profile:    req.Profile,
		Candidates: ranked,
	})

	p.logger.Info("itinerary generated",
		"city", city.ID, "days", len(it.Days), "activities", it.ActivityCount(),
		"candidates", len(candidates), "external_calls_left", discovery.RemainingCalls(ctx),
		"duration", time.Since(started))
	return it, nil
}
