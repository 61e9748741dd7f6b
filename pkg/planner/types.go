package planner

import (
	"time"

	"github.com/codeGROOVE-dev/tripweave/pkg/discovery"
	"github.com/codeGROOVE-dev/tripweave/pkg/itinerary"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
	"github.com/codeGROOVE-dev/tripweave/pkg/schedule"
	"github.com/codeGROOVE-dev/tripweave/pkg/store"
)

// Request asks for an itinerary in one city between two dates, inclusive.
type Request struct {
	Start   time.Time      `json:"start"`
	End     time.Time      `json:"end"`
	Profile *place.Profile `json:"profile,omitempty"`
	CityID  string         `json:"city_id"`
}

// Stage names a milestone of generation.
type Stage string

// Stages, in the order they are reached.
const (
	Scouting   Stage = "scouting"
	Scoring    Stage = "scoring"
	Enriching  Stage = "enriching"
	Scheduling Stage = "scheduling"
	Done       Stage = "done"
	Failed     Stage = "failed"
)

// Terminal reports whether no events follow s.
func (s Stage) Terminal() bool {
	return s == Done || s == Failed
}

// Event is one progress notification. Itinerary is set on Done, Err on Failed.
type Event struct {
	At        time.Time            `json:"at"`
	Itinerary *itinerary.Itinerary `json:"itinerary,omitempty"`
	Err       error                `json:"-"`
	Stage     Stage                `json:"stage"`
	Message   string               `json:"message,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// Option configures a Planner.
type Option func(*OptionHolder)

// WithStore sets the candidate and city store. Required.
func WithStore(s store.Store) Option {
	return func(o *OptionHolder) {
		o.store = s
	}
}

// WithSource enables external discovery.
func WithSource(src discovery.PlaceSource) Option {
	return func(o *OptionHolder) {
		o.source = src
	}
}

// WithDiscoveryConfig overrides the discovery tunables.
func WithDiscoveryConfig(cfg discovery.Config) Option {
	return func(o *OptionHolder) {
		o.discovery = &cfg
	}
}

// WithScheduleConfig overrides the scheduling tunables.
func WithScheduleConfig(cfg schedule.Config) Option {
	return func(o *OptionHolder) {
		o.schedule = &cfg
	}
}

// WithEnrichLimit sets how many top candidates may be enriched per request.
func WithEnrichLimit(n int) Option {
	return func(o *OptionHolder) {
		o.enrichLimit = n
	}
}

// WithIDs replaces the itinerary id generator.
func WithIDs(fn func() string) Option {
	return func(o *OptionHolder) {
		o.newID = fn
	}
}

// OptionHolder holds configuration options.
type OptionHolder struct {
	store       store.Store
	source      discovery.PlaceSource
	discovery   *discovery.Config
	schedule    *schedule.Config
	newID       func() string
	enrichLimit int
}
