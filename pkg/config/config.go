// Package config loads tunables from an optional YAML file and secrets from
// the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/codeGROOVE-dev/tripweave/pkg/clock"
	"github.com/codeGROOVE-dev/tripweave/pkg/discovery"
	"github.com/codeGROOVE-dev/tripweave/pkg/schedule"
	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the full set of tunables.
type Config struct {
	Discovery Discovery `yaml:"discovery"`
	Schedule  Schedule  `yaml:"schedule"`
	Places    Places    `yaml:"places"`
	Cache     Cache     `yaml:"cache"`
	Server    Server    `yaml:"server"`
	Secrets   Secrets   `yaml:"-"`
}

// Discovery tunes candidate exploration.
type Discovery struct {
	ZoneRadiusKm        float64       `yaml:"zone_radius_km"`
	BatchSize           int           `yaml:"batch_size"`
	EnrichConcurrency   int           `yaml:"enrich_concurrency"`
	EnrichLimit         int           `yaml:"enrich_limit"`
	MaxExternalCalls    int           `yaml:"max_external_calls"`
	ExternalCallTimeout time.Duration `yaml:"external_call_timeout"`
}

// Schedule tunes the day builder. Times are "HH:MM"; evening end times
// earlier than the evening start fall after midnight.
type Schedule struct {
	BreakfastStart      string  `yaml:"breakfast_start"`
	DinnerStart         string  `yaml:"dinner_start"`
	MorningStart        string  `yaml:"morning_start"`
	MorningEnd          string  `yaml:"morning_end"`
	AfternoonStart      string  `yaml:"afternoon_start"`
	AfternoonEnd        string  `yaml:"afternoon_end"`
	EveningStart        string  `yaml:"evening_start"`
	EveningEndQuiet     string  `yaml:"evening_end_quiet"`
	EveningEndModerate  string  `yaml:"evening_end_moderate"`
	EveningEndNightOwl  string  `yaml:"evening_end_night_owl"`
	BreakfastMinutes    int     `yaml:"breakfast_minutes"`
	DinnerMinutes       int     `yaml:"dinner_minutes"`
	NightOwlThreshold   float64 `yaml:"night_owl_threshold"`
	TransitBuffer       int     `yaml:"transit_buffer"`
	SafetyMargin        int     `yaml:"safety_margin"`
	MaxWindowIterations int     `yaml:"max_window_iterations"`
	IdleStep            int     `yaml:"idle_step"`
	FoodCap             int     `yaml:"food_cap"`
	FoodieFoodCap       int     `yaml:"foodie_food_cap"`
	FoodieThreshold     float64 `yaml:"foodie_threshold"`
	AlternativeMinPool  int     `yaml:"alternative_min_pool"`
	OpenBonus           float64 `yaml:"open_bonus"`
	NearKm              float64 `yaml:"near_km"`
	NearBonus           float64 `yaml:"near_bonus"`
	MidKm               float64 `yaml:"mid_km"`
	MidBonus            float64 `yaml:"mid_bonus"`
	VarietyPenalty      float64 `yaml:"variety_penalty"`
}

// Places tunes the Google Places client.
type Places struct {
	Language   string        `yaml:"language"`
	QPS        float64       `yaml:"qps"`
	Burst      int           `yaml:"burst"`
	Attempts   uint          `yaml:"attempts"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// Cache tunes the places response cache.
type Cache struct {
	TTL time.Duration `yaml:"ttl"`
}

// Server tunes the HTTP API.
type Server struct {
	RequestsPerMinute float64       `yaml:"requests_per_minute"`
	Burst             int           `yaml:"burst"`
	ResultTTL         time.Duration `yaml:"result_ttl"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	MaxDays           int           `yaml:"max_days"`
}

// Secrets come only from the environment.
type Secrets struct {
	MapsAPIKey    string
	MongoURI      string
	MongoDatabase string
	RedisURL      string
	DBPath        string
	CacheDir      string
}

// Default returns the production tunables.
func Default() *Config {
	d := discovery.DefaultConfig()
	s := schedule.DefaultConfig()
	return &Config{
		Discovery: Discovery{
			ZoneRadiusKm:        d.ZoneRadiusKm,
			BatchSize:           d.BatchSize,
			EnrichConcurrency:   d.EnrichConcurrency,
			EnrichLimit:         5,
			MaxExternalCalls:    d.MaxExternalCalls,
			ExternalCallTimeout: d.ExternalCallTimeout,
		},
		Schedule: Schedule{
			BreakfastStart:      clock.MinutesToTime(s.Breakfast.Start),
			BreakfastMinutes:    s.Breakfast.Duration,
			DinnerStart:         clock.MinutesToTime(s.Dinner.Start),
			DinnerMinutes:       s.Dinner.Duration,
			MorningStart:        clock.MinutesToTime(s.Morning.Start),
			MorningEnd:          clock.MinutesToTime(s.Morning.End),
			AfternoonStart:      clock.MinutesToTime(s.Afternoon.Start),
			AfternoonEnd:        clock.MinutesToTime(s.Afternoon.End),
			EveningStart:        clock.MinutesToTime(s.EveningStart),
			EveningEndQuiet:     clock.MinutesToTime(s.EveningEndQuiet),
			EveningEndModerate:  clock.MinutesToTime(s.EveningEndModerate),
			EveningEndNightOwl:  clock.MinutesToTime(s.EveningEndNightOwl),
			NightOwlThreshold:   s.NightOwlThreshold,
			TransitBuffer:       s.TransitBuffer,
			SafetyMargin:        s.SafetyMargin,
			MaxWindowIterations: s.MaxWindowIterations,
			IdleStep:            s.IdleStep,
			FoodCap:             s.FoodCap,
			FoodieFoodCap:       s.FoodieFoodCap,
			FoodieThreshold:     s.FoodieThreshold,
			AlternativeMinPool:  s.AlternativeMinPool,
			OpenBonus:           s.OpenBonus,
			NearKm:              s.NearKm,
			NearBonus:           s.NearBonus,
			MidKm:               s.MidKm,
			MidBonus:            s.MidBonus,
			VarietyPenalty:      s.VarietyPenalty,
		},
		Places: Places{
			Language:   "en",
			QPS:        10,
			Burst:      5,
			Attempts:   4,
			RetryDelay: time.Second,
		},
		Cache: Cache{TTL: 7 * 24 * time.Hour},
		Server: Server{
			RequestsPerMinute: 15,
			Burst:             5,
			ResultTTL:         time.Hour,
			RequestTimeout:    2 * time.Minute,
			MaxDays:           14,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path, if any,
// plus secrets from the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := cfg.decode(data); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Secrets = SecretsFromEnv()
	return cfg, nil
}

// decode overlays YAML onto c. Unknown keys are rejected so typos surface.
func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// SecretsFromEnv reads credentials and locations from the environment.
func SecretsFromEnv() Secrets {
	db := os.Getenv("MONGO_DATABASE")
	if db == "" {
		db = "tripweave"
	}
	return Secrets{
		MapsAPIKey:    os.Getenv("GOOGLE_MAPS_API_KEY"),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: db,
		RedisURL:      os.Getenv("REDIS_URL"),
		DBPath:        os.Getenv("TRIPWEAVE_DB"),
		CacheDir:      os.Getenv("CACHE_DIR"),
	}
}

// Validate checks ranges and that every schedule time parses.
func (c *Config) Validate() error {
	d := c.Discovery
	switch {
	case d.ZoneRadiusKm <= 0:
		return fmt.Errorf("%w: discovery.zone_radius_km must be positive", ErrInvalid)
	case d.BatchSize < 1:
		return fmt.Errorf("%w: discovery.batch_size must be at least 1", ErrInvalid)
	case d.EnrichConcurrency < 1:
		return fmt.Errorf("%w: discovery.enrich_concurrency must be at least 1", ErrInvalid)
	case d.EnrichLimit < 0 || d.MaxExternalCalls < 0:
		return fmt.Errorf("%w: discovery limits must not be negative", ErrInvalid)
	case c.Places.QPS <= 0 || c.Places.Burst < 1:
		return fmt.Errorf("%w: places.qps and places.burst must be positive", ErrInvalid)
	case c.Server.MaxDays < 1:
		return fmt.Errorf("%w: server.max_days must be at least 1", ErrInvalid)
	}
	if _, err := c.Schedule.Config(); err != nil {
		return err
	}
	return nil
}

// DiscoveryConfig converts to the discovery engine's tunables.
func (d Discovery) DiscoveryConfig() discovery.Config {
	return discovery.Config{
		ZoneRadiusKm:        d.ZoneRadiusKm,
		BatchSize:           d.BatchSize,
		EnrichConcurrency:   d.EnrichConcurrency,
		MaxExternalCalls:    d.MaxExternalCalls,
		ExternalCallTimeout: d.ExternalCallTimeout,
	}
}
