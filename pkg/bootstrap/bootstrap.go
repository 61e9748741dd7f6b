// Package bootstrap assembles a planner from configuration. The CLI and the
// server share it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/tripweave/pkg/config"
	"github.com/codeGROOVE-dev/tripweave/pkg/googleplaces"
	"github.com/codeGROOVE-dev/tripweave/pkg/httpcache"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
	"github.com/codeGROOVE-dev/tripweave/pkg/planner"
	"github.com/codeGROOVE-dev/tripweave/pkg/store"
	"github.com/codeGROOVE-dev/tripweave/pkg/store/mongostore"
	"github.com/codeGROOVE-dev/tripweave/pkg/store/sqlitestore"
)

// App is a wired planner plus the resources it holds open.
type App struct {
	Planner *planner.Planner
	Store   store.Store
	// Places is nil when no Maps API key is configured.
	Places  *googleplaces.Client
	logger  *slog.Logger
	closers []func() error
}

// Options selects backends beyond what the config implies.
type Options struct {
	// NoCache disables the places response cache.
	NoCache bool
	// SharedCache prefers Redis when REDIS_URL is set.
	SharedCache bool
}

// New opens the store and places client described by cfg and wires a planner.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	app := &App{logger: logger}

	st, err := app.openStore(ctx, cfg.Secrets)
	if err != nil {
		return nil, err
	}
	app.Store = st

	plannerOpts := []planner.Option{
		planner.WithStore(st),
		planner.WithDiscoveryConfig(cfg.Discovery.DiscoveryConfig()),
		planner.WithEnrichLimit(cfg.Discovery.EnrichLimit),
	}
	sc, err := cfg.Schedule.Config()
	if err != nil {
		app.closeQuietly()
		return nil, err
	}
	plannerOpts = append(plannerOpts, planner.WithScheduleConfig(sc))

	if cfg.Secrets.MapsAPIKey != "" {
		cache := app.openCache(ctx, cfg, opts)
		app.Places = googleplaces.NewClient(cfg.Secrets.MapsAPIKey, &http.Client{Timeout: 30 * time.Second}, logger,
			googleplaces.WithCache(cache),
			googleplaces.WithRateLimit(cfg.Places.QPS, cfg.Places.Burst),
			googleplaces.WithRetry(cfg.Places.Attempts, cfg.Places.RetryDelay),
			googleplaces.WithLanguage(cfg.Places.Language),
		)
		plannerOpts = append(plannerOpts, planner.WithSource(app.Places))
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set: planning from stored places only")
	}

	p, err := planner.NewWithLogger(ctx, logger, plannerOpts...)
	if err != nil {
		app.closeQuietly()
		return nil, err
	}
	app.Planner = p
	return app, nil
}

// openStore picks SQLite when a path is set, then MongoDB, then memory.
func (a *App) openStore(ctx context.Context, s config.Secrets) (store.Store, error) {
	switch {
	case s.DBPath != "":
		st, err := sqlitestore.Open(ctx, s.DBPath, a.logger)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		a.closers = append(a.closers, st.Close)
		a.logger.Info("using sqlite store", "path", s.DBPath)
		return st, nil
	case s.MongoURI != "":
		st, err := mongostore.Open(ctx, s.MongoURI, s.MongoDatabase, a.logger)
		if err != nil {
			return nil, fmt.Errorf("opening mongo store: %w", err)
		}
		a.closers = append(a.closers, func() error {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return st.Close(closeCtx)
		})
		a.logger.Info("using mongo store", "database", s.MongoDatabase)
		return st, nil
	default:
		a.logger.Info("using in-memory store")
		return store.NewMemory(a.logger), nil
	}
}

// openCache never fails: a broken backend degrades to a smaller cache.
func (a *App) openCache(ctx context.Context, cfg *config.Config, opts Options) httpcache.Cache {
	if opts.NoCache {
		return httpcache.Nop{}
	}
	ttl := cfg.Cache.TTL
	if opts.SharedCache && cfg.Secrets.RedisURL != "" {
		rc, err := httpcache.NewRedisCache(ctx, cfg.Secrets.RedisURL, ttl, a.logger)
		if err == nil {
			a.closers = append(a.closers, rc.Close)
			return rc
		}
		a.logger.Warn("redis cache unavailable, using local cache", "error", err)
	}
	if cfg.Secrets.CacheDir != "" {
		oc, err := httpcache.NewOtterCache(ctx, cfg.Secrets.CacheDir, ttl, a.logger)
		if err == nil {
			a.closers = append(a.closers, oc.Close)
			return oc
		}
		a.logger.Warn("disk cache unavailable, using memory cache", "error", err)
	}
	return httpcache.NewMemoryOnlyCache(ttl, a.logger)
}

// ResolveCity returns the stored city id, registering it first when name is
// given and the store does not know it. New cities are geocoded when a
// places client is available; otherwise they are stored without a center
// and explored by name.
func (a *App) ResolveCity(ctx context.Context, id, name, region string) (place.City, error) {
	if id == "" {
		id = Slug(name)
	}
	city, err := a.Store.City(ctx, id)
	if err == nil || !errors.Is(err, store.ErrCityNotFound) || name == "" {
		return city, err
	}

	city = place.City{ID: id, Name: name, Region: region}
	if a.Places != nil {
		query := name
		if region != "" {
			query += ", " + region
		}
		if center, gerr := a.Places.Geocode(ctx, query); gerr == nil {
			city.Center = &center
		} else {
			a.logger.Warn("geocoding failed, exploring by name", "city", name, "error", gerr)
		}
	}
	if err := a.Store.AddCity(ctx, city); err != nil {
		return place.City{}, err
	}
	a.logger.Info("registered city", "id", city.ID, "name", city.Name, "geocoded", city.Center != nil)
	return city, nil
}

// Slug derives a city id from a display name: "São Paulo" becomes "são-paulo".
func Slug(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == ',' || r == '-' || r == '_' || r == '/' || r == '.'
	})
	return strings.Join(fields, "-")
}

// Close releases every opened resource, returning the first error.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

func (a *App) closeQuietly() {
	if err := a.Close(); err != nil {
		a.logger.Debug("close after failed setup", "error", err)
	}
}
