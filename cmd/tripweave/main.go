// Package main implements the tripweave CLI: plan a trip to a city.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/tripweave/pkg/bootstrap"
	"github.com/codeGROOVE-dev/tripweave/pkg/config"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
	"github.com/codeGROOVE-dev/tripweave/pkg/planner"
	"github.com/codeGROOVE-dev/tripweave/pkg/render"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

var (
	cityID      = flag.String("city", "", "Stored city id (derived from -name when empty)")
	cityName    = flag.String("name", "", "City name, registered and geocoded if not yet stored")
	region      = flag.String("region", "", "Region or country to disambiguate -name")
	startDate   = flag.String("start", "", "First day, YYYY-MM-DD (default today)")
	endDate     = flag.String("end", "", "Last day, YYYY-MM-DD (default start + days - 1)")
	days        = flag.Int("days", 1, "Trip length in days when -end is not set")
	traits      = flag.String("traits", "", "Trait weights, e.g. art=6,nightlife=-2,food=8")
	liked       = flag.String("liked", "", "Comma-separated liked archetypes, e.g. foodie,culture_buff")
	budget      = flag.String("budget", "", "Budget tier: budget, moderate, or luxury")
	profileFile = flag.String("profile", "", "Profile file (YAML or JSON); flags override it")
	configFile  = flag.String("config", "", "Tunables file (or set TRIPWEAVE_CONFIG)")
	dbPath      = flag.String("db", "", "SQLite database path (or set TRIPWEAVE_DB)")
	mapsAPIKey  = flag.String("maps-key", "", "Google Maps API key (or set GOOGLE_MAPS_API_KEY)")
	cacheDir    = flag.String("cache-dir", "", "Cache directory (or set CACHE_DIR)")
	noCache     = flag.Bool("no-cache", false, "Disable caching of places responses")
	jsonOut     = flag.Bool("json", false, "Print the itinerary as JSON")
	progress    = flag.Bool("progress", false, "Print progress while planning")
	timeout     = flag.Duration("timeout", 2*time.Minute, "Overall time limit")
	verbose     = flag.Bool("verbose", false, "Enable verbose logging")
	version     = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("tripweave CLI v0.3.0")
		return
	}
	if *cityID == "" && *cityName == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] -city <id> | -name <city>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("failed to load .env", "error", err)
	}
	if err := run(logger); err != nil {
		fmt.Fprintf(os.Stderr, "tripweave: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	if *configFile == "" {
		*configFile = os.Getenv("TRIPWEAVE_CONFIG")
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.Secrets.DBPath = *dbPath
	}
	if *mapsAPIKey != "" {
		cfg.Secrets.MapsAPIKey = *mapsAPIKey
	}
	if *cacheDir != "" {
		cfg.Secrets.CacheDir = *cacheDir
	}

	profile, err := buildProfile()
	if err != nil {
		return err
	}
	start, end, err := dateRange(time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, logger, bootstrap.Options{NoCache: *noCache})
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to close resources", "error", err)
		}
	}()

	city, err := app.ResolveCity(ctx, *cityID, *cityName, *region)
	if err != nil {
		return err
	}

	req := planner.Request{CityID: city.ID, Start: start, End: end, Profile: profile}
	var final planner.Event
	for e := range app.Planner.Stream(ctx, req) {
		if *progress && !e.Stage.Terminal() {
			fmt.Fprintf(os.Stderr, "… %s\n", e.Message)
		}
		final = e
	}
	switch final.Stage {
	case planner.Done:
	case planner.Failed:
		return final.Err
	default:
		return fmt.Errorf("planning interrupted: %w", ctx.Err())
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(final.Itinerary)
	}
	fmt.Print(render.Itinerary(final.Itinerary, render.Options{
		Title:            city.Name,
		ShowNotes:        true,
		ShowAlternatives: true,
		ShowTimeline:     *verbose,
	}))
	return nil
}

// buildProfile reads -profile, then layers the trait, liked, and budget flags on top.
func buildProfile() (*place.Profile, error) {
	p := &place.Profile{}
	if *profileFile != "" {
		data, err := os.ReadFile(*profileFile)
		if err != nil {
			return nil, fmt.Errorf("reading profile: %w", err)
		}
		// JSON is valid YAML, so one decoder covers both.
		if err := yaml.Unmarshal(data, p); err != nil {
			return nil, fmt.Errorf("parsing profile: %w", err)
		}
	}
	weights, err := parseTraits(*traits)
	if err != nil {
		return nil, err
	}
	if len(weights) > 0 && p.Traits == nil {
		p.Traits = make(map[string]float64, len(weights))
	}
	for k, v := range weights {
		p.Traits[k] = v
	}
	if *liked != "" {
		p.Liked = splitList(*liked)
	}
	if *budget != "" {
		p.Budget = place.Budget(strings.ToLower(*budget))
	}
	switch p.Budget {
	case "", place.BudgetLow, place.BudgetModerate, place.BudgetLuxury:
	default:
		return nil, fmt.Errorf("unknown budget %q", p.Budget)
	}
	return p, nil
}

// parseTraits parses "art=6,nightlife=-2".
func parseTraits(s string) (map[string]float64, error) {
	out := map[string]float64{}
	for _, pair := range splitList(s) {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("trait %q: want name=weight", pair)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("trait %q: %w", pair, err)
		}
		out[strings.ToLower(strings.TrimSpace(name))] = w
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// dateRange resolves -start, -end, and -days against today.
func dateRange(now time.Time) (start, end time.Time, err error) {
	start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if *startDate != "" {
		if start, err = time.Parse(dateLayout, *startDate); err != nil {
			return start, end, fmt.Errorf("parsing -start: %w", err)
		}
	}
	if *endDate != "" {
		if end, err = time.Parse(dateLayout, *endDate); err != nil {
			return start, end, fmt.Errorf("parsing -end: %w", err)
		}
	} else {
		end = start.AddDate(0, 0, max(*days, 1)-1)
	}
	if end.Before(start) {
		return start, end, errors.New("-end is before -start")
	}
	return start, end, nil
}
