// Package main implements the tripweave HTTP API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codeGROOVE-dev/tripweave/pkg/bootstrap"
	"github.com/codeGROOVE-dev/tripweave/pkg/config"
	"github.com/joho/godotenv"
)

var (
	port       = flag.String("port", "8080", "Port for web server")
	configFile = flag.String("config", "", "Tunables file (or set TRIPWEAVE_CONFIG)")
	mapsAPIKey = flag.String("maps-key", "", "Google Maps API key (or set GOOGLE_MAPS_API_KEY)")
	cacheDir   = flag.String("cache-dir", "", "Cache directory (or set CACHE_DIR)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Println("tripweave Server v0.3.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Failed to load .env", "error", err)
	}
	if *configFile == "" {
		*configFile = os.Getenv("TRIPWEAVE_CONFIG")
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if *mapsAPIKey != "" {
		cfg.Secrets.MapsAPIKey = *mapsAPIKey
	}
	if *cacheDir != "" {
		cfg.Secrets.CacheDir = *cacheDir
	}

	// Log configuration (without exposing sensitive keys)
	logger.Info("Server configuration",
		"port", *port,
		"verbose", *verbose,
		"cache_dir", cfg.Secrets.CacheDir,
		"has_maps_key", cfg.Secrets.MapsAPIKey != "",
		"has_mongo", cfg.Secrets.MongoURI != "",
		"has_redis", cfg.Secrets.RedisURL != "",
		"sqlite", cfg.Secrets.DBPath)

	setupCtx, setupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := bootstrap.New(setupCtx, cfg, logger, bootstrap.Options{SharedCache: true})
	setupCancel()
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to close resources", "error", err)
		}
	}()

	limiterCtx, stopLimiter := context.WithCancel(context.Background())
	defer stopLimiter()
	s := newServer(app, cfg.Server, logger)
	s.limiter.startCleanup(limiterCtx)

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Generation is bounded by cfg.Server.RequestTimeout; leave room to write.
		WriteTimeout: cfg.Server.RequestTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", *port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}
