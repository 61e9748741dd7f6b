package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/tripweave/pkg/bootstrap"
	"github.com/codeGROOVE-dev/tripweave/pkg/config"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
	"github.com/codeGROOVE-dev/tripweave/pkg/planner"
	"github.com/codeGROOVE-dev/tripweave/pkg/store"
	"github.com/google/uuid"
	"github.com/maypok86/otter/v2"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 64 << 10
)

type server struct {
	app     *bootstrap.App
	results *otter.Cache[string, []byte]
	limiter *ipLimiter
	logger  *slog.Logger
	cfg     config.Server
}

func newServer(app *bootstrap.App, cfg config.Server, logger *slog.Logger) *server {
	return &server{
		app: app,
		results: otter.Must(&otter.Options[string, []byte]{
			MaximumSize:      10_000,
			ExpiryCalculator: otter.ExpiryWriting[string, []byte](cfg.ResultTTL),
		}),
		limiter: newIPLimiter(cfg.RequestsPerMinute, cfg.Burst),
		logger:  logger,
		cfg:     cfg,
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/v1/itineraries", s.handleGenerate)
	mux.HandleFunc("GET /api/v1/itineraries/stream", s.handleStream)
	mux.HandleFunc("POST /api/v1/cities", s.handleAddCity)
	mux.HandleFunc("GET /api/v1/cities/{id}", s.handleCity)
	return s.wrap(mux)
}

func (s *server) wrap(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		defer func() {
			if err := recover(); err != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]
				s.logger.Error("PANIC: Request handler crashed",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
					"request_id", requestID,
					"client_ip", clientIP(r),
					"stack", string(buf))
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Cache-Control", "no-store")
		}
		handler.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// apiError is the JSON error body.
type apiError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("JSON encoding failed", "error", err)
		http.Error(w, "Encoding failed", http.StatusInternalServerError)
		return
	}
	s.writeRaw(w, status, data)
}

func (s *server) writeRaw(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("Failed to write response", "error", err)
	}
}

// itineraryRequest is the JSON body for generation. Either city_id or
// city_name is required; a new city_name is registered on first use.
type itineraryRequest struct {
	Profile  *place.Profile `json:"profile,omitempty"`
	CityID   string         `json:"city_id"`
	CityName string         `json:"city_name"`
	Region   string         `json:"region"`
	Start    string         `json:"start"`
	End      string         `json:"end"`
}

var errBadRequest = errors.New("bad request")

// plan validates r and resolves its city.
func (s *server) plan(ctx context.Context, r itineraryRequest) (planner.Request, error) {
	if strings.TrimSpace(r.CityID) == "" && strings.TrimSpace(r.CityName) == "" {
		return planner.Request{}, fmt.Errorf("%w: city_id or city_name is required", errBadRequest)
	}
	start, err := time.Parse(dateLayout, r.Start)
	if err != nil {
		return planner.Request{}, fmt.Errorf("%w: start must be YYYY-MM-DD", errBadRequest)
	}
	end := start
	if r.End != "" {
		if end, err = time.Parse(dateLayout, r.End); err != nil {
			return planner.Request{}, fmt.Errorf("%w: end must be YYYY-MM-DD", errBadRequest)
		}
	}
	if end.Before(start) {
		return planner.Request{}, fmt.Errorf("%w: end is before start", errBadRequest)
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > s.cfg.MaxDays {
		return planner.Request{}, fmt.Errorf("%w: trips are limited to %d days", errBadRequest, s.cfg.MaxDays)
	}
	city, err := s.app.ResolveCity(ctx, strings.TrimSpace(r.CityID), strings.TrimSpace(r.CityName), strings.TrimSpace(r.Region))
	if err != nil {
		return planner.Request{}, err
	}
	return planner.Request{CityID: city.ID, Start: start, End: end, Profile: r.Profile}, nil
}

// failure maps a planning error to a status and body.
func failure(err error) (int, apiError) {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, planner.ErrInvalidRequest):
		return http.StatusBadRequest, apiError{Error: err.Error(), Code: "INVALID_REQUEST"}
	case errors.Is(err, store.ErrCityNotFound):
		return http.StatusNotFound, apiError{Error: "Unknown city", Details: "Pass city_name to register it.", Code: "CITY_NOT_FOUND"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, apiError{Error: "Planning took too long", Code: "TIMEOUT"}
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout, apiError{Error: "Request was canceled", Code: "CANCELED"}
	default:
		return http.StatusInternalServerError, apiError{Error: "Planning failed", Code: "INTERNAL"}
	}
}

// resultKey identifies a resolved request for the result cache.
func resultKey(req planner.Request) string {
	data, err := json.Marshal(req) // map keys marshal sorted
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return "itinerary:" + hex.EncodeToString(sum[:])
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := w.Header().Get("X-Request-ID")
	ip := clientIP(r)

	if !s.limiter.allow(ip) {
		s.logger.Warn("Rate limit exceeded", "request_id", requestID, "client_ip", ip)
		s.writeJSON(w, http.StatusTooManyRequests, apiError{Error: "Rate limit exceeded", Code: "RATE_LIMITED"})
		return
	}

	var body itineraryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		s.writeJSON(w, http.StatusBadRequest, apiError{Error: "Invalid request body", Details: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	req, err := s.plan(ctx, body)
	if err != nil {
		status, apiErr := failure(err)
		s.logger.Info("Rejected itinerary request", "request_id", requestID, "status", status, "error", err)
		s.writeJSON(w, status, apiErr)
		return
	}

	key := resultKey(req)
	if data, ok := s.results.GetIfPresent(key); ok {
		w.Header().Set("X-Cache", "hit")
		s.writeRaw(w, http.StatusOK, data)
		s.logger.Info("Itinerary served from cache", "request_id", requestID, "city", req.CityID)
		return
	}

	it, err := s.app.Planner.Generate(ctx, req)
	if err != nil {
		status, apiErr := failure(err)
		s.logger.Error("Itinerary generation failed",
			"request_id", requestID, "city", req.CityID, "error", err,
			"duration_ms", time.Since(start).Milliseconds())
		s.writeJSON(w, status, apiErr)
		return
	}
	data, err := json.Marshal(it)
	if err != nil {
		s.logger.Error("JSON encoding failed", "request_id", requestID, "error", err)
		http.Error(w, "Encoding failed", http.StatusInternalServerError)
		return
	}
	s.results.Set(key, data)

	w.Header().Set("X-Cache", "miss")
	s.writeRaw(w, http.StatusOK, data)
	s.logger.Info("Itinerary generated",
		"request_id", requestID,
		"city", req.CityID,
		"days", len(it.Days),
		"activities", it.ActivityCount(),
		"duration_ms", time.Since(start).Milliseconds())
}

func (s *server) handleAddCity(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Region string `json:"region"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		s.writeJSON(w, http.StatusBadRequest, apiError{Error: "name is required", Code: "INVALID_REQUEST"})
		return
	}
	city, err := s.app.ResolveCity(r.Context(), strings.TrimSpace(body.ID), strings.TrimSpace(body.Name), strings.TrimSpace(body.Region))
	if err != nil {
		status, apiErr := failure(err)
		s.writeJSON(w, status, apiErr)
		return
	}
	s.writeJSON(w, http.StatusCreated, city)
}

func (s *server) handleCity(w http.ResponseWriter, r *http.Request) {
	city, err := s.app.Store.City(r.Context(), r.PathValue("id"))
	if err != nil {
		status, apiErr := failure(err)
		s.writeJSON(w, status, apiErr)
		return
	}
	s.writeJSON(w, http.StatusOK, city)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"places_source": s.app.Places != nil,
	})
}
