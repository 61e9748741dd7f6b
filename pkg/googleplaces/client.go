// Package googleplaces is a place source backed by the Google Places and
// Geocoding web services.
package googleplaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/codeGROOVE-dev/tripweave/pkg/httpcache"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Google Maps web service root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api"

// ErrNoAPIKey is returned by every call when no key is configured.
var ErrNoAPIKey = errors.New("google maps API key not configured")

// StatusError is a non-OK status reported in a response body.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("places API %s: %s", e.Status, e.Message)
	}
	return "places API " + e.Status
}

// retryable reports whether the status is worth another attempt.
func (e *StatusError) retryable() bool {
	return e.Status == "OVER_QUERY_LIMIT" || e.Status == "UNKNOWN_ERROR"
}

// HTTPClient interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures a Client.
type Option func(*Client)

// WithCache caches successful responses.
func WithCache(c httpcache.Cache) Option {
	return func(cl *Client) {
		cl.cache = c
	}
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(qps float64, burst int) Option {
	return func(cl *Client) {
		cl.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

// WithRetry sets the attempt count and initial backoff.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(cl *Client) {
		cl.attempts = attempts
		cl.retryDelay = delay
	}
}

// WithBaseURL points the client at another host, such as a test server.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = u
	}
}

// WithLanguage sets the result language.
func WithLanguage(lang string) Option {
	return func(cl *Client) {
		cl.language = lang
	}
}

// Client handles Google Places API operations.
type Client struct {
	httpClient HTTPClient
	cache      httpcache.Cache
	logger     *slog.Logger
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	language   string
	retryDelay time.Duration
	attempts   uint
}

// NewClient creates a new Google Places API client.
func NewClient(apiKey string, httpClient HTTPClient, logger *slog.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		apiKey:     apiKey,
		httpClient: httpClient,
		logger:     logger,
		cache:      httpcache.Nop{},
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
		baseURL:    DefaultBaseURL,
		attempts:   4,
		retryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// get fetches endpoint and decodes its body into out, which must embed
// a status. OK and ZERO_RESULTS bodies are cached.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}
	if c.language != "" {
		params.Set("language", c.language)
	}
	key := httpcache.Key(endpoint, params)
	if body, ok := c.cache.Get(ctx, key); ok {
		c.logger.Debug("places cache hit", "endpoint", endpoint)
		return json.Unmarshal(body, out)
	}

	params.Set("key", c.apiKey)
	apiURL := c.baseURL + "/" + endpoint + "/json?" + params.Encode()
	start := time.Now()

	var body []byte
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			b, err := c.fetch(ctx, apiURL)
			if err != nil {
				return err
			}
			var env struct {
				Status       string `json:"status"`
				ErrorMessage string `json:"error_message"`
			}
			if err := json.Unmarshal(b, &env); err != nil {
				return retry.Unrecoverable(fmt.Errorf("parsing %s response: %w", endpoint, err))
			}
			if env.Status != "OK" && env.Status != "ZERO_RESULTS" {
				se := &StatusError{Status: env.Status, Message: env.ErrorMessage}
				if se.retryable() {
					return se
				}
				return retry.Unrecoverable(se)
			}
			body = b
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying places request", "endpoint", endpoint, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	c.logger.Debug("places request completed", "endpoint", endpoint, "duration", time.Since(start), "bytes", len(body))

	if err := c.cache.Set(ctx, key, body); err != nil {
		c.logger.Warn("places cache set failed", "endpoint", endpoint, "error", err)
	}
	return json.Unmarshal(body, out)
}

func (c *Client) fetch(ctx context.Context, apiURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Debug("failed to close response body", "error", err)
		}
	}()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode >= http.StatusInternalServerError, resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, retry.Unrecoverable(fmt.Errorf("http status %d", resp.StatusCode))
	}
	return body, nil
}
