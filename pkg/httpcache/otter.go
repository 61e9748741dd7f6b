package httpcache

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/maypok86/otter/v2"
)

const (
	cacheFile    = "places-cache.gob"
	saveInterval = 15 * time.Minute
)

var _ Cache = (*OtterCache)(nil)

// OtterCache is an in-process cache, optionally persisted to a directory.
type OtterCache struct {
	cache      *otter.Cache[string, Entry]
	logger     *slog.Logger
	saveCancel context.CancelFunc
	dir        string
	saveWg     sync.WaitGroup
	ttl        time.Duration
	mu         sync.Mutex
}

func newOtter(ttl time.Duration, logger *slog.Logger) *OtterCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &OtterCache{
		cache: otter.Must(&otter.Options[string, Entry]{
			MaximumSize:      100_000,
			InitialCapacity:  1_000,
			ExpiryCalculator: otter.ExpiryWriting[string, Entry](ttl),
		}),
		ttl:    ttl,
		logger: logger,
	}
}

// NewMemoryOnlyCache returns a cache that is never written to disk.
func NewMemoryOnlyCache(ttl time.Duration, logger *slog.Logger) *OtterCache {
	return newOtter(ttl, logger)
}

// NewOtterCache returns a cache loaded from dir and saved back to it
// periodically and on Close.
func NewOtterCache(ctx context.Context, dir string, ttl time.Duration, logger *slog.Logger) (*OtterCache, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	c := newOtter(ttl, logger)
	c.dir = dir

	if err := c.loadFromDisk(); err != nil {
		c.logger.Warn("failed to load cache from disk", "error", err)
	}
	c.logger.Info("cache initialized", "dir", dir, "entries_loaded", c.cache.EstimatedSize())

	saveCtx, cancel := context.WithCancel(ctx)
	c.saveCancel = cancel
	c.saveWg.Add(1)
	go c.periodicSave(saveCtx)
	return c, nil
}

// Get returns the cached body for key.
func (c *OtterCache) Get(_ context.Context, key string) ([]byte, bool) {
	entry, found := c.cache.GetIfPresent(key)
	if !found {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		c.cache.Invalidate(key)
		return nil, false
	}
	return entry.Data, true
}

// Set stores data under key for the cache TTL.
func (c *OtterCache) Set(_ context.Context, key string, data []byte) error {
	c.cache.Set(key, Entry{Data: data, ExpiresAt: time.Now().Add(c.ttl)})
	return nil
}

// Len returns the approximate number of entries.
func (c *OtterCache) Len() int {
	return c.cache.EstimatedSize()
}

// Close stops periodic saving and writes a final snapshot when persistent.
func (c *OtterCache) Close() error {
	if c.dir == "" {
		return nil
	}
	if c.saveCancel != nil {
		c.saveCancel()
	}
	c.saveWg.Wait()
	if err := c.saveToDisk(); err != nil {
		return fmt.Errorf("final cache save: %w", err)
	}
	return nil
}

func (c *OtterCache) periodicSave(ctx context.Context) {
	defer c.saveWg.Done()
	ticker := time.NewTicker(saveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.saveToDisk(); err != nil {
				c.logger.Error("periodic cache save failed", "error", err)
			}
		}
	}
}

func (c *OtterCache) loadFromDisk() error {
	path := filepath.Join(c.dir, cacheFile)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("opening cache file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			c.logger.Debug("failed to close cache file", "error", err)
		}
	}()

	var entries map[string]Entry
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return fmt.Errorf("decoding cache file: %w", err)
	}
	now := time.Now()
	valid := 0
	for key, entry := range entries {
		if now.Before(entry.ExpiresAt) {
			c.cache.Set(key, entry)
			valid++
		}
	}
	c.logger.Debug("loaded cache from disk", "path", path, "valid", valid, "expired", len(entries)-valid)
	return nil
}

func (c *OtterCache) saveToDisk() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	path := filepath.Join(c.dir, cacheFile)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("failed to remove temp cache file", "error", err)
		}
	}()

	entries := make(map[string]Entry)
	now := time.Now()
	for key, entry := range c.cache.All() {
		if now.Before(entry.ExpiresAt) {
			entries[key] = entry
		}
	}
	if err := gob.NewEncoder(f).Encode(entries); err != nil {
		_ = f.Close() //nolint:errcheck // already failing
		return fmt.Errorf("encoding cache: %w", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close() //nolint:errcheck // already failing
		return fmt.Errorf("syncing cache file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing cache file: %w", err)
	}
	c.logger.Debug("cache saved to disk", "entries", len(entries), "path", path)
	return nil
}
