// Package sqlitestore is a store.Store backed by a local SQLite file.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/codeGROOVE-dev/tripweave/pkg/place"
	"github.com/codeGROOVE-dev/tripweave/pkg/store"
)

const schema = `
	CREATE TABLE IF NOT EXISTS cities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		region TEXT,
		lat REAL,
		lng REAL
	);

	CREATE TABLE IF NOT EXISTS candidates (
		id TEXT PRIMARY KEY,
		city_id TEXT NOT NULL,
		name TEXT NOT NULL,
		lat REAL NOT NULL DEFAULT 0,
		lng REAL NOT NULL DEFAULT 0,
		external_ids TEXT,
		categories TEXT,
		category_ids TEXT,
		hours TEXT,
		photos TEXT,
		rating REAL NOT NULL DEFAULT 0,
		rating_count INTEGER NOT NULL DEFAULT 0,
		price_level INTEGER NOT NULL DEFAULT 0,
		address TEXT,
		website TEXT,
		phone TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_candidates_city ON candidates(city_id);

	CREATE TABLE IF NOT EXISTS external_ids (
		external_id TEXT PRIMARY KEY,
		candidate_id TEXT NOT NULL
	);
`

// maxVars keeps IN lists under SQLite's bound-parameter limit.
const maxVars = 500

// Store persists cities and candidates in SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	path   string
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// Immediate transactions take the write lock up front, so concurrent
	// upserts queue on busy_timeout instead of failing mid-transaction.
	dsn := "file:" + path + "?_txlock=immediate" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	logger.Debug("sqlite store opened", "path", path)
	return &Store{db: db, logger: logger, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AddCity inserts or replaces a city.
func (s *Store) AddCity(ctx context.Context, c place.City) error {
	var lat, lng sql.NullFloat64
	if c.Center != nil {
		lat = sql.NullFloat64{Float64: c.Center.Lat, Valid: true}
		lng = sql.NullFloat64{Float64: c.Center.Lng, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cities (id, name, region, lat, lng) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, region = excluded.region,
			lat = excluded.lat, lng = excluded.lng`,
		c.ID, c.Name, c.Region, lat, lng)
	if err != nil {
		return fmt.Errorf("saving city %q: %w", c.ID, err)
	}
	return nil
}

// City implements store.CityStore.
func (s *Store) City(ctx context.Context, id string) (place.City, error) {
	var (
		c        place.City
		region   sql.NullString
		lat, lng sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, region, lat, lng FROM cities WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &region, &lat, &lng)
	if errors.Is(err, sql.ErrNoRows) {
		return place.City{}, fmt.Errorf("city %q: %w", id, store.ErrCityNotFound)
	}
	if err != nil {
		return place.City{}, fmt.Errorf("loading city %q: %w", id, err)
	}
	c.Region = region.String
	if lat.Valid && lng.Valid {
		c.Center = &place.Coordinates{Lat: lat.Float64, Lng: lng.Float64}
	}
	return c, nil
}

const candidateColumns = `id, city_id, name, lat, lng, external_ids, categories, category_ids,
	hours, photos, rating, rating_count, price_level, address, website, phone`

func scanRecord(row interface{ Scan(...any) error }) (store.Record, error) {
	var r store.Record
	var ext, cats, catIDs, hrs, photos, address, website, phone sql.NullString
	err := row.Scan(&r.ID, &r.CityID, &r.Name, &r.Lat, &r.Lng, &ext, &cats, &catIDs,
		&hrs, &photos, &r.Rating, &r.RatingCount, &r.PriceLevel, &address, &website, &phone)
	if err != nil {
		return store.Record{}, err
	}
	r.ExternalIDs, r.Categories, r.CategoryIDs = ext.String, cats.String, catIDs.String
	r.Hours, r.Photos = hrs.String, photos.String
	r.Address, r.Website, r.Phone = address.String, website.String, phone.String
	return r, nil
}

// Query implements store.CandidateStore. Rows that fail validation are
// logged and skipped.
func (s *Store) Query(ctx context.Context, cityID string, f store.Filter) ([]place.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE city_id = ? ORDER BY rowid`, cityID)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Debug("failed to close rows", "error", err)
		}
	}()

	var out []place.Candidate
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning candidate: %w", err)
		}
		c, err := store.Decode(r)
		if err != nil {
			s.logger.Warn("skipping malformed candidate", "id", r.ID, "error", err)
			continue
		}
		if f.Match(&c) {
			out = append(out, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}
	return out, nil
}

// ExistingExternalIDs implements store.CandidateStore.
func (s *Store) ExistingExternalIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool)
	for start := 0; start < len(ids); start += maxVars {
		chunk := ids[start:min(start+maxVars, len(ids))]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		q := `SELECT external_id FROM external_ids WHERE external_id IN (` + placeholders(len(chunk)) + `)`
		if err := s.collect(ctx, q, args, found); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func (s *Store) collect(ctx context.Context, q string, args []any, found map[string]bool) error {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("checking external ids: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			s.logger.Debug("failed to close rows", "error", err)
		}
	}()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scanning external id: %w", err)
		}
		found[id] = true
	}
	return rows.Err()
}

// BulkUpsert implements store.CandidateStore. A candidate is inserted only if
// none of its external ids is already claimed.
func (s *Store) BulkUpsert(ctx context.Context, candidates []place.Candidate) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after Commit
	}()

	now := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for i := range candidates {
		c := candidates[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if err := store.Validate(&c); err != nil {
			s.logger.Warn("skipping candidate", "name", c.Name, "error", err)
			continue
		}
		ok, err := insertCandidate(ctx, tx, &c, now)
		if err != nil {
			return 0, err
		}
		if ok {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing candidates: %w", err)
	}
	s.logger.Debug("candidates upserted", "offered", len(candidates), "inserted", inserted)
	return inserted, nil
}

func insertCandidate(ctx context.Context, tx *sql.Tx, c *place.Candidate, now string) (bool, error) {
	if len(c.ExternalIDs) > 0 {
		args := make([]any, len(c.ExternalIDs))
		for i, ext := range c.ExternalIDs {
			args[i] = ext
		}
		var n int
		q := `SELECT COUNT(*) FROM external_ids WHERE external_id IN (` + placeholders(len(args)) + `)`
		if err := tx.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
			return false, fmt.Errorf("checking external ids: %w", err)
		}
		if n > 0 {
			return false, nil
		}
	}

	r, err := store.Encode(c)
	if err != nil {
		return false, err
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO candidates (`+candidateColumns+`, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		r.ID, r.CityID, r.Name, r.Lat, r.Lng, r.ExternalIDs, r.Categories, r.CategoryIDs,
		r.Hours, r.Photos, r.Rating, r.RatingCount, r.PriceLevel, r.Address, r.Website, r.Phone, now)
	if err != nil {
		return false, fmt.Errorf("inserting candidate %q: %w", c.Name, err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}
	for _, ext := range c.ExternalIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO external_ids (external_id, candidate_id) VALUES (?, ?) ON CONFLICT(external_id) DO NOTHING`,
			ext, c.ID); err != nil {
			return false, fmt.Errorf("claiming external id %q: %w", ext, err)
		}
	}
	return true, nil
}

// EnrichDetails implements store.CandidateStore.
func (s *Store) EnrichDetails(ctx context.Context, id string, d place.Details) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after Commit
	}()

	r, err := scanRecord(tx.QueryRowContext(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("candidate %q: %w", id, store.ErrCandidateNotFound)
	}
	if err != nil {
		return fmt.Errorf("loading candidate %q: %w", id, err)
	}
	c, err := store.Decode(r)
	if err != nil {
		return err
	}
	c.ApplyDetails(d)
	enc, err := store.Encode(&c)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE candidates SET hours = ?, photos = ?, website = ?, phone = ?, address = ? WHERE id = ?`,
		enc.Hours, enc.Photos, enc.Website, enc.Phone, enc.Address, id); err != nil {
		return fmt.Errorf("enriching candidate %q: %w", id, err)
	}
	return tx.Commit()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
