// Package mongostore is a store.Store backed by MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/codeGROOVE-dev/tripweave/pkg/hours"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
	"github.com/codeGROOVE-dev/tripweave/pkg/store"
)

const (
	citiesCollection     = "cities"
	candidatesCollection = "candidates"
)

type cityDoc struct {
	ID     string             `bson:"_id"`
	Name   string             `bson:"name"`
	Region string             `bson:"region,omitempty"`
	Center *place.Coordinates `bson:"center,omitempty"`
}

type candidateDoc struct {
	CreatedAt   time.Time         `bson:"created_at"`
	ID          string            `bson:"_id"`
	CityID      string            `bson:"city_id"`
	Name        string            `bson:"name"`
	Address     string            `bson:"address,omitempty"`
	Website     string            `bson:"website,omitempty"`
	Phone       string            `bson:"phone,omitempty"`
	ExternalIDs []string          `bson:"external_ids"`
	Categories  []string          `bson:"categories"`
	CategoryIDs []string          `bson:"category_ids,omitempty"`
	Hours       []hours.Period    `bson:"hours,omitempty"`
	Photos      []place.Photo     `bson:"photos,omitempty"`
	Location    place.Coordinates `bson:"location"`
	Rating      float64           `bson:"rating,omitempty"`
	RatingCount int               `bson:"rating_count,omitempty"`
	PriceLevel  int               `bson:"price_level,omitempty"`
}

func toDoc(c *place.Candidate, now time.Time) candidateDoc {
	return candidateDoc{
		CreatedAt:   now,
		ID:          c.ID,
		CityID:      c.CityID,
		Name:        c.Name,
		Address:     c.Address,
		Website:     c.Website,
		Phone:       c.Phone,
		ExternalIDs: c.ExternalIDs,
		Categories:  c.Categories,
		CategoryIDs: c.CategoryIDs,
		Hours:       c.Hours,
		Photos:      c.Photos,
		Location:    c.Location,
		Rating:      c.Rating,
		RatingCount: c.RatingCount,
		PriceLevel:  c.PriceLevel,
	}
}

func (d *candidateDoc) candidate() place.Candidate {
	return place.Candidate{
		ID:          d.ID,
		ExternalIDs: d.ExternalIDs,
		CityID:      d.CityID,
		Name:        d.Name,
		Location:    d.Location,
		Categories:  d.Categories,
		CategoryIDs: d.CategoryIDs,
		Rating:      d.Rating,
		RatingCount: d.RatingCount,
		PriceLevel:  d.PriceLevel,
		Hours:       d.Hours,
		Photos:      d.Photos,
		Address:     d.Address,
		Website:     d.Website,
		Phone:       d.Phone,
	}
}

// Store persists cities and candidates in a MongoDB database.
type Store struct {
	client     *mongo.Client
	cities     *mongo.Collection
	candidates *mongo.Collection
	logger     *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, verifies the connection, and ensures indexes.
func Open(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx) //nolint:errcheck // already failing
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	db := client.Database(database)
	s := &Store{
		client:     client,
		cities:     db.Collection(citiesCollection),
		candidates: db.Collection(candidatesCollection),
		logger:     logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx) //nolint:errcheck // already failing
		return nil, err
	}
	logger.Debug("mongo store opened", "database", database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.candidates.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "city_id", Value: 1}}},
		{
			// An external id belongs to at most one candidate. The partial
			// filter keeps candidates without external ids out of the index.
			Keys: bson.D{{Key: "external_ids", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"external_ids.0": bson.M{"$exists": true}}),
		},
	})
	if err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// AddCity inserts or replaces a city.
func (s *Store) AddCity(ctx context.Context, c place.City) error {
	doc := cityDoc{ID: c.ID, Name: c.Name, Region: c.Region, Center: c.Center}
	_, err := s.cities.ReplaceOne(ctx, bson.M{"_id": c.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving city %q: %w", c.ID, err)
	}
	return nil
}

// City implements store.CityStore.
func (s *Store) City(ctx context.Context, id string) (place.City, error) {
	var doc cityDoc
	err := s.cities.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return place.City{}, fmt.Errorf("city %q: %w", id, store.ErrCityNotFound)
	}
	if err != nil {
		return place.City{}, fmt.Errorf("loading city %q: %w", id, err)
	}
	return place.City{ID: doc.ID, Name: doc.Name, Region: doc.Region, Center: doc.Center}, nil
}

// queryFilter translates f into a MongoDB filter for cityID.
func queryFilter(cityID string, f store.Filter) bson.M {
	q := bson.M{"city_id": cityID}
	if f.Empty() {
		return q
	}
	var or bson.A
	if len(f.CategoryIDs) > 0 {
		or = append(or, bson.M{"category_ids": bson.M{"$in": f.CategoryIDs}})
	}
	for _, label := range f.Labels {
		if label == "" {
			continue
		}
		or = append(or, bson.M{"categories": primitive.Regex{Pattern: regexp.QuoteMeta(label), Options: "i"}})
	}
	if len(or) == 0 {
		or = append(or, bson.M{"_id": bson.M{"$exists": false}})
	}
	q["$or"] = or
	return q
}

// Query implements store.CandidateStore. Documents that fail to decode or
// validate are logged and skipped.
func (s *Store) Query(ctx context.Context, cityID string, f store.Filter) ([]place.Candidate, error) {
	cur, err := s.candidates.Find(ctx, queryFilter(cityID, f), options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer func() {
		if err := cur.Close(ctx); err != nil {
			s.logger.Debug("failed to close cursor", "error", err)
		}
	}()

	var out []place.Candidate
	for cur.Next(ctx) {
		var doc candidateDoc
		if err := cur.Decode(&doc); err != nil {
			s.logger.Warn("skipping malformed candidate",
				"id", cur.Current.Lookup("_id").String(),
				"error", fmt.Errorf("%w: %v", store.ErrMalformedRecord, err))
			continue
		}
		c := doc.candidate()
		if err := store.Validate(&c); err != nil {
			s.logger.Warn("skipping malformed candidate", "id", doc.ID, "error", err)
			continue
		}
		out = append(out, c)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterating candidates: %w", err)
	}
	return out, nil
}

// ExistingExternalIDs implements store.CandidateStore.
func (s *Store) ExistingExternalIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool)
	if len(ids) == 0 {
		return found, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	cur, err := s.candidates.Find(ctx,
		bson.M{"external_ids": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"external_ids": 1}))
	if err != nil {
		return nil, fmt.Errorf("checking external ids: %w", err)
	}
	defer func() {
		if err := cur.Close(ctx); err != nil {
			s.logger.Debug("failed to close cursor", "error", err)
		}
	}()
	for cur.Next(ctx) {
		var doc struct {
			ExternalIDs []string `bson:"external_ids"`
		}
		if err := cur.Decode(&doc); err != nil {
			continue
		}
		for _, ext := range doc.ExternalIDs {
			if want[ext] {
				found[ext] = true
			}
		}
	}
	return found, cur.Err()
}

// BulkUpsert implements store.CandidateStore with one unordered bulk write
// of $setOnInsert upserts keyed by external id. Losing a race to a
// concurrent writer surfaces as a duplicate key error, which is ignored.
func (s *Store) BulkUpsert(ctx context.Context, candidates []place.Candidate) (int, error) {
	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(candidates))
	for i := range candidates {
		c := candidates[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if err := store.Validate(&c); err != nil {
			s.logger.Warn("skipping candidate", "name", c.Name, "error", err)
			continue
		}
		filter := bson.M{"_id": c.ID}
		if len(c.ExternalIDs) > 0 {
			filter = bson.M{"external_ids": bson.M{"$elemMatch": bson.M{"$in": c.ExternalIDs}}}
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(bson.M{"$setOnInsert": toDoc(&c, now)}).
			SetUpsert(true))
	}
	if len(models) == 0 {
		return 0, nil
	}

	res, err := s.candidates.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil && !onlyDuplicates(err) {
		return 0, fmt.Errorf("upserting candidates: %w", err)
	}
	if res == nil {
		return 0, nil
	}
	s.logger.Debug("candidates upserted", "offered", len(candidates), "inserted", res.UpsertedCount)
	return int(res.UpsertedCount), nil
}

func onlyDuplicates(err error) bool {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != 11000 {
			return false
		}
	}
	return true
}

// EnrichDetails implements store.CandidateStore.
func (s *Store) EnrichDetails(ctx context.Context, id string, d place.Details) error {
	var doc candidateDoc
	err := s.candidates.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("candidate %q: %w", id, store.ErrCandidateNotFound)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", store.ErrMalformedRecord, id, err)
	}
	c := doc.candidate()
	c.ApplyDetails(d)
	_, err = s.candidates.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"hours":   c.Hours,
		"photos":  c.Photos,
		"website": c.Website,
		"phone":   c.Phone,
		"address": c.Address,
	}})
	if err != nil {
		return fmt.Errorf("enriching candidate %q: %w", id, err)
	}
	return nil
}
