// Package place defines the candidate, city, and preference types shared by
// discovery, scoring, and scheduling.
package place

import (
	"slices"
	"strings"

	"github.com/codeGROOVE-dev/tripweave/pkg/hours"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Valid reports whether the coordinates were set. (0,0) is treated as unset.
func (c Coordinates) Valid() bool {
	return (c.Lat != 0 || c.Lng != 0) && c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Photo is a reference to a place photo at the external source.
type Photo struct {
	Ref         string `json:"ref" bson:"ref"`
	URL         string `json:"url,omitempty" bson:"url,omitempty"`
	Width       int    `json:"width,omitempty" bson:"width,omitempty"`
	Height      int    `json:"height,omitempty" bson:"height,omitempty"`
	Attribution string `json:"attribution,omitempty" bson:"attribution,omitempty"`
}

// Candidate is a place eligible for scheduling.
type Candidate struct {
	ID          string         `json:"id"`
	ExternalIDs []string       `json:"external_ids,omitempty"`
	CityID      string         `json:"city_id"`
	Name        string         `json:"name"`
	Location    Coordinates    `json:"location"`
	Categories  []string       `json:"categories"`
	CategoryIDs []string       `json:"category_ids,omitempty"`
	Rating      float64        `json:"rating,omitempty"`
	RatingCount int            `json:"rating_count,omitempty"`
	PriceLevel  int            `json:"price_level,omitempty"`
	Hours       []hours.Period `json:"hours,omitempty"`
	Photos      []Photo        `json:"photos,omitempty"`
	Address     string         `json:"address,omitempty"`
	Website     string         `json:"website,omitempty"`
	Phone       string         `json:"phone,omitempty"`

	// Set by scoring; never persisted.
	Score         float64  `json:"-"`
	MatchedTraits []string `json:"-"`
}

// HasPhoto reports whether at least one photo reference is present.
func (c *Candidate) HasPhoto() bool {
	return len(c.Photos) > 0
}

// NeedsDetails reports whether enrichment could add hours or photos.
func (c *Candidate) NeedsDetails() bool {
	return len(c.Hours) == 0 || len(c.Photos) == 0
}

// PrimaryExternalID returns the first external id, or "".
func (c *Candidate) PrimaryExternalID() string {
	if len(c.ExternalIDs) == 0 {
		return ""
	}
	return c.ExternalIDs[0]
}

// PrimaryCategory returns the first category name, or "".
func (c *Candidate) PrimaryCategory() string {
	if len(c.Categories) == 0 {
		return ""
	}
	return c.Categories[0]
}

// Keys returns the identity keys used for cross-provider deduplication:
// the internal id and every external id, namespaced so they cannot collide.
func (c *Candidate) Keys() []string {
	keys := make([]string, 0, 1+len(c.ExternalIDs))
	if c.ID != "" {
		keys = append(keys, "id:"+c.ID)
	}
	for _, ext := range c.ExternalIDs {
		if ext != "" {
			keys = append(keys, "ext:"+ext)
		}
	}
	return keys
}

// ApplyDetails backfills fields that are still empty from d.
func (c *Candidate) ApplyDetails(d Details) {
	if len(c.Hours) == 0 && len(d.Hours) > 0 {
		c.Hours = d.Hours
	}
	if len(c.Photos) == 0 && len(d.Photos) > 0 {
		c.Photos = d.Photos
	}
	if c.Website == "" {
		c.Website = d.Website
	}
	if c.Phone == "" {
		c.Phone = d.Phone
	}
	if c.Address == "" {
		c.Address = d.Address
	}
}

// Clone returns a deep copy.
func (c Candidate) Clone() Candidate {
	c.ExternalIDs = slices.Clone(c.ExternalIDs)
	c.Categories = slices.Clone(c.Categories)
	c.CategoryIDs = slices.Clone(c.CategoryIDs)
	c.Hours = slices.Clone(c.Hours)
	c.Photos = slices.Clone(c.Photos)
	c.MatchedTraits = slices.Clone(c.MatchedTraits)
	return c
}

// Details is the enrichment payload fetched for a single place.
type Details struct {
	Hours   []hours.Period `json:"hours,omitempty"`
	Photos  []Photo        `json:"photos,omitempty"`
	Website string         `json:"website,omitempty"`
	Phone   string         `json:"phone,omitempty"`
	Address string         `json:"address,omitempty"`
}

// Empty reports whether d carries nothing to apply.
func (d Details) Empty() bool {
	return len(d.Hours) == 0 && len(d.Photos) == 0 && d.Website == "" && d.Phone == "" && d.Address == ""
}

// RawPlace is a search result from an external place source, before it has
// an internal id.
type RawPlace struct {
	ExternalID  string
	Name        string
	Location    Coordinates
	Types       []string
	Rating      float64
	RatingCount int
	PriceLevel  int
	Address     string
	Photos      []Photo
	Hours       []hours.Period
}

// City is the destination of an itinerary. Center is nil when the city has
// not been geocoded.
type City struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Region string       `json:"region,omitempty"`
	Center *Coordinates `json:"center,omitempty"`
}

// Budget is a coarse spending tier.
type Budget string

// Budget tiers.
const (
	BudgetLow      Budget = "budget"
	BudgetModerate Budget = "moderate"
	BudgetLuxury   Budget = "luxury"
)

// Profile is a traveler's accumulated preferences.
type Profile struct {
	Traits   map[string]float64 `json:"traits"`
	Swipes   int                `json:"swipes"`
	Liked    []string           `json:"liked,omitempty"`
	Disliked []string           `json:"disliked,omitempty"`
	Budget   Budget             `json:"budget,omitempty"`
}

// Weight returns the trait weight, matched case-insensitively. Missing traits weigh 0.
func (p *Profile) Weight(trait string) float64 {
	if p == nil {
		return 0
	}
	if w, ok := p.Traits[trait]; ok {
		return w
	}
	for k, w := range p.Traits {
		if strings.EqualFold(k, trait) {
			return w
		}
	}
	return 0
}
