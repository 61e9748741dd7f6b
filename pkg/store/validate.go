package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/codeGROOVE-dev/tripweave/pkg/clock"
	"github.com/codeGROOVE-dev/tripweave/pkg/hours"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
)

// Record is the flat persisted form of a candidate. List-valued fields are
// JSON documents so a row-oriented backend can store them as text.
type Record struct {
	ID          string
	CityID      string
	Name        string
	Lat         float64
	Lng         float64
	ExternalIDs string
	Categories  string
	CategoryIDs string
	Hours       string
	Photos      string
	Rating      float64
	RatingCount int
	PriceLevel  int
	Address     string
	Website     string
	Phone       string
}

// Encode flattens c into a Record.
func Encode(c *place.Candidate) (Record, error) {
	r := Record{
		ID:          c.ID,
		CityID:      c.CityID,
		Name:        c.Name,
		Lat:         c.Location.Lat,
		Lng:         c.Location.Lng,
		Rating:      c.Rating,
		RatingCount: c.RatingCount,
		PriceLevel:  c.PriceLevel,
		Address:     c.Address,
		Website:     c.Website,
		Phone:       c.Phone,
	}
	var err error
	if r.ExternalIDs, err = encodeJSON(c.ExternalIDs); err != nil {
		return Record{}, err
	}
	if r.Categories, err = encodeJSON(c.Categories); err != nil {
		return Record{}, err
	}
	if r.CategoryIDs, err = encodeJSON(c.CategoryIDs); err != nil {
		return Record{}, err
	}
	if r.Hours, err = encodeJSON(c.Hours); err != nil {
		return Record{}, err
	}
	if r.Photos, err = encodeJSON(c.Photos); err != nil {
		return Record{}, err
	}
	return r, nil
}

// Decode parses and validates r. Every failure wraps ErrMalformedRecord.
func Decode(r Record) (place.Candidate, error) {
	c := place.Candidate{
		ID:          r.ID,
		CityID:      r.CityID,
		Name:        r.Name,
		Location:    place.Coordinates{Lat: r.Lat, Lng: r.Lng},
		Rating:      r.Rating,
		RatingCount: r.RatingCount,
		PriceLevel:  r.PriceLevel,
		Address:     r.Address,
		Website:     r.Website,
		Phone:       r.Phone,
	}
	fields := []struct {
		name string
		raw  string
		dst  any
	}{
		{"external_ids", r.ExternalIDs, &c.ExternalIDs},
		{"categories", r.Categories, &c.Categories},
		{"category_ids", r.CategoryIDs, &c.CategoryIDs},
		{"hours", r.Hours, &c.Hours},
		{"photos", r.Photos, &c.Photos},
	}
	for _, f := range fields {
		if f.raw == "" || f.raw == "null" {
			continue
		}
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return place.Candidate{}, fmt.Errorf("%w: %s: %s: %v", ErrMalformedRecord, r.ID, f.name, err)
		}
	}
	if err := Validate(&c); err != nil {
		return place.Candidate{}, err
	}
	return c, nil
}

// Validate checks the invariants every stored candidate must hold.
func Validate(c *place.Candidate) error {
	switch {
	case c.ID == "":
		return fmt.Errorf("%w: missing id", ErrMalformedRecord)
	case c.CityID == "":
		return fmt.Errorf("%w: %s: missing city", ErrMalformedRecord, c.ID)
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: %s: missing name", ErrMalformedRecord, c.ID)
	case c.Location.Lat < -90 || c.Location.Lat > 90 || c.Location.Lng < -180 || c.Location.Lng > 180:
		return fmt.Errorf("%w: %s: coordinates out of range", ErrMalformedRecord, c.ID)
	case c.Rating < 0 || c.Rating > 5:
		return fmt.Errorf("%w: %s: rating %v out of range", ErrMalformedRecord, c.ID, c.Rating)
	}
	for i, p := range c.Hours {
		if err := validPoint(p.Open); err != nil {
			return fmt.Errorf("%w: %s: hours[%d].open: %v", ErrMalformedRecord, c.ID, i, err)
		}
		if p.Close != nil {
			if err := validPoint(*p.Close); err != nil {
				return fmt.Errorf("%w: %s: hours[%d].close: %v", ErrMalformedRecord, c.ID, i, err)
			}
		}
	}
	return nil
}

func validPoint(p hours.Point) error {
	if p.Day < 0 || p.Day > 6 {
		return fmt.Errorf("day %d out of range", p.Day)
	}
	if _, err := clock.TimeToMinutes(p.Time); err != nil {
		return err
	}
	return nil
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding record field: %w", err)
	}
	return string(b), nil
}
