// Package itinerary holds the generated plan: days of timed activities with
// transit between them, plus the local edits a caller may make afterwards.
package itinerary

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/codeGROOVE-dev/tripweave/pkg/clock"
	"github.com/codeGROOVE-dev/tripweave/pkg/place"
	"github.com/codeGROOVE-dev/tripweave/pkg/transit"
)

// ErrActivityNotFound is returned by edits naming an unknown activity.
var ErrActivityNotFound = errors.New("activity not found")

// ErrNoAlternative is returned when swapping an activity that has none.
var ErrNoAlternative = errors.New("activity has no alternative")

// Slot names the part of the day an activity fills.
type Slot string

// Slots. Breakfast and Dinner are fixed anchors; the rest are windows.
const (
	Breakfast Slot = "breakfast"
	Dinner    Slot = "dinner"
	Morning   Slot = "morning"
	Afternoon Slot = "afternoon"
	Evening   Slot = "evening"
)

// IsAnchor reports whether s is a fixed meal slot.
func (s Slot) IsAnchor() bool {
	return s == Breakfast || s == Dinner
}

// Vibe is the display projection of a candidate.
type Vibe struct {
	CandidateID   string            `json:"candidate_id"`
	ExternalIDs   []string          `json:"external_ids,omitempty"`
	Name          string            `json:"name"`
	Category      string            `json:"category,omitempty"`
	Categories    []string          `json:"categories,omitempty"`
	Location      place.Coordinates `json:"location"`
	Rating        float64           `json:"rating,omitempty"`
	PriceLevel    int               `json:"price_level,omitempty"`
	Photo         *place.Photo      `json:"photo,omitempty"`
	Address       string            `json:"address,omitempty"`
	Website       string            `json:"website,omitempty"`
	Score         float64           `json:"score"`
	MatchedTraits []string          `json:"matched_traits,omitempty"`
}

// VibeOf projects c.
func VibeOf(c *place.Candidate) Vibe {
	v := Vibe{
		CandidateID:   c.ID,
		ExternalIDs:   slices.Clone(c.ExternalIDs),
		Name:          c.Name,
		Category:      c.PrimaryCategory(),
		Categories:    slices.Clone(c.Categories),
		Location:      c.Location,
		Rating:        c.Rating,
		PriceLevel:    c.PriceLevel,
		Address:       c.Address,
		Website:       c.Website,
		Score:         c.Score,
		MatchedTraits: slices.Clone(c.MatchedTraits),
	}
	if c.HasPhoto() {
		p := c.Photos[0]
		v.Photo = &p
	}
	return v
}

// Keys returns the identity keys of the underlying candidate, in the same
// form as place.Candidate.Keys.
func (v *Vibe) Keys() []string {
	c := place.Candidate{ID: v.CandidateID, ExternalIDs: v.ExternalIDs}
	return c.Keys()
}

// Activity is one timed stop in a day.
type Activity struct {
	Transit     *transit.Details `json:"transit,omitempty"`
	Alternative *Vibe            `json:"alternative,omitempty"`
	ID          string           `json:"id"`
	Slot        Slot             `json:"slot"`
	Start       string           `json:"start"`
	End         string           `json:"end"`
	Note        string           `json:"note,omitempty"`
	TransitNote string           `json:"transit_note,omitempty"`
	Vibe        Vibe             `json:"vibe"`
	// Minutes from the day's midnight. Evening entries after midnight
	// exceed 1440 so ordering within the day stays total.
	StartMinutes    int `json:"start_minutes"`
	DurationMinutes int `json:"duration_minutes"`
}

// NewActivity returns an activity for v starting at startMinutes.
func NewActivity(id string, slot Slot, v Vibe, startMinutes, duration int) *Activity {
	return &Activity{
		ID:              id,
		Slot:            slot,
		Vibe:            v,
		Start:           clock.MinutesToTime(startMinutes),
		End:             clock.MinutesToTime(startMinutes + duration),
		StartMinutes:    startMinutes,
		DurationMinutes: duration,
	}
}

// EndMinutes is StartMinutes plus duration.
func (a *Activity) EndMinutes() int {
	return a.StartMinutes + a.DurationMinutes
}

// Position implements transit.Stop.
func (a *Activity) Position() (place.Coordinates, bool) {
	return a.Vibe.Location, a.Vibe.Location.Valid()
}

// SetTransit implements transit.Stop.
func (a *Activity) SetTransit(d *transit.Details, note string) {
	a.Transit = d
	a.TransitNote = note
}

// DayPlan is a single day of the trip.
type DayPlan struct {
	Date       time.Time   `json:"date"`
	ID         string      `json:"id"`
	Activities []*Activity `json:"activities"`
	Index      int         `json:"index"`
}

// Sort orders activities by start, keeping insertion order on ties.
func (d *DayPlan) Sort() {
	slices.SortStableFunc(d.Activities, func(a, b *Activity) int {
		return a.StartMinutes - b.StartMinutes
	})
}

// RecalculateTransit re-derives travel between consecutive activities.
func (d *DayPlan) RecalculateTransit() {
	transit.Recalculate(d.Activities)
}

// CheckOrder returns an error if activities are out of order or overlap.
func (d *DayPlan) CheckOrder() error {
	for i := 1; i < len(d.Activities); i++ {
		prev, cur := d.Activities[i-1], d.Activities[i]
		if cur.StartMinutes < prev.StartMinutes {
			return fmt.Errorf("day %d: %q starts before %q", d.Index, cur.Vibe.Name, prev.Vibe.Name)
		}
		if cur.StartMinutes < prev.EndMinutes() {
			return fmt.Errorf("day %d: %q overlaps %q", d.Index, cur.Vibe.Name, prev.Vibe.Name)
		}
	}
	return nil
}

func (d *DayPlan) indexOf(id string) int {
	return slices.IndexFunc(d.Activities, func(a *Activity) bool { return a.ID == id })
}

// Insert places a at position i (clamped to the day) and updates transit.
func (d *DayPlan) Insert(i int, a *Activity) {
	i = max(0, min(i, len(d.Activities)))
	d.Activities = slices.Insert(d.Activities, i, a)
	d.RecalculateTransit()
}

// Remove deletes the activity with id and updates transit.
func (d *DayPlan) Remove(id string) (*Activity, error) {
	i := d.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrActivityNotFound, id)
	}
	a := d.Activities[i]
	d.Activities = slices.Delete(d.Activities, i, i+1)
	d.RecalculateTransit()
	a.SetTransit(nil, "")
	return a, nil
}

// Move relocates the activity with id to position to and updates transit.
// Times are left as they are; rescheduling is up to the caller.
func (d *DayPlan) Move(id string, to int) error {
	i := d.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrActivityNotFound, id)
	}
	a := d.Activities[i]
	d.Activities = slices.Delete(d.Activities, i, i+1)
	to = max(0, min(to, len(d.Activities)))
	d.Activities = slices.Insert(d.Activities, to, a)
	d.RecalculateTransit()
	return nil
}

// SwapAlternative exchanges the primary and alternative of activity id and
// updates transit.
func (d *DayPlan) SwapAlternative(id string) error {
	i := d.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrActivityNotFound, id)
	}
	a := d.Activities[i]
	if a.Alternative == nil {
		return fmt.Errorf("%w: %s", ErrNoAlternative, id)
	}
	primary := a.Vibe
	a.Vibe = *a.Alternative
	a.Alternative = &primary
	d.RecalculateTransit()
	return nil
}

// Itinerary is a complete multi-day plan for one city.
type Itinerary struct {
	CreatedAt time.Time  `json:"created_at"`
	ID        string     `json:"id"`
	CityID    string     `json:"city_id"`
	Days      []*DayPlan `json:"days"`
}

// Day returns the plan with 1-based index i, or nil.
func (it *Itinerary) Day(i int) *DayPlan {
	for _, d := range it.Days {
		if d.Index == i {
			return d
		}
	}
	return nil
}

// ActivityCount returns the number of scheduled activities.
func (it *Itinerary) ActivityCount() int {
	n := 0
	for _, d := range it.Days {
		n += len(d.Activities)
	}
	return n
}

// Duplicates returns the identity keys used by more than one primary or
// alternative across the itinerary. A well-formed itinerary has none.
func (it *Itinerary) Duplicates() []string {
	owner := make(map[string]string)
	var dups []string
	visit := func(v *Vibe, slot string) {
		for _, k := range v.Keys() {
			if prev, ok := owner[k]; ok && prev != slot {
				if !slices.Contains(dups, k) {
					dups = append(dups, k)
				}
				continue
			}
			owner[k] = slot
		}
	}
	for _, d := range it.Days {
		for _, a := range d.Activities {
			visit(&a.Vibe, a.ID+"/primary")
			if a.Alternative != nil {
				visit(a.Alternative, a.ID+"/alternative")
			}
		}
	}
	return dups
}
