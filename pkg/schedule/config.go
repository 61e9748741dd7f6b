package schedule

import (
	"github.com/codeGROOVE-dev/tripweave/pkg/clock"
	"github.com/codeGROOVE-dev/tripweave/pkg/itinerary"
)

// Anchor is a fixed meal slot.
type Anchor struct {
	Slot     itinerary.Slot
	Start    int
	Duration int
}

// Window is a clock range filled greedily. End may exceed 1440 for windows
// that run past midnight.
type Window struct {
	Slot  itinerary.Slot
	Start int
	End   int
}

// Config holds the scheduling tunables.
type Config struct {
	Breakfast Anchor
	Dinner    Anchor
	Morning   Window
	Afternoon Window

	// The evening window ends at EveningEndQuiet for a nightlife weight
	// <= 0, EveningEndModerate below NightOwlThreshold, and
	// EveningEndNightOwl otherwise.
	EveningStart        int
	EveningEndQuiet     int
	EveningEndModerate  int
	EveningEndNightOwl  int
	NightOwlThreshold   float64
	TransitBuffer       int
	SafetyMargin        int
	MaxWindowIterations int
	// IdleStep advances a window's clock when the only candidates that
	// would fit are closed at the current time.
	IdleStep            int

	FoodCap         int
	FoodieFoodCap   int
	FoodieThreshold float64

	// AlternativeMinPool is the smallest eligible pool for which an anchor
	// gets an alternative.
	AlternativeMinPool int

	OpenBonus      float64
	NearKm         float64
	NearBonus      float64
	MidKm          float64
	MidBonus       float64
	VarietyPenalty float64
}

// DefaultConfig returns the production tunables.
func DefaultConfig() Config {
	return Config{
		Breakfast: Anchor{Slot: itinerary.Breakfast, Start: clock.MustMinutes("08:00"), Duration: 60},
		Dinner:    Anchor{Slot: itinerary.Dinner, Start: clock.MustMinutes("19:30"), Duration: 90},
		Morning:   Window{Slot: itinerary.Morning, Start: clock.MustMinutes("09:00"), End: clock.MustMinutes("13:00")},
		Afternoon: Window{Slot: itinerary.Afternoon, Start: clock.MustMinutes("13:00"), End: clock.MustMinutes("19:30")},

		EveningStart:        clock.MustMinutes("21:15"),
		EveningEndQuiet:     clock.MustMinutes("22:30"),
		EveningEndModerate:  clock.MustMinutes("23:30"),
		EveningEndNightOwl:  clock.MinutesPerDay + clock.MustMinutes("01:30"),
		NightOwlThreshold:   5,
		TransitBuffer:       15,
		SafetyMargin:        5,
		MaxWindowIterations: 20,
		IdleStep:            30,

		FoodCap:         3,
		FoodieFoodCap:   4,
		FoodieThreshold: 7,

		AlternativeMinPool: 3,

		OpenBonus:      10,
		NearKm:         2,
		NearBonus:      15,
		MidKm:          5,
		MidBonus:       5,
		VarietyPenalty: 20,
	}
}

// EveningWindow returns the evening bounds for a nightlife weight: later
// for travelers who like going out.
func (c Config) EveningWindow(nightlife float64) Window {
	end := c.EveningEndNightOwl
	switch {
	case nightlife <= 0:
		end = c.EveningEndQuiet
	case nightlife < c.NightOwlThreshold:
		end = c.EveningEndModerate
	}
	return Window{Slot: itinerary.Evening, Start: c.EveningStart, End: end}
}

// Windows returns the day's fill windows in order.
func (c Config) Windows(nightlife float64) []Window {
	return []Window{c.Morning, c.Afternoon, c.EveningWindow(nightlife)}
}
