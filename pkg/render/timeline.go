package render

import (
	"strings"

	"github.com/codeGROOVE-dev/tripweave/pkg/itinerary"
)

// The timeline covers 06:00 to 02:00 the next morning in half-hour cells.
const (
	timelineStart = 6 * 60
	timelineEnd   = 26 * 60
	cellMinutes   = 30
)

var slotGlyphs = map[itinerary.Slot]string{
	itinerary.Breakfast: "B",
	itinerary.Dinner:    "D",
	itinerary.Morning:   "M",
	itinerary.Afternoon: "A",
	itinerary.Evening:   "E",
}

// Timeline draws the day as a row of half-hour cells, one letter per slot,
// so gaps in the plan stand out.
func Timeline(day *itinerary.DayPlan) string {
	var b strings.Builder
	b.WriteString("  ")
	for m := timelineStart; m < timelineEnd; m += cellMinutes {
		a := occupying(day, m)
		if a == nil {
			b.WriteString(dimColor.Sprint("·"))
			continue
		}
		glyph, ok := slotGlyphs[a.Slot]
		if !ok {
			glyph = "?"
		}
		b.WriteString(slotColor(a.Slot).Sprint(glyph))
	}
	return b.String()
}

// occupying returns the activity covering any part of the cell starting at m.
func occupying(day *itinerary.DayPlan, m int) *itinerary.Activity {
	for _, a := range day.Activities {
		if a.StartMinutes < m+cellMinutes && a.EndMinutes() > m {
			return a
		}
	}
	return nil
}
