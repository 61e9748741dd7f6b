// Package render formats itineraries for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/codeGROOVE-dev/tripweave/pkg/itinerary"
	"github.com/fatih/color"
)

// Options controls what Itinerary prints.
type Options struct {
	// Title replaces the city id in the heading.
	Title            string
	ShowNotes        bool
	ShowAlternatives bool
	ShowTimeline     bool
}

const ruleWidth = 56

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	timeColor    = color.New(color.Bold)
	dimColor     = color.New(color.FgHiBlack)
	ratingColor  = color.New(color.FgYellow)
)

// slotColor returns the color used for a slot's label and timeline cells.
func slotColor(s itinerary.Slot) *color.Color {
	switch s {
	case itinerary.Breakfast:
		return color.New(color.FgGreen)
	case itinerary.Dinner:
		return color.New(color.FgRed)
	case itinerary.Morning:
		return color.New(color.FgBlue)
	case itinerary.Afternoon:
		return color.New(color.FgMagenta)
	case itinerary.Evening:
		return color.New(color.FgYellow)
	default:
		return dimColor
	}
}

// Itinerary renders it as a day-by-day schedule.
func Itinerary(it *itinerary.Itinerary, opts Options) string {
	var out strings.Builder
	title := opts.Title
	if title == "" {
		title = it.CityID
	}
	out.WriteString(headingColor.Sprintf("🗺  %s: %s\n", title, pluralize(len(it.Days), "day")))
	out.WriteString(strings.Repeat("─", ruleWidth) + "\n")

	for _, day := range it.Days {
		out.WriteString(Day(day, opts))
		out.WriteString("\n")
	}
	out.WriteString(dimColor.Sprintf("%s across %s\n", pluralize(it.ActivityCount(), "activity"), pluralize(len(it.Days), "day")))
	return out.String()
}

// Day renders a single day plan.
func Day(day *itinerary.DayPlan, opts Options) string {
	var out strings.Builder
	out.WriteString(headingColor.Sprintf("Day %d", day.Index))
	if !day.Date.IsZero() {
		out.WriteString(" · " + day.Date.Format("Monday, Jan 2"))
	}
	out.WriteString("\n")
	if opts.ShowTimeline {
		out.WriteString(Timeline(day) + "\n")
	}
	if len(day.Activities) == 0 {
		out.WriteString(dimColor.Sprint("  (nothing scheduled)") + "\n")
		return out.String()
	}

	for i, a := range day.Activities {
		if i > 0 && a.TransitNote != "" {
			line := "   ↓ " + a.TransitNote
			if a.Transit != nil && a.Transit.DistanceKm > 0 {
				line += fmt.Sprintf(" (%.1f km)", a.Transit.DistanceKm)
			}
			out.WriteString(dimColor.Sprint(line) + "\n")
		}
		out.WriteString(activityLine(a) + "\n")
		if opts.ShowNotes && a.Note != "" {
			out.WriteString("      " + dimColor.Sprint(a.Note) + "\n")
		}
		if opts.ShowAlternatives && a.Alternative != nil {
			out.WriteString("      " + dimColor.Sprint("or: "+a.Alternative.Name) + "\n")
		}
	}
	return out.String()
}

func activityLine(a *itinerary.Activity) string {
	line := "  " + timeColor.Sprintf("%s–%s", a.Start, a.End)
	line += "  " + slotColor(a.Slot).Sprintf("%-9s", a.Slot)
	line += "  " + a.Vibe.Name
	if a.Vibe.Rating > 0 {
		line += "  " + ratingColor.Sprintf("★ %.1f", a.Vibe.Rating)
	}
	if a.Vibe.PriceLevel > 0 {
		line += "  " + strings.Repeat("$", a.Vibe.PriceLevel)
	}
	if a.Vibe.Category != "" {
		line += "  " + dimColor.Sprint(a.Vibe.Category)
	}
	return line
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if stem, ok := strings.CutSuffix(noun, "y"); ok && stem != "" && !strings.ContainsAny(stem[len(stem)-1:], "aeiou") {
		return fmt.Sprintf("%d %sies", n, stem)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
