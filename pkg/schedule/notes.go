package schedule

import (
	"fmt"
	"strings"

	"github.com/codeGROOVE-dev/tripweave/pkg/itinerary"
)

func anchorNote(slot itinerary.Slot, sc scored, strict bool) string {
	var b strings.Builder
	switch slot {
	case itinerary.Breakfast:
		b.WriteString("Start the day")
	case itinerary.Dinner:
		b.WriteString("Dinner")
	default:
		b.WriteString(titleCase(string(slot)))
	}
	if cat := sc.c.PrimaryCategory(); cat != "" {
		fmt.Fprintf(&b, " at a %s", strings.ToLower(cat))
	}
	if sc.c.Rating > 0 {
		fmt.Fprintf(&b, " rated %.1f", sc.c.Rating)
	}
	if !strict {
		b.WriteString("; check hours before going")
	}
	return b.String()
}

func windowNote(slot itinerary.Slot, sc scored) string {
	var reasons []string
	if len(sc.c.MatchedTraits) > 0 {
		reasons = append(reasons, "matches your interest in "+strings.Join(sc.c.MatchedTraits, " and "))
	}
	if sc.c.Rating >= 4.5 {
		reasons = append(reasons, fmt.Sprintf("rated %.1f", sc.c.Rating))
	}
	if len(reasons) == 0 {
		cat := sc.c.PrimaryCategory()
		if cat == "" {
			cat = "stop"
		}
		reasons = append(reasons, fmt.Sprintf("%s %s", titleCase(string(slot)), strings.ToLower(cat)))
	}
	note := strings.Join(reasons, ", ")
	return strings.ToUpper(note[:1]) + note[1:]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
