// Package hours evaluates weekly opening-hours periods.
//
// Periods follow the Google Places convention: days run 0 (Sunday) to 6
// (Saturday) and times are compact "HHMM" strings. A period whose close
// falls on a later day spans midnight.
package hours

import (
	"time"

	"github.com/codeGROOVE-dev/tripweave/pkg/clock"
)

// Point is a day of week and a compact "HHMM" time.
type Point struct {
	Day  int    `json:"day" bson:"day"`
	Time string `json:"time" bson:"time"`
}

// Period is a single opening span. Close is nil for the always-open convention.
type Period struct {
	Open  Point  `json:"open" bson:"open"`
	Close *Point `json:"close,omitempty" bson:"close,omitempty"`
}

// AlwaysOpen returns the 24h convention: open Sunday 00:00 with no close.
func AlwaysOpen() []Period {
	return []Period{{Open: Point{Day: 0, Time: "0000"}}}
}

// IsOpen reports whether a venue with the given periods is open on date at
// the "HH:MM" time hhmm. No data means open. An unparseable query time is
// treated the same way, since there is nothing to check it against.
func IsOpen(periods []Period, date time.Time, hhmm string) bool {
	if len(periods) == 0 {
		return true
	}
	q, err := clock.TimeToMinutes(hhmm)
	if err != nil {
		return true
	}
	return isOpen(periods, int(date.Weekday()), q)
}

func isOpen(periods []Period, day, q int) bool {
	for _, p := range periods {
		if p.Close == nil {
			if p.Open.Day == 0 && p.Open.Time == "0000" {
				return true
			}
			continue
		}
		if matches(p, day, q) {
			return true
		}
	}
	return false
}

func matches(p Period, day, q int) bool {
	open, err := clock.TimeToMinutes(p.Open.Time)
	if err != nil {
		return false
	}
	closeAt, err := clock.TimeToMinutes(p.Close.Time)
	if err != nil {
		return false
	}
	openDay, closeDay := p.Open.Day%7, p.Close.Day%7

	if openDay == closeDay {
		if day != openDay {
			return false
		}
		if closeAt > open {
			return q >= open && q < closeAt
		}
		// Close at or before open on the same day wraps around the week.
		return q >= open || q < closeAt
	}

	// Overnight or multi-day span.
	if day == openDay {
		return q >= open
	}
	if day == closeDay {
		return q < closeAt
	}
	span := (closeDay - openDay + 7) % 7
	offset := (day - openDay + 7) % 7
	return offset > 0 && offset < span
}

// OpenAtMinute reports whether the venue is open minute minutes after
// midnight of date. Values past 24h land on the following day, so evening
// slots that run after midnight are checked against the right weekday.
func OpenAtMinute(periods []Period, date time.Time, minute int) bool {
	if len(periods) == 0 {
		return true
	}
	day := date.AddDate(0, 0, floorDiv(minute, clock.MinutesPerDay))
	return isOpen(periods, int(day.Weekday()), clock.Wrap(minute))
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}
