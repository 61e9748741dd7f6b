// Package clock provides minute-based wall clock arithmetic.
// Times are "HH:MM" strings on a 24-hour clock; arithmetic wraps at midnight.
package clock

import (
	"errors"
	"fmt"
)

// MinutesPerDay is the length of the wall clock cycle.
const MinutesPerDay = 24 * 60

// ErrInvalidTime is returned for strings that are not a valid "HH:MM" or "HHMM" time.
var ErrInvalidTime = errors.New("invalid clock time")

// TimeToMinutes converts "HH:MM" to minutes since midnight.
// The compact "HHMM" form used by opening-hours data is accepted too.
func TimeToMinutes(s string) (int, error) {
	var hh, mm string
	switch len(s) {
	case 5:
		if s[2] != ':' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		hh, mm = s[:2], s[3:]
	case 4:
		hh, mm = s[:2], s[2:]
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	h, ok := twoDigits(hh)
	if !ok || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, ok := twoDigits(mm)
	if !ok || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return h*60 + m, nil
}

// MustMinutes is TimeToMinutes for compile-time constants. It panics on bad input.
func MustMinutes(s string) int {
	m, err := TimeToMinutes(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MinutesToTime formats minutes since midnight as "HH:MM", wrapping values
// outside a single day (including negatives) onto the clock.
func MinutesToTime(minutes int) string {
	m := Wrap(minutes)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// AddMinutesToTime adds delta minutes to an "HH:MM" time with rollover.
// AddMinutesToTime("23:30", 90) is "01:00".
func AddMinutesToTime(s string, delta int) (string, error) {
	m, err := TimeToMinutes(s)
	if err != nil {
		return "", err
	}
	return MinutesToTime(m + delta), nil
}

// Wrap folds any minute count into [0, MinutesPerDay).
func Wrap(minutes int) int {
	return ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
}

// Compact formats minutes as the "HHMM" form used in opening-hours periods.
func Compact(minutes int) string {
	m := Wrap(minutes)
	return fmt.Sprintf("%02d%02d", m/60, m%60)
}

func twoDigits(s string) (int, bool) {
	if len(s) != 2 {
		return 0, false
	}
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		n = n*10 + int(ch-'0')
	}
	return n, true
}
