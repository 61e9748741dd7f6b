package hours

import (
	"testing"
	"time"
)

// 2024-06-01 is a Saturday.
var (
	saturday = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	sunday   = saturday.AddDate(0, 0, 1)
	monday   = saturday.AddDate(0, 0, 2)
)

func TestIsOpenNoData(t *testing.T) {
	if !IsOpen(nil, saturday, "04:00") {
		t.Error("venue without hours should be treated as open")
	}
}

func TestIsOpenAlwaysOpen(t *testing.T) {
	for _, q := range []string{"00:00", "03:15", "23:59"} {
		if !IsOpen(AlwaysOpen(), monday, q) {
			t.Errorf("24h venue closed at %s", q)
		}
	}
}

func TestIsOpenOvernight(t *testing.T) {
	periods := []Period{{
		Open:  Point{Day: 6, Time: "2200"},
		Close: &Point{Day: 0, Time: "0200"},
	}}
	tests := []struct {
		name string
		date time.Time
		at   string
		want bool
	}{
		{"saturday 23:00", saturday, "23:00", true},
		{"saturday open time", saturday, "22:00", true},
		{"saturday before open", saturday, "21:59", false},
		{"sunday 01:00", sunday, "01:00", true},
		{"sunday at close", sunday, "02:00", false},
		{"sunday 03:00", sunday, "03:00", false},
		{"monday 23:00", monday, "23:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOpen(periods, tt.date, tt.at); got != tt.want {
				t.Errorf("IsOpen(%s %s) = %v, want %v", tt.date.Weekday(), tt.at, got, tt.want)
			}
		})
	}
}

func TestIsOpenSameDay(t *testing.T) {
	periods := []Period{
		{Open: Point{Day: 1, Time: "0900"}, Close: &Point{Day: 1, Time: "1700"}},
		{Open: Point{Day: 6, Time: "1000"}, Close: &Point{Day: 6, Time: "1400"}},
	}
	tests := []struct {
		date time.Time
		at   string
		want bool
	}{
		{monday, "09:00", true},
		{monday, "16:59", true},
		{monday, "17:00", false},
		{monday, "08:59", false},
		{saturday, "12:00", true},
		{saturday, "15:00", false},
		{sunday, "12:00", false},
	}
	for _, tt := range tests {
		if got := IsOpen(periods, tt.date, tt.at); got != tt.want {
			t.Errorf("IsOpen(%s %s) = %v, want %v", tt.date.Weekday(), tt.at, got, tt.want)
		}
	}
}

func TestIsOpenMultiDaySpan(t *testing.T) {
	// Friday 18:00 through Sunday 02:00.
	periods := []Period{{Open: Point{Day: 5, Time: "1800"}, Close: &Point{Day: 0, Time: "0200"}}}
	if !IsOpen(periods, saturday, "12:00") {
		t.Error("venue should be open on the day inside the span")
	}
	if IsOpen(periods, monday, "12:00") {
		t.Error("venue should be closed outside the span")
	}
}

func TestIsOpenMalformedPeriod(t *testing.T) {
	periods := []Period{{Open: Point{Day: 1, Time: "9am"}, Close: &Point{Day: 1, Time: "1700"}}}
	if IsOpen(periods, monday, "10:00") {
		t.Error("malformed period should not match")
	}
	// A period without close that is not the 24h marker never matches.
	if IsOpen([]Period{{Open: Point{Day: 1, Time: "0900"}}}, monday, "10:00") {
		t.Error("open-ended non-24h period should not match")
	}
}

func TestOpenAtMinutePastMidnight(t *testing.T) {
	periods := []Period{{Open: Point{Day: 6, Time: "2200"}, Close: &Point{Day: 0, Time: "0200"}}}
	// 25:00 on Saturday is Sunday 01:00.
	if !OpenAtMinute(periods, saturday, 25*60) {
		t.Error("expected open at Saturday+25h")
	}
	if OpenAtMinute(periods, saturday, 27*60) {
		t.Error("expected closed at Saturday+27h")
	}
}

