package clock

import (
	"errors"
	"testing"
)

func TestTimeToMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"08:00", 480},
		{"19:30", 1170},
		{"23:59", 1439},
		{"0930", 570}, // compact opening-hours form
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := TimeToMinutes(tt.in)
			if err != nil {
				t.Fatalf("TimeToMinutes(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("TimeToMinutes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestTimeToMinutesInvalid(t *testing.T) {
	for _, in := range []string{"", "8:00", "24:00", "12:60", "ab:cd", "12-30", "123", "12:3x"} {
		if _, err := TimeToMinutes(in); !errors.Is(err, ErrInvalidTime) {
			t.Errorf("TimeToMinutes(%q) error = %v, want ErrInvalidTime", in, err)
		}
	}
}

func TestRoundTripEveryMinute(t *testing.T) {
	for m := range MinutesPerDay {
		s := MinutesToTime(m)
		back, err := TimeToMinutes(s)
		if err != nil {
			t.Fatalf("TimeToMinutes(%q) error = %v", s, err)
		}
		if MinutesToTime(back) != s {
			t.Fatalf("round trip of %q gave %q", s, MinutesToTime(back))
		}
	}
}

func TestAddMinutesToTime(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		delta int
		want  string
	}{
		{"rollover past midnight", "23:30", 90, "01:00"},
		{"same day", "09:00", 75, "10:15"},
		{"negative wraps back", "00:30", -60, "23:30"},
		{"full day is identity", "13:45", MinutesPerDay, "13:45"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AddMinutesToTime(tt.in, tt.delta)
			if err != nil {
				t.Fatalf("AddMinutesToTime error = %v", err)
			}
			if got != tt.want {
				t.Errorf("AddMinutesToTime(%q, %d) = %q, want %q", tt.in, tt.delta, got, tt.want)
			}
		})
	}
}

func TestCompact(t *testing.T) {
	if got := Compact(MustMinutes("22:00") + 240); got != "0200" {
		t.Errorf("Compact = %q, want 0200", got)
	}
}
