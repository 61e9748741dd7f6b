package transit

import (
	"math"
	"testing"

	"github.com/codeGROOVE-dev/tripweave/pkg/place"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
	}{
		{"same point", 48.8566, 2.3522, 48.8566, 2.3522, 0},
		{"paris to london", 48.8566, 2.3522, 51.5074, -0.1278, 343.5},
		{"one degree latitude", 0, 0, 1, 0, 111.19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.want) > 0.5 {
				t.Errorf("Haversine = %.2f, want %.2f", got, tt.want)
			}
		})
	}
}

func TestEstimateModeAndMinutes(t *testing.T) {
	origin := place.Coordinates{Lat: 40.0, Lng: -74.0}

	// ~1.0 km north: walk at 5 km/h = 12 min (rounded up).
	near := place.Coordinates{Lat: 40.0 + 1.0/111.19, Lng: -74.0}
	d := Estimate(origin, near)
	if d.Mode != Walking {
		t.Errorf("mode = %s, want walking", d.Mode)
	}
	if d.Minutes != 12 && d.Minutes != 13 {
		t.Errorf("minutes = %d, want ~12", d.Minutes)
	}
	if d.Note() != "12 min walk" && d.Note() != "13 min walk" {
		t.Errorf("note = %q", d.Note())
	}

	// ~4 km: drive at 30 km/h = 8 min.
	far := place.Coordinates{Lat: 40.0 + 4.0/111.19, Lng: -74.0}
	d = Estimate(origin, far)
	if d.Mode != Driving {
		t.Errorf("mode = %s, want driving", d.Mode)
	}
	if d.Minutes != 8 && d.Minutes != 9 {
		t.Errorf("minutes = %d, want ~8", d.Minutes)
	}
	if d.From != origin || d.To != far {
		t.Error("endpoints not recorded")
	}
}

func TestMinutesRoundsUp(t *testing.T) {
	if got := Minutes(0.01, Walking); got != 1 {
		t.Errorf("Minutes(0.01 km walking) = %d, want 1", got)
	}
	if got := Minutes(0, Driving); got != 0 {
		t.Errorf("Minutes(0) = %d, want 0", got)
	}
	if got := Minutes(15, Transit); got != 60 {
		t.Errorf("Minutes(15 km transit) = %d, want 60", got)
	}
}

type stop struct {
	at      place.Coordinates
	details *Details
	note    string
}

func (s *stop) Position() (place.Coordinates, bool) { return s.at, s.at.Valid() }

func (s *stop) SetTransit(d *Details, note string) {
	s.details = d
	s.note = note
}

func TestRecalculate(t *testing.T) {
	a := &stop{at: place.Coordinates{Lat: 1, Lng: 1}, note: "stale", details: &Details{}}
	b := &stop{at: place.Coordinates{Lat: 1.005, Lng: 1}}
	c := &stop{} // no coordinates
	d := &stop{at: place.Coordinates{Lat: 1.1, Lng: 1}}

	stops := []*stop{a, b, c, d}
	Recalculate(stops)

	if a.details != nil || a.note != "" {
		t.Error("first stop transit should be cleared")
	}
	if b.details == nil || b.details.Mode != Walking {
		t.Errorf("second stop should walk from first, got %+v", b.details)
	}
	if c.details != nil || d.details != nil {
		t.Error("stops next to a missing position should have no transit")
	}

	// Reorder: moving d to the front regenerates everyone from new neighbors.
	stops = []*stop{d, a, b}
	Recalculate(stops)
	if d.details != nil {
		t.Error("new first stop should have cleared transit")
	}
	if a.details == nil || a.details.Mode != Driving {
		t.Errorf("a should now drive from d, got %+v", a.details)
	}
}
