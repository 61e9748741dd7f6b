// Package transit estimates travel between consecutive stops.
//
// Estimates are heuristic: great-circle distance with fixed average speeds.
// There is no routing.
package transit

import (
	"fmt"
	"math"

	"github.com/codeGROOVE-dev/tripweave/pkg/place"
)

// Mode is a means of travel.
type Mode string

// Travel modes.
const (
	Walking Mode = "walking"
	Driving Mode = "driving"
	Transit Mode = "transit"
)

// Average speeds in km/h.
const (
	WalkingSpeedKmh = 5.0
	DrivingSpeedKmh = 30.0
	TransitSpeedKmh = 15.0
)

// WalkingThresholdKm is the distance below which walking is chosen.
const WalkingThresholdKm = 1.5

const earthRadiusKm = 6371.0

// Details describes travel from one stop to the next.
type Details struct {
	Mode       Mode              `json:"mode"`
	Minutes    int               `json:"minutes"`
	DistanceKm float64           `json:"distance_km"`
	From       place.Coordinates `json:"from"`
	To         place.Coordinates `json:"to"`
}

// Note returns the short display form, e.g. "12 min walk".
func (d Details) Note() string {
	var verb string
	switch d.Mode {
	case Walking:
		verb = "walk"
	case Driving:
		verb = "drive"
	default:
		verb = "transit"
	}
	return fmt.Sprintf("%d min %s", d.Minutes, verb)
}

// Haversine returns the great-circle distance in kilometers.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Distance is Haversine between two coordinates.
func Distance(a, b place.Coordinates) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// ChooseMode picks walking under WalkingThresholdKm, otherwise driving.
func ChooseMode(distanceKm float64) Mode {
	if distanceKm < WalkingThresholdKm {
		return Walking
	}
	return Driving
}

// Speed returns the average speed for mode in km/h.
func Speed(mode Mode) float64 {
	switch mode {
	case Walking:
		return WalkingSpeedKmh
	case Driving:
		return DrivingSpeedKmh
	default:
		return TransitSpeedKmh
	}
}

// Minutes converts a distance into whole travel minutes, rounded up.
func Minutes(distanceKm float64, mode Mode) int {
	if distanceKm <= 0 {
		return 0
	}
	return int(math.Ceil(distanceKm / Speed(mode) * 60))
}

// Estimate returns travel details between two points using the mode heuristic.
func Estimate(from, to place.Coordinates) Details {
	dist := Distance(from, to)
	return EstimateWithMode(from, to, ChooseMode(dist))
}

// EstimateWithMode returns travel details for a caller-chosen mode.
func EstimateWithMode(from, to place.Coordinates, mode Mode) Details {
	dist := Distance(from, to)
	return Details{
		Mode:       mode,
		Minutes:    Minutes(dist, mode),
		DistanceKm: math.Round(dist*100) / 100,
		From:       from,
		To:         to,
	}
}

// Stop is an element of an ordered sequence whose travel-from-predecessor
// fields can be regenerated.
type Stop interface {
	Position() (place.Coordinates, bool)
	SetTransit(d *Details, note string)
}

// Recalculate re-derives transit for an entire sequence after it changed:
// the first stop's transit is cleared, every other stop gets transit from its
// new predecessor. Stops lacking coordinates on either side get none.
func Recalculate[S Stop](stops []S) {
	for i, s := range stops {
		if i == 0 {
			s.SetTransit(nil, "")
			continue
		}
		from, okFrom := stops[i-1].Position()
		to, okTo := s.Position()
		if !okFrom || !okTo {
			s.SetTransit(nil, "")
			continue
		}
		d := Estimate(from, to)
		s.SetTransit(&d, d.Note())
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
