package discovery

import (
	"math"

	"github.com/codeGROOVE-dev/tripweave/pkg/place"
)

const kmPerDegreeLat = 111.32

// Zones returns the search centers around center: center itself, then the
// eight compass points N, NE, E, SE, S, SW, W, NW at radiusKm.
func Zones(center place.Coordinates, radiusKm float64) []place.Coordinates {
	zones := make([]place.Coordinates, 0, 9)
	zones = append(zones, center)
	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	for i := range 8 {
		bearing := float64(i) * 45 * math.Pi / 180
		dLat := radiusKm * math.Cos(bearing) / kmPerDegreeLat
		dLng := radiusKm * math.Sin(bearing) / (kmPerDegreeLat * cosLat)
		zones = append(zones, place.Coordinates{
			Lat: center.Lat + dLat,
			Lng: wrapLng(center.Lng + dLng),
		})
	}
	return zones
}

func wrapLng(lng float64) float64 {
	switch {
	case lng > 180:
		return lng - 360
	case lng < -180:
		return lng + 360
	default:
		return lng
	}
}
