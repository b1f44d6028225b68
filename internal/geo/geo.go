// Package geo provides the great-circle distance used to decide which
// radio sites can physically reach each other.
package geo

import (
	"math"

	"github.com/gridsignal/loraplan/internal/model"
)

// EarthRadiusKm is the mean Earth radius used for all planner geometry.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance between two coordinates in
// kilometres, via the haversine formula. Symmetric in its arguments;
// identical coordinates yield 0.
func Distance(a, b model.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lon1 := a.Lon * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	lon2 := b.Lon * math.Pi / 180

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}
