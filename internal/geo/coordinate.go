// Package geo provides coordinate types and great-circle distance helpers
// used by proximity scoring.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// Coordinate is a resolved latitude/longitude pair in degrees.
// Values are immutable once resolved; pass by value.
type Coordinate struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Valid reports whether the coordinate lies within the WGS84 degree ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// String renders the coordinate as "lat,lng" with six decimals.
func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// DistanceKm returns the great-circle distance between a and b in kilometers
// using the haversine formula.
func DistanceKm(a, b Coordinate) float64 {
	const rad = math.Pi / 180

	dLat := (b.Latitude - a.Latitude) * rad
	dLon := (b.Longitude - a.Longitude) * rad
	lat1 := a.Latitude * rad
	lat2 := b.Latitude * rad

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	// Rounding can push h marginally above 1 for antipodal points.
	if h > 1 {
		h = 1
	}
	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
