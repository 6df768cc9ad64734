package domain

import (
	"fmt"
	"math"
)

const earthRadiusMeters = 6371000.0

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Key returns a stable "lat,lon" representation used for cache keys and
// provider query parameters.
func (c Coordinates) Key() string { return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon) }

// Great-circle (haversine) distance between two points in meters.
func (c Coordinates) DistanceMeters(other Coordinates) float64 {
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLon := (other.Lon - c.Lon) * math.Pi / 180
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a past 1 for near-antipodal points.
	a = min(max(a, 0), 1)
	return earthRadiusMeters * 2 * math.Asin(math.Sqrt(a))
}
