package oracle

import (
	"itinerary-service/internal/domain"
	"math"
)

// Nominal door-to-door speeds used when no provider answer is available.
var nominalSpeedKmh = map[domain.TravelMode]float64{
	domain.ModeWalk:    4.8,
	domain.ModeBicycle: 15,
	domain.ModeDrive:   40,
	domain.ModeTransit: 20,
}

// Street networks are longer than the straight line between two points.
const detourFactor = 1.3

// EstimateByDistance estimates a leg from great-circle distance alone. The
// leg is always marked as a fallback.
func EstimateByDistance(origin, destination domain.Stop, mode domain.TravelMode) domain.Leg {
	meters := origin.Location.DistanceMeters(destination.Location) * detourFactor

	speed, ok := nominalSpeedKmh[mode]
	if !ok {
		speed = nominalSpeedKmh[domain.ModeWalk]
	}
	metersPerSecond := speed * 1000 / 3600

	return domain.Leg{
		OriginID:        origin.ID,
		DestinationID:   destination.ID,
		Mode:            mode,
		DurationSeconds: int(math.Round(meters / metersPerSecond)),
		DistanceMeters:  int(math.Round(meters)),
		IsFallback:      true,
	}
}

// DistanceLegs builds the full leg list of an order without a provider.
func DistanceLegs(stops []domain.Stop, mode domain.TravelMode) []domain.Leg {
	if len(stops) < 2 {
		return []domain.Leg{}
	}

	legs := make([]domain.Leg, 0, len(stops)-1)
	for i := 0; i+1 < len(stops); i++ {
		legs = append(legs, EstimateByDistance(stops[i], stops[i+1], mode))
	}
	return legs
}
