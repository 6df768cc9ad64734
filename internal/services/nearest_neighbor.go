package services

import (
	"context"
	"fmt"
	"itinerary-service/internal/domain"
	"math"
	"time"
)

// Order stops by great-circle nearest neighbour.
//
// Used when no travel-time oracle is configured. It has the same contract as
// OptimizeOrder: stops[0] stays first and ties go to the lower input index.
// mode and departure are accepted for signature parity; straight-line
// distance does not depend on them.
func OptimizeOrderByDistance(
	ctx context.Context,
	stops []domain.Stop,
	mode domain.TravelMode,
	departure time.Time,
) ([]domain.Stop, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("optimize order by distance: %w", err)
	}

	if len(stops) <= 2 {
		return append([]domain.Stop(nil), stops...), nil
	}

	ordered := make([]domain.Stop, 0, len(stops))
	ordered = append(ordered, stops[0])

	visited := make([]bool, len(stops))
	visited[0] = true
	current := stops[0]

	for len(ordered) < len(stops) {
		best := -1
		minMeters := math.MaxFloat64

		// Select next stop by minimum distance (greedy step.)
		for i := 1; i < len(stops); i++ {
			if visited[i] {
				continue
			}
			meters := current.Location.DistanceMeters(stops[i].Location)
			// Strict comparison keeps ordering deterministic when distances are equal.
			if meters < minMeters {
				minMeters = meters
				best = i
			}
		}

		// Only a non-comparable distance leaves best unset; keep the rest in input order.
		if best < 0 {
			for i := 1; i < len(stops); i++ {
				if !visited[i] {
					ordered = append(ordered, stops[i])
				}
			}
			break
		}

		visited[best] = true
		current = stops[best]
		ordered = append(ordered, current)
	}

	return ordered, nil
}
