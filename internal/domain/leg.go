package domain

import (
	"fmt"
	"time"
)

// Represents the travel segment between two consecutive stops.
// IsFallback marks a leg whose requested mode had no route and was
// estimated as a walk instead. IsSimplifiedTransit marks a TRANSIT request
// for which the provider returned no transit steps.
type Leg struct {
	OriginID            string
	DestinationID       string
	Mode                TravelMode
	DurationSeconds     int
	DistanceMeters      int
	IsFallback          bool
	IsSimplifiedTransit bool
}

func (l Leg) Duration() time.Duration {
	return time.Duration(l.DurationSeconds) * time.Second
}

// Ordered stops plus the legs connecting consecutive stops.
type Itinerary struct {
	Stops []Stop
	Legs  []Leg
}

// Validate checks len(Legs) == len(Stops)-1 and that each leg connects the
// stops at its position.
func (it Itinerary) Validate() error {
	if len(it.Stops) == 0 {
		if len(it.Legs) != 0 {
			return fmt.Errorf("validate itinerary: %d legs for empty stop list", len(it.Legs))
		}
		return nil
	}

	if len(it.Legs) != len(it.Stops)-1 {
		return fmt.Errorf(
			"validate itinerary: legs=%d stops=%d, want legs == stops-1",
			len(it.Legs), len(it.Stops),
		)
	}

	for i, leg := range it.Legs {
		from, to := it.Stops[i].ID, it.Stops[i+1].ID
		if leg.OriginID != from || leg.DestinationID != to {
			return fmt.Errorf(
				"validate itinerary: leg %d connects %q -> %q, want %q -> %q",
				i, leg.OriginID, leg.DestinationID, from, to,
			)
		}
	}

	return nil
}

// TotalDurationSeconds sums travel time over all legs.
func TotalDurationSeconds(legs []Leg) int {
	total := 0
	for _, l := range legs {
		total += l.DurationSeconds
	}
	return total
}
