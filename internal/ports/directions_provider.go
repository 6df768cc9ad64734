package ports

import (
	"context"
	"itinerary-service/internal/domain"
	"time"
)

// Transit request options used when Mode is TRANSIT.
const (
	TransitModeSubway = "subway"
	TransitModeTrain  = "train"
	TransitModeBus    = "bus"

	TransitPreferLessWalking = "less_walking"
)

// One directions query between two locations.
type RouteRequest struct {
	Origin        domain.Coordinates
	Destination   domain.Coordinates
	Mode          domain.TravelMode
	DepartureTime time.Time
	// Restricts TRANSIT requests to these vehicle types; empty means any.
	TransitModes      []string
	TransitPreference string
}

type RouteStep struct {
	TravelMode      domain.TravelMode
	DurationSeconds int
	DistanceMeters  int
}

type RouteLeg struct {
	DurationSeconds int
	DistanceMeters  int
	Steps           []RouteStep
}

// Provider answer for a RouteRequest. HasTransitSteps is false when a
// TRANSIT request was silently answered with walking only.
type RouteResult struct {
	Legs            []RouteLeg
	HasTransitSteps bool
}

// TotalDurationSeconds sums all legs of the route.
func (r RouteResult) TotalDurationSeconds() int {
	total := 0
	for _, l := range r.Legs {
		total += l.DurationSeconds
	}
	return total
}

func (r RouteResult) TotalDistanceMeters() int {
	total := 0
	for _, l := range r.Legs {
		total += l.DistanceMeters
	}
	return total
}

// Contract for retrieving a route between two locations from an external
// directions service.
//
// Implementations return *ProviderHardError for authorization, quota and
// configuration failures, and an error wrapping ErrNoRoute when the service
// has no route for the requested mode.
type DirectionsProvider interface {
	Route(ctx context.Context, req RouteRequest) (RouteResult, error)
}
