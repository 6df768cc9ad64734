package directions

import (
	"context"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/ports"
	"sync"
)

// MockRoute is one fixed answer of MockDirectionsProvider.
// WalkOnly makes a TRANSIT route come back without transit steps.
type MockRoute struct {
	From, To domain.Coordinates
	Mode     domain.TravelMode
	Meters   int
	Seconds  int
	WalkOnly bool
	Err      error
}

// MockDirectionsProvider answers from a fixed route table. Unknown pairs
// report ErrNoRoute. It is safe for concurrent use.
type MockDirectionsProvider struct {
	m map[string]MockRoute

	mu       sync.Mutex
	requests []ports.RouteRequest
}

func mockKey(from, to domain.Coordinates, mode domain.TravelMode) string {
	return from.Key() + "|" + to.Key() + "|" + string(mode)
}

func NewMockDirectionsProvider(routes []MockRoute) *MockDirectionsProvider {
	m := make(map[string]MockRoute, len(routes))
	for _, r := range routes {
		m[mockKey(r.From, r.To, r.Mode)] = r
	}
	return &MockDirectionsProvider{m: m}
}

func (p *MockDirectionsProvider) Route(ctx context.Context, req ports.RouteRequest) (ports.RouteResult, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ports.RouteResult{}, err
	}

	r, ok := p.m[mockKey(req.Origin, req.Destination, req.Mode)]
	if !ok {
		return ports.RouteResult{}, fmt.Errorf("missing route %q -> %q (%s): %w",
			req.Origin.Key(), req.Destination.Key(), req.Mode, ports.ErrNoRoute)
	}
	if r.Err != nil {
		return ports.RouteResult{}, r.Err
	}

	stepMode := req.Mode
	hasTransit := req.Mode == domain.ModeTransit && !r.WalkOnly
	if req.Mode == domain.ModeTransit && r.WalkOnly {
		stepMode = domain.ModeWalk
	}

	return ports.RouteResult{
		Legs: []ports.RouteLeg{{
			DurationSeconds: r.Seconds,
			DistanceMeters:  r.Meters,
			Steps:           []ports.RouteStep{{TravelMode: stepMode, DurationSeconds: r.Seconds, DistanceMeters: r.Meters}},
		}},
		HasTransitSteps: hasTransit,
	}, nil
}

// Requests returns a copy of every request received so far.
func (p *MockDirectionsProvider) Requests() []ports.RouteRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.RouteRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

func (p *MockDirectionsProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}
