package services

import (
	"context"
	"errors"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/oracle"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

// LegEstimator answers travel-time lookups between two stops.
// Implementations report oracle.ErrInfeasible for pairs without any route.
type LegEstimator interface {
	EstimateLegDuration(
		ctx context.Context,
		origin domain.Stop,
		destination domain.Stop,
		mode domain.TravelMode,
		departure time.Time,
	) (int, error)
}

// Order stops using a greedy nearest-next heuristic over travel time.
//
// stops[0] is pinned as the start. Each step looks up the travel time from
// the current stop to every remaining stop concurrently and moves to the
// fastest one. It does not attempt global optimization (no 2-opt); the
// design prioritizes determinism and simplicity over optimality.
//
// Every lookup uses the trip departure so answers are shared with the
// later leg lookups of the accepted order.
func OptimizeOrder(
	ctx context.Context,
	estimator LegEstimator,
	stops []domain.Stop,
	mode domain.TravelMode,
	departure time.Time,
) ([]domain.Stop, error) {
	if estimator == nil {
		return nil, errors.New("optimize order: estimator must be non-nil")
	}

	if len(stops) <= 2 {
		return append([]domain.Stop(nil), stops...), nil
	}

	ordered := make([]domain.Stop, 0, len(stops))
	ordered = append(ordered, stops[0])

	// Kept in original relative order so ties and stalls resolve by index.
	remaining := append([]domain.Stop(nil), stops[1:]...)
	current := stops[0]

	for len(remaining) > 0 {
		durations := make([]int, len(remaining))
		feasible := make([]bool, len(remaining))

		g, gctx := errgroup.WithContext(ctx)
		for i, candidate := range remaining {
			i, candidate := i, candidate
			g.Go(func() error {
				seconds, err := estimator.EstimateLegDuration(gctx, current, candidate, mode, departure)
				if errors.Is(err, oracle.ErrInfeasible) {
					return nil
				}
				if err != nil {
					return err
				}
				durations[i] = seconds
				feasible[i] = true
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("optimize order: lookups from %q: %w", current.ID, err)
		}

		best := -1
		for i := range remaining {
			if !feasible[i] {
				continue
			}
			// Strict comparison keeps the lower original index on ties.
			if best < 0 || durations[i] < durations[best] {
				best = i
			}
		}

		// Nothing reachable from here: keep the rest in input order.
		if best < 0 {
			ordered = append(ordered, remaining...)
			break
		}

		current = remaining[best]
		ordered = append(ordered, current)
		remaining = slices.Delete(remaining, best, best+1)
	}

	return ordered, nil
}
