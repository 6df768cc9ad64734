package services

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/hours"
	"slices"
	"strings"
	"time"
)

// ErrStopSetMismatch is an internal error: a candidate order gained or lost
// a stop.
var ErrStopSetMismatch = errors.New("candidate stop set differs from input")

const maxCandidates = 3

// LegBuilder resolves every leg of an ordered stop list.
type LegBuilder interface {
	BuildLegs(
		ctx context.Context,
		stops []domain.Stop,
		mode domain.TravelMode,
		departure time.Time,
	) ([]domain.Leg, error)
}

// LegBuilderFunc adapts a function to LegBuilder.
type LegBuilderFunc func(ctx context.Context, stops []domain.Stop, mode domain.TravelMode, departure time.Time) ([]domain.Leg, error)

func (f LegBuilderFunc) BuildLegs(
	ctx context.Context,
	stops []domain.Stop,
	mode domain.TravelMode,
	departure time.Time,
) ([]domain.Leg, error) {
	return f(ctx, stops, mode, departure)
}

// ReorderResult is the best candidate found by ReorderSearch.
type ReorderResult struct {
	Stops   []domain.Stop
	Legs    []domain.Leg
	Timings []domain.VisitTiming
	Score   domain.Score

	// Position of the winner in generation order; 0 is the base order.
	CandidateIndex int
	Candidates     int
}

// Reordered reports whether a candidate other than the base order won.
func (r ReorderResult) Reordered() bool { return r.CandidateIndex > 0 }

// ReorderSearch tries a few alternative orders of base and keeps the one
// with the smallest score. Candidates are, in order: base itself, the swap
// of the two destinations when there are exactly three stops, and the
// destinations sorted by closing time. Duplicates are dropped.
//
// Candidates are evaluated one at a time. On equal scores the earlier
// candidate wins.
func ReorderSearch(
	ctx context.Context,
	builder LegBuilder,
	base []domain.Stop,
	mode domain.TravelMode,
	departure time.Time,
) (ReorderResult, error) {
	if builder == nil {
		return ReorderResult{}, errors.New("reorder search: leg builder must be non-nil")
	}

	candidates := reorderCandidates(base, departure)

	var (
		best  ReorderResult
		found bool
	)
	for i, candidate := range candidates {
		if !domain.SameStopSet(candidate, base) {
			return ReorderResult{}, fmt.Errorf("reorder search: candidate %d %v: %w", i, domain.StopIDs(candidate), ErrStopSetMismatch)
		}

		legs, err := builder.BuildLegs(ctx, candidate, mode, departure)
		if err != nil {
			return ReorderResult{}, fmt.Errorf("reorder search: build legs for candidate %d: %w", i, err)
		}

		timings, err := Simulate(candidate, legs, departure)
		if err != nil {
			return ReorderResult{}, fmt.Errorf("reorder search: candidate %d: %w", i, err)
		}

		score := domain.ScoreOf(legs, timings)
		if !found || score.Less(best.Score) {
			best = ReorderResult{
				Stops:          candidate,
				Legs:           legs,
				Timings:        timings,
				Score:          score,
				CandidateIndex: i,
			}
			found = true
		}
	}

	best.Candidates = len(candidates)
	return best, nil
}

// reorderCandidates generates the deduplicated candidate orders.
func reorderCandidates(base []domain.Stop, departure time.Time) [][]domain.Stop {
	generated := [][]domain.Stop{
		slices.Clone(base),
	}

	if len(base) == 3 {
		generated = append(generated, []domain.Stop{base[0], base[2], base[1]})
	}

	if len(base) > 2 {
		generated = append(generated, byClosingTime(base, departure))
	}

	seen := make(map[string]struct{}, len(generated))
	out := make([][]domain.Stop, 0, maxCandidates)
	for _, c := range generated {
		key := strings.Join(domain.StopIDs(c), "\x00")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
		if len(out) == maxCandidates {
			break
		}
	}
	return out
}

// byClosingTime keeps the start first and stable-sorts the rest by closing
// minute on the trip day. Stops without a known open window sort last.
func byClosingTime(base []domain.Stop, departure time.Time) []domain.Stop {
	type keyed struct {
		stop     domain.Stop
		hasClose bool
		close    int
	}

	rest := make([]keyed, 0, len(base)-1)
	for _, s := range base[1:] {
		w := hours.ResolveWindowForDate(s.OpeningHours, departure)
		rest = append(rest, keyed{stop: s, hasClose: w.IsOK(), close: w.CloseMinutes})
	}

	slices.SortStableFunc(rest, func(a, b keyed) int {
		switch {
		case a.hasClose && !b.hasClose:
			return -1
		case !a.hasClose && b.hasClose:
			return 1
		case !a.hasClose:
			return 0
		}
		return cmp.Compare(a.close, b.close)
	})

	out := make([]domain.Stop, 0, len(base))
	out = append(out, base[0])
	for _, k := range rest {
		out = append(out, k.stop)
	}
	return out
}
