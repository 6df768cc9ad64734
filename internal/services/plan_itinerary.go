package services

import (
	"context"
	"errors"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/oracle"
	"itinerary-service/internal/platform/metrics"
	"itinerary-service/internal/platform/obs"
	"itinerary-service/internal/ports"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrInvalidInput wraps every validation failure of PlanItinerary.
var ErrInvalidInput = errors.New("invalid itinerary input")

// TravelTimes is the oracle surface the planner depends on.
type TravelTimes interface {
	LegEstimator
	LegBuilder
}

// Planner turns a set of stops into an ordered, time-checked itinerary.
// It holds no per-request state and is safe for concurrent use.
type Planner struct {
	times  TravelTimes
	logger zerolog.Logger
}

// NewPlanner builds a planner on top of times. A nil times plans with
// great-circle estimates only.
func NewPlanner(times TravelTimes, logger zerolog.Logger) *Planner {
	return &Planner{
		times:  times,
		logger: logger.With().Str("component", "planner").Logger(),
	}
}

// PlanItinerary orders stops, resolves the legs of that order, simulates
// the visits and, when any visit is not ok, searches a few alternative
// orders for a better one.
//
// stops[0] is the trip start. Only provider hard errors and context
// cancellation abort planning; any other lookup trouble degrades to
// distance-based estimates.
func (p *Planner) PlanItinerary(
	ctx context.Context,
	stops []domain.Stop,
	mode domain.TravelMode,
	departure time.Time,
) (_ *domain.ItineraryPlan, err error) {
	defer obs.Time(ctx, "planner.PlanItinerary")(&err)

	start := time.Now()
	defer func() { metrics.PlanDuration.Observe(time.Since(start).Seconds()) }()

	input, err := validateStops(stops, mode)
	if err != nil {
		return nil, err
	}

	log := p.logger.With().Str("req_id", obs.RequestID(ctx)).Str("mode", string(mode)).Logger()

	order, err := p.optimize(ctx, input, mode, departure, log)
	if err != nil {
		return nil, fmt.Errorf("plan itinerary: %w", err)
	}

	legs, err := p.buildLegs(ctx, order, mode, departure, log)
	if err != nil {
		return nil, fmt.Errorf("plan itinerary: %w", err)
	}

	timings, err := Simulate(order, legs, departure)
	if err != nil {
		return nil, fmt.Errorf("plan itinerary: %w", err)
	}

	plan := &domain.ItineraryPlan{
		OrderedStops: order,
		Legs:         legs,
		Timings:      timings,
		Score:        domain.ScoreOf(legs, timings),
	}

	if domain.AllOK(timings) {
		log.Debug().Int("stops", len(order)).Msg("itinerary feasible as ordered")
		return plan, nil
	}

	res, err := ReorderSearch(ctx, p.legBuilder(), order, mode, departure)
	if err != nil {
		metrics.ReorderSearches.WithLabelValues("error").Inc()
		if isAbort(err) || errors.Is(err, ErrStopSetMismatch) {
			return nil, fmt.Errorf("plan itinerary: %w", err)
		}
		log.Warn().Err(err).Msg("reorder search failed; keeping optimized order")
		plan.UsedReorderSearch = true
		return plan, nil
	}

	outcome := "kept"
	if res.Reordered() {
		outcome = "reordered"
	}
	metrics.ReorderSearches.WithLabelValues(outcome).Inc()

	log.Debug().
		Str("outcome", outcome).
		Int("candidates", res.Candidates).
		Int("bad_stops", res.Score.BadStopCount).
		Int("overtime_min", res.Score.TotalOvertimeMinutes).
		Str("worst", string(domain.WorstStatus(res.Timings))).
		Msg("reorder search complete")

	return &domain.ItineraryPlan{
		OrderedStops:      res.Stops,
		Legs:              res.Legs,
		Timings:           res.Timings,
		UsedReorderSearch: true,
		Score:             res.Score,
	}, nil
}

func (p *Planner) optimize(
	ctx context.Context,
	stops []domain.Stop,
	mode domain.TravelMode,
	departure time.Time,
	log zerolog.Logger,
) ([]domain.Stop, error) {
	if p.times == nil {
		return OptimizeOrderByDistance(ctx, stops, mode, departure)
	}

	order, err := OptimizeOrder(ctx, p.times, stops, mode, departure)
	if err == nil {
		return order, nil
	}
	if isAbort(err) {
		return nil, err
	}

	log.Warn().Err(err).Msg("travel-time ordering failed; ordering by distance")
	return OptimizeOrderByDistance(ctx, stops, mode, departure)
}

func (p *Planner) buildLegs(
	ctx context.Context,
	order []domain.Stop,
	mode domain.TravelMode,
	departure time.Time,
	log zerolog.Logger,
) ([]domain.Leg, error) {
	if p.times == nil {
		return oracle.DistanceLegs(order, mode), nil
	}

	legs, err := p.times.BuildLegs(ctx, order, mode, departure)
	if err == nil {
		return legs, nil
	}
	if isAbort(err) {
		return nil, err
	}

	log.Warn().Err(err).Msg("leg lookup failed; using distance estimates")
	return oracle.DistanceLegs(order, mode), nil
}

func (p *Planner) legBuilder() LegBuilder {
	if p.times != nil {
		return p.times
	}
	return LegBuilderFunc(func(_ context.Context, stops []domain.Stop, mode domain.TravelMode, _ time.Time) ([]domain.Leg, error) {
		return oracle.DistanceLegs(stops, mode), nil
	})
}

// validateStops checks the input and returns a private copy with the start
// flag normalized: stops[0] is the start and nothing else is.
func validateStops(stops []domain.Stop, mode domain.TravelMode) ([]domain.Stop, error) {
	if len(stops) == 0 {
		return nil, fmt.Errorf("%w: at least one stop is required", ErrInvalidInput)
	}

	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unsupported travel mode %q", ErrInvalidInput, mode)
	}

	seen := make(map[string]struct{}, len(stops))
	out := make([]domain.Stop, 0, len(stops))
	for i, s := range stops {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: stop %d has an empty id", ErrInvalidInput, i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: duplicate stop id %q", ErrInvalidInput, id)
		}
		seen[id] = struct{}{}

		if i > 0 && s.IsStart {
			return nil, fmt.Errorf("%w: stop %q is marked as start but is not first", ErrInvalidInput, id)
		}

		out = append(out, domain.NewStop(id, s.Name, s.Location, s.OpeningHours, s.StayMinutes, i == 0))
	}

	return out, nil
}

// isAbort reports errors that end planning: provider hard errors and
// cancellation.
func isAbort(err error) bool {
	return ports.IsHardError(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
