package oracle

import (
	"context"
	"errors"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/platform/obs"
	"time"
)

// BuildLegs resolves the legs of an accepted order, one per consecutive
// pair. Every pair is looked up with the trip departure time so the lookups
// reuse the optimizer's memo entries. An infeasible pair still yields a leg,
// estimated from great-circle distance and marked as a fallback, so the
// result always has len(stops)-1 legs.
func (o *Oracle) BuildLegs(
	ctx context.Context,
	stops []domain.Stop,
	mode domain.TravelMode,
	departure time.Time,
) (_ []domain.Leg, err error) {
	defer obs.Time(ctx, "oracle.BuildLegs")(&err)

	if len(stops) < 2 {
		return []domain.Leg{}, nil
	}

	legs := make([]domain.Leg, 0, len(stops)-1)
	for i := 0; i+1 < len(stops); i++ {
		from, to := stops[i], stops[i+1]

		leg, err := o.EstimateLeg(ctx, from, to, mode, departure)
		if errors.Is(err, ErrInfeasible) {
			leg = EstimateByDistance(from, to, mode)
			o.logger.Debug().Str("from", from.ID).Str("to", to.ID).Msg("leg infeasible; using distance estimate")
		} else if err != nil {
			return nil, fmt.Errorf("build legs: %w", err)
		}
		o.logger.Debug().Str("from", from.ID).Str("to", to.ID).Int("sec", leg.DurationSeconds).Str("via", Describe(leg)).Msg("leg resolved")

		legs = append(legs, leg)
	}

	return legs, nil
}
