package oracle

import (
	"context"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/ports"
	"time"
)

const nextMorningHour = 9

// One transit request variant. Attempts run in order and stop at the first
// answer that contains transit steps.
type transitAttempt struct {
	label string
	apply func(req *ports.RouteRequest)
}

func transitAttempts() []transitAttempt {
	return []transitAttempt{
		{label: "requested", apply: func(*ports.RouteRequest) {}},
		{label: "next_morning", apply: func(req *ports.RouteRequest) {
			req.DepartureTime = nextMorning(req.DepartureTime)
		}},
	}
}

// nextMorning is 09:00 on the day after t, in t's location.
func nextMorning(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, nextMorningHour, 0, 0, 0, t.Location())
}

// resolveTransit walks the attempt list. Providers sometimes answer a
// transit request with a walking-only route; if every attempt does that the
// leg is estimated as a walk and marked simplified transit. If every attempt
// reports no route at all, the walk is an ordinary fallback.
func (o *Oracle) resolveTransit(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
	departAt time.Time,
) (estimate, error) {
	walkOnlyAnswer := false

	for _, attempt := range transitAttempts() {
		req := ports.RouteRequest{
			Origin:            from,
			Destination:       to,
			Mode:              domain.ModeTransit,
			DepartureTime:     departAt,
			TransitModes:      []string{ports.TransitModeSubway, ports.TransitModeTrain, ports.TransitModeBus},
			TransitPreference: ports.TransitPreferLessWalking,
		}
		attempt.apply(&req)

		res, err := o.route(ctx, req)
		if err != nil {
			if isAbort(err) {
				return estimate{}, err
			}
			o.logger.Debug().Err(err).Str("attempt", attempt.label).Msg("transit attempt returned no route")
			continue
		}

		if res.HasTransitSteps {
			return fromResult(res), nil
		}

		walkOnlyAnswer = true
		o.logger.Debug().Str("attempt", attempt.label).Msg("transit attempt returned no transit steps")
	}

	walk, err := o.walk(ctx, from, to, departAt)
	if err != nil {
		return estimate{}, err
	}
	if walk.infeasible {
		return walk, nil
	}

	if walkOnlyAnswer {
		walk.isSimplifiedTransit = true
	} else {
		walk.isFallback = true
	}
	return walk, nil
}
