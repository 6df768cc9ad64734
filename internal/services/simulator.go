package services

import (
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/hours"
	"time"
)

const minSuggestedStayMinutes = 15

// Simulate walks an ordered itinerary with a running clock and reports
// when each non-start stop is reached, how long the traveler waits, and
// whether the visit fits the stop's opening hours for that day.
//
// The trip day is departure's calendar date in departure's location. A stop
// reached after that day ends is arrive_after_close without consulting its
// hours. Departure from a stop is always arrival plus stay, even when the
// visit overruns closing time.
//
// The only error is a stops/legs mismatch.
func Simulate(
	orderedStops []domain.Stop,
	legs []domain.Leg,
	departure time.Time,
) ([]domain.VisitTiming, error) {
	if err := (domain.Itinerary{Stops: orderedStops, Legs: legs}).Validate(); err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	if len(orderedStops) < 2 {
		return []domain.VisitTiming{}, nil
	}

	loc := departure.Location()
	endOfTripDay := startOfDay(departure).AddDate(0, 0, 1)

	timings := make([]domain.VisitTiming, 0, len(orderedStops)-1)
	clock := departure

	for i, stop := range orderedStops[1:] {
		rawArrival := clock.Add(legs[i].Duration()).In(loc)
		stay := max(stop.StayMinutes, 0)

		timing := domain.VisitTiming{
			StopID:      stop.ID,
			RawArrival:  rawArrival,
			Arrival:     rawArrival,
			StayMinutes: stay,
			Status:      domain.StatusOK,
		}

		if !rawArrival.Before(endOfTripDay) {
			timing.Status = domain.StatusArriveAfterClose
			timing.OvertimeMinutes = ceilMinutes(rawArrival.Sub(endOfTripDay))
		} else {
			evaluateWindow(&timing, hours.ResolveWindowForDate(stop.OpeningHours, rawArrival))
		}

		timing.Departure = timing.Arrival.Add(time.Duration(stay) * time.Minute)
		clock = timing.Departure

		timings = append(timings, timing)
	}

	return timings, nil
}

// evaluateWindow applies one day's window to a timing whose RawArrival and
// StayMinutes are set.
func evaluateWindow(t *domain.VisitTiming, w domain.BusinessHoursWindow) {
	switch w.Kind {
	case domain.WindowUnknown:
		t.Status = domain.StatusUnknown
		return
	case domain.WindowClosed:
		t.Status = domain.StatusClosed
		return
	}

	midnight := startOfDay(t.RawArrival)
	openAt := midnight.Add(time.Duration(w.OpenMinutes) * time.Minute)
	closeAt := midnight.Add(time.Duration(w.CloseMinutes) * time.Minute)

	closeMinutes := w.CloseMinutes
	t.CloseMinutes = &closeMinutes

	if t.RawArrival.Before(openAt) {
		t.Arrival = openAt
		t.WaitMinutes = ceilMinutes(openAt.Sub(t.RawArrival))
	}

	leaveAt := t.Arrival.Add(time.Duration(t.StayMinutes) * time.Minute)

	switch {
	case !t.Arrival.Before(closeAt):
		t.Status = domain.StatusArriveAfterClose
		t.OvertimeMinutes = ceilMinutes(t.Arrival.Sub(closeAt))
	case leaveAt.After(closeAt):
		t.Status = domain.StatusNotEnoughTime
		t.OvertimeMinutes = ceilMinutes(leaveAt.Sub(closeAt))
		suggested := max(minSuggestedStayMinutes, t.StayMinutes-t.OvertimeMinutes)
		t.SuggestedStayMinutes = &suggested
	default:
		t.Status = domain.StatusOK
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ceilMinutes rounds a non-negative duration up to whole minutes.
func ceilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}
