package domain

// Score ranks a candidate ordering; smaller is better, compared
// lexicographically field by field.
type Score struct {
	BadStopCount         int
	TotalOvertimeMinutes int
	TotalDurationSeconds int
}

func (s Score) Less(other Score) bool {
	if s.BadStopCount != other.BadStopCount {
		return s.BadStopCount < other.BadStopCount
	}
	if s.TotalOvertimeMinutes != other.TotalOvertimeMinutes {
		return s.TotalOvertimeMinutes < other.TotalOvertimeMinutes
	}
	return s.TotalDurationSeconds < other.TotalDurationSeconds
}

// ScoreOf derives the score of a simulated itinerary.
func ScoreOf(legs []Leg, timings []VisitTiming) Score {
	var s Score
	for _, t := range timings {
		if t.Status != StatusOK {
			s.BadStopCount++
		}
		s.TotalOvertimeMinutes += t.OvertimeMinutes
	}
	s.TotalDurationSeconds = TotalDurationSeconds(legs)
	return s
}

// Represents the planned itinerary returned to callers.
// It is immutable planning data: the chosen order, the legs between
// consecutive stops, and one timing per non-start stop.
type ItineraryPlan struct {
	OrderedStops      []Stop
	Legs              []Leg
	Timings           []VisitTiming
	UsedReorderSearch bool
	Score             Score
}
