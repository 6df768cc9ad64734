package domain

import "time"

// Feasibility status of a simulated visit.
type VisitStatus string

const (
	StatusOK               VisitStatus = "ok"
	StatusUnknown          VisitStatus = "unknown"
	StatusClosed           VisitStatus = "closed"
	StatusArriveAfterClose VisitStatus = "arrive_after_close"
	StatusNotEnoughTime    VisitStatus = "not_enough_time"
)

// Severity ranks statuses from ok (0) to closed (4).
func (s VisitStatus) Severity() int {
	switch s {
	case StatusClosed:
		return 4
	case StatusArriveAfterClose:
		return 3
	case StatusNotEnoughTime:
		return 2
	case StatusUnknown:
		return 1
	default:
		return 0
	}
}

// Represents the simulated visit of one non-start stop.
// RawArrival is the departure from the previous stop plus travel time;
// Arrival is RawArrival pushed forward to the opening time when the traveler
// has to wait outside. Departure is always Arrival plus StayMinutes.
type VisitTiming struct {
	StopID               string
	RawArrival           time.Time
	Arrival              time.Time
	WaitMinutes          int
	StayMinutes          int
	Departure            time.Time
	Status               VisitStatus
	OvertimeMinutes      int
	CloseMinutes         *int
	SuggestedStayMinutes *int
}

// WorstStatus returns the most severe status among timings, or ok when
// there are none.
func WorstStatus(timings []VisitTiming) VisitStatus {
	worst := StatusOK
	for _, t := range timings {
		if t.Status.Severity() > worst.Severity() {
			worst = t.Status
		}
	}
	return worst
}

// AllOK reports whether every timing has status ok.
func AllOK(timings []VisitTiming) bool {
	for _, t := range timings {
		if t.Status != StatusOK {
			return false
		}
	}
	return true
}
