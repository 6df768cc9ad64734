package services

import (
	"context"
	"errors"
	"itinerary-service/internal/adapters/directions"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/oracle"
	"itinerary-service/internal/ports"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// Three stops where the travel-time order misses B's closing time but
// visiting C first keeps overtime lower.
func abcScenario() ([]domain.Stop, *fixedTimes) {
	stops := []domain.Stop{
		domain.NewStop("A", "Hotel", domain.Coordinates{}, nil, 0, true),
		stop("B", 120, daily("09:00-17:00")...),
		stop("C", 60, daily("09:00-21:00")...),
	}
	times := newFixedTimes(map[string]int{
		"A|B": 20 * 60,
		"A|C": 40 * 60,
		"B|C": 30 * 60,
		"C|B": 30 * 60,
	})
	return stops, times
}

func TestReorderCandidates_Dedup(t *testing.T) {
	stops, _ := abcScenario()

	cands := reorderCandidates(stops, monday(16, 0))
	require.Len(t, cands, 2)
	require.Equal(t, []string{"A", "B", "C"}, domain.StopIDs(cands[0]))
	require.Equal(t, []string{"A", "C", "B"}, domain.StopIDs(cands[1]))
}

func TestReorderCandidates_ClosingTimeOrder(t *testing.T) {
	base := []domain.Stop{
		stop("S", 0),
		stop("UNKNOWN", 30),
		stop("LATE", 30, daily("10:00-22:00")...),
		stop("CLOSED", 30, daily("Closed")...),
		stop("EARLY", 30, daily("08:00-15:00")...),
		stop("EARLY2", 30, daily("09:00-15:00")...),
	}

	cands := reorderCandidates(base, monday(9, 0))
	require.Len(t, cands, 2)
	require.Equal(t,
		[]string{"S", "EARLY", "EARLY2", "LATE", "UNKNOWN", "CLOSED"},
		domain.StopIDs(cands[1]),
	)
	for _, c := range cands {
		require.True(t, domain.SameStopSet(c, base))
	}
}

func TestReorderSearch_PicksLowerOvertime(t *testing.T) {
	stops, times := abcScenario()

	res, err := ReorderSearch(context.Background(), times, stops, domain.ModeWalk, monday(16, 0))
	require.NoError(t, err)

	require.Equal(t, []string{"A", "C", "B"}, domain.StopIDs(res.Stops))
	require.True(t, res.Reordered())
	require.Equal(t, 2, res.Candidates)
	require.Equal(t, domain.Score{BadStopCount: 1, TotalOvertimeMinutes: 70, TotalDurationSeconds: 70 * 60}, res.Score)

	require.Equal(t, domain.StatusOK, res.Timings[0].Status)
	require.Equal(t, domain.StatusArriveAfterClose, res.Timings[1].Status)
}

func TestReorderSearch_TieKeepsEarlierCandidate(t *testing.T) {
	stops := []domain.Stop{stop("S", 0), stop("X", 0), stop("Y", 0)}
	times := newFixedTimes(map[string]int{"S|X": 60, "X|Y": 60, "S|Y": 60, "Y|X": 60})

	res, err := ReorderSearch(context.Background(), times, stops, domain.ModeWalk, monday(9, 0))
	require.NoError(t, err)
	require.Equal(t, 0, res.CandidateIndex)
	require.Equal(t, []string{"S", "X", "Y"}, domain.StopIDs(res.Stops))
}

func TestReorderSearch_BuilderErrorPropagates(t *testing.T) {
	stops, times := abcScenario()
	times.err = &ports.ProviderHardError{Provider: "ors", Status: "REQUEST_DENIED"}

	_, err := ReorderSearch(context.Background(), times, stops, domain.ModeWalk, monday(16, 0))
	require.True(t, ports.IsHardError(err))
}

func TestPlanItinerary_ReordersForClosingTimes(t *testing.T) {
	stops, times := abcScenario()
	p := NewPlanner(times, zerolog.Nop())

	plan, err := p.PlanItinerary(context.Background(), stops, domain.ModeWalk, monday(16, 0))
	require.NoError(t, err)

	require.True(t, plan.UsedReorderSearch)
	require.Equal(t, []string{"A", "C", "B"}, domain.StopIDs(plan.OrderedStops))
	require.True(t, domain.SameStopSet(plan.OrderedStops, stops))
	require.Len(t, plan.Legs, len(plan.OrderedStops)-1)
	require.Len(t, plan.Timings, len(plan.OrderedStops)-1)
	require.NoError(t, domain.Itinerary{Stops: plan.OrderedStops, Legs: plan.Legs}.Validate())
	require.True(t, plan.OrderedStops[0].IsStart)
	require.Equal(t, 70, plan.Score.TotalOvertimeMinutes)
}

func TestPlanItinerary_FeasibleSkipsSearch(t *testing.T) {
	stops, times := abcScenario()
	p := NewPlanner(times, zerolog.Nop())

	plan, err := p.PlanItinerary(context.Background(), stops, domain.ModeWalk, monday(9, 0))
	require.NoError(t, err)
	require.False(t, plan.UsedReorderSearch)
	require.Equal(t, []string{"A", "B", "C"}, domain.StopIDs(plan.OrderedStops))
	require.True(t, domain.AllOK(plan.Timings))
}

func TestPlanItinerary_Deterministic(t *testing.T) {
	stops, times := abcScenario()
	p := NewPlanner(times, zerolog.Nop())

	first, err := p.PlanItinerary(context.Background(), stops, domain.ModeWalk, monday(16, 0))
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := p.PlanItinerary(context.Background(), stops, domain.ModeWalk, monday(16, 0))
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestPlanItinerary_SingleStop(t *testing.T) {
	p := NewPlanner(newFixedTimes(nil), zerolog.Nop())

	plan, err := p.PlanItinerary(context.Background(), []domain.Stop{stop("ONLY", 30)}, domain.ModeWalk, monday(9, 0))
	require.NoError(t, err)
	require.Len(t, plan.OrderedStops, 1)
	require.True(t, plan.OrderedStops[0].IsStart)
	require.Empty(t, plan.Legs)
	require.Empty(t, plan.Timings)
}

func TestPlanItinerary_InvalidInput(t *testing.T) {
	p := NewPlanner(nil, zerolog.Nop())

	tests := []struct {
		name  string
		stops []domain.Stop
		mode  domain.TravelMode
	}{
		{"no stops", nil, domain.ModeWalk},
		{"empty id", []domain.Stop{stop("S", 0), stop(" ", 0)}, domain.ModeWalk},
		{"duplicate id", []domain.Stop{stop("S", 0), stop("A", 0), stop("A", 0)}, domain.ModeWalk},
		{"second start", []domain.Stop{stop("S", 0), domain.NewStop("A", "A", domain.Coordinates{}, nil, 0, true)}, domain.ModeWalk},
		{"bad mode", []domain.Stop{stop("S", 0)}, domain.TravelMode("TELEPORT")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.PlanItinerary(context.Background(), tt.stops, tt.mode, monday(9, 0))
			require.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestPlanItinerary_HardErrorAborts(t *testing.T) {
	stops, times := abcScenario()
	times.err = &ports.ProviderHardError{Provider: "google", Status: "REQUEST_DENIED"}

	_, err := NewPlanner(times, zerolog.Nop()).PlanItinerary(context.Background(), stops, domain.ModeWalk, monday(16, 0))

	var he *ports.ProviderHardError
	require.ErrorAs(t, err, &he)
	require.Equal(t, "REQUEST_DENIED", he.Status)
}

func TestPlanItinerary_SoftErrorDegradesToDistance(t *testing.T) {
	stops, times := abcScenario()
	times.err = errors.New("provider hiccup")

	plan, err := NewPlanner(times, zerolog.Nop()).PlanItinerary(context.Background(), stops, domain.ModeWalk, monday(9, 0))
	require.NoError(t, err)
	require.True(t, domain.SameStopSet(plan.OrderedStops, stops))
	require.Len(t, plan.Legs, 2)
	for _, l := range plan.Legs {
		require.True(t, l.IsFallback)
	}
}

func TestPlanItinerary_WithoutOracle(t *testing.T) {
	at := func(id string, lon float64, stay int) domain.Stop {
		return domain.NewStop(id, id, domain.Coordinates{Lon: lon, Lat: 35.68}, daily("09:00-18:00"), stay, false)
	}
	stops := []domain.Stop{at("S", 139.70, 0), at("FAR", 139.80, 30), at("NEAR", 139.71, 30)}

	plan, err := NewPlanner(nil, zerolog.Nop()).PlanItinerary(context.Background(), stops, domain.ModeWalk, monday(9, 0))
	require.NoError(t, err)
	require.Equal(t, []string{"S", "NEAR", "FAR"}, domain.StopIDs(plan.OrderedStops))
	require.Len(t, plan.Legs, 2)
}

func TestPlanItinerary_CanceledContext(t *testing.T) {
	stops, _ := abcScenario()
	o, err := oracle.New(directions.NewMockDirectionsProvider(nil), zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewPlanner(o, zerolog.Nop()).PlanItinerary(ctx, stops, domain.ModeWalk, monday(9, 0))
	require.ErrorIs(t, err, context.Canceled)
}

func TestPlanItinerary_WithOracleAndMockProvider(t *testing.T) {
	hotel := domain.Coordinates{Lon: 139.7671, Lat: 35.6812}
	museum := domain.Coordinates{Lon: 139.7745, Lat: 35.7148}
	temple := domain.Coordinates{Lon: 139.7967, Lat: 35.7148}

	provider := directions.NewMockDirectionsProvider([]directions.MockRoute{
		{From: hotel, To: museum, Mode: domain.ModeTransit, Seconds: 20 * 60, Meters: 4000},
		{From: hotel, To: temple, Mode: domain.ModeTransit, Seconds: 40 * 60, Meters: 5000},
		{From: museum, To: temple, Mode: domain.ModeTransit, Seconds: 30 * 60, Meters: 2000, WalkOnly: true},
		{From: museum, To: temple, Mode: domain.ModeWalk, Seconds: 30 * 60, Meters: 2000},
		{From: temple, To: museum, Mode: domain.ModeTransit, Seconds: 30 * 60, Meters: 2000},
	})
	o, err := oracle.New(provider, zerolog.Nop())
	require.NoError(t, err)

	stops := []domain.Stop{
		domain.NewStop("A", "Hotel", hotel, nil, 0, true),
		domain.NewStop("B", "Museum", museum, daily("09:00-17:00"), 120, false),
		domain.NewStop("C", "Temple", temple, daily("09:00-21:00"), 60, false),
	}

	plan, err := NewPlanner(o, zerolog.Nop()).PlanItinerary(context.Background(), stops, domain.ModeTransit, monday(16, 0))
	require.NoError(t, err)
	require.Equal(t, []string{"A", "C", "B"}, domain.StopIDs(plan.OrderedStops))

	// The base order's B -> C leg was answered with walking only.
	base, err := o.EstimateLeg(context.Background(), stops[1], stops[2], domain.ModeTransit, monday(16, 0))
	require.NoError(t, err)
	require.True(t, base.IsSimplifiedTransit)
	require.False(t, plan.Legs[1].IsSimplifiedTransit)
}

func TestPlanItinerary_CandidateSetMatchesInput(t *testing.T) {
	stops := []domain.Stop{
		stop("S", 0),
		stop("A", 90, daily("09:00-12:00")...),
		stop("B", 60, daily("Closed")...),
		stop("C", 30, daily("10:00-11:00")...),
		stop("D", 30),
	}
	times := newFixedTimes(map[string]int{
		"S|A": 600, "S|B": 300, "S|C": 900, "S|D": 1200,
		"A|B": 300, "A|C": 300, "A|D": 300,
		"B|A": 300, "B|C": 600, "B|D": 300,
		"C|A": 300, "C|B": 300, "C|D": 300,
		"D|A": 300, "D|B": 300, "D|C": 300,
	})

	plan, err := NewPlanner(times, zerolog.Nop()).PlanItinerary(context.Background(), stops, domain.ModeDrive, monday(10, 0))
	require.NoError(t, err)
	require.True(t, plan.UsedReorderSearch)
	require.True(t, domain.SameStopSet(plan.OrderedStops, stops))
	require.Equal(t, "S", plan.OrderedStops[0].ID)
}
