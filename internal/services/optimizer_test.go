package services

import (
	"context"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/oracle"
	"itinerary-service/internal/ports"
	"math"
	"sync/atomic"
	"testing"
	"time"
)

// fixedTimes answers from a "from|to" -> seconds table; missing pairs are
// infeasible.
type fixedTimes struct {
	seconds map[string]int
	err     error
	calls   atomic.Int64
}

func newFixedTimes(seconds map[string]int) *fixedTimes {
	return &fixedTimes{seconds: seconds}
}

func (f *fixedTimes) EstimateLegDuration(
	_ context.Context,
	origin domain.Stop,
	destination domain.Stop,
	_ domain.TravelMode,
	_ time.Time,
) (int, error) {
	f.calls.Add(1)
	if f.err != nil {
		return 0, f.err
	}
	s, ok := f.seconds[origin.ID+"|"+destination.ID]
	if !ok {
		return 0, fmt.Errorf("%s -> %s: %w", origin.ID, destination.ID, oracle.ErrInfeasible)
	}
	return s, nil
}

func (f *fixedTimes) BuildLegs(
	ctx context.Context,
	stops []domain.Stop,
	mode domain.TravelMode,
	departure time.Time,
) ([]domain.Leg, error) {
	legs := make([]domain.Leg, 0, len(stops))
	for i := 0; i+1 < len(stops); i++ {
		s, err := f.EstimateLegDuration(ctx, stops[i], stops[i+1], mode, departure)
		if err != nil {
			return nil, err
		}
		legs = append(legs, domain.Leg{
			OriginID:        stops[i].ID,
			DestinationID:   stops[i+1].ID,
			Mode:            mode,
			DurationSeconds: s,
		})
	}
	return legs, nil
}

func stop(id string, stay int, hours ...string) domain.Stop {
	return domain.NewStop(id, id, domain.Coordinates{}, hours, stay, false)
}

func TestOptimizeOrderGreedy(t *testing.T) {
	stops := []domain.Stop{stop("HUB", 0), stop("A", 0), stop("B", 0), stop("C", 0)}

	times := newFixedTimes(map[string]int{
		"HUB|A": 300, "HUB|B": 600, "HUB|C": 450,
		"A|B": 240, "A|C": 210,
		"B|C": 270, "C|B": 270,
		"B|A": 240, "C|A": 210,
	})

	depart := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	got, err := OptimizeOrder(context.Background(), times, stops, domain.ModeDrive, depart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"HUB", "A", "C", "B"}
	if ids := domain.StopIDs(got); fmt.Sprint(ids) != fmt.Sprint(want) {
		t.Fatalf("order = %v, want %v", ids, want)
	}
}

func TestOptimizeOrderTieBreaksByInputIndex(t *testing.T) {
	stops := []domain.Stop{stop("S", 0), stop("Z", 0), stop("Y", 0), stop("X", 0)}
	times := newFixedTimes(map[string]int{
		"S|Z": 100, "S|Y": 100, "S|X": 100,
		"Z|Y": 50, "Z|X": 50,
		"Y|X": 10, "X|Y": 10,
	})

	depart := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		got, err := OptimizeOrder(context.Background(), times, stops, domain.ModeWalk, depart)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ids := fmt.Sprint(domain.StopIDs(got)); ids != "[S Z Y X]" {
			t.Fatalf("run %d: order = %s, want [S Z Y X]", i, ids)
		}
	}
}

func TestOptimizeOrderAppendsUnreachableInInputOrder(t *testing.T) {
	stops := []domain.Stop{stop("S", 0), stop("A", 0), stop("B", 0), stop("C", 0)}
	times := newFixedTimes(map[string]int{"S|B": 60})

	got, err := OptimizeOrder(context.Background(), times, stops, domain.ModeWalk, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := fmt.Sprint(domain.StopIDs(got)); ids != "[S B A C]" {
		t.Fatalf("order = %s, want [S B A C]", ids)
	}
}

func TestOptimizeOrderHardErrorAborts(t *testing.T) {
	stops := []domain.Stop{stop("S", 0), stop("A", 0), stop("B", 0)}
	times := newFixedTimes(nil)
	times.err = &ports.ProviderHardError{Provider: "google", Status: "OVER_QUERY_LIMIT"}

	_, err := OptimizeOrder(context.Background(), times, stops, domain.ModeWalk, time.Now())
	if !ports.IsHardError(err) {
		t.Fatalf("expected hard error, got %v", err)
	}
}

func TestOptimizeOrderShortInputs(t *testing.T) {
	times := newFixedTimes(nil)
	for _, stops := range [][]domain.Stop{
		{stop("S", 0)},
		{stop("S", 0), stop("A", 0)},
	} {
		got, err := OptimizeOrder(context.Background(), times, stops, domain.ModeWalk, time.Now())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != len(stops) {
			t.Fatalf("len = %d, want %d", len(got), len(stops))
		}
	}
	if times.calls.Load() != 0 {
		t.Fatalf("expected no lookups, got %d", times.calls.Load())
	}
}

func TestOptimizeOrderByDistance(t *testing.T) {
	at := func(id string, lon float64) domain.Stop {
		return domain.NewStop(id, id, domain.Coordinates{Lon: lon, Lat: 35.0}, nil, 0, false)
	}
	stops := []domain.Stop{at("S", 139.00), at("FAR", 139.30), at("NEAR", 139.01), at("MID", 139.10)}

	got, err := OptimizeOrderByDistance(context.Background(), stops, domain.ModeWalk, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := fmt.Sprint(domain.StopIDs(got)); ids != "[S NEAR MID FAR]" {
		t.Fatalf("order = %s, want [S NEAR MID FAR]", ids)
	}
}

func TestOptimizeOrderByDistanceAntipodalStops(t *testing.T) {
	stops := []domain.Stop{
		domain.NewStop("S", "S", domain.Coordinates{Lon: 0, Lat: -88.5}, nil, 0, true),
		domain.NewStop("N1", "N1", domain.Coordinates{Lon: 180, Lat: 88.5}, nil, 0, false),
		domain.NewStop("N2", "N2", domain.Coordinates{Lon: 179.9, Lat: 88.5}, nil, 0, false),
	}

	got, err := OptimizeOrderByDistance(context.Background(), stops, domain.ModeWalk, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != len(stops) || got[0].ID != "S" {
		t.Fatalf("order = %v", domain.StopIDs(got))
	}
}

func TestOptimizeOrderByDistanceUncomparableDistances(t *testing.T) {
	nan := math.NaN()
	stops := []domain.Stop{
		domain.NewStop("S", "S", domain.Coordinates{Lon: nan, Lat: nan}, nil, 0, true),
		domain.NewStop("B", "B", domain.Coordinates{Lon: 1, Lat: 1}, nil, 0, false),
		domain.NewStop("C", "C", domain.Coordinates{Lon: 2, Lat: 2}, nil, 0, false),
	}

	got, err := OptimizeOrderByDistance(context.Background(), stops, domain.ModeWalk, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids := fmt.Sprint(domain.StopIDs(got)); ids != "[S B C]" {
		t.Fatalf("order = %s, want input order [S B C]", ids)
	}
}
