package domain

import (
	"fmt"
	"strings"
)

// TravelMode selects how a traveler moves between two stops.
type TravelMode string

const (
	ModeWalk    TravelMode = "WALK"
	ModeDrive   TravelMode = "DRIVE"
	ModeBicycle TravelMode = "BICYCLE"
	ModeTransit TravelMode = "TRANSIT"
)

// Valid reports whether m is one of the canonical modes.
func (m TravelMode) Valid() bool {
	switch m {
	case ModeWalk, ModeDrive, ModeBicycle, ModeTransit:
		return true
	}
	return false
}

// ParseTravelMode accepts a mode name in any letter case.
func ParseTravelMode(s string) (TravelMode, error) {
	switch m := TravelMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModeWalk, ModeDrive, ModeBicycle, ModeTransit:
		return m, nil
	case "WALKING":
		return ModeWalk, nil
	case "DRIVING":
		return ModeDrive, nil
	case "BICYCLING", "CYCLING":
		return ModeBicycle, nil
	default:
		return "", fmt.Errorf("parse travel mode: unsupported mode %q", s)
	}
}

// Represents a point the traveler visits.
// A Stop is a value type; the opening hours slice is copied on construction
// so callers cannot mutate a Stop after handing it to the planner.
type Stop struct {
	ID           string
	Name         string
	Location     Coordinates
	OpeningHours []string
	StayMinutes  int
	IsStart      bool
}

func NewStop(id, name string, loc Coordinates, openingHours []string, stayMinutes int, isStart bool) Stop {
	hours := make([]string, len(openingHours))
	copy(hours, openingHours)

	if stayMinutes < 0 {
		stayMinutes = 0
	}

	return Stop{
		ID:           id,
		Name:         name,
		Location:     loc,
		OpeningHours: hours,
		StayMinutes:  stayMinutes,
		IsStart:      isStart,
	}
}

// StopIDs returns the ids of stops in order.
func StopIDs(stops []Stop) []string {
	ids := make([]string, 0, len(stops))
	for _, s := range stops {
		ids = append(ids, s.ID)
	}
	return ids
}

// SameStopSet reports whether a and b contain the same stop ids with the
// same multiplicity.
func SameStopSet(a, b []Stop) bool {
	if len(a) != len(b) {
		return false
	}

	counts := make(map[string]int, len(a))
	for _, s := range a {
		counts[s.ID]++
	}
	for _, s := range b {
		counts[s.ID]--
	}
	for _, n := range counts {
		if n != 0 {
			return false
		}
	}
	return true
}
