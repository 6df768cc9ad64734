package dto

import "time"

type StopRequest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	OpeningHours []string `json:"opening_hours"`
	StayMinutes  int      `json:"stay_minutes"`
	IsStart      bool     `json:"is_start"`
}

type ItineraryRequest struct {
	Mode     string        `json:"mode"`
	DepartAt *time.Time    `json:"depart_at"`
	Stops    []StopRequest `json:"stops"`
}

type StopResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	StayMinutes int     `json:"stay_minutes"`
	IsStart     bool    `json:"is_start"`
}

type LegResponse struct {
	From                string `json:"from"`
	To                  string `json:"to"`
	Mode                string `json:"mode"`
	DurationSeconds     int    `json:"duration_seconds"`
	DistanceMeters      int    `json:"distance_meters"`
	IsFallback          bool   `json:"is_fallback"`
	IsSimplifiedTransit bool   `json:"is_simplified_transit"`
}

type TimingResponse struct {
	StopID               string    `json:"stop_id"`
	RawArrival           time.Time `json:"raw_arrival"`
	Arrival              time.Time `json:"arrival"`
	WaitMinutes          int       `json:"wait_minutes"`
	StayMinutes          int       `json:"stay_minutes"`
	Departure            time.Time `json:"departure"`
	Status               string    `json:"status"`
	OvertimeMinutes      int       `json:"overtime_minutes"`
	CloseMinutes         *int      `json:"close_minutes,omitempty"`
	SuggestedStayMinutes *int      `json:"suggested_stay_minutes,omitempty"`
}

type ScoreResponse struct {
	BadStopCount         int `json:"bad_stop_count"`
	TotalOvertimeMinutes int `json:"total_overtime_minutes"`
	TotalDurationSeconds int `json:"total_duration_seconds"`
}

type ItineraryResponse struct {
	Mode              string           `json:"mode"`
	DepartAt          time.Time        `json:"depart_at"`
	OrderedStops      []string         `json:"ordered_stops"`
	Stops             []StopResponse   `json:"stops"`
	Legs              []LegResponse    `json:"legs"`
	Timings           []TimingResponse `json:"timings"`
	UsedReorderSearch bool             `json:"used_reorder_search"`
	Score             ScoreResponse    `json:"score"`
}
