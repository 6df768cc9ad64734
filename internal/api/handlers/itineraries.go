package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"itinerary-service/internal/api/dto"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/ports"
	"itinerary-service/internal/services"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const defaultMaxStops = 10

// ItineraryPlanner is the planning surface the handler depends on.
type ItineraryPlanner interface {
	PlanItinerary(ctx context.Context, stops []domain.Stop, mode domain.TravelMode, departure time.Time) (*domain.ItineraryPlan, error)
}

type ItineraryHandler struct {
	Planner  ItineraryPlanner
	Clock    ports.Clock
	MaxStops int
}

// Plan validates the request, runs the planner and maps its errors onto
// HTTP status codes: 400 for invalid input, 502 when the directions
// provider refuses service, 500 otherwise.
func (h *ItineraryHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.ItineraryRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	mode, err := domain.ParseTravelMode(req.Mode)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "mode must be one of WALK, DRIVE, BICYCLE, TRANSIT")
		return
	}

	maxStops := h.MaxStops
	if maxStops <= 0 {
		maxStops = defaultMaxStops
	}
	if len(req.Stops) < 1 || len(req.Stops) > maxStops {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("stops must contain between 1 and %d entries", maxStops))
		return
	}

	stops := make([]domain.Stop, 0, len(req.Stops))
	for i, s := range req.Stops {
		if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180 {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("stop %d has out-of-range coordinates", i))
			return
		}
		if s.StayMinutes < 0 {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("stop %d has negative stay_minutes", i))
			return
		}
		stops = append(stops, domain.NewStop(
			s.ID,
			s.Name,
			domain.Coordinates{Lon: s.Lon, Lat: s.Lat},
			s.OpeningHours,
			s.StayMinutes,
			s.IsStart,
		))
	}

	clock := h.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}
	depart := clock.Now()
	if req.DepartAt != nil {
		depart = *req.DepartAt
	}

	plan, err := h.Planner.PlanItinerary(r.Context(), stops, mode, depart)
	if err != nil {
		logger := zerolog.Ctx(r.Context())

		var he *ports.ProviderHardError
		switch {
		case errors.Is(err, services.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		case errors.As(err, &he):
			logger.Error().Err(err).Str("provider", he.Provider).Str("status", he.Status).Msg("directions provider refused request")
			writeError(w, r, http.StatusBadGateway, "directions provider error: "+he.Status)
		default:
			logger.Error().Err(err).Msg("plan itinerary failed")
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, toItineraryResponse(plan, mode, depart))
}

func toItineraryResponse(plan *domain.ItineraryPlan, mode domain.TravelMode, depart time.Time) dto.ItineraryResponse {
	res := dto.ItineraryResponse{
		Mode:              string(mode),
		DepartAt:          depart,
		OrderedStops:      domain.StopIDs(plan.OrderedStops),
		Stops:             make([]dto.StopResponse, 0, len(plan.OrderedStops)),
		Legs:              make([]dto.LegResponse, 0, len(plan.Legs)),
		Timings:           make([]dto.TimingResponse, 0, len(plan.Timings)),
		UsedReorderSearch: plan.UsedReorderSearch,
		Score: dto.ScoreResponse{
			BadStopCount:         plan.Score.BadStopCount,
			TotalOvertimeMinutes: plan.Score.TotalOvertimeMinutes,
			TotalDurationSeconds: plan.Score.TotalDurationSeconds,
		},
	}

	for _, s := range plan.OrderedStops {
		res.Stops = append(res.Stops, dto.StopResponse{
			ID:          s.ID,
			Name:        s.Name,
			Lat:         s.Location.Lat,
			Lon:         s.Location.Lon,
			StayMinutes: s.StayMinutes,
			IsStart:     s.IsStart,
		})
	}

	for _, l := range plan.Legs {
		res.Legs = append(res.Legs, dto.LegResponse{
			From:                l.OriginID,
			To:                  l.DestinationID,
			Mode:                string(l.Mode),
			DurationSeconds:     l.DurationSeconds,
			DistanceMeters:      l.DistanceMeters,
			IsFallback:          l.IsFallback,
			IsSimplifiedTransit: l.IsSimplifiedTransit,
		})
	}

	for _, t := range plan.Timings {
		res.Timings = append(res.Timings, dto.TimingResponse{
			StopID:               t.StopID,
			RawArrival:           t.RawArrival,
			Arrival:              t.Arrival,
			WaitMinutes:          t.WaitMinutes,
			StayMinutes:          t.StayMinutes,
			Departure:            t.Departure,
			Status:               string(t.Status),
			OvertimeMinutes:      t.OvertimeMinutes,
			CloseMinutes:         t.CloseMinutes,
			SuggestedStayMinutes: t.SuggestedStayMinutes,
		})
	}

	return res
}
