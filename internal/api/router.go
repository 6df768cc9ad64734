package api

import (
	"itinerary-service/internal/api/handlers"
	"itinerary-service/internal/platform/metrics"
	"net/http"

	"github.com/rs/zerolog"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(itineraries *handlers.ItineraryHandler, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handlers.Health)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/itineraries", itineraries.Plan)

	return requestContext(logger, loggingMiddleware(mux))
}
