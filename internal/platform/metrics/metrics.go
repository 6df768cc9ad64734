package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// OracleLookups counts leg-duration lookups by travel mode and how they were answered.
	OracleLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "itinerary_oracle_lookups_total", Help: "Leg duration lookups by mode and outcome."},
		[]string{"mode", "outcome"},
	)
	// ProviderRequests counts outbound directions calls by provider and result.
	ProviderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "itinerary_provider_requests_total", Help: "Directions provider requests by provider and result."},
		[]string{"provider", "result"},
	)
	// PlanDuration tracks end-to-end itinerary planning latency in seconds.
	PlanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "itinerary_plan_duration_seconds", Help: "Itinerary planning duration in seconds.", Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}},
	)
	// ReorderSearches counts reorder search runs by whether an alternative order won.
	ReorderSearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "itinerary_reorder_search_total", Help: "Candidate reorder searches by outcome."},
		[]string{"outcome"},
	)
)

var regOnce sync.Once

// RegisterDefault registers the service collectors on Registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(OracleLookups)
		Registry.MustRegister(ProviderRequests)
		Registry.MustRegister(PlanDuration)
		Registry.MustRegister(ReorderSearches)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
