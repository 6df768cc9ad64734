package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/platform/obs"
	"itinerary-service/internal/ports"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const googleProviderName = "google"

var googleModes = map[domain.TravelMode]string{
	domain.ModeWalk:    "walking",
	domain.ModeDrive:   "driving",
	domain.ModeBicycle: "bicycling",
	domain.ModeTransit: "transit",
}

var googleStepModes = map[string]domain.TravelMode{
	"WALKING":   domain.ModeWalk,
	"DRIVING":   domain.ModeDrive,
	"BICYCLING": domain.ModeBicycle,
	"TRANSIT":   domain.ModeTransit,
}

type googleValue struct {
	Value float64 `json:"value"`
}

type googleResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Legs []struct {
			Duration googleValue `json:"duration"`
			Distance googleValue `json:"distance"`
			Steps    []struct {
				TravelMode string      `json:"travel_mode"`
				Duration   googleValue `json:"duration"`
				Distance   googleValue `json:"distance"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// GoogleDirectionsProvider implements DirectionsProvider using the Google
// Directions JSON API.
//
// It coordinates:
//   - Request construction per travel mode (transit modes and routing preference)
//   - Rate limiting and retry/backoff of transient HTTP failures
//   - Mapping of API statuses onto hard errors and ErrNoRoute
//
// The provider is safe for concurrent use.
type GoogleDirectionsProvider struct {
	client  *httpClient
	apiKey  string
	baseURL string
	now     func() time.Time
}

func NewGoogleDirectionsProvider(apiKey string, opts ...Option) (*GoogleDirectionsProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google directions api key is empty")
	}

	cfg := defaultClientConfig("https://maps.googleapis.com")
	for _, opt := range opts {
		opt(&cfg)
	}

	return &GoogleDirectionsProvider{
		client:  newHTTPClient(googleProviderName, cfg),
		apiKey:  apiKey,
		baseURL: cfg.baseURL,
		now:     cfg.now,
	}, nil
}

// Route fetches the first route between the request's locations.
// UNKNOWN_ERROR answers are retried once before giving up.
func (g *GoogleDirectionsProvider) Route(ctx context.Context, req ports.RouteRequest) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "google.Route")(&err)

	mode, ok := googleModes[req.Mode]
	if !ok {
		return ports.RouteResult{}, &ports.ProviderHardError{
			Provider: googleProviderName,
			Status:   "INVALID_REQUEST",
			Message:  fmt.Sprintf("unsupported travel mode %q", req.Mode),
		}
	}

	endpoint := g.baseURL + "/maps/api/directions/json?" + g.query(req, mode).Encode()

	const maxUnknownAttempts = 2
	for attempt := 1; ; attempt++ {
		res, err := g.fetch(ctx, endpoint)
		if errors.Is(err, errGoogleUnknown) && attempt < maxUnknownAttempts {
			continue
		}
		return res, err
	}
}

func (g *GoogleDirectionsProvider) query(req ports.RouteRequest, mode string) url.Values {
	q := url.Values{}
	q.Set("origin", req.Origin.Key())
	q.Set("destination", req.Destination.Key())
	q.Set("mode", mode)
	q.Set("key", g.apiKey)

	// The API rejects departure times in the past.
	if !req.DepartureTime.IsZero() && req.DepartureTime.After(g.now()) {
		q.Set("departure_time", strconv.FormatInt(req.DepartureTime.Unix(), 10))
	} else if req.Mode == domain.ModeTransit || req.Mode == domain.ModeDrive {
		q.Set("departure_time", "now")
	}

	if req.Mode == domain.ModeTransit {
		if len(req.TransitModes) > 0 {
			q.Set("transit_mode", strings.Join(req.TransitModes, "|"))
		}
		if req.TransitPreference != "" {
			q.Set("transit_routing_preference", req.TransitPreference)
		}
	}

	return q
}

var errGoogleUnknown = errors.New("google: UNKNOWN_ERROR")

func (g *GoogleDirectionsProvider) fetch(ctx context.Context, endpoint string) (ports.RouteResult, error) {
	resp, err := g.client.doWithRetry(ctx, func() (*http.Request, error) {
		return g.client.newRequest(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("directions request failed: %w", g.classify(err))
	}
	defer resp.Body.Close()

	var decoded googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.RouteResult{}, fmt.Errorf("decode directions response: %w", err)
	}

	switch decoded.Status {
	case "OK":
	case "ZERO_RESULTS", "NOT_FOUND", "MAX_ROUTE_LENGTH_EXCEEDED":
		return ports.RouteResult{}, fmt.Errorf("google %s: %w", decoded.Status, ports.ErrNoRoute)
	case "REQUEST_DENIED", "OVER_QUERY_LIMIT", "OVER_DAILY_LIMIT", "INVALID_REQUEST":
		return ports.RouteResult{}, &ports.ProviderHardError{
			Provider: googleProviderName,
			Status:   decoded.Status,
			Message:  decoded.ErrorMessage,
		}
	case "UNKNOWN_ERROR":
		return ports.RouteResult{}, errGoogleUnknown
	default:
		return ports.RouteResult{}, fmt.Errorf("unexpected directions status %q", decoded.Status)
	}

	if len(decoded.Routes) == 0 || len(decoded.Routes[0].Legs) == 0 {
		return ports.RouteResult{}, fmt.Errorf("google OK without routes: %w", ports.ErrNoRoute)
	}

	out := ports.RouteResult{}
	for _, l := range decoded.Routes[0].Legs {
		leg := ports.RouteLeg{
			DurationSeconds: int(l.Duration.Value),
			DistanceMeters:  int(l.Distance.Value),
			Steps:           make([]ports.RouteStep, 0, len(l.Steps)),
		}
		for _, s := range l.Steps {
			mode := googleStepModes[s.TravelMode]
			if mode == domain.ModeTransit {
				out.HasTransitSteps = true
			}
			leg.Steps = append(leg.Steps, ports.RouteStep{
				TravelMode:      mode,
				DurationSeconds: int(s.Duration.Value),
				DistanceMeters:  int(s.Distance.Value),
			})
		}
		out.Legs = append(out.Legs, leg)
	}

	return out, nil
}

// Google answers 4xx only for malformed endpoints or keys; all of them are
// configuration problems.
func (g *GoogleDirectionsProvider) classify(err error) error {
	err = g.client.classifyStatus(err)

	var he *httpStatusError
	if errors.As(err, &he) && he.Code >= 400 && he.Code < 500 {
		return &ports.ProviderHardError{Provider: googleProviderName, Status: "INVALID_REQUEST", Message: he.Body}
	}
	return err
}
