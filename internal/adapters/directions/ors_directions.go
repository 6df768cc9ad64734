package directions

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/platform/obs"
	"itinerary-service/internal/ports"
	"math"
	"net/http"
	"strings"
)

const orsProviderName = "ors"

// OpenRouteService has no public transit profile; transit requests are
// answered with the walking route and no transit steps.
var orsProfiles = map[domain.TravelMode]string{
	domain.ModeWalk:    "foot-walking",
	domain.ModeDrive:   "driving-car",
	domain.ModeBicycle: "cycling-regular",
	domain.ModeTransit: "foot-walking",
}

// ORS error codes that mean "no route between these points".
var orsNoRouteCodes = map[int]struct{}{
	2004: {}, // route distance exceeds server limit
	2009: {}, // route could not be found
	2010: {}, // point not found / not routable
}

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Segments []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"segments"`
	} `json:"routes"`
}

type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ORSDirectionsProvider implements DirectionsProvider using the
// OpenRouteService directions endpoint.
type ORSDirectionsProvider struct {
	client  *httpClient
	apiKey  string
	baseURL string
}

func NewORSDirectionsProvider(apiKey string, opts ...Option) (*ORSDirectionsProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	cfg := defaultClientConfig("https://api.openrouteservice.org")
	for _, opt := range opts {
		opt(&cfg)
	}

	return &ORSDirectionsProvider{
		client:  newHTTPClient(orsProviderName, cfg),
		apiKey:  apiKey,
		baseURL: cfg.baseURL,
	}, nil
}

// Route retrieves distance and duration between two points using the
// OpenRouteService directions endpoint.
func (o *ORSDirectionsProvider) Route(ctx context.Context, req ports.RouteRequest) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	profile, ok := orsProfiles[req.Mode]
	if !ok {
		return ports.RouteResult{}, &ports.ProviderHardError{
			Provider: orsProviderName,
			Status:   "INVALID_REQUEST",
			Message:  fmt.Sprintf("unsupported travel mode %q", req.Mode),
		}
	}

	endpoint := fmt.Sprintf("%s/v2/directions/%s", o.baseURL, profile)

	payload, err := json.Marshal(directionsRequest{
		Coordinates: [][]float64{req.Origin.CoordsToList(), req.Destination.CoordsToList()},
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("marshal directions request: %w", err)
	}

	resp, err := o.client.doWithRetry(ctx, func() (*http.Request, error) {
		r, err := o.client.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Authorization", o.apiKey)
		return r, nil
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("directions request failed: %w", o.classify(err))
	}
	defer resp.Body.Close()

	var dr directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return ports.RouteResult{}, fmt.Errorf("decode directions response: %w", err)
	}

	if len(dr.Routes) == 0 {
		return ports.RouteResult{}, fmt.Errorf("ORS returned no routes: %w", ports.ErrNoRoute)
	}

	// Walking profile stands in for transit, so the step mode follows the profile.
	stepMode := req.Mode
	if req.Mode == domain.ModeTransit {
		stepMode = domain.ModeWalk
	}

	route := dr.Routes[0]

	// ORS returns float metrics; round to nearest integer for domain consistency.
	leg := ports.RouteLeg{
		DurationSeconds: int(math.Round(route.Summary.Duration)),
		DistanceMeters:  int(math.Round(route.Summary.Distance)),
	}
	for _, s := range route.Segments {
		leg.Steps = append(leg.Steps, ports.RouteStep{
			TravelMode:      stepMode,
			DurationSeconds: int(math.Round(s.Duration)),
			DistanceMeters:  int(math.Round(s.Distance)),
		})
	}

	return ports.RouteResult{Legs: []ports.RouteLeg{leg}, HasTransitSteps: false}, nil
}

func (o *ORSDirectionsProvider) classify(err error) error {
	err = o.client.classifyStatus(err)

	var he *httpStatusError
	if !errors.As(err, &he) || he.Code >= 500 {
		return err
	}

	var body orsErrorResponse
	if jsonErr := json.Unmarshal([]byte(he.Body), &body); jsonErr == nil {
		if _, ok := orsNoRouteCodes[body.Error.Code]; ok {
			return fmt.Errorf("ORS code %d: %s: %w", body.Error.Code, body.Error.Message, ports.ErrNoRoute)
		}
	}

	if he.Code == http.StatusNotFound {
		return fmt.Errorf("ORS %d: %w", he.Code, ports.ErrNoRoute)
	}

	return &ports.ProviderHardError{Provider: orsProviderName, Status: "INVALID_REQUEST", Message: he.Body}
}
