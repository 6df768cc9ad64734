// Package oracle estimates travel time between stops on top of an external
// directions provider.
//
// An Oracle memoizes every answer it gives for the lifetime of the instance,
// retries transit requests that come back without transit steps, and
// degrades soft provider failures to walking estimates. Hard provider
// failures (authorization, quota) are always returned to the caller.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"itinerary-service/internal/domain"
	"itinerary-service/internal/platform/metrics"
	"itinerary-service/internal/ports"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrInfeasible means no estimate exists for the leg, not even a walking one.
var ErrInfeasible = errors.New("oracle: leg infeasible")

const (
	DefaultRounding  = 15 * time.Minute
	DefaultMemoLimit = 10000
)

// A shared lookup serves every caller waiting on its key, so it runs detached
// from any one caller's cancellation under this deadline instead.
const sharedLookupTimeout = 2 * time.Minute

type Option func(*Oracle)

// WithStore adds a persistent second-tier cache consulted on memo misses.
func WithStore(store ports.DurationCache) Option {
	return func(o *Oracle) { o.store = store }
}

// WithRounding sets the departure-time granularity of cache keys.
func WithRounding(d time.Duration) Option {
	return func(o *Oracle) {
		if d > 0 {
			o.rounding = d
		}
	}
}

// WithMemoLimit caps the number of memoized lookups. The least recently
// used entry is evicted first.
func WithMemoLimit(n int) Option {
	return func(o *Oracle) {
		if n > 0 {
			o.memoLimit = n
		}
	}
}

// Oracle is safe for concurrent use. Its memo is owned by the instance,
// bounded, and may be discarded between sessions by dropping the Oracle.
type Oracle struct {
	provider  ports.DirectionsProvider
	store     ports.DurationCache
	rounding  time.Duration
	memoLimit int
	logger    zerolog.Logger

	memo  *lru.Cache[cacheKey, estimate]
	group singleflight.Group
}

func New(provider ports.DirectionsProvider, logger zerolog.Logger, opts ...Option) (*Oracle, error) {
	if provider == nil {
		return nil, errors.New("new oracle: directions provider is nil")
	}

	o := &Oracle{
		provider:  provider,
		rounding:  DefaultRounding,
		memoLimit: DefaultMemoLimit,
		logger:    logger.With().Str("component", "oracle").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	memo, err := lru.New[cacheKey, estimate](o.memoLimit)
	if err != nil {
		return nil, fmt.Errorf("new oracle: %w", err)
	}
	o.memo = memo

	return o, nil
}

type cacheKey struct {
	mode        domain.TravelMode
	departure   int64
	origin      string
	destination string
}

func (k cacheKey) String() string {
	return fmt.Sprintf("%s|%d|%s|%s", k.mode, k.departure, k.origin, k.destination)
}

type estimate struct {
	durationSeconds     int
	distanceMeters      int
	isFallback          bool
	isSimplifiedTransit bool
	infeasible          bool
}

func (e estimate) leg(origin, destination domain.Stop, mode domain.TravelMode) domain.Leg {
	return domain.Leg{
		OriginID:            origin.ID,
		DestinationID:       destination.ID,
		Mode:                mode,
		DurationSeconds:     e.durationSeconds,
		DistanceMeters:      e.distanceMeters,
		IsFallback:          e.isFallback,
		IsSimplifiedTransit: e.isSimplifiedTransit,
	}
}

func (o *Oracle) roundDeparture(t time.Time) time.Time {
	return t.Round(o.rounding)
}

// MemoSize reports how many distinct lookups are memoized.
func (o *Oracle) MemoSize() int {
	return o.memo.Len()
}

// EstimateLeg returns the leg from origin to destination for mode, departing
// at departure. It returns ErrInfeasible when no estimate exists, a
// *ports.ProviderHardError for provider misconfiguration, and the context
// error when ctx is done.
func (o *Oracle) EstimateLeg(
	ctx context.Context,
	origin domain.Stop,
	destination domain.Stop,
	mode domain.TravelMode,
	departure time.Time,
) (domain.Leg, error) {
	if origin.Location == destination.Location {
		return domain.Leg{OriginID: origin.ID, DestinationID: destination.ID, Mode: mode}, nil
	}

	departAt := o.roundDeparture(departure)
	key := cacheKey{
		mode:        mode,
		departure:   departAt.Unix(),
		origin:      origin.Location.Key(),
		destination: destination.Location.Key(),
	}

	if e, ok := o.memo.Get(key); ok {
		metrics.OracleLookups.WithLabelValues(string(mode), "memo_hit").Inc()
		return o.result(e, origin, destination, mode)
	}

	wrap := func(err error) error {
		return fmt.Errorf("estimate leg %s -> %s (%s): %w", origin.ID, destination.ID, mode, err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Leg{}, wrap(err)
	}

	// A waiter whose own context is live retries once when the shared call
	// ended on a context error.
	for attempt := 0; ; attempt++ {
		ch := o.group.DoChan(key.String(), func() (any, error) {
			if e, ok := o.memo.Get(key); ok {
				return e, nil
			}

			lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
			defer cancel()

			e, err := o.resolve(lookupCtx, key, origin.Location, destination.Location, mode, departAt)
			if err != nil {
				return estimate{}, err
			}

			o.memo.Add(key, e)
			return e, nil
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return domain.Leg{}, wrap(ctx.Err())
		case res = <-ch:
		}

		if res.Err != nil {
			if isContextError(res.Err) && ctx.Err() == nil && attempt == 0 {
				continue
			}
			if ports.IsHardError(res.Err) {
				metrics.OracleLookups.WithLabelValues(string(mode), "hard_error").Inc()
			}
			return domain.Leg{}, wrap(res.Err)
		}

		return o.result(res.Val.(estimate), origin, destination, mode)
	}
}

func (o *Oracle) result(e estimate, origin, destination domain.Stop, mode domain.TravelMode) (domain.Leg, error) {
	if e.infeasible {
		return domain.Leg{}, fmt.Errorf("estimate leg %s -> %s (%s): %w", origin.ID, destination.ID, mode, ErrInfeasible)
	}
	return e.leg(origin, destination, mode), nil
}

// EstimateLegDuration is EstimateLeg reduced to the duration in seconds.
func (o *Oracle) EstimateLegDuration(
	ctx context.Context,
	origin domain.Stop,
	destination domain.Stop,
	mode domain.TravelMode,
	departure time.Time,
) (int, error) {
	leg, err := o.EstimateLeg(ctx, origin, destination, mode, departure)
	if err != nil {
		return 0, err
	}
	return leg.DurationSeconds, nil
}

func (o *Oracle) resolve(
	ctx context.Context,
	key cacheKey,
	from domain.Coordinates,
	to domain.Coordinates,
	mode domain.TravelMode,
	departAt time.Time,
) (estimate, error) {
	if o.store != nil {
		cached, ok, err := o.store.Get(ctx, key.String())
		if err != nil {
			o.logger.Warn().Err(err).Str("key", key.String()).Msg("duration cache read failed")
		} else if ok {
			metrics.OracleLookups.WithLabelValues(string(mode), "store_hit").Inc()
			return estimate{
				durationSeconds:     cached.DurationSeconds,
				distanceMeters:      cached.DistanceMeters,
				isSimplifiedTransit: cached.IsSimplifiedTransit,
			}, nil
		}
	}

	var (
		e   estimate
		err error
	)
	if mode == domain.ModeTransit {
		e, err = o.resolveTransit(ctx, from, to, departAt)
	} else {
		e, err = o.resolveDirect(ctx, from, to, mode, departAt)
	}
	if err != nil {
		return estimate{}, err
	}

	metrics.OracleLookups.WithLabelValues(string(mode), outcome(e)).Inc()

	if o.store != nil && !e.infeasible && !e.isFallback {
		err := o.store.Put(ctx, key.String(), ports.CachedDuration{
			DurationSeconds:     e.durationSeconds,
			DistanceMeters:      e.distanceMeters,
			IsSimplifiedTransit: e.isSimplifiedTransit,
		})
		if err != nil {
			o.logger.Warn().Err(err).Str("key", key.String()).Msg("duration cache write failed")
		}
	}

	return e, nil
}

func outcome(e estimate) string {
	switch {
	case e.infeasible:
		return "infeasible"
	case e.isSimplifiedTransit:
		return "simplified_transit"
	case e.isFallback:
		return "fallback"
	default:
		return "provider"
	}
}

// resolveDirect queries the requested mode and falls back to walking when
// the provider has no route for it.
func (o *Oracle) resolveDirect(
	ctx context.Context,
	from domain.Coordinates,
	to domain.Coordinates,
	mode domain.TravelMode,
	departAt time.Time,
) (estimate, error) {
	res, err := o.route(ctx, ports.RouteRequest{
		Origin:        from,
		Destination:   to,
		Mode:          mode,
		DepartureTime: departAt,
	})
	if err == nil {
		return fromResult(res), nil
	}
	if isAbort(err) {
		return estimate{}, err
	}

	o.logger.Debug().Err(err).Str("mode", string(mode)).Str("from", from.Key()).Str("to", to.Key()).Msg("no route for mode")
	if mode == domain.ModeWalk {
		return estimate{infeasible: true}, nil
	}

	walk, err := o.walk(ctx, from, to, departAt)
	if err != nil {
		return estimate{}, err
	}
	if !walk.infeasible {
		walk.isFallback = true
	}
	return walk, nil
}

// walk returns a WALK estimate; soft failures make it infeasible.
func (o *Oracle) walk(ctx context.Context, from, to domain.Coordinates, departAt time.Time) (estimate, error) {
	res, err := o.route(ctx, ports.RouteRequest{
		Origin:        from,
		Destination:   to,
		Mode:          domain.ModeWalk,
		DepartureTime: departAt,
	})
	if err == nil {
		return fromResult(res), nil
	}
	if isAbort(err) {
		return estimate{}, err
	}

	o.logger.Debug().Err(err).Str("from", from.Key()).Str("to", to.Key()).Msg("walking fallback unavailable")
	return estimate{infeasible: true}, nil
}

func (o *Oracle) route(ctx context.Context, req ports.RouteRequest) (ports.RouteResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.RouteResult{}, err
	}

	res, err := o.provider.Route(ctx, req)
	if err != nil {
		return ports.RouteResult{}, err
	}
	if len(res.Legs) == 0 {
		return ports.RouteResult{}, fmt.Errorf("route %s: empty result: %w", req.Mode, ports.ErrNoRoute)
	}
	return res, nil
}

func fromResult(res ports.RouteResult) estimate {
	return estimate{
		durationSeconds: res.TotalDurationSeconds(),
		distanceMeters:  res.TotalDistanceMeters(),
	}
}

// isAbort reports errors that must reach the caller unchanged: hard
// provider failures and cancellation.
func isAbort(err error) bool {
	return ports.IsHardError(err) || isContextError(err)
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Describe renders a leg's provenance for logs.
func Describe(leg domain.Leg) string {
	var tags []string
	if leg.IsFallback {
		tags = append(tags, "fallback")
	}
	if leg.IsSimplifiedTransit {
		tags = append(tags, "simplified_transit")
	}
	if len(tags) == 0 {
		return string(leg.Mode)
	}
	return string(leg.Mode) + "[" + strings.Join(tags, ",") + "]"
}
