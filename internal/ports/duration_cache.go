package ports

import "context"

// Travel duration and distance stored for one cache key.
type CachedDuration struct {
	DurationSeconds     int
	DistanceMeters      int
	IsSimplifiedTransit bool
}

// Persistent second-tier cache for leg durations, shared across planner
// instances. Keys are built and normalized by the caller.
type DurationCache interface {
	// Return the cached entry and whether it was found.
	Get(ctx context.Context, key string) (CachedDuration, bool, error)
	Put(ctx context.Context, key string, v CachedDuration) error
}
