package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"itinerary-service/internal/platform/obs"
	"itinerary-service/internal/ports"
	"strings"
	"time"
)

// SQLDurationCache is a Postgres-backed cache of resolved leg durations,
// keyed by the oracle's lookup key.
type SQLDurationCache struct {
	DB *sql.DB
}

func NewSQLDurationCache(db *sql.DB) *SQLDurationCache {
	return &SQLDurationCache{DB: db}
}

// Fetch one cached duration. A missing row is not an error.
func (s *SQLDurationCache) Get(ctx context.Context, key string) (_ ports.CachedDuration, _ bool, err error) {
	defer obs.Time(ctx, "duration.cache.Get")(&err)

	if s.DB == nil {
		return ports.CachedDuration{}, false, errors.New("duration cache: db is nil")
	}

	if strings.TrimSpace(key) == "" {
		return ports.CachedDuration{}, false, errors.New("get duration cache: key must not be empty")
	}

	q := `
	SELECT duration_seconds, distance_meters, simplified_transit
	FROM duration_cache
	WHERE cache_key = $1;
	`

	var out ports.CachedDuration
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&out.DurationSeconds, &out.DistanceMeters, &out.IsSimplifiedTransit)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.CachedDuration{}, false, nil
	}
	if err != nil {
		return ports.CachedDuration{}, false, fmt.Errorf("get duration cache: query duration_cache table: %w", err)
	}

	return out, true, nil
}

// Store one resolved duration, replacing any previous value for the key.
func (s *SQLDurationCache) Put(ctx context.Context, key string, v ports.CachedDuration) error {
	return s.PutMany(ctx, map[string]ports.CachedDuration{key: v})
}

// Store many resolved durations in one transaction.
func (s *SQLDurationCache) PutMany(ctx context.Context, results map[string]ports.CachedDuration) error {
	if s.DB == nil {
		return errors.New("duration cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert duration cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO duration_cache (cache_key, mode, duration_seconds, distance_meters, simplified_transit, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (cache_key) DO UPDATE
	SET duration_seconds = EXCLUDED.duration_seconds,
		distance_meters = EXCLUDED.distance_meters,
		simplified_transit = EXCLUDED.simplified_transit,
		updated_at = EXCLUDED.updated_at;
	`)
	if err != nil {
		return fmt.Errorf("insert duration cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for key, r := range results {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("insert duration cache: empty key")
		}

		if _, err := stmt.ExecContext(ctx, key, modeOf(key), r.DurationSeconds, r.DistanceMeters, r.IsSimplifiedTransit); err != nil {
			return fmt.Errorf("insert duration cache key=%q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert duration cache commit: %w", err)
	}

	return nil
}

// Prune deletes rows older than maxAge and reports how many were removed.
func (s *SQLDurationCache) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if s.DB == nil {
		return 0, errors.New("duration cache: db is nil")
	}
	if maxAge <= 0 {
		return 0, fmt.Errorf("prune duration cache: max age must be positive, got %s", maxAge)
	}

	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM duration_cache WHERE updated_at < NOW() - make_interval(secs => $1);`,
		maxAge.Seconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("prune duration cache: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune duration cache: rows affected: %w", err)
	}
	return n, nil
}

// Keys start with the travel mode ("TRANSIT|...").
func modeOf(key string) string {
	mode, _, _ := strings.Cut(key, "|")
	return mode
}
