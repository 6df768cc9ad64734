package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"itinerary-service/internal/adapters/cache"
	"itinerary-service/internal/adapters/directions"
	"itinerary-service/internal/api"
	"itinerary-service/internal/api/handlers"
	"itinerary-service/internal/config"
	"itinerary-service/internal/oracle"
	"itinerary-service/internal/platform/db"
	"itinerary-service/internal/platform/logging"
	"itinerary-service/internal/platform/metrics"
	"itinerary-service/internal/ports"
	"itinerary-service/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// main is the application composition root.
// It wires concrete adapters (directions provider, duration cache) behind
// ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	logger := logging.Setup(cfg.Environment)
	metrics.RegisterDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := newProvider(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("directions provider")
	}

	store, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("duration cache")
	}
	defer closeStore()

	opts := []oracle.Option{
		oracle.WithRounding(cfg.DepartureRounding),
		oracle.WithMemoLimit(cfg.MemoLimit),
	}
	if store != nil {
		opts = append(opts, oracle.WithStore(store))
	}
	orc, err := oracle.New(provider, logger, opts...)
	if err != nil {
		logger.Fatal().Err(err).Msg("travel-time oracle")
	}

	planner := services.NewPlanner(orc, logger)
	router := api.NewRouter(&handlers.ItineraryHandler{
		Planner:  planner,
		Clock:    ports.SystemClock{},
		MaxStops: cfg.MaxStops,
	}, logger)

	// Timeouts are tuned for cold-cache planning (one provider call per leg).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}()

	logger.Info().
		Str("addr", srv.Addr).
		Str("provider", cfg.DirectionsProvider).
		Msg("Server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("serve")
	}
}

func newProvider(cfg *config.Config) (ports.DirectionsProvider, error) {
	opts := []directions.Option{directions.WithRateLimit(cfg.ProviderRateLimit, cfg.ProviderBurst)}
	if cfg.DirectionsBaseURL != "" {
		opts = append(opts, directions.WithBaseURL(cfg.DirectionsBaseURL))
	}

	switch cfg.DirectionsProvider {
	case config.ProviderGoogle:
		return directions.NewGoogleDirectionsProvider(cfg.GoogleMapsAPIKey, opts...)
	case config.ProviderORS:
		return directions.NewORSDirectionsProvider(cfg.ORSAPIKey, opts...)
	case config.ProviderMock:
		// No canned routes: every leg resolves to a distance estimate.
		return directions.NewMockDirectionsProvider(nil), nil
	}
	return nil, fmt.Errorf("unknown directions provider %q", cfg.DirectionsProvider)
}

// newStore picks the persistent duration cache. Postgres wins over Redis;
// with neither configured the oracle keeps its in-process memo only.
func newStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (ports.DurationCache, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		conn, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := cache.InitSchema(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		logger.Info().Msg("duration cache: postgres")
		return cache.NewSQLDurationCache(conn), closer(conn, logger), nil

	case cfg.RedisURL != "":
		client, err := cache.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Dur("ttl", cfg.CacheTTL).Msg("duration cache: redis")
		return cache.NewRedisDurationCache(client, cfg.CacheTTL), closer(client, logger), nil
	}

	logger.Info().Msg("duration cache: memory only")
	return nil, func() {}, nil
}

type closable interface{ Close() error }

var (
	_ closable = (*sql.DB)(nil)
	_ closable = (*redis.Client)(nil)
)

func closer(c closable, logger zerolog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Msg("close duration cache")
		}
	}
}
