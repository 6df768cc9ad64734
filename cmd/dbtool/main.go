package main

import (
	"context"
	"itinerary-service/internal/adapters/cache"
	"itinerary-service/internal/config"
	"itinerary-service/internal/platform/db"
	"itinerary-service/internal/platform/logging"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// dbtool prepares the Postgres duration cache and optionally prunes stale
// entries (DURATION_CACHE_MAX_AGE, e.g. "720h").
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found (using environment variables)")
	}
	logger := logging.Setup(config.Get("APP_ENV", "development"))

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer conn.Close()

	logger.Info().Msg("Initializing database schema...")
	if err := cache.InitSchema(ctx, conn); err != nil {
		logger.Fatal().Err(err).Msg("schema initialization failed")
	}
	logger.Info().Msg("Schema ready.")

	raw := config.Get("DURATION_CACHE_MAX_AGE", "")
	if raw == "" {
		return
	}
	maxAge, err := time.ParseDuration(raw)
	if err != nil || maxAge <= 0 {
		logger.Fatal().Str("value", raw).Msg("DURATION_CACHE_MAX_AGE must be a positive duration")
	}

	n, err := cache.NewSQLDurationCache(conn).Prune(ctx, maxAge)
	if err != nil {
		logger.Fatal().Err(err).Msg("prune failed")
	}
	logger.Info().Int64("deleted", n).Dur("max_age", maxAge).Msg("Prune complete.")
}
