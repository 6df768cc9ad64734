// Package config reads process configuration from the environment, with an
// optional YAML file underneath it.
//
// Precedence, highest first: environment variables (including a .env file
// loaded by the binary), the file named by CONFIG_FILE, built-in defaults.
// YAML keys are the lower-case environment names (directions_provider,
// cache_ttl, ...).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGoogle = "google"
	ProviderORS    = "ors"
	ProviderMock   = "mock"
)

type Config struct {
	Port        string
	Environment string

	DirectionsProvider string
	GoogleMapsAPIKey   string
	ORSAPIKey          string
	DirectionsBaseURL  string // overrides the provider's public endpoint
	ProviderRateLimit  float64
	ProviderBurst      int

	DatabaseURL string
	RedisURL    string
	CacheTTL    time.Duration

	DepartureRounding time.Duration
	MemoLimit         int
	MaxStops          int
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

type source struct {
	file map[string]string
	errs []error
}

func (s *source) getString(key, fallback string) string {
	if v, ok := s.file[strings.ToLower(key)]; ok && v != "" {
		fallback = v
	}
	return Get(key, fallback)
}

func (s *source) getInt(key string, fallback int) int {
	raw := s.getString(key, strconv.Itoa(fallback))
	n, err := strconv.Atoi(raw)
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: invalid integer %q", key, raw))
		return fallback
	}
	return n
}

func (s *source) getFloat(key string, fallback float64) float64 {
	raw := s.getString(key, strconv.FormatFloat(fallback, 'f', -1, 64))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: invalid number %q", key, raw))
		return fallback
	}
	return f
}

func (s *source) getDuration(key string, fallback time.Duration) time.Duration {
	raw := s.getString(key, fallback.String())
	d, err := time.ParseDuration(raw)
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%s: invalid duration %q", key, raw))
		return fallback
	}
	return d
}

// Load builds the configuration and validates it.
func Load() (*Config, error) {
	file, err := readFile(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	src := &source{file: file}

	cfg := &Config{
		Port:        src.getString("PORT", "8080"),
		Environment: src.getString("APP_ENV", "development"),

		DirectionsProvider: strings.ToLower(src.getString("DIRECTIONS_PROVIDER", ProviderGoogle)),
		GoogleMapsAPIKey:   src.getString("GOOGLE_MAPS_API_KEY", ""),
		ORSAPIKey:          src.getString("ORS_API_KEY", ""),
		DirectionsBaseURL:  src.getString("DIRECTIONS_BASE_URL", ""),
		ProviderRateLimit:  src.getFloat("PROVIDER_RATE_LIMIT", 10),
		ProviderBurst:      src.getInt("PROVIDER_BURST", 5),

		DatabaseURL: src.getString("DATABASE_URL", ""),
		RedisURL:    src.getString("REDIS_URL", ""),
		CacheTTL:    src.getDuration("CACHE_TTL", 24*time.Hour),

		DepartureRounding: src.getDuration("DEPARTURE_ROUNDING", 15*time.Minute),
		MemoLimit:         src.getInt("ORACLE_MEMO_SIZE", 10000),
		MaxStops:          src.getInt("MAX_STOPS", 10),
	}

	if len(src.errs) > 0 {
		return nil, fmt.Errorf("load config: %w", errors.Join(src.errs...))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.DirectionsProvider {
	case ProviderGoogle:
		if c.GoogleMapsAPIKey == "" {
			errs = append(errs, errors.New("GOOGLE_MAPS_API_KEY is required for the google provider"))
		}
	case ProviderORS:
		if c.ORSAPIKey == "" {
			errs = append(errs, errors.New("ORS_API_KEY is required for the ors provider"))
		}
	case ProviderMock:
	default:
		errs = append(errs, fmt.Errorf("DIRECTIONS_PROVIDER must be google, ors or mock, got %q", c.DirectionsProvider))
	}

	if c.MaxStops < 1 {
		errs = append(errs, fmt.Errorf("MAX_STOPS must be positive, got %d", c.MaxStops))
	}
	if c.DepartureRounding <= 0 {
		errs = append(errs, fmt.Errorf("DEPARTURE_ROUNDING must be positive, got %s", c.DepartureRounding))
	}
	if c.MemoLimit < 1 {
		errs = append(errs, fmt.Errorf("ORACLE_MEMO_SIZE must be positive, got %d", c.MemoLimit))
	}
	if c.ProviderBurst < 1 {
		errs = append(errs, fmt.Errorf("PROVIDER_BURST must be positive, got %d", c.ProviderBurst))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func readFile(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return map[string]string{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config file %q: %w", path, err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[strings.ToLower(k)] = fmt.Sprint(v)
	}
	return out, nil
}
