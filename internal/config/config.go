package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all service settings, populated from environment variables.
type AppConfig struct {
	// ResortsFile is the path to the nested location hierarchy.
	ResortsFile string

	// UpdateInterval controls how often the full dataset is rebuilt.
	UpdateInterval time.Duration

	// BatchDelay is the minimum spacing between any two provider calls.
	BatchDelay time.Duration

	// MaxLocationsPerChunk caps one provider call at 3x this many elevation
	// points plus this many freezing-level points.
	MaxLocationsPerChunk int

	// ForecastDays is the horizon requested per call.
	ForecastDays int

	// HTTPTimeout bounds a single outbound provider call.
	HTTPTimeout time.Duration

	// ProviderBaseURL overrides the forecast endpoint, mainly for tests.
	ProviderBaseURL string

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is fine; the environment may be fully set already.
	_ = godotenv.Load()

	cfg := &AppConfig{}

	cfg.ResortsFile = getenvDefault("SNOWCAST_RESORTS_FILE", "data/resorts.json")

	interval, err := parseDuration("UPDATE_INTERVAL", "5h")
	if err != nil {
		return nil, err
	}
	cfg.UpdateInterval = interval

	delay, err := parseDuration("BATCH_DELAY", "60s")
	if err != nil {
		return nil, err
	}
	cfg.BatchDelay = delay

	timeout, err := parseDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	cfg.MaxLocationsPerChunk = getenvInt("MAX_LOCATIONS_PER_CHUNK", 30)
	if cfg.MaxLocationsPerChunk <= 0 {
		return nil, fmt.Errorf("MAX_LOCATIONS_PER_CHUNK must be positive")
	}

	cfg.ForecastDays = getenvInt("FORECAST_DAYS", 7)
	if cfg.ForecastDays <= 0 {
		return nil, fmt.Errorf("FORECAST_DAYS must be positive")
	}

	cfg.ProviderBaseURL = os.Getenv("PROVIDER_BASE_URL")
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	raw := getenvDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
