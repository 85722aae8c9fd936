package config

import (
	"fmt"
	"os"
	"strconv"
)

// Version is reported by the health and stats endpoints.
const Version = "1.0.0"

// Config holds service-edge settings read from the environment. Engine
// constants (threshold, calibration, analysis windows) are deliberately
// not here; they are injected as explicit values in main.
type Config struct {
	Port          string
	APIKey        string
	MaxAudioBytes int64
	MinAudioBytes int64
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		APIKey:        getEnv("API_KEY", "teamAI_123"),
		MaxAudioBytes: 25 * 1024 * 1024,
		MinAudioBytes: 1024,
	}

	if v := os.Getenv("MAX_AUDIO_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid MAX_AUDIO_BYTES %q", v)
		}
		cfg.MaxAudioBytes = n
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY must not be empty")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
