package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the transcode console server.
type Config struct {
	Server     ServerConfig
	Transcoder TranscoderConfig
	Poll       PollConfig
	Redis      RedisConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type TranscoderConfig struct {
	BaseURL string
	Timeout time.Duration
}

type PollConfig struct {
	Interval   time.Duration
	FetchLimit int
}

type RedisConfig struct {
	URL       string
	DetailTTL time.Duration
	ResultTTL time.Duration
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("CONSOLE_PORT", 8080),
			Env:  envString("CONSOLE_ENV", "development"),
		},
		Transcoder: TranscoderConfig{
			BaseURL: os.Getenv("TRANSCODER_BASE_URL"),
			Timeout: envDuration("TRANSCODER_TIMEOUT", 30*time.Second),
		},
		Poll: PollConfig{
			Interval:   envDuration("POLL_INTERVAL", 10*time.Second),
			FetchLimit: envInt("FETCH_LIMIT", 200),
		},
		Redis: RedisConfig{
			URL:       os.Getenv("REDIS_URL"),
			DetailTTL: envDuration("CACHE_DETAIL_TTL", 30*time.Second),
			ResultTTL: envDuration("CACHE_RESULT_TTL", 5*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Transcoder.BaseURL == "" {
		return fmt.Errorf("TRANSCODER_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Transcoder.BaseURL, "http://") && !strings.HasPrefix(c.Transcoder.BaseURL, "https://") {
		return fmt.Errorf("TRANSCODER_BASE_URL must start with http:// or https://, got %q", c.Transcoder.BaseURL)
	}

	if c.Poll.Interval < time.Second {
		return fmt.Errorf("POLL_INTERVAL must be at least 1s, got %s", c.Poll.Interval)
	}
	if c.Poll.FetchLimit <= 0 {
		return fmt.Errorf("FETCH_LIMIT must be positive, got %d", c.Poll.FetchLimit)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
