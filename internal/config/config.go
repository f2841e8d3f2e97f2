// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// APIBaseURL is the base URL of the GeoAsistencia backend.
	APIBaseURL string
	// HTTPTimeout is the per-request timeout for outbound calls.
	HTTPTimeout time.Duration

	// SessionPath is the file path of the persisted session. When empty,
	// $HOME/.geoasistencia/session.json is used.
	SessionPath string

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// RevealTTL is the local validity window applied to action and reveal
	// capabilities. The backend issues 60-second tokens; the client enforces
	// its own, possibly shorter, deadline.
	RevealTTL time.Duration
	// CountdownInterval is how often the reveal countdown recomputes the
	// remaining time.
	CountdownInterval time.Duration

	// BadgePollInterval is how often the pending manual-request count is
	// refreshed in watch mode.
	BadgePollInterval time.Duration

	// RateLimitEnabled indicates whether outbound requests are throttled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of outbound requests allowed per second.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the outbound request burst size.
	RateLimitBurst int

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server in watch mode.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Backend
		APIBaseURL:  env.GetString("API_BASE_URL", "http://localhost:8000"),
		HTTPTimeout: env.GetDuration("HTTP_TIMEOUT_SECONDS", 15, time.Second),

		// Session storage
		SessionPath: env.GetString("SESSION_PATH", ""),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Reveal workflow
		RevealTTL:         env.GetDuration("REVEAL_TTL_SECONDS", 60, time.Second),
		CountdownInterval: env.GetDuration("COUNTDOWN_INTERVAL_MS", 250, time.Millisecond),

		// Watch mode
		BadgePollInterval: env.GetDuration("BADGE_POLL_INTERVAL_SECONDS", 30, time.Second),

		// Outbound rate limiting
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 10.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 20),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "geoasistencia"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// ResolveSessionPath returns the configured session path, falling back to the
// well-known default under the user's home directory.
func (c *Config) ResolveSessionPath() string {
	if c.SessionPath != "" {
		return c.SessionPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".geoasistencia", "session.json")
	}
	return filepath.Join(home, ".geoasistencia", "session.json")
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
