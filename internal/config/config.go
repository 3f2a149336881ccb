// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Locale for user-facing error messages
	DefaultLocale string `env:"DEFAULT_LOCALE" envDefault:"ko"`

	// Shared secret required for ADMIN signup; empty disables it
	AdminSignupToken string `env:"ADMIN_SIGNUP_TOKEN" envDefault:""`

	// External catalog search API
	SearchAPIURL       string        `env:"SEARCH_API_URL" envDefault:""`
	SearchTimeout      time.Duration `env:"SEARCH_TIMEOUT" envDefault:"10s"`
	SearchSyncInterval time.Duration `env:"SEARCH_SYNC_INTERVAL" envDefault:"10m"`

	// Price alert delivery
	AlertsEnabled bool `env:"ALERTS_ENABLED" envDefault:"true"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting
	RateLimitUserEnabled bool `env:"RATE_LIMIT_USER_ENABLED" envDefault:"true"`
	RateLimitUserRPM     int  `env:"RATE_LIMIT_USER_RPM" envDefault:"300"`
	RateLimitUserBurst   int  `env:"RATE_LIMIT_USER_BURST" envDefault:"50"`
	RateLimitIPEnabled   bool `env:"RATE_LIMIT_IP_ENABLED" envDefault:"true"`
	RateLimitIPRPS       int  `env:"RATE_LIMIT_IP_RPS" envDefault:"5"`
	RateLimitIPBurst     int  `env:"RATE_LIMIT_IP_BURST" envDefault:"10"`

	// CORS configuration
	// Comma-separated list of allowed origins
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SearchSyncEnabled reports whether the catalog sync worker should run.
func (c *Config) SearchSyncEnabled() bool {
	return c.SearchAPIURL != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
