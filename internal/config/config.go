// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN; required by cmd/server, cmd/migrate, cmd/seed, cmd/worker.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// BcryptCost is the bcrypt cost factor (4-31); default 10.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// SessionTTLRaw is the session lifetime (e.g. "1h"). Sessions expire strictly; no refresh.
	SessionTTLRaw string `mapstructure:"SESSION_TTL"`
	// ReaperIntervalRaw is how often cmd/worker sweeps expired sessions (e.g. "10m").
	// The sweep is garbage collection only; expiry is enforced at read time.
	ReaperIntervalRaw string `mapstructure:"REAPER_INTERVAL"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint (e.g. http://localhost:4317).
	// Empty disables telemetry export (no-op providers).
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// CookieSecure marks the session cookie Secure; set true behind TLS.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("SESSION_TTL", "1h")
	v.SetDefault("REAPER_INTERVAL", "10m")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("COOKIE_SECURE", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// SessionTTL parses SESSION_TTL as a time.Duration. Returns 1h if unset or invalid.
func (c *Config) SessionTTL() time.Duration {
	d, err := time.ParseDuration(c.SessionTTLRaw)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}

// ReaperInterval parses REAPER_INTERVAL as a time.Duration. Returns 10m if unset or invalid.
func (c *Config) ReaperInterval() time.Duration {
	d, err := time.ParseDuration(c.ReaperIntervalRaw)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}
