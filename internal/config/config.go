// Package config provides configuration loading and validation from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// minSessionSecretLen is the minimum SESSION_SECRET length in bytes.
const minSessionSecretLen = 32

// Config holds all application configuration.
type Config struct {
	LogLevel           string   // debug, info, warn, error
	ListenAddr         string   // Server listen address (e.g., ":8080")
	MetricsListenAddr  string   // Metrics listener address (e.g., "localhost:9090")
	DatabasePath       string   // SQLite database path
	SessionSecret      string   // Required: key signing the session cookie
	SecureCookies      bool     // Mark the session cookie Secure (HTTPS only)
	CORSAllowedOrigins []string // Origins allowed to call the API from a browser
	MaxBodyBytes       int64    // Request body limit

	// First admin account, created on startup while no admin exists.
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// Load parses configuration from environment variables.
// All configuration options except SESSION_SECRET have sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:          envOr("LOG_LEVEL", "info"),
		ListenAddr:        envOr("LISTEN_ADDR", ":8080"),
		MetricsListenAddr: envOr("METRICS_LISTEN_ADDR", "localhost:9090"),
		DatabasePath:      envOr("DATABASE_PATH", "/data/microtales.db"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		MaxBodyBytes:      64 << 10,
		AdminName:         envOr("ADMIN_NAME", "Admin"),
		AdminEmail:        os.Getenv("ADMIN_EMAIL"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
	}

	if v := os.Getenv("SECURE_COOKIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SECURE_COOKIES %q: %w", v, err)
		}
		cfg.SecureCookies = b
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
			}
		}
	}

	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_BODY_BYTES %q: %w", v, err)
		}
		cfg.MaxBodyBytes = n
	}

	return cfg, nil
}

// Validate checks all configuration constraints.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if len(c.SessionSecret) < minSessionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes", minSessionSecretLen)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q: must be debug, info, warn or error", c.LogLevel)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if c.AdminEmail != "" && strings.TrimSpace(c.AdminName) == "" {
		return fmt.Errorf("ADMIN_NAME must not be empty when ADMIN_EMAIL is set")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
