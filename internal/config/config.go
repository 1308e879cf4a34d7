// Package config handles application configuration loading from environment
// variables. It provides a centralized Config struct used across the application.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"otpgate/internal/password"
)

// Config holds all application configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// DataDir is the directory holding the user document and audit log.
	DataDir string

	// AdminEmails is the allowlist of identifiers that auto-provision
	// with the admin role. Resolved once at startup.
	AdminEmails []string

	// SharedKey gates every API route; clients send it base64-encoded
	// in the X-APP-KEY header.
	SharedKey string

	// CORSOrigin is the single origin allowed to call the API from a
	// browser.
	CORSOrigin string

	// TOTPIssuer labels enrollment URIs in authenticator apps.
	TOTPIssuer string

	// BcryptCost is the password hashing work factor.
	BcryptCost int

	// AuthRateLimit is the max auth requests per IP per minute.
	AuthRateLimit int
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DataDir: envOrDefault("DATA_DIR", "data"),

		SharedKey:  envOrDefault("SHARED_KEY", "changeme"),
		CORSOrigin: os.Getenv("CORS_URL"),
		TOTPIssuer: envOrDefault("TOTP_ISSUER", "OTP-App"),

		BcryptCost:    envInt("BCRYPT_COST", password.DefaultCost),
		AuthRateLimit: envInt("AUTH_RATE_LIMIT", 30),
	}

	for _, e := range strings.Split(os.Getenv("ADMIN_EMAILS"), ",") {
		if e = strings.TrimSpace(e); e != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, e)
		}
	}

	if cfg.Env == "production" {
		if cfg.SharedKey == "changeme" {
			return nil, fmt.Errorf("SHARED_KEY must be set in production")
		}
		if len(cfg.AdminEmails) == 0 {
			return nil, fmt.Errorf("ADMIN_EMAILS must be set in production")
		}
	}

	return cfg, nil
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt reads an integer environment variable with a fallback.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
