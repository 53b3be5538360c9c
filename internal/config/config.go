// Package config defines client configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - External errors must be wrapped via this package's error helpers.
package config

import "time"

// Config contains client configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// BaseURL is the root of the scoring service API, without a
	// trailing slash.
	BaseURL string `koanf:"base_url"`

	// Username and Password authenticate the session.
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// ClientData is the opaque blob sent alongside login requests.
	ClientData string `koanf:"client_data"`

	// CooldownMS is the minimum spacing between requests in milliseconds.
	CooldownMS int `koanf:"cooldown_ms"`

	// TimeoutMS bounds a single request round trip in milliseconds.
	TimeoutMS int `koanf:"timeout_ms"`

	// MetricsAddr configures the optional /metrics listen address.
	// Empty disables the listener.
	MetricsAddr string `koanf:"metrics_addr"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:   "info",
		BaseURL:    "https://api.etternaonline.com/v2",
		CooldownMS: 2000,
		TimeoutMS:  30000,
	}
}

// Cooldown returns the request spacing as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownMS) * time.Millisecond
}

// Timeout returns the per-request deadline as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
