// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

// Package config holds the application configuration, loaded via Koanf from
// layered sources: built-in defaults, an optional YAML file, and environment
// variables (highest precedence).
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config is the root configuration for the Boxbox server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Charts   ChartsConfig   `koanf:"charts"`
	API      APIConfig      `koanf:"api"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// UpstreamConfig holds connection settings for the upstream telemetry API.
//
// Username/Password are optional: when present, the client exchanges them
// for a bearer token and attaches it to every outbound call, unlocking
// elevated-tier resources (e.g. overtakes). When absent the client runs
// anonymously and only the public resources are reachable.
type UpstreamConfig struct {
	BaseURL  string        `koanf:"base_url"`
	TokenURL string        `koanf:"token_url"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	Timeout  time.Duration `koanf:"timeout"`

	// MetaTimeout bounds the meeting-list enrichment fetch used to build
	// the location alias map. Kept short so alias building degrades to the
	// static table quickly during upstream outages.
	MetaTimeout time.Duration `koanf:"meta_timeout"`

	// RateLimit is the sustained outbound requests-per-second budget
	// against the upstream API; Burst is the token bucket size.
	RateLimit float64 `koanf:"rate_limit"`
	Burst     int     `koanf:"burst"`
}

// ChartsConfig holds settings for the chart rendering/upload pipeline.
type ChartsConfig struct {
	// UploadURL is the image host endpoint. Empty disables chart insights.
	UploadURL string        `koanf:"upload_url"`
	UploadKey string        `koanf:"upload_key"`
	Timeout   time.Duration `koanf:"timeout"`
	Width     int           `koanf:"width"`
	Height    int           `koanf:"height"`
}

// APIConfig holds response shaping defaults for list endpoints.
type APIConfig struct {
	DefaultPageSize int           `koanf:"default_page_size"`
	MaxPageSize     int           `koanf:"max_page_size"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
}

// SecurityConfig holds rate limiting and CORS settings for the exposed API.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for inconsistencies that would only
// surface later as confusing runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if err := validateURL("upstream.base_url", c.Upstream.BaseURL); err != nil {
		return err
	}
	if (c.Upstream.Username == "") != (c.Upstream.Password == "") {
		return fmt.Errorf("upstream.username and upstream.password must be set together")
	}
	if c.Upstream.Username != "" && c.Upstream.TokenURL == "" {
		return fmt.Errorf("upstream.token_url is required when credentials are configured")
	}
	if c.Upstream.RateLimit <= 0 {
		return fmt.Errorf("upstream.rate_limit must be positive, got %f", c.Upstream.RateLimit)
	}

	if c.Charts.UploadURL != "" {
		if err := validateURL("charts.upload_url", c.Charts.UploadURL); err != nil {
			return err
		}
	}

	if c.API.DefaultPageSize < 1 || c.API.DefaultPageSize > c.API.MaxPageSize {
		return fmt.Errorf("api.default_page_size must be in 1..%d, got %d",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}

	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("logging.level %q is not a recognized level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host", field)
	}
	return nil
}
