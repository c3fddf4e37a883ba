// Boxbox - Motorsport Telemetry Aggregation and Insight API
// Copyright 2026 M. Clarke (mclarke-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mclarke-dev/boxbox

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/boxbox/config.yaml",
	"/etc/boxbox/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// sliceConfigPaths lists config keys that accept comma-separated values
// from environment variables.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// defaultConfig returns a Config with all defaults applied. Defaults load
// first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8781,
			Timeout: 30 * time.Second,
		},
		Upstream: UpstreamConfig{
			BaseURL:     "https://api.openf1.org/v1",
			TokenURL:    "https://api.openf1.org/token",
			Username:    "",
			Password:    "",
			Timeout:     30 * time.Second,
			MetaTimeout: 3 * time.Second,
			RateLimit:   10,
			Burst:       20,
		},
		Charts: ChartsConfig{
			UploadURL: "",
			UploadKey: "",
			Timeout:   30 * time.Second,
			Width:     900,
			Height:    500,
		},
		API: APIConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
			CacheTTL:        5 * time.Minute,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variable names map to koanf paths by section prefix:
	// UPSTREAM_BASE_URL -> upstream.base_url, SERVER_PORT -> server.port.
	envProvider := env.ProviderWithValue("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// configSections are the recognized environment variable prefixes. Variables
// outside these sections are ignored so unrelated process environment does
// not leak into the configuration.
var configSections = []string{
	"SERVER_", "UPSTREAM_", "CHARTS_", "API_", "SECURITY_", "LOGGING_",
}

// envTransformFunc converts an environment variable name to a koanf path.
// The first underscore separates the section from the key:
// SECURITY_RATE_LIMIT_REQS -> security.rate_limit_reqs.
func envTransformFunc(key string, value string) (string, interface{}) {
	for _, section := range configSections {
		if strings.HasPrefix(key, section) {
			path := strings.ToLower(section[:len(section)-1]) + "." +
				strings.ToLower(strings.TrimPrefix(key, section))
			return path, value
		}
	}
	return "", nil
}

// findConfigFile searches for a config file, honoring CONFIG_PATH first.
// Returns empty string if none is found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// processSliceFields converts comma-separated env strings into slices for
// the keys listed in sliceConfigPaths. YAML-sourced slices pass through.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}
