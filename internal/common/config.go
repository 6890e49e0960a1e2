// Package common provides shared utilities for Iris
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for iris-server
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Gateway     GatewayConfig  `toml:"gateway"`
	Gemini      GeminiConfig   `toml:"gemini"`
	Sessions    SessionsConfig `toml:"sessions"`
	Portfolio   CacheConfig    `toml:"portfolio"`
	Auth        AuthConfig     `toml:"auth"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// GatewayConfig holds IRIS API gateway client configuration
type GatewayConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *GatewayConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GeminiConfig holds Gemini API configuration for the direct chat backend.
// When APIKey is empty, chat requests are proxied to the gateway instead.
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// SessionsConfig holds the session store path.
type SessionsConfig struct {
	Path string `toml:"path"`
}

// CacheConfig holds the portfolio snapshot cache cadence.
type CacheConfig struct {
	RefreshInterval string `toml:"refresh_interval"` // stale after this age, default "30s"
	DedupeWindow    string `toml:"dedupe_window"`    // suppress refetch within this age, default "5s"
}

// GetRefreshInterval parses and returns the refresh interval.
func (c *CacheConfig) GetRefreshInterval() time.Duration {
	d, err := time.ParseDuration(c.RefreshInterval)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetDedupeWindow parses and returns the dedupe window.
func (c *CacheConfig) GetDedupeWindow() time.Duration {
	d, err := time.ParseDuration(c.DedupeWindow)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// AuthConfig holds JWT session-token configuration.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	TokenExpiry string `toml:"token_expiry"` // duration string, default "24h"
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
		Gateway: GatewayConfig{
			BaseURL:   "http://localhost:8080",
			RateLimit: 10,
			Timeout:   "30s",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.0-flash",
		},
		Sessions: SessionsConfig{
			Path: "data/sessions",
		},
		Portfolio: CacheConfig{
			RefreshInterval: "30s",
			DedupeWindow:    "5s",
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("IRIS_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("IRIS_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("IRIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("IRIS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if url := os.Getenv("IRIS_GATEWAY_URL"); url != "" {
		config.Gateway.BaseURL = url
	}

	if path := os.Getenv("IRIS_SESSIONS_PATH"); path != "" {
		config.Sessions.Path = path
	}

	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		config.Gemini.APIKey = key
	}

	if v := os.Getenv("IRIS_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("IRIS_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
