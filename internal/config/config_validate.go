// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validatePresence,
		c.validateSecurity,
		c.validateNotifications,
		c.validateSimulation,
		c.validateWebSocket,
		c.validateNATS,
		c.validateLogging,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DB_QUERY_TIMEOUT must be positive")
	}
	if c.Database.BreakerFailures == 0 {
		return fmt.Errorf("DB_BREAKER_FAILURES must be at least 1")
	}
	return nil
}

func (c *Config) validatePresence() error {
	switch c.Presence.Store {
	case "memory":
		return nil
	case "badger":
		if c.Presence.Path == "" {
			return fmt.Errorf("PRESENCE_PATH is required when PRESENCE_STORE is badger")
		}
		return nil
	default:
		return fmt.Errorf("PRESENCE_STORE must be one of: memory, badger")
	}
}

func (c *Config) validateSecurity() error {
	if c.Security.RequireToken && c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when WS_REQUIRE_TOKEN is true")
	}
	if c.Security.JWTSecret != "" {
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters for security")
		}
		if containsPlaceholder(c.Security.JWTSecret) {
			return fmt.Errorf("JWT_SECRET contains a placeholder value - generate a secure secret with: openssl rand -base64 32")
		}
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
		}
		if c.Security.RateLimitWindow < time.Second {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
		}
	}
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS must not contain * in production")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateNotifications() error {
	if _, err := c.Notifications.Location(); err != nil {
		return fmt.Errorf("NOTIFICATION_TIMEZONE: %w", err)
	}
	if c.Notifications.LookupTimeout <= 0 {
		return fmt.Errorf("PREFERENCE_LOOKUP_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateSimulation() error {
	s := c.Simulation
	if s.ConfirmDelay < 0 || s.PaidDelay < 0 || s.CompleteDelay < 0 {
		return fmt.Errorf("simulation delays must not be negative")
	}
	return nil
}

func (c *Config) validateWebSocket() error {
	if c.WebSocket.MaxMessageSize < 1024 {
		return fmt.Errorf("WS_MAX_MESSAGE_SIZE must be at least 1024 bytes")
	}
	if c.WebSocket.SendBuffer < 1 {
		return fmt.Errorf("WS_SEND_BUFFER must be at least 1")
	}
	if c.WebSocket.EventsPerSecond <= 0 || c.WebSocket.EventBurst < 1 {
		return fmt.Errorf("WS_EVENTS_PER_SECOND and WS_EVENT_BURST must be positive")
	}
	if c.WebSocket.PingPeriod < time.Second {
		return fmt.Errorf("WS_PING_PERIOD must be at least 1s")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("NATS_SUBJECT is required when NATS is enabled")
	}
	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL: %w", err)
	}
	return nil
}

func validateNATSURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	validSchemes := map[string]bool{"nats": true, "tls": true, "ws": true, "wss": true}
	if !validSchemes[parsedURL.Scheme] {
		return fmt.Errorf("scheme must be nats, tls, ws, or wss, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("host is required (e.g., localhost:4222)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
