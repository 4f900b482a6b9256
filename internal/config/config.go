// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // quiet-hour zones resolve in minimal containers
)

// Config holds all application configuration.
//
// Loading order (koanf v2):
//  1. Built-in defaults (defaultConfig)
//  2. Optional YAML file (CONFIG_PATH, then DefaultConfigPaths)
//  3. Environment variables (see envMappings)
//
// Validate runs after the layers are merged.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Presence      PresenceConfig      `koanf:"presence"`
	Security      SecurityConfig      `koanf:"security"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Simulation    SimulationConfig    `koanf:"simulation"`
	WebSocket     WebSocketConfig     `koanf:"websocket"`
	NATS          NATSConfig          `koanf:"nats"`
	Logging       LoggingConfig       `koanf:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
	// InstanceID tags relayed emissions. Empty means a random id per process.
	InstanceID string `koanf:"instance_id"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds DuckDB settings
type DatabaseConfig struct {
	Path      string `koanf:"path"` // ":memory:" for a throwaway database
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()

	// QueryTimeout bounds every repository call.
	QueryTimeout time.Duration `koanf:"query_timeout"`

	// Circuit breaker around repository calls
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// PresenceConfig selects the presence store.
type PresenceConfig struct {
	Store string `koanf:"store"` // memory or badger
	Path  string `koanf:"path"`  // badger directory
}

// SecurityConfig holds session token and rate limit settings
type SecurityConfig struct {
	// JWTSecret verifies session tokens presented at /ws and on the REST API.
	JWTSecret      string        `koanf:"jwt_secret"`
	SessionTimeout time.Duration `koanf:"session_timeout"`
	// RequireToken rejects websocket upgrades that carry no valid token.
	RequireToken bool `koanf:"require_token"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	Casbin CasbinConfig `koanf:"casbin"`
}

// CasbinConfig points at optional policy files; empty paths use the embedded policy.
type CasbinConfig struct {
	ModelPath      string        `koanf:"model_path"`
	PolicyPath     string        `koanf:"policy_path"`
	AutoReload     bool          `koanf:"auto_reload"`
	ReloadInterval time.Duration `koanf:"reload_interval"`
}

// NotificationsConfig controls eligibility evaluation.
type NotificationsConfig struct {
	// Timezone quiet hours are evaluated in. Empty means the server's local zone.
	Timezone      string        `koanf:"timezone"`
	LookupTimeout time.Duration `koanf:"lookup_timeout"`
}

// Location resolves Timezone.
func (n NotificationsConfig) Location() (*time.Location, error) {
	if n.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(n.Timezone)
}

// SimulationConfig controls the simulate_booking_flow demo hook.
type SimulationConfig struct {
	Enabled       bool          `koanf:"enabled"`
	ConfirmDelay  time.Duration `koanf:"confirm_delay"`
	PaidDelay     time.Duration `koanf:"paid_delay"`
	CompleteDelay time.Duration `koanf:"complete_delay"`
}

// WebSocketConfig holds per-connection transport limits.
type WebSocketConfig struct {
	MaxMessageSize  int64         `koanf:"max_message_size"`
	SendBuffer      int           `koanf:"send_buffer"`
	EventsPerSecond float64       `koanf:"events_per_second"`
	EventBurst      int           `koanf:"event_burst"`
	PingPeriod      time.Duration `koanf:"ping_period"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
}

// NATSConfig controls the cross-instance emission relay.
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
	// EmbeddedServer starts a NATS server listening on URL's host and port.
	EmbeddedServer bool `koanf:"embedded_server"`
	// Subject emissions are published on.
	Subject       string        `koanf:"subject"`
	CloseTimeout  time.Duration `koanf:"close_timeout"`
	MaxReconnects int           `koanf:"max_reconnects"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
