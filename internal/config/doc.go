// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package config provides configuration loading for Wayfarer.

Values are layered with koanf v2: struct defaults, then an optional YAML
file, then environment variables. Environment variables use flat names
mapped explicitly to nested keys:

	HTTP_PORT                 server.port
	DUCKDB_PATH               database.path
	DB_QUERY_TIMEOUT          database.query_timeout
	PRESENCE_STORE            presence.store (memory, badger)
	JWT_SECRET                security.jwt_secret
	NOTIFICATION_TIMEZONE     notifications.timezone
	SIMULATION_CONFIRM_DELAY  simulation.confirm_delay
	WS_EVENTS_PER_SECOND      websocket.events_per_second
	NATS_ENABLED              nats.enabled
	LOG_LEVEL                 logging.level

The full list is envMappings in koanf.go. Comma-separated values are accepted
for list settings such as CORS_ORIGINS.

Example YAML:

	server:
	  port: 3000
	database:
	  path: /data/wayfarer.duckdb
	  query_timeout: 5s
	presence:
	  store: badger
	  path: /data/presence
	nats:
	  enabled: true
	  embedded_server: true
*/
package config
