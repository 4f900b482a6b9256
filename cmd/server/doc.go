// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package main is the entry point for the Wayfarer server.
//
// Wayfarer fans booking, tour, payment, chat and presence events out to
// websocket clients grouped into rooms, and persists notifications and
// preferences in DuckDB.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional config.yaml, then environment (Koanf v2)
//  2. Database: DuckDB with the Wayfarer schema
//  3. Presence store: in-memory or BadgerDB (PRESENCE_STORE=badger)
//  4. Sessions: JWT verification and the Casbin role policy
//  5. Domain services: preferences, eligibility, notifications, chat, presence, bookings
//  6. Realtime: websocket hub, room router and event handler
//  7. NATS relay (optional): cross-instance emission fan-out
//  8. HTTP server: chi router serving /ws, /metrics and /api/v1
//
// Every long-running component runs under the suture supervisor tree in
// internal/supervisor.
//
// # Build Tags
//
//	go build ./cmd/server               # single instance
//	go build -tags nats ./cmd/server    # enable the NATS relay
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the root context. The HTTP server drains for
// SHUTDOWN_TIMEOUT, the hub closes every connection, and the
// database is checkpointed and closed last.
//
// # Example Usage
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export DUCKDB_PATH=/data/wayfarer.duckdb
//	export PRESENCE_STORE=badger
//	export PRESENCE_PATH=/data/presence
//	./wayfarer
//
// Two instances sharing emissions through an embedded NATS server:
//
//	NATS_ENABLED=true NATS_EMBEDDED=true NATS_URL=nats://127.0.0.1:4222 ./wayfarer
//	NATS_ENABLED=true NATS_URL=nats://127.0.0.1:4222 HTTP_PORT=8081 ./wayfarer
package main
