// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package database is the DuckDB-backed durable store for Wayfarer.
//
// # Overview
//
// One DB value implements every repository interface the domain packages
// declare:
//
//   - users.go: user profiles upserted on authenticate (presence.UserLookup,
//     notification.AdminDirectory)
//   - preferences.go: notification preferences (preferences.Store,
//     eligibility.PreferenceReader)
//   - notifications.go: the in-app inbox (notification.Repository)
//   - chat.go: chat rooms, participants and messages (chat.Store)
//   - bookings.go: the minimal booking record (booking.Store)
//
// # Resilience
//
// Every call goes through DB.run, which bounds it with
// database.query_timeout, routes it through a gobreaker circuit breaker and
// records latency and failures in Prometheus. While the breaker is open calls
// fail fast with gobreaker.ErrOpenState.
//
// Lookups that find nothing return (nil, nil). Callers decide whether that is
// NotFound.
//
// # Schema
//
// Timestamps are stored as UTC TIMESTAMP. Channel sets and notification data
// are JSON text columns encoded with goccy/go-json, so no DuckDB extension is
// required.
package database
