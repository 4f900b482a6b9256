// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package auth verifies the session tokens issued by the booking
// application's identity system.
//
// Wayfarer does not log users in. A client arrives holding an HS256 JWT
// whose subject is the user id; the REST API requires it and the websocket
// upgrade accepts it when present. The websocket authenticate event is a
// separate, trust-on-assertion step handled in internal/realtime.
package auth
