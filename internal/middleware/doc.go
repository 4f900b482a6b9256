// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package middleware holds the HTTP middleware shared by every route.

  - RequestID: X-Request-ID propagation into the logging context.
  - PrometheusMetrics: request count and latency per chi route pattern.
  - SlowRequests: warns when a request exceeds a threshold.

All three use chi's WrapResponseWriter, which keeps http.Hijacker so the
websocket upgrade on /ws passes through unchanged.
*/
package middleware
