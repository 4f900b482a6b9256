// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package supervisor runs Wayfarer's long-lived components under a suture v4
supervisor tree.

	wayfarer (root)
	├── data-layer       presence value log GC, DuckDB checkpoints
	├── messaging-layer  websocket hub, booking simulator, NATS relay
	└── api-layer        HTTP server

A service that returns an error is restarted with backoff. Once a layer
exceeds FailureThreshold failures it backs off for FailureBackoff before
restarting again; failures decay at FailureDecay seconds per failure. A
crash in one layer does not stop the others.

Supervisor events (panics, restarts, backoff) are logged through sutureslog
on top of the zerolog slog bridge in internal/logging.

Components are adapted to suture.Service by the wrappers in the services
subpackage.
*/
package supervisor
