// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package services adapts Wayfarer components to suture.Service.

  - HTTPServerService wraps *http.Server: ListenAndServe in a goroutine,
    Shutdown with a timeout when the context ends.
  - RunnerService wraps anything with RunWithContext(ctx) error: the
    websocket hub, the booking simulator and the NATS relay.
  - MaintenanceService runs a task on a fixed interval: Badger value log
    GC and DuckDB checkpoints.

Every wrapper implements fmt.Stringer so suture can name it in logs.
*/
package services
