// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

//go:build !nats

package relay

import (
	"fmt"

	"github.com/tomtom215/wayfarer/internal/config"
)

// Available reports whether this build carries the NATS transport.
const Available = false

// NewNATS returns an error when NATS dependencies are not compiled in.
// Build with -tags=nats to enable the relay.
func NewNATS(_ *config.NATSConfig, _ string, _ LocalDelivery) (*Relay, error) {
	return nil, fmt.Errorf("NATS relay not available: build with -tags=nats")
}
