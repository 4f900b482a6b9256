// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package main

import (
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/relay"
	"github.com/tomtom215/wayfarer/internal/rooms"
)

// initRelay connects router to peer instances over NATS. It returns nil when
// the relay is disabled, not compiled in, or fails to start; the instance
// then serves only its own connections.
func initRelay(cfg *config.NATSConfig, instanceID string, router *rooms.Router) *relay.Relay {
	if !cfg.Enabled {
		return nil
	}
	if !relay.Available {
		logging.Warn().Msg("NATS_ENABLED=true but NATS support not compiled (build with -tags nats)")
		return nil
	}

	r, err := relay.NewNATS(cfg, instanceID, router)
	if err != nil {
		logging.Error().Err(err).Str("url", cfg.URL).Msg("Failed to start NATS relay, continuing as a single instance")
		return nil
	}
	router.SetRelay(r, instanceID)
	logging.Info().
		Str("url", cfg.URL).
		Str("subject", cfg.Subject).
		Bool("embedded", cfg.EmbeddedServer).
		Msg("NATS relay enabled")
	return r
}
