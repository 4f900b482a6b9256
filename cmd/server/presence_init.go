// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/presence"
)

// presenceStore is the selected presence backend. gc is nil for the
// in-memory store.
type presenceStore struct {
	store presence.Store
	gc    func(ctx context.Context) error
	close func() error
}

// openPresenceStore opens the store named by cfg.Store. A badger store left
// behind by a crashed process still holds online rows; they are reset since
// no connection survived the restart.
func openPresenceStore(cfg *config.PresenceConfig) (*presenceStore, error) {
	if cfg.Store != "badger" {
		logging.Info().Msg("Presence store: memory")
		return &presenceStore{
			store: presence.NewMemoryStore(),
			close: func() error { return nil },
		}, nil
	}

	db, err := presence.OpenBadger(cfg.Path)
	if err != nil {
		return nil, err
	}
	store := presence.NewBadgerStore(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	reset, err := store.ResetOnline(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("reset stale presence: %w", err)
	}
	logging.Info().Str("path", cfg.Path).Int("reset", reset).Msg("Presence store: badger")

	return &presenceStore{
		store: store,
		gc:    store.CollectGarbage,
		close: db.Close,
	}, nil
}
