// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package presence tracks whether each user is online and when they were
// last seen.
//
// Presence is keyed by user, not connection. The most recent MarkOnline
// wins, and MarkOffline clears the record regardless of which connection
// disconnected. A user with two tabs who closes the older one therefore
// shows as offline while the newer tab is still open. This is kept as-is
// pending a product decision on per-connection presence.
//
// Every transition is broadcast to all connections as presence_update.
package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/events"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
)

// Broadcaster emits an event to every connection.
type Broadcaster interface {
	BroadcastToAll(event string, payload interface{}) int
}

// UserLookup resolves the profile snippet attached to presence_update.
type UserLookup interface {
	FindUser(ctx context.Context, userID string) (*models.User, error)
}

// Tracker owns presence transitions. Transitions are serialized so the
// stored record and the broadcast order agree.
type Tracker struct {
	mu    sync.Mutex
	store Store
	out   Broadcaster
	users UserLookup
	log   zerolog.Logger
}

// NewTracker creates a Tracker. users may be nil, in which case updates
// carry no profile snippet.
func NewTracker(store Store, out Broadcaster, users UserLookup) *Tracker {
	return &Tracker{
		store: store,
		out:   out,
		users: users,
		log:   logging.WithComponent("presence"),
	}
}

// MarkOnline records userID as online on connID.
func (t *Tracker) MarkOnline(ctx context.Context, userID, connID string, now time.Time) error {
	return t.transition(ctx, models.Presence{
		UserID:       userID,
		IsOnline:     true,
		ConnectionID: connID,
		LastSeenAt:   now,
	})
}

// MarkOffline records userID as offline. It does not check that the
// disconnecting connection is the one stored by the last MarkOnline.
func (t *Tracker) MarkOffline(ctx context.Context, userID string, now time.Time) error {
	return t.transition(ctx, models.Presence{
		UserID:     userID,
		IsOnline:   false,
		LastSeenAt: now,
	})
}

// GetPresence returns the stored record, or an offline record with a zero
// LastSeenAt for an unknown user.
func (t *Tracker) GetPresence(ctx context.Context, userID string) (models.Presence, error) {
	p, err := t.store.Get(ctx, userID)
	if err != nil {
		return models.Presence{}, fmt.Errorf("get presence: %w", err)
	}
	if p == nil {
		return models.Presence{UserID: userID}, nil
	}
	return *p, nil
}

func (t *Tracker) transition(ctx context.Context, p models.Presence) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.store.Upsert(ctx, p); err != nil {
		return fmt.Errorf("store presence: %w", err)
	}
	metrics.RecordPresence(p.IsOnline)

	update := events.PresenceUpdate{
		UserID:     p.UserID,
		IsOnline:   p.IsOnline,
		LastSeenAt: p.LastSeenAt,
	}
	if t.users != nil {
		u, err := t.users.FindUser(ctx, p.UserID)
		if err != nil {
			t.log.Warn().Err(err).Str("user_id", p.UserID).Msg("Presence update sent without profile")
		} else if u != nil {
			s := u.Summary()
			update.User = &s
		}
	}
	t.out.BroadcastToAll(events.EventPresenceUpdate, update)

	logging.Ctx(ctx).Debug().
		Str("user_id", p.UserID).
		Bool("online", p.IsOnline).
		Msg("Presence changed")
	return nil
}
