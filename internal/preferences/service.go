// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package preferences manages per-user notification preferences.
//
// A user's rows are seeded from a fixed default table the first time the
// list is read and none exist. Rows only change through Update afterwards;
// changing the defaults never rewrites existing rows.
package preferences

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// ErrUnknownType is returned for a notification type outside the enum.
var ErrUnknownType = errors.New("unknown notification type")

// Store persists preference rows.
type Store interface {
	FindPreference(ctx context.Context, userID string, t models.NotificationType) (*models.NotificationPreference, error)
	ListPreferences(ctx context.Context, userID string) ([]*models.NotificationPreference, error)
	// InsertPreferences inserts rows, skipping any (user, type) that already exists.
	InsertPreferences(ctx context.Context, prefs []*models.NotificationPreference) error
	UpsertPreference(ctx context.Context, p *models.NotificationPreference) error
}

type seed struct {
	enabled   bool
	channels  []models.Channel
	frequency models.Frequency
}

var defaultSeed = map[models.NotificationType]seed{
	models.NotificationTypeBooking:   {true, []models.Channel{models.ChannelPush, models.ChannelInApp}, models.FrequencyImmediate},
	models.NotificationTypeTour:      {true, []models.Channel{models.ChannelPush, models.ChannelInApp}, models.FrequencyImmediate},
	models.NotificationTypePayment:   {true, []models.Channel{models.ChannelPush, models.ChannelInApp, models.ChannelEmail}, models.FrequencyImmediate},
	models.NotificationTypeSystem:    {true, []models.Channel{models.ChannelInApp}, models.FrequencyImmediate},
	models.NotificationTypePromotion: {false, []models.Channel{models.ChannelInApp}, models.FrequencyDaily},
	models.NotificationTypeMessage:   {true, []models.Channel{models.ChannelPush, models.ChannelInApp}, models.FrequencyImmediate},
}

// Defaults returns the seed rows for userID in AllNotificationTypes order.
func Defaults(userID string, now time.Time) []*models.NotificationPreference {
	out := make([]*models.NotificationPreference, 0, len(models.AllNotificationTypes))
	for _, t := range models.AllNotificationTypes {
		s := defaultSeed[t]
		out = append(out, &models.NotificationPreference{
			ID:        uuid.New().String(),
			UserID:    userID,
			Type:      t,
			Enabled:   s.enabled,
			Channels:  append([]models.Channel(nil), s.channels...),
			Frequency: s.frequency,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out
}

// Update is a partial change to one preference row. Nil or empty fields are
// left unchanged.
type Update struct {
	Enabled         *bool              `json:"enabled,omitempty"`
	Channels        []models.Channel   `json:"channels,omitempty" validate:"omitempty,min=1,dive,channel"`
	Frequency       models.Frequency   `json:"frequency,omitempty" validate:"omitempty,frequency"`
	QuietHours      *models.QuietHours `json:"quietHours,omitempty"`
	ClearQuietHours bool               `json:"clearQuietHours,omitempty"`
}

// Service reads and updates preferences.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a Service over store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// List returns every preference of userID, seeding defaults when none exist.
func (s *Service) List(ctx context.Context, userID string) ([]*models.NotificationPreference, error) {
	prefs, err := s.store.ListPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	if len(prefs) > 0 {
		return prefs, nil
	}

	seeded := Defaults(userID, s.now().UTC())
	if err := s.store.InsertPreferences(ctx, seeded); err != nil {
		return nil, fmt.Errorf("seed preferences: %w", err)
	}
	logging.Ctx(ctx).Debug().Str("user_id", userID).Int("rows", len(seeded)).Msg("Seeded default notification preferences")

	// A concurrent request may have seeded first; InsertPreferences skipped its rows.
	prefs, err = s.store.ListPreferences(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	return prefs, nil
}

// Update applies u to the (userID, t) row and returns the stored result.
func (s *Service) Update(ctx context.Context, userID string, t models.NotificationType, u Update) (*models.NotificationPreference, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	if verr := validation.ValidateStruct(&u); verr != nil {
		return nil, verr
	}

	prefs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	var current *models.NotificationPreference
	for _, p := range prefs {
		if p.Type == t {
			current = p
			break
		}
	}
	if current == nil {
		// Rows created before a type was added to the enum.
		for _, d := range Defaults(userID, s.now().UTC()) {
			if d.Type == t {
				current = d
			}
		}
	}

	if u.Enabled != nil {
		current.Enabled = *u.Enabled
	}
	if len(u.Channels) > 0 {
		current.Channels = dedupeChannels(u.Channels)
	}
	if u.Frequency != "" {
		current.Frequency = u.Frequency
	}
	if u.ClearQuietHours {
		current.QuietHours = nil
	} else if u.QuietHours != nil {
		q := *u.QuietHours
		current.QuietHours = &q
	}
	current.UpdatedAt = s.now().UTC()

	if err := s.store.UpsertPreference(ctx, current); err != nil {
		return nil, fmt.Errorf("update preference: %w", err)
	}
	return current, nil
}

func dedupeChannels(in []models.Channel) []models.Channel {
	seen := make(map[models.Channel]bool, len(in))
	out := make([]models.Channel, 0, len(in))
	for _, c := range in {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
