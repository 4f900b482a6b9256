// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package notification persists notifications and pushes them to live
// connections.
//
// IN_APP eligibility gates persistence: a notification the user would never
// see in their inbox is neither stored nor pushed. PUSH eligibility gates the
// live emission to the user's personal room. Delivery is best effort; callers
// do not wait for the recipient to receive the frame.
package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/events"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Repository stores notification rows.
type Repository interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error)
	// MarkNotificationRead reports false when no unread or read row matched.
	MarkNotificationRead(ctx context.Context, userID, id string, at time.Time) (bool, error)
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error)
	DeleteNotification(ctx context.Context, userID, id string) (bool, error)
	CountUnread(ctx context.Context, userID string) (int, error)
}

// AdminDirectory lists the users currently holding the admin role.
type AdminDirectory interface {
	ListAdmins(ctx context.Context) ([]*models.User, error)
}

// Eligibility decides whether a channel may be used.
type Eligibility interface {
	IsEligible(ctx context.Context, userID string, t models.NotificationType, channel models.Channel, now time.Time) bool
}

// Pusher emits an event to a user's personal room.
type Pusher interface {
	BroadcastToUser(userID, event string, payload interface{}) int
}

// Dispatcher sends notifications.
type Dispatcher struct {
	repo   Repository
	admins AdminDirectory
	elig   Eligibility
	push   Pusher
	now    func() time.Time
	log    zerolog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(repo Repository, admins AdminDirectory, elig Eligibility, push Pusher) *Dispatcher {
	return &Dispatcher{
		repo:   repo,
		admins: admins,
		elig:   elig,
		push:   push,
		now:    time.Now,
		log:    logging.WithComponent("notification"),
	}
}

// SendToUser persists a notification for userID when IN_APP is eligible and
// pushes it when PUSH is eligible. It returns (nil, nil) when IN_APP is not
// eligible.
func (d *Dispatcher) SendToUser(ctx context.Context, userID string, t models.NotificationType, title, message string, data map[string]interface{}) (*models.Notification, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown notification type %q", t)
	}
	now := d.now()

	if !d.elig.IsEligible(ctx, userID, t, models.ChannelInApp, now) {
		metrics.RecordNotification(string(t), "suppressed")
		logging.Ctx(ctx).Debug().Str("user_id", userID).Str("type", string(t)).Msg("Notification suppressed by preferences")
		return nil, nil
	}

	n := &models.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      t,
		Title:     title,
		Message:   message,
		Data:      data,
		CreatedAt: now.UTC(),
	}
	if err := d.repo.CreateNotification(ctx, n); err != nil {
		metrics.RecordNotification(string(t), "failed")
		return nil, fmt.Errorf("%w: create notification for %s: %w", models.ErrPersistence, userID, err)
	}
	metrics.RecordNotification(string(t), "persisted")

	if d.elig.IsEligible(ctx, userID, t, models.ChannelPush, now) {
		d.push.BroadcastToUser(userID, events.EventNotification, events.NotificationFrom(n))
		metrics.RecordNotification(string(t), "pushed")
	}
	return n, nil
}

// SendToAdmins calls SendToUser for every current admin. A failure for one
// admin does not stop delivery to the others; an error is returned only when
// every attempted admin failed.
func (d *Dispatcher) SendToAdmins(ctx context.Context, t models.NotificationType, title, message string, data map[string]interface{}) ([]*models.Notification, error) {
	admins, err := d.admins.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list admins: %w", models.ErrPersistence, err)
	}

	var (
		sent []*models.Notification
		errs []error
	)
	for _, admin := range admins {
		n, err := d.SendToUser(ctx, admin.ID, t, title, message, data)
		if err != nil {
			d.log.Warn().Err(err).Str("admin_id", admin.ID).Str("type", string(t)).Msg("Admin notification failed")
			errs = append(errs, err)
			continue
		}
		if n != nil {
			sent = append(sent, n)
		}
	}

	if len(admins) > 0 && len(errs) == len(admins) {
		return nil, fmt.Errorf("%w: %w", models.ErrPartialFailure, errors.Join(errs...))
	}
	return sent, nil
}

// List returns a page of userID's notifications, newest first.
func (d *Dispatcher) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	out, err := d.repo.ListNotifications(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: list notifications: %w", models.ErrPersistence, err)
	}
	return out, nil
}

// MarkRead marks one of userID's notifications read.
func (d *Dispatcher) MarkRead(ctx context.Context, userID, id string) error {
	ok, err := d.repo.MarkNotificationRead(ctx, userID, id, d.now().UTC())
	if err != nil {
		return fmt.Errorf("%w: mark read: %w", models.ErrPersistence, err)
	}
	if !ok {
		return fmt.Errorf("notification %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// MarkAllRead marks every unread notification of userID read and returns
// how many changed.
func (d *Dispatcher) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := d.repo.MarkAllNotificationsRead(ctx, userID, d.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%w: mark all read: %w", models.ErrPersistence, err)
	}
	return n, nil
}

// Delete removes one of userID's notifications.
func (d *Dispatcher) Delete(ctx context.Context, userID, id string) error {
	ok, err := d.repo.DeleteNotification(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("%w: delete notification: %w", models.ErrPersistence, err)
	}
	if !ok {
		return fmt.Errorf("notification %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// UnreadCount returns the number of unread notifications of userID.
func (d *Dispatcher) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := d.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: count unread: %w", models.ErrPersistence, err)
	}
	return n, nil
}
