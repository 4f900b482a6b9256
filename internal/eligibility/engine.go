// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package eligibility decides whether a notification may be delivered to a
// user over a channel at a given time.
//
// The decision reads one preference row and nothing else. A missing row or a
// failed lookup allows delivery: over-delivering one notification is
// preferred to silently blocking every notification while the store is
// unhealthy. Quiet hours gate PUSH only.
package eligibility

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
)

// PreferenceReader loads a single preference row. It returns (nil, nil) when
// the user has no row for the type and must not create one.
type PreferenceReader interface {
	FindPreference(ctx context.Context, userID string, t models.NotificationType) (*models.NotificationPreference, error)
}

// Reason explains a Decision.
type Reason string

const (
	ReasonAllowed        Reason = "allowed"
	ReasonNoPreference   Reason = "no_preference"
	ReasonLookupFailed   Reason = "lookup_failed"
	ReasonDisabled       Reason = "disabled"
	ReasonChannelOff     Reason = "channel_not_selected"
	ReasonQuietHours     Reason = "quiet_hours"
	ReasonBadQuietWindow Reason = "invalid_quiet_hours"
)

// Decision is the outcome of an eligibility check.
type Decision struct {
	Eligible bool
	Reason   Reason
}

// Engine evaluates preferences.
type Engine struct {
	prefs   PreferenceReader
	loc     *time.Location
	timeout time.Duration
	log     zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the zone quiet hours are evaluated in. Default: time.Local.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithTimeout bounds the preference lookup. Default: 2s.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates an Engine reading from prefs.
func NewEngine(prefs PreferenceReader, opts ...Option) *Engine {
	e := &Engine{
		prefs:   prefs,
		loc:     time.Local,
		timeout: 2 * time.Second,
		log:     logging.WithComponent("eligibility"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsEligible reports whether a notification of type t may go to userID over
// channel at now.
func (e *Engine) IsEligible(ctx context.Context, userID string, t models.NotificationType, channel models.Channel, now time.Time) bool {
	return e.Decide(ctx, userID, t, channel, now).Eligible
}

// Decide is IsEligible with the reason attached.
func (e *Engine) Decide(ctx context.Context, userID string, t models.NotificationType, channel models.Channel, now time.Time) Decision {
	lookupCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	pref, err := e.prefs.FindPreference(lookupCtx, userID, t)
	if err != nil {
		metrics.RecordEligibilityFailOpen()
		logging.Ctx(ctx).Warn().Err(err).
			Str("user_id", userID).
			Str("type", string(t)).
			Str("channel", string(channel)).
			Msg("Preference lookup failed, allowing delivery")
		return Decision{Eligible: true, Reason: ReasonLookupFailed}
	}
	if pref == nil {
		return Decision{Eligible: true, Reason: ReasonNoPreference}
	}
	if !pref.Enabled {
		return Decision{Eligible: false, Reason: ReasonDisabled}
	}
	if !pref.HasChannel(channel) {
		return Decision{Eligible: false, Reason: ReasonChannelOff}
	}
	if channel != models.ChannelPush || pref.QuietHours == nil {
		return Decision{Eligible: true, Reason: ReasonAllowed}
	}

	local := now.In(e.loc)
	inside, err := pref.QuietHours.Contains(local.Hour()*60 + local.Minute())
	if err != nil {
		e.log.Warn().Err(err).Str("user_id", userID).Str("type", string(t)).Msg("Ignoring malformed quiet hours")
		return Decision{Eligible: true, Reason: ReasonBadQuietWindow}
	}
	if inside {
		return Decision{Eligible: false, Reason: ReasonQuietHours}
	}
	return Decision{Eligible: true, Reason: ReasonAllowed}
}
