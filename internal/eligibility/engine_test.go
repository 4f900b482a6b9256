// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package eligibility

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

type prefKey struct {
	user string
	t    models.NotificationType
}

type stubPrefs struct {
	rows  map[prefKey]*models.NotificationPreference
	err   error
	block bool
	calls int
}

func (s *stubPrefs) FindPreference(ctx context.Context, userID string, t models.NotificationType) (*models.NotificationPreference, error) {
	s.calls++
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.rows[prefKey{userID, t}], nil
}

func at(hhmm string) time.Time {
	m, err := models.ParseClock(hhmm)
	if err != nil {
		panic(err)
	}
	return time.Date(2026, 5, 4, m/60, m%60, 0, 0, time.UTC)
}

func TestNoPreferenceIsAlwaysEligible(t *testing.T) {
	engine := NewEngine(&stubPrefs{}, WithLocation(time.UTC))
	channels := []models.Channel{models.ChannelPush, models.ChannelEmail, models.ChannelInApp, models.ChannelSMS}
	times := []string{"00:00", "03:15", "12:00", "23:59"}

	for _, nt := range models.AllNotificationTypes {
		for _, ch := range channels {
			for _, hhmm := range times {
				d := engine.Decide(context.Background(), "nobody", nt, ch, at(hhmm))
				if !d.Eligible || d.Reason != ReasonNoPreference {
					t.Errorf("%s/%s@%s = %+v, want eligible/no_preference", nt, ch, hhmm, d)
				}
			}
		}
	}
}

func TestQuietHoursWrapMidnight(t *testing.T) {
	prefs := &stubPrefs{rows: map[prefKey]*models.NotificationPreference{
		{"u1", models.NotificationTypeBooking}: {
			UserID:     "u1",
			Type:       models.NotificationTypeBooking,
			Enabled:    true,
			Channels:   []models.Channel{models.ChannelPush, models.ChannelInApp},
			Frequency:  models.FrequencyImmediate,
			QuietHours: &models.QuietHours{Start: "22:00", End: "06:00"},
		},
	}}
	engine := NewEngine(prefs, WithLocation(time.UTC))
	ctx := context.Background()

	tests := []struct {
		name    string
		channel models.Channel
		at      string
		want    bool
		reason  Reason
	}{
		{"push blocked late evening", models.ChannelPush, "23:30", false, ReasonQuietHours},
		{"push blocked before dawn", models.ChannelPush, "05:00", false, ReasonQuietHours},
		{"push allowed mid morning", models.ChannelPush, "10:00", true, ReasonAllowed},
		{"in-app ignores quiet hours", models.ChannelInApp, "23:30", true, ReasonAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := engine.Decide(ctx, "u1", models.NotificationTypeBooking, tt.channel, at(tt.at))
			if d.Eligible != tt.want || d.Reason != tt.reason {
				t.Errorf("Decide = %+v, want eligible=%v reason=%s", d, tt.want, tt.reason)
			}
		})
	}
}

func TestQuietHoursUseConfiguredLocation(t *testing.T) {
	tz := time.FixedZone("UTC+2", 2*60*60)
	prefs := &stubPrefs{rows: map[prefKey]*models.NotificationPreference{
		{"u1", models.NotificationTypeTour}: {
			Enabled:    true,
			Channels:   []models.Channel{models.ChannelPush},
			QuietHours: &models.QuietHours{Start: "22:00", End: "06:00"},
		},
	}}
	engine := NewEngine(prefs, WithLocation(tz))

	// 21:30 UTC is 23:30 in UTC+2.
	if engine.IsEligible(context.Background(), "u1", models.NotificationTypeTour, models.ChannelPush, at("21:30")) {
		t.Error("expected push to be blocked in the configured zone")
	}
}

func TestDisabledAndChannelChecks(t *testing.T) {
	prefs := &stubPrefs{rows: map[prefKey]*models.NotificationPreference{
		{"u1", models.NotificationTypePromotion}: {Enabled: false, Channels: []models.Channel{models.ChannelInApp}},
		{"u1", models.NotificationTypeBooking}:   {Enabled: true, Channels: []models.Channel{models.ChannelInApp}},
	}}
	engine := NewEngine(prefs)
	ctx := context.Background()
	now := at("12:00")

	if d := engine.Decide(ctx, "u1", models.NotificationTypePromotion, models.ChannelInApp, now); d.Eligible || d.Reason != ReasonDisabled {
		t.Errorf("disabled preference: %+v", d)
	}
	if d := engine.Decide(ctx, "u1", models.NotificationTypeBooking, models.ChannelPush, now); d.Eligible || d.Reason != ReasonChannelOff {
		t.Errorf("unselected channel: %+v", d)
	}
	if !engine.IsEligible(ctx, "u1", models.NotificationTypeBooking, models.ChannelInApp, now) {
		t.Error("selected channel should be eligible")
	}
}

func TestLookupFailureFailsOpen(t *testing.T) {
	engine := NewEngine(&stubPrefs{err: errors.New("database is closed")})
	d := engine.Decide(context.Background(), "u1", models.NotificationTypePayment, models.ChannelPush, at("23:30"))
	if !d.Eligible || d.Reason != ReasonLookupFailed {
		t.Errorf("Decide = %+v, want fail-open", d)
	}
}

func TestLookupTimeoutFailsOpen(t *testing.T) {
	engine := NewEngine(&stubPrefs{block: true}, WithTimeout(10*time.Millisecond))

	start := time.Now()
	d := engine.Decide(context.Background(), "u1", models.NotificationTypeSystem, models.ChannelInApp, at("12:00"))
	if !d.Eligible || d.Reason != ReasonLookupFailed {
		t.Errorf("Decide = %+v, want fail-open", d)
	}
	if time.Since(start) > time.Second {
		t.Error("lookup was not bounded by the timeout")
	}
}

func TestMalformedQuietHoursIgnored(t *testing.T) {
	prefs := &stubPrefs{rows: map[prefKey]*models.NotificationPreference{
		{"u1", models.NotificationTypeMessage}: {
			Enabled:    true,
			Channels:   []models.Channel{models.ChannelPush},
			QuietHours: &models.QuietHours{Start: "late", End: "early"},
		},
	}}
	engine := NewEngine(prefs)
	d := engine.Decide(context.Background(), "u1", models.NotificationTypeMessage, models.ChannelPush, at("23:30"))
	if !d.Eligible || d.Reason != ReasonBadQuietWindow {
		t.Errorf("Decide = %+v", d)
	}
}

func TestRepeatedCallsAreIdempotent(t *testing.T) {
	prefs := &stubPrefs{rows: map[prefKey]*models.NotificationPreference{
		{"u1", models.NotificationTypeBooking}: {Enabled: true, Channels: []models.Channel{models.ChannelPush}},
	}}
	engine := NewEngine(prefs)
	now := at("08:00")
	first := engine.IsEligible(context.Background(), "u1", models.NotificationTypeBooking, models.ChannelPush, now)
	for i := 0; i < 5; i++ {
		if engine.IsEligible(context.Background(), "u1", models.NotificationTypeBooking, models.ChannelPush, now) != first {
			t.Fatal("result changed between identical calls")
		}
	}
	if prefs.calls != 6 {
		t.Errorf("lookups = %d, want 6 (no caching)", prefs.calls)
	}
}
