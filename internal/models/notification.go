// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NotificationType is the closed set of notification categories.
type NotificationType string

const (
	NotificationTypeBooking   NotificationType = "BOOKING"
	NotificationTypeTour      NotificationType = "TOUR"
	NotificationTypePayment   NotificationType = "PAYMENT"
	NotificationTypeSystem    NotificationType = "SYSTEM"
	NotificationTypePromotion NotificationType = "PROMOTION"
	NotificationTypeMessage   NotificationType = "MESSAGE"
)

// AllNotificationTypes lists every type in seed order.
var AllNotificationTypes = []NotificationType{
	NotificationTypeBooking,
	NotificationTypeTour,
	NotificationTypePayment,
	NotificationTypeSystem,
	NotificationTypePromotion,
	NotificationTypeMessage,
}

// Valid reports whether t is a known type.
func (t NotificationType) Valid() bool {
	for _, known := range AllNotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Channel is a delivery mode.
type Channel string

const (
	ChannelPush  Channel = "PUSH"
	ChannelEmail Channel = "EMAIL"
	ChannelInApp Channel = "IN_APP"
	ChannelSMS   Channel = "SMS"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelPush, ChannelEmail, ChannelInApp, ChannelSMS:
		return true
	}
	return false
}

// Frequency controls batching of non-push delivery.
type Frequency string

const (
	FrequencyImmediate Frequency = "immediate"
	FrequencyHourly    Frequency = "hourly"
	FrequencyDaily     Frequency = "daily"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyImmediate, FrequencyHourly, FrequencyDaily:
		return true
	}
	return false
}

// QuietHours is a local time-of-day window in "HH:MM" form. Start may be
// later than End, in which case the window wraps midnight.
type QuietHours struct {
	Start string `json:"start" validate:"required,hhmm"`
	End   string `json:"end" validate:"required,hhmm"`
}

// Bounds returns the window as minutes since midnight.
func (q QuietHours) Bounds() (start, end int, err error) {
	if start, err = ParseClock(q.Start); err != nil {
		return 0, 0, err
	}
	if end, err = ParseClock(q.End); err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// Contains reports whether minute-of-day m falls inside the window. Both
// bounds are inclusive.
func (q QuietHours) Contains(m int) (bool, error) {
	start, end, err := q.Bounds()
	if err != nil {
		return false, err
	}
	if start <= end {
		return m >= start && m <= end, nil
	}
	return m >= start || m <= end, nil
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || len(mm) != 2 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h*60 + m, nil
}

// NotificationPreference is unique per (UserID, Type).
type NotificationPreference struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	Type       NotificationType `json:"type"`
	Enabled    bool             `json:"enabled"`
	Channels   []Channel        `json:"channels"`
	Frequency  Frequency        `json:"frequency"`
	QuietHours *QuietHours      `json:"quietHours,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// HasChannel reports whether c is one of the preference's channels.
func (p *NotificationPreference) HasChannel(c Channel) bool {
	for _, ch := range p.Channels {
		if ch == c {
			return true
		}
	}
	return false
}

// Notification is a persisted in-app notification.
type Notification struct {
	ID        string                 `json:"id"`
	UserID    string                 `json:"userId"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"isRead"`
	CreatedAt time.Time              `json:"createdAt"`
	ReadAt    *time.Time             `json:"readAt,omitempty"`
}
