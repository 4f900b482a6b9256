// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/models"
)

// Outbound is an encoded-later server event.
type Outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Encode renders one frame.
func Encode(event string, payload interface{}) ([]byte, error) {
	b, err := json.Marshal(Outbound{Event: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return b, nil
}

// ErrorPayload is the body of every *_error event.
type ErrorPayload struct {
	Error string `json:"error"`
}

type Authenticated struct {
	Success bool                `json:"success"`
	User    *models.UserSummary `json:"user,omitempty"`
}

type PresenceUpdate struct {
	UserID     string              `json:"userId"`
	IsOnline   bool                `json:"isOnline"`
	LastSeenAt time.Time           `json:"lastSeenAt"`
	User       *models.UserSummary `json:"user,omitempty"`
}

// RoomMembership is the payload of user_joined and user_left.
type RoomMembership struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Room     string `json:"room"`
}

type NewMessage struct {
	ID        string             `json:"id"`
	Message   string             `json:"message"`
	Room      string             `json:"room"`
	RoomID    string             `json:"roomId"`
	UserID    string             `json:"userId"`
	User      models.UserSummary `json:"user"`
	Timestamp time.Time          `json:"timestamp"`
}

// Typing is the payload of user_typing_start and user_typing_stop.
type Typing struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Room     string `json:"room"`
}

type Notification struct {
	ID        string                  `json:"id"`
	Type      models.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Data      map[string]interface{}  `json:"data,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
	Read      bool                    `json:"read"`
}

// NotificationFrom builds the push payload for a persisted notification.
func NotificationFrom(n *models.Notification) Notification {
	return Notification{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		Timestamp: n.CreatedAt,
		Read:      false,
	}
}

type BookingCreated struct {
	BookingID   string    `json:"bookingId"`
	UserID      string    `json:"userId"`
	UserName    string    `json:"userName"`
	TourID      string    `json:"tourId"`
	TourName    string    `json:"tourName,omitempty"`
	TotalAmount float64   `json:"totalAmount"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

type BookingStatusChanged struct {
	BookingID  string                 `json:"bookingId"`
	Status     string                 `json:"status"`
	Message    string                 `json:"message,omitempty"`
	UpdateData map[string]interface{} `json:"updateData,omitempty"`
	UpdatedBy  string                 `json:"updatedBy"`
	Timestamp  time.Time              `json:"timestamp"`
}

type UserBookingUpdated struct {
	BookingID string    `json:"bookingId"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type PaymentProcessed struct {
	BookingID string    `json:"bookingId"`
	PaymentID string    `json:"paymentId"`
	Status    string    `json:"status"`
	Amount    float64   `json:"amount"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type TourUpdated struct {
	TourID    string                 `json:"tourId"`
	Title     string                 `json:"title,omitempty"`
	Changes   map[string]interface{} `json:"changes,omitempty"`
	UpdatedBy string                 `json:"updatedBy"`
	Timestamp time.Time              `json:"timestamp"`
}
