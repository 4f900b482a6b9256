// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package models

import "time"

// ChatRoom is the durable counterpart of a live chat room. Name matches the
// live room name.
type ChatRoom struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ChatRoomParticipant is unique per (RoomID, UserID).
type ChatRoomParticipant struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	UserID     string    `json:"userId"`
	JoinedAt   time.Time `json:"joinedAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// ChatMessage is immutable once stored.
type ChatMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MessageCursor positions a history page. Messages strictly older than
// (CreatedAt, ID) in (created_at DESC, id DESC) order come next. An empty ID
// excludes every message at CreatedAt.
type MessageCursor struct {
	CreatedAt time.Time
	ID        string
}

// Next returns the cursor continuing after m.
func (m *ChatMessage) Next() MessageCursor {
	return MessageCursor{CreatedAt: m.CreatedAt, ID: m.ID}
}

// After reports whether m sorts after c in history order, i.e. belongs on
// a later page.
func (c MessageCursor) After(m *ChatMessage) bool {
	if m.CreatedAt.Equal(c.CreatedAt) {
		return m.ID < c.ID
	}
	return m.CreatedAt.Before(c.CreatedAt)
}
