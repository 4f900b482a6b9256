// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package models

import "time"

// Role is the coarse authorization role asserted by a connection.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is the identity a client last asserted on authenticate.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	Avatar    string    `json:"avatar,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserSummary is the denormalized profile embedded in presence and chat events.
type UserSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Summary returns the denormalized view of u.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

// Presence is the last known online state of a user.
type Presence struct {
	UserID       string    `json:"userId"`
	IsOnline     bool      `json:"isOnline"`
	ConnectionID string    `json:"connectionId,omitempty"`
	LastSeenAt   time.Time `json:"lastSeenAt"`
}
