// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package realtime

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/tomtom215/wayfarer/internal/auth"
	"github.com/tomtom215/wayfarer/internal/booking"
	"github.com/tomtom215/wayfarer/internal/chat"
	"github.com/tomtom215/wayfarer/internal/models"
)

// State is the authentication state of a connection.
type State int

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

func (s State) String() string {
	if s == StateAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// session is the per-connection state. Frames of one connection are handled
// sequentially; the mutex covers reads from other goroutines.
type session struct {
	connID  string
	token   *auth.Claims
	limiter *rate.Limiter

	mu    sync.RWMutex
	state State
	user  *models.User
}

func newSession(connID string, token *auth.Claims, limiter *rate.Limiter) *session {
	return &session{connID: connID, token: token, limiter: limiter}
}

func (s *session) snapshot() (State, *models.User) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.user
}

// authenticate moves the session to StateAuthenticated. It fails when the
// session already left StateUnauthenticated.
func (s *session) authenticate(u *models.User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUnauthenticated {
		return false
	}
	s.state = StateAuthenticated
	s.user = u
	return true
}

func (s *session) allow() bool {
	return s.limiter == nil || s.limiter.Allow()
}

func (s *session) sender(u *models.User) chat.Sender {
	return chat.Sender{ConnID: s.connID, UserID: u.ID, Name: u.Name, Avatar: u.Avatar}
}

func actor(u *models.User) booking.Actor {
	return booking.Actor{UserID: u.ID, Name: u.Name, Role: u.Role}
}
