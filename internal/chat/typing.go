// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package chat

import (
	"sort"
	"sync"

	"github.com/tomtom215/wayfarer/internal/events"
)

type typingEntry struct {
	userID   string
	userName string
}

// TypingTracker holds who is typing where. There is no timeout; entries
// leave through Stop or Forget.
type TypingTracker struct {
	mu     sync.Mutex
	byRoom map[string]map[string]typingEntry // room -> connID -> entry
}

// NewTypingTracker creates an empty tracker.
func NewTypingTracker() *TypingTracker {
	return &TypingTracker{byRoom: make(map[string]map[string]typingEntry)}
}

// Start records s as typing in room.
func (t *TypingTracker) Start(room string, s Sender) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conns := t.byRoom[room]
	if conns == nil {
		conns = make(map[string]typingEntry)
		t.byRoom[room] = conns
	}
	conns[s.ConnID] = typingEntry{userID: s.UserID, userName: s.Name}
}

// Stop clears connID in room.
func (t *TypingTracker) Stop(room, connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(room, connID)
}

// Forget clears connID in every room and returns how many entries it had.
func (t *TypingTracker) Forget(connID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for room, conns := range t.byRoom {
		if _, ok := conns[connID]; ok {
			t.removeLocked(room, connID)
			n++
		}
	}
	return n
}

func (t *TypingTracker) removeLocked(room, connID string) {
	conns := t.byRoom[room]
	if conns == nil {
		return
	}
	delete(conns, connID)
	if len(conns) == 0 {
		delete(t.byRoom, room)
	}
}

// Snapshot lists the typing users of room, ordered by user id.
func (t *TypingTracker) Snapshot(room string) []events.Typing {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]events.Typing, 0, len(t.byRoom[room]))
	for _, e := range t.byRoom[room] {
		out = append(out, events.Typing{UserID: e.userID, UserName: e.userName, Room: room})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
