// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package rooms

import (
	"sort"
	"sync"
)

// AdminRoom is joined automatically by every admin connection.
const AdminRoom = "admin"

// UserRoom returns the personal room of a user.
func UserRoom(userID string) string {
	return "user_" + userID
}

// Registry is the connection to room membership table. Implementations own
// all membership state; every mutation goes through them.
type Registry interface {
	// Join adds connID to room and reports whether membership changed.
	Join(connID, room string) bool
	// Leave removes connID from room and reports whether membership changed.
	Leave(connID, room string) bool
	// LeaveAll drops every membership of connID and returns the rooms it left.
	LeaveAll(connID string) []string
	// Members returns the connections in room, sorted.
	Members(room string) []string
	// RoomsOf returns the rooms connID belongs to, sorted.
	RoomsOf(connID string) []string
	// IsMember reports whether connID is in room.
	IsMember(connID, room string) bool
	// RoomCount returns the number of non-empty rooms.
	RoomCount() int
}

// MemoryRegistry is a mutex-guarded Registry. Empty rooms are removed so a
// room exists exactly as long as it has members.
type MemoryRegistry struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]struct{}
	byConn map[string]map[string]struct{}
}

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		rooms:  make(map[string]map[string]struct{}),
		byConn: make(map[string]map[string]struct{}),
	}
}

func (r *MemoryRegistry) Join(connID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[room] = members
	}
	if _, already := members[connID]; already {
		return false
	}
	members[connID] = struct{}{}

	joined, ok := r.byConn[connID]
	if !ok {
		joined = make(map[string]struct{})
		r.byConn[connID] = joined
	}
	joined[room] = struct{}{}
	return true
}

func (r *MemoryRegistry) Leave(connID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(connID, room)
}

func (r *MemoryRegistry) leaveLocked(connID, room string) bool {
	members, ok := r.rooms[room]
	if !ok {
		return false
	}
	if _, member := members[connID]; !member {
		return false
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	if joined, ok := r.byConn[connID]; ok {
		delete(joined, room)
		if len(joined) == 0 {
			delete(r.byConn, connID)
		}
	}
	return true
}

func (r *MemoryRegistry) LeaveAll(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	left := sortedKeys(r.byConn[connID])
	for _, room := range left {
		r.leaveLocked(connID, room)
	}
	return left
}

func (r *MemoryRegistry) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.rooms[room])
}

func (r *MemoryRegistry) RoomsOf(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.byConn[connID])
}

func (r *MemoryRegistry) IsMember(connID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[room][connID]
	return ok
}

func (r *MemoryRegistry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
