// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package presence

import (
	"context"
	"sync"

	"github.com/tomtom215/wayfarer/internal/models"
)

// Store persists one presence record per user.
type Store interface {
	// Upsert replaces the record for p.UserID.
	Upsert(ctx context.Context, p models.Presence) error
	// Get returns the record for userID, or (nil, nil) when none exists.
	Get(ctx context.Context, userID string) (*models.Presence, error)
}

// MemoryStore is a mutex-guarded Store that does not survive restarts.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]models.Presence
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]models.Presence)}
}

func (s *MemoryStore) Upsert(_ context.Context, p models.Presence) error {
	s.mu.Lock()
	s.rows[p.UserID] = p
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID string) (*models.Presence, error) {
	s.mu.RLock()
	p, ok := s.rows[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return &p, nil
}
