// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package presence

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/wayfarer/internal/models"
)

const presenceKeyPrefix = "presence:"

// OpenBadger opens the presence database in dir. An empty dir opens an
// in-memory instance.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open presence store: %w", err)
	}
	return db, nil
}

// BadgerStore is a Store backed by BadgerDB, so last-seen times survive
// restarts.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore wraps an open database. The caller owns db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (s *BadgerStore) Upsert(ctx context.Context, p models.Presence) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal presence: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(presenceKeyPrefix+p.UserID), data); err != nil {
			return fmt.Errorf("set presence: %w", err)
		}
		return nil
	})
}

func (s *BadgerStore) Get(ctx context.Context, userID string) (*models.Presence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var p models.Presence
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(presenceKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get presence: %w", err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &p)
		})
	})
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

// Online returns the records currently marked online.
func (s *BadgerStore) Online(ctx context.Context) ([]models.Presence, error) {
	var out []models.Presence
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(presenceKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var p models.Presence
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				continue
			}
			if p.IsOnline {
				out = append(out, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan presence: %w", err)
	}
	return out, nil
}

// ResetOnline marks every stored record offline. Connections do not survive
// a restart, so this runs once at startup.
func (s *BadgerStore) ResetOnline(ctx context.Context) (int, error) {
	online, err := s.Online(ctx)
	if err != nil {
		return 0, err
	}
	for _, p := range online {
		p.IsOnline = false
		p.ConnectionID = ""
		if err := s.Upsert(ctx, p); err != nil {
			return 0, err
		}
	}
	return len(online), nil
}

// CollectGarbage rewrites value log files until one pass reclaims nothing.
// In-memory stores have no value log and return nil.
func (s *BadgerStore) CollectGarbage(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.db.RunValueLogGC(0.5)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode), errors.Is(err, badger.ErrRejected):
			return nil
		default:
			return fmt.Errorf("presence value log gc: %w", err)
		}
	}
}
