// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package database

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/wayfarer/internal/booking"
	"github.com/tomtom215/wayfarer/internal/chat"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/eligibility"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
	"github.com/tomtom215/wayfarer/internal/notification"
	"github.com/tomtom215/wayfarer/internal/preferences"
	"github.com/tomtom215/wayfarer/internal/presence"
)

var (
	_ notification.Repository      = (*DB)(nil)
	_ notification.AdminDirectory  = (*DB)(nil)
	_ preferences.Store            = (*DB)(nil)
	_ eligibility.PreferenceReader = (*DB)(nil)
	_ chat.Store                   = (*DB)(nil)
	_ booking.Store                = (*DB)(nil)
	_ presence.UserLookup          = (*DB)(nil)
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

// testDBSemaphore serializes DuckDB tests; concurrent CGO connections under
// CI load have hung in the past.
var testDBSemaphore = make(chan struct{}, 1)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	return setupTestDBWithConfig(t, &config.DatabaseConfig{
		Path:         ":memory:",
		MaxMemory:    "512MB",
		Threads:      2,
		QueryTimeout: 10 * time.Second,
	})
}

func setupTestDBWithConfig(t *testing.T, cfg *config.DatabaseConfig) *DB {
	t.Helper()
	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { closeQuietly(db) })
	return db
}

// ts returns a fixed UTC time at second precision.
func ts(day, hour, minute int) time.Time {
	return time.Date(2026, 6, day, hour, minute, 0, 0, time.UTC)
}

func TestNewCreatesSchemaIdempotently(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.createTables(ctx); err != nil {
		t.Fatalf("second createTables: %v", err)
	}
	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if u, err := db.FindUser(ctx, "nobody"); err != nil || u != nil {
		t.Fatalf("FindUser(missing) = %v, %v", u, err)
	}

	users := []*models.User{
		{ID: "u1", Name: "Alice", Role: models.RoleUser, UpdatedAt: ts(1, 9, 0)},
		{ID: "a1", Name: "Ada", Role: models.RoleAdmin, Email: "ada@example.com", UpdatedAt: ts(1, 9, 0)},
		{ID: "a2", Name: "Alan", Role: models.RoleAdmin, UpdatedAt: ts(1, 9, 0)},
	}
	for _, u := range users {
		if err := db.UpsertUser(ctx, u); err != nil {
			t.Fatalf("UpsertUser(%s): %v", u.ID, err)
		}
	}

	got, err := db.FindUser(ctx, "a1")
	if err != nil || got == nil {
		t.Fatalf("FindUser = %v, %v", got, err)
	}
	if got.Name != "Ada" || got.Email != "ada@example.com" || got.Role != models.RoleAdmin {
		t.Errorf("user = %+v", got)
	}

	// a2 demotes itself on its next authenticate.
	if err := db.UpsertUser(ctx, &models.User{ID: "a2", Name: "Alan", Role: models.RoleUser, UpdatedAt: ts(2, 9, 0)}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	admins, err := db.ListAdmins(ctx)
	if err != nil {
		t.Fatalf("ListAdmins: %v", err)
	}
	if len(admins) != 1 || admins[0].ID != "a1" {
		t.Errorf("admins = %+v, want only a1", admins)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	db := setupTestDBWithConfig(t, &config.DatabaseConfig{
		Path:            ":memory:",
		Threads:         1,
		QueryTimeout:    time.Second,
		BreakerFailures: 2,
		BreakerTimeout:  time.Hour,
	})
	ctx := context.Background()

	// Queries against a closed pool fail.
	if err := db.conn.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := db.FindUser(ctx, "u1"); err == nil || errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("call %d: err = %v, want a query error", i, err)
		}
	}
	if _, err := db.FindUser(ctx, "u1"); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want ErrOpenState", err)
	}
	if db.BreakerState() != gobreaker.StateOpen {
		t.Errorf("state = %v", db.BreakerState())
	}
}

func TestCancelledCallerDoesNotTripBreaker(t *testing.T) {
	db := setupTestDBWithConfig(t, &config.DatabaseConfig{
		Path:            ":memory:",
		Threads:         1,
		QueryTimeout:    time.Second,
		BreakerFailures: 1,
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _ = db.FindUser(ctx, "u1")
	if db.BreakerState() != gobreaker.StateClosed {
		t.Errorf("state = %v after a cancelled call", db.BreakerState())
	}
}
