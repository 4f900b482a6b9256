// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/wayfarer/internal/models"
)

// CreateBooking inserts b. A second insert with the same id fails.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	return db.run(ctx, "insert", "bookings", func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO bookings (id, user_id, tour_id, tour_name, status, total_amount, payment_id, travel_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.UserID, b.TourID, b.TourName, b.Status, b.TotalAmount, b.PaymentID, b.TravelDate,
			b.CreatedAt.UTC(), b.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to insert booking %s: %w", b.ID, err)
		}
		return nil
	})
}

// FindBooking returns (nil, nil) for an unknown id.
func (db *DB) FindBooking(ctx context.Context, id string) (*models.Booking, error) {
	var b *models.Booking
	err := db.run(ctx, "select", "bookings", func(ctx context.Context) error {
		var found models.Booking
		err := db.conn.QueryRowContext(ctx, `
			SELECT id, user_id, tour_id, tour_name, status, total_amount, payment_id, travel_date, created_at, updated_at
			FROM bookings WHERE id = ?`, id).
			Scan(&found.ID, &found.UserID, &found.TourID, &found.TourName, &found.Status, &found.TotalAmount,
				&found.PaymentID, &found.TravelDate, &found.CreatedAt, &found.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find booking %s: %w", id, err)
		}
		b = &found
		return nil
	})
	return b, err
}

// UpdateBookingStatus sets the status, and the payment id when non-empty.
func (db *DB) UpdateBookingStatus(ctx context.Context, id, status, paymentID string, at time.Time) error {
	return db.run(ctx, "update", "bookings", func(ctx context.Context) error {
		var (
			res sql.Result
			err error
		)
		if paymentID == "" {
			res, err = db.conn.ExecContext(ctx,
				`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`, status, at.UTC(), id)
		} else {
			res, err = db.conn.ExecContext(ctx,
				`UPDATE bookings SET status = ?, payment_id = ?, updated_at = ? WHERE id = ?`, status, paymentID, at.UTC(), id)
		}
		if err != nil {
			return fmt.Errorf("failed to update booking %s: %w", id, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("%w: booking %s", models.ErrNotFound, id)
		}
		return nil
	})
}
