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

	"github.com/tomtom215/wayfarer/internal/models"
)

// UpsertUser stores the identity a connection asserted.
func (db *DB) UpsertUser(ctx context.Context, u *models.User) error {
	return db.run(ctx, "upsert", "users", func(ctx context.Context) error {
		_, err := db.conn.ExecContext(ctx, `
			INSERT INTO users (id, email, name, role, avatar, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				email = excluded.email,
				name = excluded.name,
				role = excluded.role,
				avatar = excluded.avatar,
				updated_at = excluded.updated_at`,
			u.ID, u.Email, u.Name, string(u.Role), u.Avatar, u.UpdatedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", u.ID, err)
		}
		return nil
	})
}

// FindUser returns (nil, nil) for an unknown id.
func (db *DB) FindUser(ctx context.Context, id string) (*models.User, error) {
	var u *models.User
	err := db.run(ctx, "select", "users", func(ctx context.Context) error {
		row := db.conn.QueryRowContext(ctx, `
			SELECT id, email, name, role, avatar, updated_at
			FROM users WHERE id = ?`, id)
		found, err := scanUser(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to find user %s: %w", id, err)
		}
		u = found
		return nil
	})
	return u, err
}

// ListAdmins returns every user whose last asserted role is admin.
func (db *DB) ListAdmins(ctx context.Context) ([]*models.User, error) {
	var admins []*models.User
	err := db.run(ctx, "select", "users", func(ctx context.Context) error {
		rows, err := db.conn.QueryContext(ctx, `
			SELECT id, email, name, role, avatar, updated_at
			FROM users WHERE role = ? ORDER BY id`, string(models.RoleAdmin))
		if err != nil {
			return fmt.Errorf("failed to list admins: %w", err)
		}
		defer closeRows(rows, "users")

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("failed to scan admin: %w", err)
			}
			admins = append(admins, u)
		}
		return rows.Err()
	})
	return admins, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	if err := s.Scan(&u.ID, &u.Email, &u.Name, &role, &u.Avatar, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}
