// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package authz decides role permissions with Casbin.
//
// Subjects are roles (user, admin), objects are domain nouns (booking,
// payment, notify) and actions are verbs. The embedded policy makes admin
// inherit every user permission and adds the admin-only actions:
//
//	p, admin, booking, update_status
//	p, admin, notify, send
//
// Set security.casbin.policy_path to load a policy file instead.
package authz
