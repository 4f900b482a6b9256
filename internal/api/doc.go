// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

/*
Package api is Wayfarer's HTTP surface on the chi router.

	GET    /ws                                   websocket upgrade
	GET    /metrics                              Prometheus
	GET    /api/v1/health/live                   liveness
	GET    /api/v1/health/ready                  readiness (storage checks)
	GET    /api/v1/notifications                 ?unread=true&limit=&offset=
	GET    /api/v1/notifications/unread-count
	PUT    /api/v1/notifications/read-all
	PUT    /api/v1/notifications/{id}/read
	DELETE /api/v1/notifications/{id}
	GET    /api/v1/preferences
	PUT    /api/v1/preferences/{type}
	GET    /api/v1/chat/rooms/{room}/messages    ?limit=&before=RFC3339&before_id=
	GET    /api/v1/presence/{userId}
	POST   /api/v1/notify/user                   admin
	POST   /api/v1/notify/admins                 admin

Every /api/v1 route except health requires a session token (Authorization:
Bearer or ?token=). /ws accepts an optional token unless
security.require_token is set; the websocket protocol's own authenticate
event establishes identity either way.

Responses use models.APIResponse. Domain errors map to status codes with
errors.Is: ErrAuthentication 401, ErrAuthorization 403, ErrNotFound 404,
validation failures 400, everything else 500.
*/
package api
