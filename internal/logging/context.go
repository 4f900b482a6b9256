// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
	connectionIDKey  contextKey = "connection_id"
	userIDKey        contextKey = "user_id"
)

// GenerateCorrelationID returns a short random id for grouping related log lines.
func GenerateCorrelationID() string {
	return uuid.New().String()[:8]
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey).(string)
	return id
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithConnection tags ctx with the websocket connection and, once
// authenticated, the user it speaks for.
func ContextWithConnection(ctx context.Context, connID, userID string) context.Context {
	ctx = context.WithValue(ctx, connectionIDKey, connID)
	if userID != "" {
		ctx = context.WithValue(ctx, userIDKey, userID)
	}
	return ctx
}

// Ctx returns the global logger enriched with every id stored in ctx.
//
//	logging.Ctx(ctx).Info().Msg("Message persisted")
func Ctx(ctx context.Context) *zerolog.Logger {
	logCtx := Logger().With()
	for _, key := range []contextKey{correlationIDKey, requestIDKey, connectionIDKey, userIDKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			logCtx = logCtx.Str(string(key), v)
		}
	}
	l := logCtx.Logger()
	return &l
}
