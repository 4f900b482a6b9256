// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/wayfarer/internal/logging"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// ErrNoToken is returned when a request carries no session token.
var ErrNoToken = errors.New("no session token")

// ContextWithClaims attaches verified claims to ctx.
func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, c)
}

// ClaimsFromContext returns the verified claims, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsContextKey).(*Claims)
	return c
}

// TokenFromRequest reads a bearer token from the Authorization header, or
// from the token query parameter for browser websocket clients that cannot
// set headers.
func TokenFromRequest(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", errors.New("malformed Authorization header")
		}
		return strings.TrimSpace(token), nil
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", ErrNoToken
}

// Middleware verifies session tokens on HTTP requests.
type Middleware struct {
	jwt *JWTManager
}

// NewMiddleware creates the middleware. A nil manager rejects every request
// that needs a session.
func NewMiddleware(jwt *JWTManager) *Middleware {
	return &Middleware{jwt: jwt}
}

// Authenticate requires a valid token.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.verify(r)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Rejected unauthenticated request")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// Optional attaches claims when a token is present. A request without a
// token passes through; a request with an invalid token is rejected.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := TokenFromRequest(r); errors.Is(err, ErrNoToken) {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.verify(r)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Rejected invalid session token")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

func (m *Middleware) verify(r *http.Request) (*Claims, error) {
	if m.jwt == nil {
		return nil, errors.New("session tokens are not configured")
	}
	token, err := TokenFromRequest(r)
	if err != nil {
		return nil, err
	}
	return m.jwt.ValidateToken(token)
}
