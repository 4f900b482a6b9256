// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		url     string
		want    string
		wantErr bool
	}{
		{"bearer header", "Bearer abc", "/ws", "abc", false},
		{"lowercase scheme", "bearer abc", "/ws", "abc", false},
		{"query param", "", "/ws?token=xyz", "xyz", false},
		{"header wins", "Bearer abc", "/ws?token=xyz", "abc", false},
		{"basic scheme", "Basic Zm9v", "/ws", "", true},
		{"empty bearer", "Bearer ", "/ws", "", true},
		{"missing", "", "/ws", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			got, err := TokenFromRequest(r)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("TokenFromRequest() = %q, %v", got, err)
			}
		})
	}

	_, err := TokenFromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("missing token err = %v, want ErrNoToken", err)
	}
}

func serveWith(mw func(http.Handler) http.Handler, r *http.Request) (*httptest.ResponseRecorder, *Claims) {
	var seen *Claims
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec, seen
}

func TestAuthenticateMiddleware(t *testing.T) {
	m := newTestManager(t, time.Hour)
	mw := NewMiddleware(m)
	token, _ := m.GenerateToken("u1", "Ada", "user")

	r := httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	rec, claims := serveWith(mw.Authenticate, r)
	if rec.Code != http.StatusNoContent || claims == nil || claims.UserID() != "u1" {
		t.Errorf("valid token: code=%d claims=%+v", rec.Code, claims)
	}

	rec, _ = serveWith(mw.Authenticate, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: code=%d", rec.Code)
	}

	rec, _ = serveWith(NewMiddleware(nil).Authenticate, r)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unconfigured manager: code=%d", rec.Code)
	}
}

func TestOptionalMiddleware(t *testing.T) {
	m := newTestManager(t, time.Hour)
	mw := NewMiddleware(m)

	rec, claims := serveWith(mw.Optional, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rec.Code != http.StatusNoContent || claims != nil {
		t.Errorf("no token: code=%d claims=%+v", rec.Code, claims)
	}

	rec, _ = serveWith(mw.Optional, httptest.NewRequest(http.MethodGet, "/ws?token=bogus", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: code=%d", rec.Code)
	}

	token, _ := m.GenerateToken("u9", "Bo", "admin")
	rec, claims = serveWith(mw.Optional, httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil))
	if rec.Code != http.StatusNoContent || claims == nil || !claims.IsAdmin() {
		t.Errorf("good token: code=%d claims=%+v", rec.Code, claims)
	}
}
