// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package authz

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/wayfarer/internal/auth"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/models"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func newTestEnforcer(t *testing.T) *Enforcer {
	t.Helper()
	e, err := NewEnforcer(nil)
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestEmbeddedPolicy(t *testing.T) {
	e := newTestEnforcer(t)

	tests := []struct {
		role   models.Role
		object string
		action string
		want   bool
	}{
		{models.RoleAdmin, ObjBooking, ActUpdateStatus, true},
		{models.RoleUser, ObjBooking, ActUpdateStatus, false},
		{models.RoleAdmin, ObjNotify, ActSend, true},
		{models.RoleUser, ObjNotify, ActSend, false},
		{models.RoleUser, ObjBooking, ActCreate, true},
		{models.RoleAdmin, ObjBooking, ActCreate, true},
		{models.RoleUser, ObjPayment, ActProcess, true},
		{models.Role("guest"), ObjBooking, ActCreate, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+tt.object+"/"+tt.action, func(t *testing.T) {
			if got := e.Can(tt.role, tt.object, tt.action); got != tt.want {
				t.Errorf("Can = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolicyFileOverridesEmbedded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte("p, user, booking, update_status\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e, err := NewEnforcer(&EnforcerConfig{PolicyPath: path})
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}
	defer e.Close()

	if !e.Can(models.RoleUser, ObjBooking, ActUpdateStatus) {
		t.Error("file policy not applied")
	}
	if e.Can(models.RoleAdmin, ObjNotify, ActSend) {
		t.Error("embedded policy should not be loaded alongside a policy file")
	}
}

func TestAuthorizeMiddleware(t *testing.T) {
	e := newTestEnforcer(t)
	handler := e.Authorize(ObjNotify, ActSend)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		claims *auth.Claims
		want   int
	}{
		{"no claims", nil, http.StatusForbidden},
		{"user", &auth.Claims{Role: string(models.RoleUser)}, http.StatusForbidden},
		{"admin", &auth.Claims{Role: string(models.RoleAdmin)}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/notify/user", nil)
			if tt.claims != nil {
				req = req.WithContext(auth.ContextWithClaims(req.Context(), tt.claims))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
