// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	io_prometheus_client "github.com/prometheus/client_model/go"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated when absent", "", false},
		{"upstream id reused", "req-from-proxy", true},
		{"oversized id replaced", strings.Repeat("x", maxRequestIDLen+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got == "" || got != seen {
				t.Fatalf("header %q, context %q", got, seen)
			}
			if tt.keep != (got == tt.incoming) {
				t.Errorf("request id = %q, incoming %q", got, tt.incoming)
			}
		})
	}
}

func apiCounter(t *testing.T, method, pattern, code string) float64 {
	t.Helper()
	var m io_prometheus_client.Metric
	if err := metrics.APIRequestsTotal.WithLabelValues(method, pattern, code).Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestPrometheusMetricsUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Put("/api/v1/notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/api/v1/health/live", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	pattern := "/api/v1/notifications/{id}/read"
	before404 := apiCounter(t, http.MethodPut, pattern, "404")
	before200 := apiCounter(t, http.MethodGet, "/api/v1/health/live", "200")

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/api/v1/notifications/"+id+"/read", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))

	if got := apiCounter(t, http.MethodPut, pattern, "404"); got != before404+3 {
		t.Errorf("404 count = %v, want %v", got, before404+3)
	}
	if got := apiCounter(t, http.MethodGet, "/api/v1/health/live", "200"); got != before200+1 {
		t.Errorf("implicit 200 count = %v, want %v", got, before200+1)
	}
}

func TestPrometheusMetricsKeepsHijacker(t *testing.T) {
	var hijackable bool
	h := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hijackable = w.(http.Hijacker)
	}))

	srv := httptest.NewServer(h)
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	if !hijackable {
		t.Error("wrapped writer lost http.Hijacker")
	}
}

func TestSlowRequests(t *testing.T) {
	var buf bytes.Buffer
	logging.Init(logging.Config{Level: "warn", Output: &buf})
	defer logging.Init(logging.Config{Level: "error", Output: io.Discard})

	slow := SlowRequests(5 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusAccepted)
	}))
	fast := SlowRequests(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	fast.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fast", nil))
	if buf.Len() != 0 {
		t.Fatalf("fast request logged: %s", buf.String())
	}

	slow.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/slow", nil))
	out := buf.String()
	if !strings.Contains(out, "Slow request detected") || !strings.Contains(out, `"status":202`) {
		t.Errorf("log = %s", out)
	}
}

func TestSlowRequestsDisabled(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := SlowRequests(0)(next)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
