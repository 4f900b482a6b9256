// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/wayfarer/internal/logging"
)

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*RunnerService)(nil)
	_ suture.Service = (*MaintenanceService)(nil)
)

type mockHTTPServer struct {
	mu          sync.Mutex
	listenErr   error
	shutdownErr error
	stop        chan struct{}
	shutdowns   int
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{stop: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	m.mu.Lock()
	err := m.listenErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	<-m.stop
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdowns++
	if m.shutdowns == 1 {
		close(m.stop)
	}
	return m.shutdownErr
}

func TestHTTPServerService(t *testing.T) {
	t.Run("default shutdown timeout", func(t *testing.T) {
		svc := NewHTTPServerService(newMockHTTPServer(), 0)
		if svc.shutdownTimeout != 10*time.Second {
			t.Errorf("shutdownTimeout = %v", svc.shutdownTimeout)
		}
		if svc.String() != "http-server" {
			t.Errorf("String() = %q", svc.String())
		}
	})

	t.Run("graceful shutdown on cancel", func(t *testing.T) {
		server := newMockHTTPServer()
		svc := NewHTTPServerService(server, time.Second)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()
		time.Sleep(10 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Serve = %v, want context.Canceled", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Serve did not return")
		}
		if server.shutdowns != 1 {
			t.Errorf("Shutdown called %d times", server.shutdowns)
		}
	})

	t.Run("listen failure is returned", func(t *testing.T) {
		server := newMockHTTPServer()
		server.listenErr = errors.New("address already in use")
		err := NewHTTPServerService(server, time.Second).Serve(context.Background())
		if err == nil || !errors.Is(err, server.listenErr) {
			t.Errorf("Serve = %v", err)
		}
	})

	t.Run("shutdown failure is returned", func(t *testing.T) {
		server := newMockHTTPServer()
		server.shutdownErr = errors.New("drain timed out")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewHTTPServerService(server, time.Second).Serve(ctx)
		if !errors.Is(err, server.shutdownErr) {
			t.Errorf("Serve = %v", err)
		}
	})
}

type runnerFunc func(ctx context.Context) error

func (f runnerFunc) RunWithContext(ctx context.Context) error { return f(ctx) }

func TestRunnerService(t *testing.T) {
	t.Run("names", func(t *testing.T) {
		r := runnerFunc(func(ctx context.Context) error { return nil })
		tests := []struct {
			svc  *RunnerService
			want string
		}{
			{NewWebSocketHubService(r), "websocket-hub"},
			{NewSimulatorService(r), "booking-simulator"},
			{NewRelayService(r), "nats-relay"},
			{NewRunnerService("custom", r), "custom"},
		}
		for _, tt := range tests {
			if got := tt.svc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		}
	})

	t.Run("cancellation passes through", func(t *testing.T) {
		svc := NewWebSocketHubService(runnerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Serve(ctx); err != context.Canceled {
			t.Errorf("Serve = %v, want context.Canceled", err)
		}
	})

	t.Run("failure is wrapped", func(t *testing.T) {
		boom := errors.New("subscribe: connection refused")
		svc := NewRelayService(runnerFunc(func(context.Context) error { return boom }))
		err := svc.Serve(context.Background())
		if !errors.Is(err, boom) || err.Error() != "nats-relay: subscribe: connection refused" {
			t.Errorf("Serve = %v", err)
		}
	})
}

func TestMaintenanceService(t *testing.T) {
	t.Run("runs task each interval", func(t *testing.T) {
		var runs atomic.Int32
		svc := NewMaintenanceService("duckdb-checkpoint", 10*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return nil
		})
		ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
		defer cancel()

		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve = %v", err)
		}
		if runs.Load() < 2 {
			t.Errorf("task ran %d times", runs.Load())
		}
	})

	t.Run("failed run does not stop the service", func(t *testing.T) {
		var runs atomic.Int32
		svc := NewMaintenanceService("presence-gc", 10*time.Millisecond, func(context.Context) error {
			runs.Add(1)
			return errors.New("disk full")
		})
		ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
		defer cancel()

		_ = svc.Serve(ctx)
		if runs.Load() < 2 {
			t.Errorf("task ran %d times after failing", runs.Load())
		}
	})

	t.Run("each run is bounded", func(t *testing.T) {
		svc := NewMaintenanceService("slow", 20*time.Millisecond, nil)
		if svc.timeout != 10*time.Millisecond {
			t.Errorf("timeout = %v", svc.timeout)
		}
		if NewMaintenanceService("x", 0, nil).interval != 5*time.Minute {
			t.Error("zero interval not defaulted")
		}
	})
}
