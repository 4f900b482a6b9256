// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package database

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/models"
)

func newBreaker(cfg *config.DatabaseConfig) *gobreaker.CircuitBreaker[interface{}] {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	timeout := cfg.BreakerTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	metrics.SetBreakerState(breakerName, 0)

	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= failures {
				logging.Warn().Uint32("failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening database circuit")
				return true
			}
			return false
		},
		// The caller giving up, or a missing row, is not a database failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, models.ErrNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("[CIRCUIT BREAKER] State transition")
			metrics.SetBreakerState(name, stateToFloat(to))
		},
	})
}

// run executes fn under the query timeout and the circuit breaker and
// records the call.
func (db *DB) run(ctx context.Context, operation, table string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	_, err := db.breaker.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})

	switch {
	case err == nil:
		metrics.RecordBreakerRequest(breakerName, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreakerRequest(breakerName, "rejected")
	default:
		metrics.RecordBreakerRequest(breakerName, "failure")
	}
	metrics.RecordRepositoryCall(operation, table, time.Since(start), err)
	return err
}

// BreakerState reports the current state of the database breaker.
func (db *DB) BreakerState() gobreaker.State {
	return db.breaker.State()
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
