// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"fmt"
)

// ContextRunner blocks until ctx is canceled or it fails.
//
// Satisfied by *websocket.Hub, *booking.Simulator and *relay.Relay.
type ContextRunner interface {
	RunWithContext(ctx context.Context) error
}

// RunnerService supervises a ContextRunner.
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService wraps runner under name.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// NewWebSocketHubService wraps the websocket hub.
func NewWebSocketHubService(hub ContextRunner) *RunnerService {
	return NewRunnerService("websocket-hub", hub)
}

// NewSimulatorService wraps the booking flow simulator.
func NewSimulatorService(sim ContextRunner) *RunnerService {
	return NewRunnerService("booking-simulator", sim)
}

// NewRelayService wraps the cross-instance emission relay.
func NewRelayService(r ContextRunner) *RunnerService {
	return NewRunnerService("nats-relay", r)
}

// Serve implements suture.Service. Cancellation results pass through
// unchanged; other errors are wrapped with the service name.
func (s *RunnerService) Serve(ctx context.Context) error {
	err := s.runner.RunWithContext(ctx)
	if err == nil || ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%s: %w", s.name, err)
}

func (s *RunnerService) String() string {
	return s.name
}
