// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package booking

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/events"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// Step is one simulated transition, At after the flow started.
type Step struct {
	At      time.Duration
	Status  string
	Message string
}

// DefaultSteps builds the CONFIRMED, PAID, COMPLETED script from cfg.
func DefaultSteps(cfg config.SimulationConfig) []Step {
	return []Step{
		{At: cfg.ConfirmDelay, Status: "CONFIRMED", Message: "Your booking has been confirmed"},
		{At: cfg.PaidDelay, Status: "PAID", Message: "Payment received for your booking"},
		{At: cfg.CompleteDelay, Status: "COMPLETED", Message: "Enjoy your trip! Your booking is complete"},
	}
}

// UserEmitter delivers to a user's personal room.
type UserEmitter interface {
	BroadcastToUser(userID, event string, payload interface{}) int
}

type flow struct {
	cancel context.CancelFunc
}

// Simulator runs cancellable booking flows.
type Simulator struct {
	out   UserEmitter
	steps []Step
	log   zerolog.Logger

	mu     sync.Mutex
	flows  map[string]*flow
	closed bool
	wg     sync.WaitGroup
}

// NewSimulator creates a Simulator emitting steps through out.
func NewSimulator(out UserEmitter, steps []Step) *Simulator {
	return &Simulator{
		out:   out,
		steps: steps,
		log:   logging.WithComponent("booking-simulator"),
		flows: make(map[string]*flow),
	}
}

// Start schedules the flow for bookingID, replacing any flow already pending
// for it. It returns false once the simulator has shut down.
func (s *Simulator) Start(bookingID, userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if prev, ok := s.flows[bookingID]; ok {
		prev.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &flow{cancel: cancel}
	s.flows[bookingID] = f
	metrics.SetPendingSimulations(len(s.flows))

	s.wg.Add(1)
	go s.run(ctx, f, bookingID, userID)
	return true
}

func (s *Simulator) run(ctx context.Context, f *flow, bookingID, userID string) {
	defer s.wg.Done()
	defer s.finish(bookingID, f)

	started := time.Now()
	for _, step := range s.steps {
		wait := step.At - time.Since(started)
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Debug().Str("booking_id", bookingID).Msg("Simulated booking flow cancelled")
			return
		case <-timer.C:
		}

		s.out.BroadcastToUser(userID, events.EventUserBookingUpdated, events.UserBookingUpdated{
			BookingID: bookingID,
			Status:    step.Status,
			Message:   step.Message,
			Timestamp: time.Now().UTC(),
		})
	}
}

func (s *Simulator) finish(bookingID string, f *flow) {
	f.cancel()
	s.mu.Lock()
	if s.flows[bookingID] == f {
		delete(s.flows, bookingID)
	}
	metrics.SetPendingSimulations(len(s.flows))
	s.mu.Unlock()
}

// Cancel stops the pending flow for bookingID.
func (s *Simulator) Cancel(bookingID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flows[bookingID]
	if ok {
		f.cancel()
	}
	return ok
}

// CancelAll stops every pending flow and returns how many there were.
func (s *Simulator) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.flows {
		f.cancel()
	}
	return len(s.flows)
}

// Pending returns the number of flows not yet finished.
func (s *Simulator) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.flows)
}

// Wait blocks until every started flow has finished or been cancelled.
func (s *Simulator) Wait() {
	s.wg.Wait()
}

// RunWithContext blocks until ctx is done, then cancels and drains all flows.
// Start is refused afterwards.
func (s *Simulator) RunWithContext(ctx context.Context) error {
	<-ctx.Done()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if n := s.CancelAll(); n > 0 {
		s.log.Info().Int("flows", n).Msg("Cancelled pending booking simulations")
	}
	s.Wait()
	return ctx.Err()
}
