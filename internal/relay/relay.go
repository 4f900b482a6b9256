// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package relay

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
	"github.com/tomtom215/wayfarer/internal/rooms"
)

const originHeader = "origin"

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("relay is closed")

// LocalDelivery delivers a peer's emission to this instance's connections.
type LocalDelivery interface {
	DeliverRemote(e rooms.Emission) int
}

// Relay publishes local emissions and delivers peer emissions.
type Relay struct {
	pub        message.Publisher
	sub        message.Subscriber
	subject    string
	instanceID string
	local      LocalDelivery
	closers    []func() error
	log        zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// New creates a Relay over pub and sub. closers run on Close after the
// publisher and subscriber are closed.
func New(pub message.Publisher, sub message.Subscriber, subject, instanceID string, local LocalDelivery, closers ...func() error) *Relay {
	return &Relay{
		pub:        pub,
		sub:        sub,
		subject:    subject,
		instanceID: instanceID,
		local:      local,
		closers:    closers,
		log:        logging.WithComponent("relay"),
	}
}

// InstanceID returns the origin tag stamped on this instance's emissions.
func (r *Relay) InstanceID() string {
	return r.instanceID
}

// Publish implements rooms.Relay.
func (r *Relay) Publish(_ context.Context, e rooms.Emission) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}

	e.Origin = r.instanceID
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode emission: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(originHeader, r.instanceID)

	if err := r.pub.Publish(r.subject, msg); err != nil {
		return fmt.Errorf("publish emission: %w", err)
	}
	metrics.RecordRelay("out")
	return nil
}

// RunWithContext delivers peer emissions until ctx is done.
func (r *Relay) RunWithContext(ctx context.Context) error {
	messages, err := r.sub.Subscribe(ctx, r.subject)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.subject, err)
	}
	r.log.Info().Str("subject", r.subject).Str("instance", r.instanceID).Msg("Relay subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("relay subscription closed")
			}
			r.handle(msg)
		}
	}
}

func (r *Relay) handle(msg *message.Message) {
	// Redelivery would duplicate frames on every connection.
	defer msg.Ack()

	if msg.Metadata.Get(originHeader) == r.instanceID {
		return
	}
	var e rooms.Emission
	if err := json.Unmarshal(msg.Payload, &e); err != nil {
		r.log.Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Dropping undecodable emission")
		return
	}
	metrics.RecordRelay("in")
	r.local.DeliverRemote(e)
}

// Close releases the publisher, the subscriber and any transport resources.
func (r *Relay) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	var errs []error
	if err := r.pub.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if err := r.sub.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}
	for _, c := range r.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
