// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/logging"
)

// MaintenanceFunc is one run of a periodic storage task.
type MaintenanceFunc func(ctx context.Context) error

// MaintenanceService runs task every interval. A failed run is logged and
// retried on the next tick; it never restarts the service.
type MaintenanceService struct {
	name     string
	interval time.Duration
	timeout  time.Duration
	task     MaintenanceFunc
	log      zerolog.Logger
}

// NewMaintenanceService creates the service. Each run gets at most half
// the interval. A non-positive interval means 5m.
func NewMaintenanceService(name string, interval time.Duration, task MaintenanceFunc) *MaintenanceService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &MaintenanceService{
		name:     name,
		interval: interval,
		timeout:  interval / 2,
		task:     task,
		log:      logging.WithComponent(name),
	}
}

// Serve implements suture.Service.
func (m *MaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.runOnce(ctx)
		}
	}
}

func (m *MaintenanceService) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	if err := m.task(runCtx); err != nil {
		if ctx.Err() == nil {
			m.log.Warn().Err(err).Msg("Maintenance run failed")
		}
		return
	}
	m.log.Debug().Dur("duration", time.Since(start)).Msg("Maintenance run complete")
}

func (m *MaintenanceService) String() string {
	return m.name
}
