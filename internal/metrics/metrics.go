// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

// Package metrics holds the Prometheus instrumentation for Wayfarer.
//
// Metrics are package-level promauto collectors registered with the default
// registry and served on /metrics. Callers use the Record/Set helpers rather
// than touching collectors directly.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connections
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfarer_ws_connections_active",
			Help: "Current number of open websocket connections",
		},
	)

	WSConnectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wayfarer_ws_connections_total",
			Help: "Total websocket connections accepted",
		},
	)

	WSFramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wayfarer_ws_frames_dropped_total",
			Help: "Outbound frames dropped because a client send buffer was full",
		},
	)

	// Events
	InboundEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_inbound_events_total",
			Help: "Inbound websocket events by kind and outcome",
		},
		[]string{"event", "outcome"}, // outcome: ok, error, rejected, rate_limited
	)

	InboundEventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfarer_inbound_event_duration_seconds",
			Help:    "Time spent handling one inbound event",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"event"},
	)

	EmittedFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_emitted_frames_total",
			Help: "Frames accepted by local connections, by event",
		},
		[]string{"event"},
	)

	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfarer_rooms_active",
			Help: "Rooms with at least one member",
		},
	)

	// Presence
	PresenceTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_presence_transitions_total",
			Help: "Presence transitions by direction",
		},
		[]string{"state"}, // online, offline
	)

	// Notifications
	Notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_notifications_total",
			Help: "Notification dispatch outcomes by type",
		},
		[]string{"type", "outcome"}, // persisted, pushed, suppressed, failed
	)

	EligibilityFailOpen = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wayfarer_eligibility_fail_open_total",
			Help: "Eligibility checks that allowed delivery because the preference lookup failed",
		},
	)

	// Chat
	ChatMessages = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wayfarer_chat_messages_total",
			Help: "Chat messages persisted",
		},
	)

	// Booking simulation
	SimulationsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wayfarer_booking_simulations_pending",
			Help: "Scheduled booking simulations not yet finished or cancelled",
		},
	)

	// Repository
	RepositoryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfarer_repository_duration_seconds",
			Help:    "Duration of repository calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	RepositoryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_repository_errors_total",
			Help: "Failed repository calls",
		},
		[]string{"operation", "table"},
	)

	// Circuit breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wayfarer_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_circuit_breaker_requests_total",
			Help: "Calls through a circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	// Relay
	RelayMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_relay_messages_total",
			Help: "Cross-instance relay traffic",
		},
		[]string{"direction"}, // published, received, failed
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wayfarer_api_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wayfarer_api_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

// ConnectionOpened records an accepted websocket connection.
func ConnectionOpened() {
	WSConnectionsActive.Inc()
	WSConnectionsTotal.Inc()
}

// ConnectionClosed records a closed websocket connection.
func ConnectionClosed() {
	WSConnectionsActive.Dec()
}

// RecordDroppedFrame counts a frame that could not be queued.
func RecordDroppedFrame() {
	WSFramesDropped.Inc()
}

// RecordInboundEvent records the outcome and duration of one inbound event.
func RecordInboundEvent(event, outcome string, duration time.Duration) {
	InboundEvents.WithLabelValues(event, outcome).Inc()
	if duration > 0 {
		InboundEventDuration.WithLabelValues(event).Observe(duration.Seconds())
	}
}

// RecordEmission counts frames accepted for event.
func RecordEmission(event string, delivered int) {
	if delivered > 0 {
		EmittedFrames.WithLabelValues(event).Add(float64(delivered))
	}
}

// SetActiveRooms updates the live room gauge.
func SetActiveRooms(n int) {
	ActiveRooms.Set(float64(n))
}

// RecordPresence counts a presence transition.
func RecordPresence(online bool) {
	state := "offline"
	if online {
		state = "online"
	}
	PresenceTransitions.WithLabelValues(state).Inc()
}

// RecordNotification counts a dispatch outcome.
func RecordNotification(notificationType, outcome string) {
	Notifications.WithLabelValues(notificationType, outcome).Inc()
}

// RecordEligibilityFailOpen counts a preference lookup failure that allowed delivery.
func RecordEligibilityFailOpen() {
	EligibilityFailOpen.Inc()
}

// RecordChatMessage counts a persisted chat message.
func RecordChatMessage() {
	ChatMessages.Inc()
}

// SetPendingSimulations updates the pending simulation gauge.
func SetPendingSimulations(n int) {
	SimulationsPending.Set(float64(n))
}

// RecordRepositoryCall records latency and failure of a repository call.
func RecordRepositoryCall(operation, table string, duration time.Duration, err error) {
	RepositoryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		RepositoryErrors.WithLabelValues(operation, table).Inc()
	}
}

// SetBreakerState records a breaker's state as 0, 1 or 2.
func SetBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordBreakerRequest counts one call through a breaker.
func RecordBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordRelay counts relay traffic in a direction.
func RecordRelay(direction string) {
	RelayMessages.WithLabelValues(direction).Inc()
}

// RecordAPIRequest records an HTTP request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
