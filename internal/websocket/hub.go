// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package websocket

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomtom215/wayfarer/internal/auth"
	"github.com/tomtom215/wayfarer/internal/config"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal path (SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Handler receives connection lifecycle and inbound frames. OnMessage is
// called from the connection's read goroutine, so frames of one connection
// are handled strictly in arrival order.
type Handler interface {
	OnConnect(ctx context.Context, connID string, session *auth.Claims)
	OnMessage(ctx context.Context, connID string, frame []byte)
	OnDisconnect(ctx context.Context, connID string, reason string)
}

// Hub owns the live connections of this instance.
type Hub struct {
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	log      zerolog.Logger

	mu      sync.RWMutex
	clients map[string]*Client
	handler Handler
	closed  bool
}

// NewHub creates a Hub. A zero-valued cfg field falls back to the default.
func NewHub(cfg *config.WebSocketConfig) *Hub {
	var c config.WebSocketConfig
	if cfg != nil {
		c = *cfg
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = defaultMaxMessageSize
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaultSendBuffer
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = defaultPingPeriod
	}

	h := &Hub{
		cfg:     c,
		log:     logging.WithComponent("websocket-hub"),
		clients: make(map[string]*Client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
	return h
}

// SetHandler installs the inbound handler. It must be called before the hub
// serves its first connection.
func (h *Hub) SetHandler(handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handler = handler
}

// RunWithContext blocks until ctx is done, then closes every connection.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.log.Info().Msg("websocket hub started")
	<-ctx.Done()
	h.logGracefulShutdown(ctx)
	return ctx.Err()
}

func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.closeAllClients()
	h.log.Info().
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// closeAllClients stops accepting connections and signals every client to
// close. The read goroutines run the disconnect path.
func (h *Hub) closeAllClients() int {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	for _, c := range clients {
		c.close()
	}
	return len(clients)
}

// ServeHTTP upgrades the request and runs the connection. A session attached
// by auth middleware is handed to the handler.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed, handler := h.closed, h.handler
	h.mu.RUnlock()
	if closed || handler == nil {
		http.Error(w, "websocket hub unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	client := newClient(h, conn, uuid.New().String())
	if !h.register(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	// The connection outlives the request; its context must not.
	ctx := logging.ContextWithConnection(context.Background(), client.id, "")
	if rid := logging.RequestIDFromContext(r.Context()); rid != "" {
		ctx = logging.ContextWithRequestID(ctx, rid)
	}
	client.start(ctx, handler, auth.ClaimsFromContext(r.Context()))
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	metrics.ConnectionOpened()
	h.log.Debug().Str("connection_id", c.id).Int("total_clients", total).Msg("websocket client connected")
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		metrics.ConnectionClosed()
		h.log.Debug().Str("connection_id", c.id).Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// Deliver queues frame for connID. A client whose send buffer is full is
// closed instead of blocking the caller.
func (h *Hub) Deliver(connID string, frame []byte) bool {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return c.enqueue(frame)
}

// ConnectionIDs returns the live connection ids in sorted order.
func (h *Hub) ConnectionIDs() []string {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// GetClientCount returns the number of live connections.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// checkOrigin rejects a missing Origin header. An empty allow list accepts
// any origin; "*" does the same explicitly.
func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return false
	}
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	h.log.Warn().Str("origin", origin).Msg("websocket origin rejected")
	return false
}
