// Wayfarer - Real-Time Travel Booking Event Fan-out
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package websocket

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/wayfarer/internal/auth"
	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/metrics"
)

const (
	writeWait             = 10 * time.Second
	defaultPingPeriod     = 54 * time.Second
	defaultMaxMessageSize = 64 * 1024
	defaultSendBuffer     = 256
)

// Disconnect reasons passed to Handler.OnDisconnect.
const (
	ReasonClientClosed = "client_closed"
	ReasonServerClosed = "server_closed"
	ReasonSlowConsumer = "slow_consumer"
	ReasonReadError    = "read_error"
	ReasonWriteError   = "write_error"
)

// Client is one websocket connection. Frames queued on send are written by
// writePump; readPump feeds inbound frames to the hub's handler.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	reason string
}

func newClient(hub *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{
		id:   id,
		hub:  hub,
		conn: conn,
		send: make(chan []byte, hub.cfg.SendBuffer),
		done: make(chan struct{}),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

func (c *Client) enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		metrics.RecordDroppedFrame()
		logging.Warn().Str("connection_id", c.id).Msg("send buffer full, closing slow client")
		c.closeWithReason(ReasonSlowConsumer)
		return false
	}
}

func (c *Client) close() {
	c.closeWithReason(ReasonServerClosed)
}

func (c *Client) closeWithReason(reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Client) closeReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

func (c *Client) start(ctx context.Context, handler Handler, session *auth.Claims) {
	handler.OnConnect(ctx, c.id, session)
	go c.writePump()
	go c.readPump(ctx, handler)
}

// readPump reads frames until the connection fails, then runs the
// disconnect path exactly once.
func (c *Client) readPump(ctx context.Context, handler Handler) {
	ctx, cancel := context.WithCancel(ctx)
	reason := ReasonReadError
	defer func() {
		if r := c.closeReason(); r != "" {
			reason = r
		}
		c.closeWithReason(reason)
		c.hub.unregister(c)
		handler.OnDisconnect(ctx, c.id, reason)
		cancel()
		_ = c.conn.Close()
	}()

	pongWait := c.hub.cfg.PingPeriod * 10 / 9
	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("failed to set read deadline")
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, frame, err := c.conn.ReadMessage()
		if err != nil {
			reason = disconnectReason(err)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				logging.Ctx(ctx).Debug().Err(err).Msg("websocket read ended")
			}
			return
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		handler.OnMessage(ctx, c.id, frame)
	}
}

func disconnectReason(err error) string {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		if ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway {
			return ReasonClientClosed
		}
		return "close_" + strconv.Itoa(ce.Code)
	}
	return ReasonReadError
}

// writePump writes queued frames and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logging.Debug().Err(err).Str("connection_id", c.id).Msg("failed to write frame")
				c.closeWithReason(ReasonWriteError)
				return
			}

		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, c.closeReason()),
				time.Now().Add(writeWait))
			return

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.closeWithReason(ReasonWriteError)
				return
			}
		}
	}
}
