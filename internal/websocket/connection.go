package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"crisiswatch/pkg/log"
)

// ConnConfig holds per-connection timing and buffer settings.
type ConnConfig struct {
	PongWait       time.Duration
	PingPeriod     time.Duration
	WriteWait      time.Duration
	MaxMessageSize int64
	SendBufferSize int
}

// Connection represents one live client socket. Its lifecycle is
// unsubscribed, then subscribed to at most one disaster, then closed.
type Connection struct {
	id   string
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan []byte

	cfg    ConnConfig
	logger log.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewConnection creates a Connection around an upgraded socket.
func NewConnection(hub *Hub, conn *websocket.Conn, cfg ConnConfig, logger log.Logger) *Connection {
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = 256
	}
	return &Connection{
		id:     uuid.New().String(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, cfg.SendBufferSize),
		cfg:    cfg,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// ID returns the connection's identifier, used in logs.
func (c *Connection) ID() string { return c.id }

// Start starts the connection's read and write pumps.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close tears the connection down. Idempotent; safe from any goroutine.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// enqueue offers a message to the connection without blocking. It reports
// false when the buffer is full or the connection is closed; the caller
// drops the message in that case.
func (c *Connection) enqueue(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// readPump pumps inbound messages from the socket into the hub.
//
// The application runs readPump in a per-connection goroutine, so there is
// at most one reader per socket. A read error of any kind ends the pump and
// cleans up the connection's subscription.
func (c *Connection) readPump() {
	defer func() {
		c.hub.Unsubscribe(c)
		c.Close()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Errorf(context.Background(), "read error on connection %s: %v", c.id, err)
			}
			return
		}
		c.handleInbound(message)
	}
}

// handleInbound parses a client request. Malformed messages are logged and
// ignored; the connection stays alive.
func (c *Connection) handleInbound(message []byte) {
	ctx := context.Background()

	inbound, err := decodeInbound(message)
	if err != nil {
		c.logger.Warnf(ctx, "ignoring message on connection %s: %v", c.id, err)
		return
	}

	c.hub.Subscribe(ctx, c, inbound.DisasterID)
}

// writePump pumps messages from the send buffer to the socket and keeps the
// connection alive with periodic pings.
//
// A goroutine running writePump is started per connection, so there is at
// most one writer per socket.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush queued messages into the same frame batch.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
