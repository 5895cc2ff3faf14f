// Package wsclient is a reconnecting WebSocket client for the crisiswatch
// event stream. It redials with a fixed backoff after connection loss,
// re-subscribes to the last requested disaster, and gives up silently once
// the attempt budget is exhausted.
package wsclient

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/friendsofgo/errors"
	"github.com/gorilla/websocket"
)

const (
	// DefaultReconnectInterval is the fixed delay between reconnect attempts.
	DefaultReconnectInterval = 3 * time.Second
	// DefaultMaxReconnectAttempts bounds consecutive failed reconnects.
	DefaultMaxReconnectAttempts = 5
)

// Envelope is a typed message received from the server.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MessageHandler receives each decoded server message.
type MessageHandler func(msg Envelope)

// Config configures the client.
type Config struct {
	// URL is the WebSocket endpoint, e.g. "ws://localhost:8080/ws".
	URL string

	// ReconnectInterval is the fixed delay between reconnect attempts.
	// Zero means DefaultReconnectInterval.
	ReconnectInterval time.Duration

	// MaxReconnectAttempts bounds consecutive failed reconnects before the
	// client gives up. Zero means DefaultMaxReconnectAttempts.
	MaxReconnectAttempts int

	// OnMessage is invoked for every message received from the server.
	OnMessage MessageHandler
}

type subscribeRequest struct {
	Action     string `json:"action"`
	DisasterID int    `json:"disasterId"`
}

// Client maintains a WebSocket connection to the event stream.
type Client struct {
	cfg Config

	mu         sync.Mutex
	conn       *websocket.Conn
	disasterID int
	closed     bool

	done chan struct{}
}

// New creates a client. Call Connect to establish the connection.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("wsclient: URL is required")
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = DefaultReconnectInterval
	}
	if cfg.MaxReconnectAttempts <= 0 {
		cfg.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	return &Client{
		cfg:  cfg,
		done: make(chan struct{}),
	}, nil
}

// Connect dials the server and starts the read loop. On connection loss the
// client reconnects automatically with the configured backoff.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return errors.Wrap(err, "wsclient: connect")
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop(ctx, conn)
	return nil
}

// Subscribe requests the event stream for a disaster. The subscription
// survives reconnects: after redialing the client re-sends it.
func (c *Client) Subscribe(disasterID int) error {
	c.mu.Lock()
	c.disasterID = disasterID
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return errors.New("wsclient: not connected")
	}
	return c.writeSubscribe(conn, disasterID)
}

// Close shuts the client down. It does not trigger a reconnect.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return conn, err
}

func (c *Client) writeSubscribe(conn *websocket.Conn, disasterID int) error {
	req := subscribeRequest{Action: "subscribeToDisaster", DisasterID: disasterID}
	if err := conn.WriteJSON(req); err != nil {
		return errors.Wrap(err, "wsclient: subscribe")
	}
	return nil
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.reconnect(ctx)
			return
		}

		if c.cfg.OnMessage == nil {
			continue
		}

		// The server batches queued envelopes into one frame, separated by
		// newlines.
		for _, part := range bytes.Split(data, []byte{'\n'}) {
			if len(part) == 0 {
				continue
			}
			var msg Envelope
			if err := json.Unmarshal(part, &msg); err != nil {
				// Unknown frames are skipped.
				continue
			}
			c.cfg.OnMessage(msg)
		}
	}
}

// reconnect redials with a fixed backoff, up to the attempt budget. Failure
// to reconnect is silent: the client simply stops.
func (c *Client) reconnect(ctx context.Context) {
	for attempt := 1; attempt <= c.cfg.MaxReconnectAttempts; attempt++ {
		select {
		case <-c.done:
			return
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.ReconnectInterval):
		}

		conn, err := c.dial(ctx)
		if err != nil {
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		disasterID := c.disasterID
		c.mu.Unlock()

		if disasterID > 0 {
			if err := c.writeSubscribe(conn, disasterID); err != nil {
				conn.Close()
				continue
			}
		}

		go c.readLoop(ctx, conn)
		return
	}
}
