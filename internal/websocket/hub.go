package websocket

import (
	"context"
	"sync"
	"sync/atomic"

	"crisiswatch/internal/storage"
	"crisiswatch/pkg/log"
)

// snapshotTweetLimit bounds the recent-tweet replay sent to new subscribers.
const snapshotTweetLimit = 10

// Hub maintains the per-disaster channels of active connections and fans
// published events out to them. All methods are safe for concurrent use;
// callers never do their own locking.
type Hub struct {
	store  storage.Store
	logger log.Logger

	mu sync.RWMutex
	// channels maps disaster ID to the set of subscribed connections. A
	// channel is created on first subscribe and removed when its last
	// member leaves.
	channels map[int]map[*Connection]bool
	// subscriptions maps every registered connection to its disaster ID,
	// or 0 while unsubscribed. A connection belongs to at most one channel.
	subscriptions map[*Connection]int

	// Metrics
	totalEventsPublished atomic.Int64
	totalMessagesSent    atomic.Int64
	totalMessagesDropped atomic.Int64
}

// NewHub creates a new Hub backed by the given store for snapshot reads.
func NewHub(store storage.Store, logger log.Logger) *Hub {
	return &Hub{
		store:         store,
		logger:        logger,
		channels:      make(map[int]map[*Connection]bool),
		subscriptions: make(map[*Connection]int),
	}
}

// Register adds a connection in the unsubscribed state.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.subscriptions[conn] = 0
	h.logger.Infof(context.Background(), "connection registered: %s (total: %d)", conn.id, len(h.subscriptions))
}

// Subscribe moves the connection onto the disaster's channel, detaching it
// from any previous channel first, then replays the current-state snapshot
// to the new subscriber. The lock is held through the replay, so an event
// published concurrently is queued only after the full snapshot.
func (h *Hub) Subscribe(ctx context.Context, conn *Connection, disasterID int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscriptions[conn]; !ok {
		// Connection already closed; nothing to subscribe.
		return
	}

	h.detachLocked(conn)

	channel, ok := h.channels[disasterID]
	if !ok {
		channel = make(map[*Connection]bool)
		h.channels[disasterID] = channel
	}
	channel[conn] = true
	h.subscriptions[conn] = disasterID

	h.logger.Infof(ctx, "connection %s subscribed to disaster %d", conn.id, disasterID)
	h.sendSnapshot(ctx, conn, disasterID)
}

// Unsubscribe removes the connection from its channel, destroying the
// channel once its last member leaves. Idempotent.
func (h *Hub) Unsubscribe(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscriptions[conn]; !ok {
		return
	}
	h.detachLocked(conn)
	delete(h.subscriptions, conn)
}

// detachLocked removes the connection from its current channel, if any.
// Caller must hold h.mu.
func (h *Hub) detachLocked(conn *Connection) {
	disasterID := h.subscriptions[conn]
	if disasterID == 0 {
		return
	}

	if channel, ok := h.channels[disasterID]; ok {
		delete(channel, conn)
		if len(channel) == 0 {
			delete(h.channels, disasterID)
		}
	}
	h.subscriptions[conn] = 0
}

// Publish delivers the event to every connection currently subscribed to
// the disaster's channel. Delivery is best-effort per connection: a full
// send buffer drops the message for that connection without affecting the
// others.
func (h *Hub) Publish(ctx context.Context, disasterID int, event Event) {
	data, err := EncodeEvent(event)
	if err != nil {
		h.logger.Errorf(ctx, "failed to encode %s event: %v", event.MessageType(), err)
		return
	}

	h.mu.RLock()
	channel := h.channels[disasterID]
	conns := make([]*Connection, 0, len(channel))
	for conn := range channel {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	h.totalEventsPublished.Add(1)
	for _, conn := range conns {
		h.send(ctx, conn, data)
	}
}

// send enqueues data on a single connection without blocking.
func (h *Hub) send(ctx context.Context, conn *Connection, data []byte) {
	if conn.enqueue(data) {
		h.totalMessagesSent.Add(1)
		return
	}
	h.totalMessagesDropped.Add(1)
	h.logger.Warnf(ctx, "dropped message for connection %s (buffer full or closed)", conn.id)
}

// sendSnapshot replays the current state of the disaster to one connection:
// disaster metadata, keyword list, recent tweets newest-first, trending
// topics and the alert list, in that order.
func (h *Hub) sendSnapshot(ctx context.Context, conn *Connection, disasterID int) {
	disaster, err := h.store.GetDisaster(ctx, disasterID)
	if err != nil {
		if err == storage.ErrNotFound {
			h.logger.Warnf(ctx, "snapshot skipped: disaster %d not found", disasterID)
		} else {
			h.logger.Errorf(ctx, "snapshot skipped: load disaster %d: %v", disasterID, err)
		}
		return
	}
	h.sendEvent(ctx, conn, DisasterEvent{Disaster: disaster})

	keywords, err := h.store.GetKeywordsByDisasterID(ctx, disasterID)
	if err != nil {
		h.logger.Errorf(ctx, "snapshot keywords for disaster %d: %v", disasterID, err)
	} else {
		h.sendEvent(ctx, conn, KeywordsEvent{Keywords: keywords})
	}

	tweets, err := h.store.GetTweetsByDisasterID(ctx, disasterID, snapshotTweetLimit)
	if err != nil {
		h.logger.Errorf(ctx, "snapshot tweets for disaster %d: %v", disasterID, err)
	} else {
		for _, tweet := range tweets {
			h.sendEvent(ctx, conn, TweetEvent{Tweet: tweet})
		}
	}

	topics, err := h.store.GetTrendingTopicsByDisasterID(ctx, disasterID)
	if err != nil {
		h.logger.Errorf(ctx, "snapshot trending topics for disaster %d: %v", disasterID, err)
	} else {
		h.sendEvent(ctx, conn, TrendingTopicsEvent{Topics: topics})
	}

	alerts, err := h.store.GetAlertsByDisasterID(ctx, disasterID)
	if err != nil {
		h.logger.Errorf(ctx, "snapshot alerts for disaster %d: %v", disasterID, err)
	} else {
		h.sendEvent(ctx, conn, AlertListEvent{Alerts: alerts})
	}
}

func (h *Hub) sendEvent(ctx context.Context, conn *Connection, event Event) {
	data, err := EncodeEvent(event)
	if err != nil {
		h.logger.Errorf(ctx, "failed to encode %s event: %v", event.MessageType(), err)
		return
	}
	h.send(ctx, conn, data)
}

// Shutdown closes every registered connection.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.subscriptions))
	for conn := range h.subscriptions {
		conns = append(conns, conn)
	}
	h.subscriptions = make(map[*Connection]int)
	h.channels = make(map[int]map[*Connection]bool)
	h.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
	h.logger.Infof(ctx, "hub shut down, closed %d connections", len(conns))
}

// HubStats is a point-in-time view of hub activity.
type HubStats struct {
	ActiveConnections    int   `json:"active_connections"`
	ActiveChannels       int   `json:"active_channels"`
	TotalEventsPublished int64 `json:"total_events_published"`
	TotalMessagesSent    int64 `json:"total_messages_sent"`
	TotalMessagesDropped int64 `json:"total_messages_dropped"`
}

// Stats returns hub statistics.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return HubStats{
		ActiveConnections:    len(h.subscriptions),
		ActiveChannels:       len(h.channels),
		TotalEventsPublished: h.totalEventsPublished.Load(),
		TotalMessagesSent:    h.totalMessagesSent.Load(),
		TotalMessagesDropped: h.totalMessagesDropped.Load(),
	}
}

// channelSize reports the current membership of a disaster's channel.
func (h *Hub) channelSize(disasterID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[disasterID])
}
