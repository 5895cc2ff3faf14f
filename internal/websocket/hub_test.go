package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisiswatch/internal/model"
	"crisiswatch/internal/storage"
	"crisiswatch/internal/storage/memory"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, args ...any)                    {}
func (nopLogger) Debugf(ctx context.Context, template string, args ...any)  {}
func (nopLogger) Info(ctx context.Context, args ...any)                     {}
func (nopLogger) Infof(ctx context.Context, template string, args ...any)   {}
func (nopLogger) Warn(ctx context.Context, args ...any)                     {}
func (nopLogger) Warnf(ctx context.Context, template string, args ...any)   {}
func (nopLogger) Error(ctx context.Context, args ...any)                    {}
func (nopLogger) Errorf(ctx context.Context, template string, args ...any)  {}
func (nopLogger) Fatal(ctx context.Context, args ...any)                    {}
func (nopLogger) Fatalf(ctx context.Context, template string, args ...any)  {}

// newTestConnection builds a registered connection with no underlying socket.
// The pumps are never started, so tests read queued messages straight off the
// send buffer.
func newTestConnection(hub *Hub) *Connection {
	conn := NewConnection(hub, nil, ConnConfig{SendBufferSize: 64}, nopLogger{})
	hub.Register(conn)
	return conn
}

// queuedMessages drains everything currently buffered for the connection.
func queuedMessages(t *testing.T, conn *Connection) []Message {
	t.Helper()

	var messages []Message
	for {
		select {
		case data := <-conn.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			messages = append(messages, msg)
		default:
			return messages
		}
	}
}

func TestPublishNoCrossDisasterLeakage(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(memory.New(), nopLogger{})

	conn1 := newTestConnection(hub)
	conn2 := newTestConnection(hub)
	hub.Subscribe(ctx, conn1, 1)
	hub.Subscribe(ctx, conn2, 2)

	hub.Publish(ctx, 1, AlertEvent{Alert: model.Alert{DisasterID: 1, Message: "test"}})

	assert.Len(t, queuedMessages(t, conn1), 1)
	assert.Empty(t, queuedMessages(t, conn2))
}

func TestResubscribeMovesConnection(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(memory.New(), nopLogger{})

	conn := newTestConnection(hub)
	hub.Subscribe(ctx, conn, 1)
	hub.Subscribe(ctx, conn, 2)

	// The connection left disaster 1's channel, which is now gone entirely.
	assert.Equal(t, 0, hub.channelSize(1))
	assert.Equal(t, 1, hub.channelSize(2))

	hub.Publish(ctx, 1, AlertEvent{Alert: model.Alert{DisasterID: 1}})
	assert.Empty(t, queuedMessages(t, conn))

	hub.Publish(ctx, 2, AlertEvent{Alert: model.Alert{DisasterID: 2}})
	assert.Len(t, queuedMessages(t, conn), 1)
}

func TestSubscribeUnknownDisasterSkipsSnapshot(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(memory.New(), nopLogger{})

	conn := newTestConnection(hub)
	hub.Subscribe(ctx, conn, 99)

	// No snapshot, but the subscription itself holds.
	assert.Empty(t, queuedMessages(t, conn))

	hub.Publish(ctx, 99, AlertEvent{Alert: model.Alert{DisasterID: 99}})
	assert.Len(t, queuedMessages(t, conn), 1)
}

func TestSubscribeReplaysSnapshotInOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	disaster, err := store.SeedDemoData(ctx)
	require.NoError(t, err)

	// More tweets than the snapshot carries.
	for i := 0; i < 12; i++ {
		_, err := store.CreateTweet(ctx, model.Tweet{
			TweetID:    fmt.Sprintf("tw%d", i),
			DisasterID: disaster.ID,
			Content:    "snapshot fodder",
			Timestamp:  time.Now().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	hub := NewHub(store, nopLogger{})
	conn := newTestConnection(hub)
	hub.Subscribe(ctx, conn, disaster.ID)

	messages := queuedMessages(t, conn)
	require.Len(t, messages, 14) // disaster + keywords + 10 tweets + topics + alerts

	assert.Equal(t, MessageTypeDisasterUpdate, messages[0].Type)
	assert.Equal(t, MessageTypeKeywordUpdate, messages[1].Type)
	for i := 2; i < 12; i++ {
		assert.Equal(t, MessageTypeTweet, messages[i].Type)
	}
	assert.Equal(t, MessageTypeTrendingTopicsUpdate, messages[12].Type)
	assert.Equal(t, MessageTypeAlert, messages[13].Type)

	// Tweets arrive newest-first.
	var first model.Tweet
	require.NoError(t, json.Unmarshal(messages[2].Payload, &first))
	assert.Equal(t, "tw11", first.TweetID)

	// The alert snapshot is the full list.
	var alerts []model.Alert
	require.NoError(t, json.Unmarshal(messages[13].Payload, &alerts))
	assert.Len(t, alerts, 3)
}

// gatedStore pauses the first GetDisaster call so tests can interleave work
// with an in-flight snapshot replay.
type gatedStore struct {
	storage.Store

	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gatedStore) GetDisaster(ctx context.Context, id int) (model.Disaster, error) {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.Store.GetDisaster(ctx, id)
}

func TestSubscribeSnapshotPrecedesConcurrentPublish(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	disaster, err := store.SeedDemoData(ctx)
	require.NoError(t, err)

	gated := &gatedStore{
		Store:   store,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	hub := NewHub(gated, nopLogger{})
	conn := newTestConnection(hub)

	subscribed := make(chan struct{})
	go func() {
		hub.Subscribe(ctx, conn, disaster.ID)
		close(subscribed)
	}()

	<-gated.entered

	// A publish racing the snapshot replay must queue after it.
	published := make(chan struct{})
	go func() {
		hub.Publish(ctx, disaster.ID, AlertEvent{Alert: model.Alert{DisasterID: disaster.ID, Message: "live"}})
		close(published)
	}()

	select {
	case <-published:
		t.Fatal("publish completed while snapshot replay was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(gated.release)
	<-subscribed
	<-published

	messages := queuedMessages(t, conn)
	require.Len(t, messages, 5) // 4 snapshot messages, then the live alert

	assert.Equal(t, MessageTypeDisasterUpdate, messages[0].Type)
	assert.Equal(t, MessageTypeAlert, messages[3].Type)

	var live model.Alert
	require.NoError(t, json.Unmarshal(messages[4].Payload, &live))
	assert.Equal(t, "live", live.Message)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(memory.New(), nopLogger{})

	conn := newTestConnection(hub)
	hub.Subscribe(ctx, conn, 1)

	hub.Unsubscribe(conn)
	hub.Unsubscribe(conn)

	assert.Equal(t, 0, hub.channelSize(1))

	// A closed-out connection cannot resubscribe.
	hub.Subscribe(ctx, conn, 1)
	assert.Equal(t, 0, hub.channelSize(1))
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(memory.New(), nopLogger{})

	conn := NewConnection(hub, nil, ConnConfig{SendBufferSize: 1}, nopLogger{})
	hub.Register(conn)
	hub.Subscribe(ctx, conn, 1)

	hub.Publish(ctx, 1, AlertEvent{Alert: model.Alert{DisasterID: 1}})
	hub.Publish(ctx, 1, AlertEvent{Alert: model.Alert{DisasterID: 1}})

	assert.Len(t, queuedMessages(t, conn), 1)

	stats := hub.Stats()
	assert.Equal(t, int64(1), stats.TotalMessagesSent)
	assert.Equal(t, int64(1), stats.TotalMessagesDropped)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	hub := NewHub(memory.New(), nopLogger{})

	conn1 := newTestConnection(hub)
	conn2 := newTestConnection(hub)
	hub.Subscribe(ctx, conn1, 1)
	hub.Subscribe(ctx, conn2, 2)

	hub.Publish(ctx, 1, AlertEvent{Alert: model.Alert{DisasterID: 1}})

	stats := hub.Stats()
	assert.Equal(t, 2, stats.ActiveConnections)
	assert.Equal(t, 2, stats.ActiveChannels)
	assert.Equal(t, int64(1), stats.TotalEventsPublished)

	hub.Unsubscribe(conn2)
	stats = hub.Stats()
	assert.Equal(t, 1, stats.ActiveConnections)
	assert.Equal(t, 1, stats.ActiveChannels)
}
