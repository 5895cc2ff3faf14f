package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crisiswatch/config"
	"crisiswatch/internal/model"
	"crisiswatch/internal/storage/memory"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		PingInterval:    30 * time.Second,
		PongWait:        60 * time.Second,
		WriteWait:       10 * time.Second,
		MaxMessageSize:  512,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  64,
	}
}

// readEnvelopes reads one or more envelopes from the socket, accounting for
// the server batching queued messages into a single newline-separated frame.
func readEnvelopes(t *testing.T, conn *websocket.Conn, want int) []Message {
	t.Helper()

	var messages []Message
	deadline := time.Now().Add(2 * time.Second)
	for len(messages) < want {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		for _, part := range bytes.Split(data, []byte{'\n'}) {
			var msg Message
			require.NoError(t, json.Unmarshal(part, &msg))
			messages = append(messages, msg)
		}
	}
	return messages
}

func TestWebSocketEndToEnd(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	store := memory.New()
	disaster, err := store.SeedDemoData(ctx)
	require.NoError(t, err)

	hub := NewHub(store, nopLogger{})
	handler := NewHandler(hub, nopLogger{}, testWSConfig())

	router := gin.New()
	handler.SetupRoutes(router)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Subscribe and collect the snapshot: disaster, keywords, topics, alerts
	// (the demo seed has no tweets yet).
	require.NoError(t, conn.WriteJSON(map[string]any{
		"action":     "subscribeToDisaster",
		"disasterId": disaster.ID,
	}))

	snapshot := readEnvelopes(t, conn, 4)
	assert.Equal(t, MessageTypeDisasterUpdate, snapshot[0].Type)
	assert.Equal(t, MessageTypeKeywordUpdate, snapshot[1].Type)
	assert.Equal(t, MessageTypeTrendingTopicsUpdate, snapshot[2].Type)
	assert.Equal(t, MessageTypeAlert, snapshot[3].Type)

	// A published event reaches the subscriber.
	hub.Publish(ctx, disaster.ID, TweetEvent{Tweet: model.Tweet{
		TweetID:    "tw_live",
		DisasterID: disaster.ID,
		Content:    "live update",
	}})

	live := readEnvelopes(t, conn, 1)
	require.Equal(t, MessageTypeTweet, live[0].Type)

	var tweet model.Tweet
	require.NoError(t, json.Unmarshal(live[0].Payload, &tweet))
	assert.Equal(t, "tw_live", tweet.TweetID)
}

func TestWebSocketMalformedMessageKeepsConnection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	store := memory.New()
	disaster, err := store.SeedDemoData(ctx)
	require.NoError(t, err)

	hub := NewHub(store, nopLogger{})
	handler := NewHandler(hub, nopLogger{}, testWSConfig())

	router := gin.New()
	handler.SetupRoutes(router)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Garbage and unknown actions are ignored, not fatal.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(map[string]any{"action": "unknown"}))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"action":     "subscribeToDisaster",
		"disasterId": disaster.ID,
	}))

	snapshot := readEnvelopes(t, conn, 4)
	assert.Equal(t, MessageTypeDisasterUpdate, snapshot[0].Type)
}
