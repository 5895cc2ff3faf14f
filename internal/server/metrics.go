package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ws "crisiswatch/internal/websocket"
)

// MetricsResponse represents the metrics response
type MetricsResponse struct {
	Service     string             `json:"service"`
	Timestamp   time.Time          `json:"timestamp"`
	Uptime      int64              `json:"uptime_seconds"`
	Connections *ConnectionMetrics `json:"connections"`
	Messages    *MessageMetrics    `json:"messages"`
}

// ConnectionMetrics represents connection-related metrics
type ConnectionMetrics struct {
	Active         int `json:"active"`
	ActiveChannels int `json:"active_channels"`
}

// MessageMetrics represents message-related metrics
type MessageMetrics struct {
	EventsPublished int64 `json:"events_published"`
	SentToClients   int64 `json:"sent_to_clients"`
	Dropped         int64 `json:"dropped"`
}

// metricsHandler handles metrics requests
func metricsHandler(c *gin.Context, hub *ws.Hub) {
	stats := hub.Stats()

	response := MetricsResponse{
		Service:   "crisiswatch",
		Timestamp: time.Now(),
		Uptime:    int64(time.Since(startTime).Seconds()),
		Connections: &ConnectionMetrics{
			Active:         stats.ActiveConnections,
			ActiveChannels: stats.ActiveChannels,
		},
		Messages: &MessageMetrics{
			EventsPublished: stats.TotalEventsPublished,
			SentToClients:   stats.TotalMessagesSent,
			Dropped:         stats.TotalMessagesDropped,
		},
	}

	c.JSON(http.StatusOK, response)
}
