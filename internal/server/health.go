package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"crisiswatch/internal/storage"
	ws "crisiswatch/internal/websocket"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Storage   *StorageHealth `json:"storage"`
	WebSocket *WebSocketInfo `json:"websocket"`
	Uptime    int64          `json:"uptime_seconds"`
}

// StorageHealth represents the storage backend health status
type StorageHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// WebSocketInfo represents WebSocket server info
type WebSocketInfo struct {
	ActiveConnections int `json:"active_connections"`
	ActiveChannels    int `json:"active_channels"`
}

var startTime = time.Now()

// healthHandler handles health check requests
func healthHandler(c *gin.Context, hub *ws.Hub, store storage.Store) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    int64(time.Since(startTime).Seconds()),
	}

	storageHealth := &StorageHealth{Status: "connected"}
	if _, err := store.GetActiveDisasters(ctx); err != nil {
		storageHealth.Status = "disconnected"
		storageHealth.Error = err.Error()
		response.Status = "degraded"
	}
	response.Storage = storageHealth

	stats := hub.Stats()
	response.WebSocket = &WebSocketInfo{
		ActiveConnections: stats.ActiveConnections,
		ActiveChannels:    stats.ActiveChannels,
	}

	statusCode := http.StatusOK
	if response.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}
