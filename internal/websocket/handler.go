package websocket

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"crisiswatch/config"
	"crisiswatch/pkg/log"
)

// Handler upgrades HTTP requests to WebSocket connections and hands them to
// the hub.
type Handler struct {
	hub      *Hub
	logger   log.Logger
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub, logger log.Logger, cfg config.WebSocketConfig) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
		cfg:    cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			// Allow all origins for now (restrict in production).
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWebSocket handles WebSocket connection requests on /ws.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf(context.Background(), "failed to upgrade connection: %v", err)
		return
	}

	connection := NewConnection(h.hub, conn, ConnConfig{
		PongWait:       h.cfg.PongWait,
		PingPeriod:     h.cfg.PingInterval,
		WriteWait:      h.cfg.WriteWait,
		MaxMessageSize: h.cfg.MaxMessageSize,
		SendBufferSize: h.cfg.SendBufferSize,
	}, h.logger)

	h.hub.Register(connection)
	connection.Start()

	h.logger.Infof(context.Background(), "websocket connection established: %s", connection.ID())
}

// SetupRoutes registers the WebSocket route.
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.GET("/ws", h.HandleWebSocket)
}
