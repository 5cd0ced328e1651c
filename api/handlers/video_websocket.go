package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yourusername/showcase-dl/internal/domain"
	"go.uber.org/zap"
)

const pingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // read-only status, any origin may watch
	},
}

// VideoStreamHandler pushes registry snapshots over WebSocket
type VideoStreamHandler struct {
	registry *domain.Registry
	interval time.Duration
	logger   *zap.Logger
}

// NewVideoStreamHandler creates a new stream handler sending one snapshot per interval
func NewVideoStreamHandler(registry *domain.Registry, interval time.Duration, logger *zap.Logger) *VideoStreamHandler {
	return &VideoStreamHandler{
		registry: registry,
		interval: interval,
		logger:   logger,
	}
}

// HandleWebSocket handles GET /api/v1/videos/stream
func (h *VideoStreamHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("WebSocket client connected", zap.String("remote_addr", c.Request.RemoteAddr))

	// Read messages from client (for close and pong)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	if err := h.send(conn); err != nil {
		return
	}

	for {
		select {
		case <-ticker.C:
			if err := h.send(conn); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			h.logger.Info("WebSocket client disconnected", zap.String("remote_addr", c.Request.RemoteAddr))
			return
		}
	}
}

func (h *VideoStreamHandler) send(conn *websocket.Conn) error {
	snap := h.registry.Snapshot()
	err := conn.WriteJSON(VideoListResponse{
		Stage:  snap.Stage.String(),
		Videos: snap.Videos,
	})
	if err != nil {
		h.logger.Debug("Failed to send snapshot", zap.Error(err))
	}
	return err
}
