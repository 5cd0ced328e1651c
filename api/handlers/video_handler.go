package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/showcase-dl/internal/domain"
	"go.uber.org/zap"
)

// Shutdowner starts the graceful shutdown of all downloads
type Shutdowner interface {
	InitiateShutdown(ctx context.Context) error
}

// VideoHandler handles video-related HTTP requests
type VideoHandler struct {
	ctx      context.Context
	registry *domain.Registry
	shutdown Shutdowner
	logger   *zap.Logger
}

// NewVideoHandler creates a new video handler. ctx bounds shutdowns started over HTTP.
func NewVideoHandler(ctx context.Context, registry *domain.Registry, shutdown Shutdowner, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{
		ctx:      ctx,
		registry: registry,
		shutdown: shutdown,
		logger:   logger,
	}
}

// VideoListResponse is the body of GET /api/v1/videos
type VideoListResponse struct {
	Stage  string                 `json:"stage"`
	Videos []domain.VideoSnapshot `json:"videos"`
}

// ListVideos handles GET /api/v1/videos
func (h *VideoHandler) ListVideos(c *gin.Context) {
	snap := h.registry.Snapshot()
	c.JSON(http.StatusOK, VideoListResponse{
		Stage:  snap.Stage.String(),
		Videos: snap.Videos,
	})
}

// GetVideo handles GET /api/v1/videos/:id
func (h *VideoHandler) GetVideo(c *gin.Context) {
	video, err := h.registry.Find(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, video.Snapshot())
}

// Shutdown handles POST /api/v1/shutdown. The shutdown runs in the background.
func (h *VideoHandler) Shutdown(c *gin.Context) {
	if h.registry.IsShuttingDown() {
		c.JSON(http.StatusOK, gin.H{"status": "already shutting down"})
		return
	}

	h.logger.Info("Shutdown requested over HTTP", zap.String("client_ip", c.ClientIP()))
	go func() {
		if err := h.shutdown.InitiateShutdown(h.ctx); err != nil {
			h.logger.Error("Shutdown failed", zap.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "shutting down"})
}
