package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/showcase-dl/api/handlers"
	"github.com/yourusername/showcase-dl/api/middleware"
	"github.com/yourusername/showcase-dl/internal/domain"
)

// SetupRouter sets up the read-only status API
func SetupRouter(ctx context.Context, registry *domain.Registry, shutdown handlers.Shutdowner, tick time.Duration, log *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))

	healthHandler := handlers.NewHealthHandler(registry)
	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		videoHandler := handlers.NewVideoHandler(ctx, registry, shutdown, log)
		streamHandler := handlers.NewVideoStreamHandler(registry, tick, log)

		videos := v1.Group("/videos")
		{
			videos.GET("", videoHandler.ListVideos)
			videos.GET("/stream", streamHandler.HandleWebSocket)
			videos.GET("/:id", videoHandler.GetVideo)
		}

		v1.POST("/shutdown", videoHandler.Shutdown)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}

// Server serves the status API in the background
type Server struct {
	server   *http.Server
	listener net.Listener
	logger   *zap.Logger
}

// NewServer binds addr right away, so a busy port is reported before the dashboard starts
func NewServer(addr string, handler http.Handler, log *zap.Logger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return &Server{
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		listener: listener,
		logger:   log,
	}, nil
}

// Addr returns the bound address
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Start serves requests until Shutdown
func (s *Server) Start() {
	go func() {
		s.logger.Info("Status API listening", zap.String("addr", s.Addr()))
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Status API stopped", zap.Error(err))
		}
	}()
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
