package app

import (
	"context"
	"sync"
	"time"

	"github.com/yourusername/showcase-dl/internal/domain"
	"go.uber.org/zap"
)

// ShutdownCoordinator interrupts every running downloader and reports when all have settled
type ShutdownCoordinator struct {
	registry *domain.Registry
	signaler domain.Signaler
	interval time.Duration
	logger   *zap.Logger

	done     chan struct{}
	doneOnce sync.Once
}

// NewShutdownCoordinator creates a new coordinator polling at interval
func NewShutdownCoordinator(registry *domain.Registry, signaler domain.Signaler, interval time.Duration, logger *zap.Logger) *ShutdownCoordinator {
	return &ShutdownCoordinator{
		registry: registry,
		signaler: signaler,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Done is closed once a shutdown has completed
func (c *ShutdownCoordinator) Done() <-chan struct{} {
	return c.done
}

// InitiateShutdown stops new spawns, interrupts running downloaders and waits
// until every video is settled. A second call while one is in progress is a no-op.
func (c *ShutdownCoordinator) InitiateShutdown(ctx context.Context) error {
	if !c.registry.BeginShutdown() {
		c.logger.Debug("Shutdown already in progress")
		return nil
	}

	c.logger.Info("Shutting down", zap.Int("videos", c.registry.Len()))
	c.interruptRunning()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for !c.settled() {
		select {
		case <-ctx.Done():
			c.logger.Warn("Shutdown aborted", zap.Error(ctx.Err()))
			return ctx.Err()
		case <-ticker.C:
		}
		// spawns that raced the stage flip show up as Running now
		c.interruptRunning()
	}

	c.logger.Info("All downloads settled")
	c.doneOnce.Do(func() { close(c.done) })
	return nil
}

// interruptRunning signals every Running video once. Whoever moves a video to
// ShuttingDown owns its signal, so no pid is interrupted twice.
func (c *ShutdownCoordinator) interruptRunning() {
	for _, video := range c.registry.Videos() {
		stage := video.Stage()
		if !stage.IsRunning() || !video.MarkShuttingDown() {
			continue
		}

		if err := c.signaler.Interrupt(stage.PID); err != nil {
			c.logger.Error("Failed to interrupt downloader",
				zap.String("video_id", video.ShortID()),
				zap.Int("pid", stage.PID),
				zap.Error(err))
			continue
		}
		c.logger.Info("Interrupted downloader",
			zap.String("video_id", video.ShortID()),
			zap.String("title", video.DisplayName()),
			zap.Int("pid", stage.PID))
	}
}

// settled reports whether no video can still change on its own.
// Initializing videos were never spawned and never will be.
func (c *ShutdownCoordinator) settled() bool {
	for _, video := range c.registry.Videos() {
		stage := video.Stage()
		if !stage.IsTerminal() && stage.Kind != domain.StageInitializing {
			return false
		}
	}
	return true
}
