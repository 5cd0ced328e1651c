package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/yourusername/showcase-dl/internal/domain"
	"go.uber.org/zap"
)

// Discovery finds the videos of a page and downloads them through a Pipeline
type Discovery interface {
	Run(ctx context.Context, pageURL, referer string) error
}

// Pipeline registers discovered videos and runs their downloads
type Pipeline struct {
	registry   *domain.Registry
	downloader domain.Downloader
	logger     *zap.Logger
	downloads  sync.WaitGroup
}

// NewPipeline creates a new pipeline
func NewPipeline(registry *domain.Registry, downloader domain.Downloader, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		registry:   registry,
		downloader: downloader,
		logger:     logger,
	}
}

// Register adds a new video to the registry. Once ctx is cancelled no further
// videos are registered.
func (p *Pipeline) Register(ctx context.Context, url, referer, title string) (*domain.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	video := domain.NewVideoWithTitle(url, referer, title)
	p.registry.Register(video)

	p.logger.Info("Video registered",
		zap.String("video_id", video.ShortID()),
		zap.String("url", url),
		zap.String("title", title))

	return video, nil
}

// Download runs the downloader for video and waits for it to resolve
func (p *Pipeline) Download(ctx context.Context, video *domain.Video) error {
	p.downloads.Add(1)
	defer p.downloads.Done()
	return p.download(ctx, video)
}

// Go starts the download of video in the background. The download is tracked
// before Go returns, so a Run in progress waits for it.
func (p *Pipeline) Go(ctx context.Context, video *domain.Video) {
	p.downloads.Add(1)
	go func() {
		defer p.downloads.Done()
		if err := p.download(ctx, video); err != nil {
			p.logger.Error("Background download failed",
				zap.String("video_id", video.ShortID()),
				zap.Error(err))
		}
	}()
}

func (p *Pipeline) download(ctx context.Context, video *domain.Video) error {
	if err := p.downloader.Download(ctx, video, p.registry); err != nil {
		return fmt.Errorf("download %s: %w", video.URL(), err)
	}
	return nil
}

// Run discovers and downloads every video of pageURL, then marks the registry Done.
// Downloads already started are awaited even when discovery fails or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, discovery Discovery, pageURL, referer string) error {
	p.logger.Info("Pipeline started", zap.String("url", pageURL))

	err := discovery.Run(ctx, pageURL, referer)
	p.downloads.Wait()

	if err != nil {
		return err
	}

	// a shutdown keeps its stage
	p.registry.SetDone()
	p.logger.Info("Pipeline finished", zap.Int("videos", p.registry.Len()))
	return nil
}
