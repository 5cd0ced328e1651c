// Package extract discovers the videos referenced by a page and hands each one
// to a Sink for registration and download.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yourusername/showcase-dl/internal/domain"
	"github.com/yourusername/showcase-dl/internal/infrastructure"
	"go.uber.org/zap"
)

const (
	showcasePrefix = "https://vimeo.com/showcase/"
	playerPrefix   = "https://player.vimeo.com/video/"
	eventPrefix    = "https://vimeo.com/event/"
)

// Fetcher fetches remote pages
type Fetcher interface {
	Fetch(ctx context.Context, url string, opts infrastructure.FetchOptions) ([]byte, error)
}

// Sink receives every discovered video
type Sink interface {
	Register(ctx context.Context, url, referer, title string) (*domain.Video, error)
	Download(ctx context.Context, video *domain.Video) error
}

// Endpoints are the fixed remote locations used by the live event flow
type Endpoints struct {
	Viewer     string
	LiveEvents string
}

// DefaultEndpoints returns the production endpoints
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Viewer:     "https://vimeo.com/_next/viewer",
		LiveEvents: "https://api.vimeo.com/live_events/",
	}
}

// Extractor routes a page URL to the matching discovery flow
type Extractor struct {
	fetcher   Fetcher
	sink      Sink
	registry  *domain.Registry
	endpoints Endpoints
	logger    *zap.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(fetcher Fetcher, sink Sink, registry *domain.Registry, logger *zap.Logger) *Extractor {
	return &Extractor{
		fetcher:   fetcher,
		sink:      sink,
		registry:  registry,
		endpoints: DefaultEndpoints(),
		logger:    logger,
	}
}

// ValidateURL checks that raw is an absolute http(s) URL
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return u, nil
}

// IsPlayerURL reports whether pageURL points at a player directly rather than
// at a page embedding players
func IsPlayerURL(pageURL string) bool {
	return strings.HasPrefix(pageURL, showcasePrefix) ||
		strings.HasPrefix(pageURL, playerPrefix) ||
		strings.HasPrefix(pageURL, eventPrefix)
}

// Run discovers and downloads every video of pageURL. It returns once every
// started download has been resolved. referer overrides the derived Referer header.
func (e *Extractor) Run(ctx context.Context, pageURL, referer string) error {
	u, err := ValidateURL(pageURL)
	if err != nil {
		return err
	}

	if IsPlayerURL(u.String()) {
		return e.downloadFromPlayer(ctx, u.String(), referer)
	}
	return e.extractEmbeds(ctx, u, referer)
}

// RegisterAndDownload registers one discovered video and downloads it
func (e *Extractor) RegisterAndDownload(ctx context.Context, url, referer, title string) error {
	video, err := e.sink.Register(ctx, url, referer, title)
	if err != nil {
		return err
	}
	return e.sink.Download(ctx, video)
}

func (e *Extractor) downloadFromPlayer(ctx context.Context, playerURL, referer string) error {
	e.logger.Info("Extracting player", zap.String("url", playerURL))
	e.registry.SetProcessing()

	switch {
	case strings.HasPrefix(playerURL, showcasePrefix):
		return e.processShowcase(ctx, playerURL, referer)
	case strings.HasPrefix(playerURL, playerPrefix):
		return e.processSimplePlayer(ctx, playerURL, referer)
	case strings.HasPrefix(playerURL, eventPrefix):
		// events authenticate through their own cookie, no referer involved
		return e.processEvent(ctx, playerURL)
	}
	return nil
}
