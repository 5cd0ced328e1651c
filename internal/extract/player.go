package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/yourusername/showcase-dl/internal/domain"
	"github.com/yourusername/showcase-dl/internal/infrastructure"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// ExtractTitle returns the text of the first <title> element
func ExtractTitle(page []byte) (string, bool) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", false
	}

	var title string
	var found bool
	walk(doc, func(n *html.Node) {
		if found || n.Type != html.ElementNode || n.Data != "title" {
			return
		}
		found = true
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		title = strings.TrimSpace(b.String())
	})

	return title, found && title != ""
}

// processSimplePlayer registers the player right away, so a placeholder row shows
// the URL, then fetches the title while the download runs.
func (e *Extractor) processSimplePlayer(ctx context.Context, playerURL, referer string) error {
	video, err := e.sink.Register(ctx, playerURL, referer, "")
	if err != nil {
		return err
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		e.fetchTitle(ctx, video)
		return nil
	})
	g.Go(func() error {
		e.logger.Info("Downloading simple player", zap.String("url", playerURL))
		return e.sink.Download(ctx, video)
	})
	return g.Wait()
}

// fetchTitle sets the title of video from its player page. Failures only cost the title.
func (e *Extractor) fetchTitle(ctx context.Context, video *domain.Video) {
	page, err := e.fetcher.Fetch(ctx, video.URL(), infrastructure.FetchOptions{Referer: video.Referer()})
	if err != nil {
		e.logger.Warn("Failed to fetch player title",
			zap.String("url", video.URL()),
			zap.Error(err))
		return
	}

	title, ok := ExtractTitle(page)
	if !ok {
		e.logger.Debug("No title on player page", zap.String("url", video.URL()))
		return
	}

	e.logger.Info("Matched player title",
		zap.String("url", video.URL()),
		zap.String("title", title))
	video.SetTitle(title)
}
