package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yourusername/showcase-dl/internal/infrastructure"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// Embeds lists the player and showcase iframes found on a page, in document order
type Embeds struct {
	Players   []string
	Showcases []string
}

// FindEmbeds collects iframe sources pointing at players or showcases.
// Attribute values come back unescaped from the HTML parser.
func FindEmbeds(page []byte) (Embeds, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return Embeds{}, fmt.Errorf("failed to parse page: %w", err)
	}

	var embeds Embeds
	walk(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "iframe" {
			return
		}
		for _, attr := range n.Attr {
			if attr.Key != "src" && attr.Key != "data-src" {
				continue
			}
			switch {
			case strings.HasPrefix(attr.Val, playerPrefix):
				embeds.Players = append(embeds.Players, attr.Val)
			case strings.HasPrefix(attr.Val, showcasePrefix):
				embeds.Showcases = append(embeds.Showcases, attr.Val)
			default:
				continue
			}
			return
		}
	})
	return embeds, nil
}

// walk visits n and its descendants depth first
func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// defaultReferer is the origin of the embedding page, which the player host checks
func defaultReferer(u *url.URL) string {
	return fmt.Sprintf("%s://%s/", u.Scheme, u.Hostname())
}

func (e *Extractor) extractEmbeds(ctx context.Context, u *url.URL, referer string) error {
	if referer == "" {
		referer = defaultReferer(u)
	}
	pageURL := u.String()

	e.logger.Info("Fetching source page", zap.String("url", pageURL))
	e.registry.SetFetchingSource(pageURL)

	page, err := e.fetcher.Fetch(ctx, pageURL, infrastructure.FetchOptions{})
	if err != nil {
		return fmt.Errorf("failed to fetch source page: %w", err)
	}

	e.registry.SetProcessing()
	embeds, err := FindEmbeds(page)
	if err != nil {
		return err
	}
	e.logger.Info("Extracted embeds",
		zap.Int("players", len(embeds.Players)),
		zap.Int("showcases", len(embeds.Showcases)),
		zap.String("referer", referer))

	g, gctx := errgroup.WithContext(ctx)
	for _, showcaseURL := range embeds.Showcases {
		showcaseURL := showcaseURL
		g.Go(func() error { return e.processShowcase(gctx, showcaseURL, referer) })
	}
	for _, playerURL := range embeds.Players {
		playerURL := playerURL
		g.Go(func() error { return e.processSimplePlayer(gctx, playerURL, referer) })
	}
	return g.Wait()
}
