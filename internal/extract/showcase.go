package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/showcase-dl/internal/infrastructure"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

// ErrNoShowcaseClips is returned when a showcase page carries no clip list
var ErrNoShowcaseClips = errors.New("no showcase clip list (itemListElement) in page")

// ShowcaseClip is one entry of a showcase's schema.org ItemList
type ShowcaseClip struct {
	EmbedURL string `json:"embedUrl"`
	Name     string `json:"name"`
}

type itemList struct {
	Type            string         `json:"@type"`
	ItemListElement []ShowcaseClip `json:"itemListElement"`
}

// ParseShowcaseClips reads the clip list from the page's JSON-LD scripts
func ParseShowcaseClips(page []byte) ([]ShowcaseClip, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse showcase page: %w", err)
	}

	var clips []ShowcaseClip
	var found bool
	walk(doc, func(n *html.Node) {
		if found || !isJSONLD(n) || n.FirstChild == nil {
			return
		}
		if list, ok := decodeItemList([]byte(n.FirstChild.Data)); ok {
			clips, found = list.ItemListElement, true
		}
	})

	if !found {
		return nil, ErrNoShowcaseClips
	}
	for i, clip := range clips {
		if clip.EmbedURL == "" {
			return nil, fmt.Errorf("showcase clip %d has no embedUrl", i)
		}
	}
	return clips, nil
}

func isJSONLD(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Data != "script" {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == "type" && strings.EqualFold(attr.Val, "application/ld+json") {
			return true
		}
	}
	return false
}

// decodeItemList accepts a single ItemList object or an array containing one
func decodeItemList(data []byte) (itemList, bool) {
	var list itemList
	if err := json.Unmarshal(data, &list); err == nil && list.Type == "ItemList" {
		return list, true
	}

	var lists []itemList
	if err := json.Unmarshal(data, &lists); err != nil {
		return itemList{}, false
	}
	for _, l := range lists {
		if l.Type == "ItemList" {
			return l, true
		}
	}
	return itemList{}, false
}

func (e *Extractor) processShowcase(ctx context.Context, showcaseURL, referer string) error {
	e.logger.Info("Extracting clips from showcase", zap.String("url", showcaseURL))

	page, err := e.fetcher.Fetch(ctx, showcaseURL, infrastructure.FetchOptions{Referer: referer})
	if err != nil {
		return fmt.Errorf("failed to fetch showcase: %w", err)
	}

	clips, err := ParseShowcaseClips(page)
	if err != nil {
		return fmt.Errorf("showcase %s: %w", showcaseURL, err)
	}
	e.logger.Info("Found showcase clips",
		zap.String("url", showcaseURL),
		zap.Int("clips", len(clips)))

	g, gctx := errgroup.WithContext(ctx)
	for _, clip := range clips {
		clip := clip
		g.Go(func() error {
			e.logger.Info("Downloading showcase clip",
				zap.String("url", clip.EmbedURL),
				zap.String("title", clip.Name))
			return e.RegisterAndDownload(gctx, clip.EmbedURL, referer, clip.Name)
		})
	}
	return g.Wait()
}
