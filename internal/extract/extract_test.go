package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/showcase-dl/internal/domain"
	"github.com/yourusername/showcase-dl/internal/infrastructure"
)

type fetchCall struct {
	url  string
	opts infrastructure.FetchOptions
}

// fakeFetcher serves canned bodies and fails for every unknown URL
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	calls []fetchCall
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string, opts infrastructure.FetchOptions) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fetchCall{url: url, opts: opts})
	page, ok := f.pages[url]
	if !ok {
		return nil, &infrastructure.StatusError{URL: url, StatusCode: 404}
	}
	return []byte(page), nil
}

func (f *fakeFetcher) optsFor(url string) (infrastructure.FetchOptions, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.url == url {
			return c.opts, true
		}
	}
	return infrastructure.FetchOptions{}, false
}

// fakeSink registers into a real registry and finishes every download
type fakeSink struct {
	registry *domain.Registry
	mu       sync.Mutex
	pid      int
}

func (s *fakeSink) Register(ctx context.Context, url, referer, title string) (*domain.Video, error) {
	video := domain.NewVideoWithTitle(url, referer, title)
	s.registry.Register(video)
	return video, nil
}

func (s *fakeSink) Download(ctx context.Context, video *domain.Video) error {
	s.mu.Lock()
	s.pid++
	pid := s.pid
	s.mu.Unlock()
	video.MarkRunning(pid)
	video.MarkFinished()
	return nil
}

func newTestExtractor(pages map[string]string) (*Extractor, *fakeFetcher, *domain.Registry) {
	registry := domain.NewRegistry()
	fetcher := &fakeFetcher{pages: pages}
	extractor := NewExtractor(fetcher, &fakeSink{registry: registry}, registry, zap.NewNop())
	return extractor, fetcher, registry
}

type registered struct {
	URL     string
	Referer string
	Title   string
}

func registeredVideos(registry *domain.Registry) []registered {
	var out []registered
	for _, v := range registry.Videos() {
		out = append(out, registered{URL: v.URL(), Referer: v.Referer(), Title: v.Title()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out
}

const showcasePage = `<html><head>
<script type="application/ld+json">{"@type": "WebPage", "name": "ignored"}</script>
<script type="application/ld+json">[{"@type": "ItemList", "itemListElement": [
  {"embedUrl": "https://player.vimeo.com/video/11", "name": "Clip One"},
  {"embedUrl": "https://player.vimeo.com/video/12", "name": "Clip Two"}
]}]</script>
</head><body></body></html>`

func TestExtractor_RunEmbeddingPage(t *testing.T) {
	extractor, fetcher, registry := newTestExtractor(map[string]string{
		"https://example.com/conference": `<html><body>
<iframe src="https://player.vimeo.com/video/1?h=abc&amp;app_id=1"></iframe>
<iframe data-src="https://vimeo.com/showcase/9"></iframe>
<iframe src="https://www.youtube.com/embed/xyz"></iframe>
</body></html>`,
		"https://player.vimeo.com/video/1?h=abc&app_id=1": `<html><head><title> Opening Keynote </title></head></html>`,
		"https://vimeo.com/showcase/9":                    showcasePage,
	})

	require.NoError(t, extractor.Run(context.Background(), "https://example.com/conference", ""))

	assert.Equal(t, []registered{
		{URL: "https://player.vimeo.com/video/11", Referer: "https://example.com/", Title: "Clip One"},
		{URL: "https://player.vimeo.com/video/12", Referer: "https://example.com/", Title: "Clip Two"},
		{URL: "https://player.vimeo.com/video/1?h=abc&app_id=1", Referer: "https://example.com/", Title: "Opening Keynote"},
	}, registeredVideos(registry))

	for _, video := range registry.Videos() {
		assert.Equal(t, domain.Finished(), video.Stage())
	}
	assert.Equal(t, domain.PipelineProcessing, registry.Stage().Kind)

	opts, ok := fetcher.optsFor("https://vimeo.com/showcase/9")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/", opts.Referer)
}

func TestExtractor_RunRefererOverride(t *testing.T) {
	extractor, fetcher, registry := newTestExtractor(map[string]string{
		"https://example.com:8443/page": `<iframe src="https://player.vimeo.com/video/1"></iframe>`,
		"https://player.vimeo.com/video/1": `<title>Talk</title>`,
	})

	require.NoError(t, extractor.Run(context.Background(), "https://example.com:8443/page", "https://events.example.org/"))

	videos := registeredVideos(registry)
	require.Len(t, videos, 1)
	assert.Equal(t, "https://events.example.org/", videos[0].Referer)

	opts, ok := fetcher.optsFor("https://player.vimeo.com/video/1")
	require.True(t, ok)
	assert.Equal(t, "https://events.example.org/", opts.Referer)
}

func TestExtractor_RunSourceFetchFails(t *testing.T) {
	extractor, _, registry := newTestExtractor(map[string]string{})

	err := extractor.Run(context.Background(), "https://example.com/missing", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch source page")

	var statusErr *infrastructure.StatusError
	assert.ErrorAs(t, err, &statusErr)
	assert.Zero(t, registry.Len())
	assert.Equal(t, domain.PipelineFetchingSource, registry.Stage().Kind)
}

func TestExtractor_RunInvalidURL(t *testing.T) {
	extractor, fetcher, _ := newTestExtractor(nil)

	for _, raw := range []string{"ftp://example.com/", "not a url", "https:///path"} {
		assert.Error(t, extractor.Run(context.Background(), raw, ""), raw)
	}
	assert.Empty(t, fetcher.calls)
}

func TestExtractor_RunPlayerURLDirectly(t *testing.T) {
	extractor, fetcher, registry := newTestExtractor(map[string]string{
		"https://player.vimeo.com/video/5": `<title>Direct</title>`,
	})

	require.NoError(t, extractor.Run(context.Background(), "https://player.vimeo.com/video/5", ""))

	assert.Equal(t, []registered{
		{URL: "https://player.vimeo.com/video/5", Title: "Direct"},
	}, registeredVideos(registry))

	// no source page is fetched for a player URL
	_, ok := fetcher.optsFor("https://player.vimeo.com/video/5")
	assert.True(t, ok)
	assert.Len(t, fetcher.calls, 1)
	assert.Equal(t, domain.PipelineProcessing, registry.Stage().Kind)
}

func TestExtractor_TitleFailureStillDownloads(t *testing.T) {
	extractor, _, registry := newTestExtractor(map[string]string{
		"https://example.com/": `<iframe src="https://player.vimeo.com/video/7"></iframe>`,
	})

	require.NoError(t, extractor.Run(context.Background(), "https://example.com/", ""))

	videos := registry.Videos()
	require.Len(t, videos, 1)
	assert.Empty(t, videos[0].Title())
	assert.Equal(t, "https://player.vimeo.com/video/7", videos[0].DisplayName())
	assert.Equal(t, domain.Finished(), videos[0].Stage())
}

func TestExtractor_ShowcaseWithoutClipsFails(t *testing.T) {
	extractor, _, _ := newTestExtractor(map[string]string{
		"https://vimeo.com/showcase/1": `<html></html>`,
	})

	err := extractor.Run(context.Background(), "https://vimeo.com/showcase/1", "")
	assert.ErrorIs(t, err, ErrNoShowcaseClips)
}

func TestExtractor_RunEvent(t *testing.T) {
	const (
		eventURL  = "https://vimeo.com/event/123/abc"
		viewer    = "https://viewer.test/viewer"
		live      = "https://api.test/live_events/"
		configURL = "https://player.test/config/42"
		shareURL  = "https://player.vimeo.com/video/42"
	)

	extractor, fetcher, registry := newTestExtractor(map[string]string{
		eventURL: `<html></html>`,
		viewer:   `{"jwt": "tok"}`,
		live + "123:abc?fields=clip_to_play.config_url": fmt.Sprintf(`{"clip_to_play": {"config_url": %q}}`, configURL),
		configURL: fmt.Sprintf(`{"video": {"share_url": %q}}`, shareURL),
		shareURL:  `<title>Live Stream</title>`,
	})
	extractor.endpoints = Endpoints{Viewer: viewer, LiveEvents: live}

	require.NoError(t, extractor.Run(context.Background(), eventURL, ""))

	assert.Equal(t, []registered{{URL: shareURL, Title: "Live Stream"}}, registeredVideos(registry))

	opts, ok := fetcher.optsFor(live + "123:abc?fields=clip_to_play.config_url")
	require.True(t, ok)
	assert.Equal(t, "jwt tok", opts.Authorization)

	// the event page comes first for its session cookie
	require.NotEmpty(t, fetcher.calls)
	assert.Equal(t, eventURL, fetcher.calls[0].url)
}

func TestExtractor_RunEventMissingJWT(t *testing.T) {
	extractor, _, registry := newTestExtractor(map[string]string{
		"https://vimeo.com/event/123": `<html></html>`,
		"https://viewer.test/viewer":  `{}`,
	})
	extractor.endpoints = Endpoints{Viewer: "https://viewer.test/viewer", LiveEvents: "https://api.test/live_events/"}

	err := extractor.Run(context.Background(), "https://vimeo.com/event/123", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT")
	assert.Zero(t, registry.Len())
}

func TestExtractor_RegisterAndDownloadPropagatesRegisterError(t *testing.T) {
	registry := domain.NewRegistry()
	sinkErr := errors.New("registration closed")
	extractor := NewExtractor(&fakeFetcher{}, failingSink{err: sinkErr}, registry, zap.NewNop())

	err := extractor.RegisterAndDownload(context.Background(), "https://player.vimeo.com/video/1", "", "")
	assert.ErrorIs(t, err, sinkErr)
}

type failingSink struct{ err error }

func (s failingSink) Register(ctx context.Context, url, referer, title string) (*domain.Video, error) {
	return nil, s.err
}

func (s failingSink) Download(ctx context.Context, video *domain.Video) error { return nil }

func TestIsPlayerURL(t *testing.T) {
	assert.True(t, IsPlayerURL("https://vimeo.com/showcase/1"))
	assert.True(t, IsPlayerURL("https://player.vimeo.com/video/1"))
	assert.True(t, IsPlayerURL("https://vimeo.com/event/1"))
	assert.False(t, IsPlayerURL("https://vimeo.com/1"))
	assert.False(t, IsPlayerURL("https://example.com/page"))
}

func TestValidateURL(t *testing.T) {
	u, err := ValidateURL("https://example.com/page?x=1")
	require.NoError(t, err)
	assert.Equal(t, "example.com", u.Host)

	_, err = ValidateURL("mailto:someone@example.com")
	assert.Error(t, err)
}
