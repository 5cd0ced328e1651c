package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/yourusername/showcase-dl/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// maxBodySize bounds a fetched page
const maxBodySize = 32 * 1024 * 1024

// FetchOptions sets optional request headers
type FetchOptions struct {
	Referer       string
	Authorization string
}

// StatusError is returned for non-2xx responses
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// retryable reports whether a later attempt could succeed
func (e *StatusError) retryable() bool {
	return e.StatusCode >= 500
}

// HTTPFetcher performs GET requests sharing one cookie jar, retrying transient failures
type HTTPFetcher struct {
	client *http.Client
	config *domain.FetchConfig
	logger *zap.Logger
}

// NewHTTPFetcher creates a new fetcher
func NewHTTPFetcher(config *domain.FetchConfig, logger *zap.Logger) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &HTTPFetcher{
		client: &http.Client{
			Jar:     jar,
			Timeout: config.Timeout,
		},
		config: config,
		logger: logger,
	}, nil
}

// Fetch returns the body of url. Transport errors and 5xx responses are retried
// with a linearly growing delay.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, opts FetchOptions) ([]byte, error) {
	attempts := f.config.Retries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := f.fetchOnce(ctx, url, opts)
		if err == nil {
			f.logger.Debug("Fetched page",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Int("bytes", len(body)))
			return body, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.retryable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt == attempts {
			break
		}

		f.logger.Warn("Fetch failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * f.config.RetryDelay):
		}
	}

	return nil, fmt.Errorf("failed to fetch %s after %d attempts: %w", url, attempts, lastErr)
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, url string, opts FetchOptions) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}
	if opts.Referer != "" {
		req.Header.Set("Referer", opts.Referer)
	}
	if opts.Authorization != "" {
		req.Header.Set("Authorization", opts.Authorization)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
