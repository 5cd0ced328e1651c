package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/yourusername/showcase-dl/internal/infrastructure"
	"go.uber.org/zap"
)

var eventURLPattern = regexp.MustCompile(`^https://vimeo\.com/event/(?P<event_id>\d+)(?:/(?P<event_hash>[\da-f]+))?`)

// ParseEventURL returns the event id and the optional privacy hash
func ParseEventURL(eventURL string) (id, hash string, err error) {
	m := eventURLPattern.FindStringSubmatch(eventURL)
	if m == nil {
		return "", "", fmt.Errorf("'%s' is not a valid event URL", eventURL)
	}
	return m[eventURLPattern.SubexpIndex("event_id")], m[eventURLPattern.SubexpIndex("event_hash")], nil
}

// processEvent resolves a live event to its share URL and downloads it as a simple player.
// The event page sets the session cookie the viewer endpoint needs to issue a JWT.
func (e *Extractor) processEvent(ctx context.Context, eventURL string) error {
	id, hash, err := ParseEventURL(eventURL)
	if err != nil {
		return err
	}
	log := e.logger.With(zap.String("event_id", id))

	if _, err := e.fetcher.Fetch(ctx, eventURL, infrastructure.FetchOptions{}); err != nil {
		return fmt.Errorf("failed to fetch event page: %w", err)
	}

	jwt, err := e.fetchJWT(ctx)
	if err != nil {
		return err
	}
	log.Debug("Obtained viewer JWT")

	configURL, err := e.fetchConfigURL(ctx, id, hash, jwt)
	if err != nil {
		return err
	}
	log.Debug("Resolved event config URL", zap.String("config_url", configURL))

	shareURL, err := e.fetchShareURL(ctx, configURL)
	if err != nil {
		return err
	}
	log.Info("Resolved event share URL", zap.String("share_url", shareURL))

	return e.processSimplePlayer(ctx, shareURL, "")
}

func (e *Extractor) fetchJWT(ctx context.Context) (string, error) {
	var viewer struct {
		JWT string `json:"jwt"`
	}
	if err := e.fetchJSON(ctx, e.endpoints.Viewer, infrastructure.FetchOptions{}, &viewer); err != nil {
		return "", fmt.Errorf("failed to fetch event viewer data: %w", err)
	}
	if viewer.JWT == "" {
		return "", fmt.Errorf("could not extract JWT from event viewer data")
	}
	return viewer.JWT, nil
}

func (e *Extractor) fetchConfigURL(ctx context.Context, id, hash, jwt string) (string, error) {
	target := e.endpoints.LiveEvents + id
	if hash != "" {
		target += ":" + hash
	}
	target += "?fields=clip_to_play.config_url"

	var event struct {
		ClipToPlay struct {
			ConfigURL string `json:"config_url"`
		} `json:"clip_to_play"`
	}
	opts := infrastructure.FetchOptions{Authorization: "jwt " + jwt}
	if err := e.fetchJSON(ctx, target, opts, &event); err != nil {
		return "", fmt.Errorf("failed to fetch live event data: %w", err)
	}
	if event.ClipToPlay.ConfigURL == "" {
		return "", fmt.Errorf("could not extract video config URL 'clip_to_play.config_url' from live event data")
	}
	return event.ClipToPlay.ConfigURL, nil
}

func (e *Extractor) fetchShareURL(ctx context.Context, configURL string) (string, error) {
	var config struct {
		Video struct {
			ShareURL string `json:"share_url"`
		} `json:"video"`
	}
	if err := e.fetchJSON(ctx, configURL, infrastructure.FetchOptions{}, &config); err != nil {
		return "", fmt.Errorf("failed to fetch video config: %w", err)
	}
	if config.Video.ShareURL == "" {
		return "", fmt.Errorf("could not extract video share URL 'video.share_url' from config data")
	}
	return config.Video.ShareURL, nil
}

func (e *Extractor) fetchJSON(ctx context.Context, url string, opts infrastructure.FetchOptions, v any) error {
	body, err := e.fetcher.Fetch(ctx, url, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}
