package domain

import (
	"context"
	"errors"
)

// ErrNotATerminal is returned when the dashboard is started without an interactive terminal
var ErrNotATerminal = errors.New("stdout is not a terminal")

// Downloader runs the external downloader for one video
type Downloader interface {
	// Download spawns and supervises the downloader until the video reaches a terminal stage.
	// Per-video failures are recorded on the video, never returned.
	Download(ctx context.Context, video *Video, registry *Registry) error
}

// Signaler delivers an interrupt to a single process id
type Signaler interface {
	Interrupt(pid int) error
}

// Notifier is told about terminal outcomes of downloads
type Notifier interface {
	NotifyVideoFinished(video *Video)
	NotifyVideoFailed(video *Video, reason error)
}
