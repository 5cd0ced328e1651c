package infrastructure

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/yourusername/showcase-dl/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// errorMarker prefixes the downloader's own error reports
const errorMarker = "ERROR:"

// maxLineSize bounds a single output line; progress lines are far shorter
const maxLineSize = 1024 * 1024

// YTDLPDownloader implements domain.Downloader by supervising one yt-dlp process per video
type YTDLPDownloader struct {
	config   *domain.DownloaderConfig
	signaler domain.Signaler
	notifier domain.Notifier
	logger   *zap.Logger
}

// NewYTDLPDownloader creates a new downloader. notifier may be nil.
func NewYTDLPDownloader(config *domain.DownloaderConfig, signaler domain.Signaler, notifier domain.Notifier, logger *zap.Logger) *YTDLPDownloader {
	return &YTDLPDownloader{
		config:   config,
		signaler: signaler,
		notifier: notifier,
		logger:   logger,
	}
}

// BuildArgs returns the downloader arguments for video, without the binary
func BuildArgs(config *domain.DownloaderConfig, video *domain.Video) []string {
	args := []string{"--newline", "--no-colors"}
	if referer := video.Referer(); referer != "" {
		args = append(args, "--add-header", "Referer:"+referer)
	}
	args = append(args, config.Options...)
	args = append(args, video.URL())
	return args
}

// Download runs the downloader for video and resolves it to Finished or Failed.
// ctx is not tied to the child process: interruption only happens via the Signaler,
// so the downloader can finish its own cleanup.
func (d *YTDLPDownloader) Download(ctx context.Context, video *domain.Video, registry *domain.Registry) error {
	log := d.logger.With(
		zap.String("video_id", video.ShortID()),
		zap.String("url", video.URL()))

	if registry.IsShuttingDown() {
		log.Debug("Shutdown in progress, not spawning downloader")
		return nil
	}

	args := BuildArgs(d.config, video)
	log.Debug("Spawning downloader",
		zap.String("command", ShellEscapeCommand(d.config.Binary, args...)))

	cmd, stdout, stderr, err := d.start(args)
	if err != nil {
		d.resolve(video, log, fmt.Errorf("failed to spawn downloader: %w", err))
		return nil
	}
	defer stdout.Close()
	defer stderr.Close()

	pid := cmd.Process.Pid
	log = log.With(zap.Int("pid", pid))
	video.MarkRunning(pid)
	log.Info("Downloader started")

	// a shutdown that began while spawning may have missed this pid
	if registry.IsShuttingDown() && video.MarkShuttingDown() {
		if err := d.signaler.Interrupt(pid); err != nil {
			log.Error("Failed to interrupt downloader", zap.Error(err))
		}
	}

	var waitErr error
	g := new(errgroup.Group)
	g.Go(func() error { return d.drain(cmd, stdout, video, log) })
	g.Go(func() error { return d.drain(cmd, stderr, video, log) })
	g.Go(func() error {
		waitErr = cmd.Wait()
		return nil
	})
	streamErr := g.Wait()

	switch {
	case streamErr != nil:
		d.resolve(video, log, fmt.Errorf("failed to read downloader output: %w", streamErr))
	case waitErr != nil:
		d.resolve(video, log, fmt.Errorf("downloader exited: %w", waitErr))
	default:
		d.resolve(video, log, nil)
	}

	return nil
}

// start spawns the downloader with its output connected to pipes owned by the caller.
// exec's own pipes forbid calling Wait before the reads finish, os.Pipe does not.
func (d *YTDLPDownloader) start(args []string) (*exec.Cmd, *os.File, *os.File, error) {
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, nil, nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	cmd := exec.Command(d.config.Binary, args...)
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	err = cmd.Start()

	// the child holds its own copies; ours must go so readers see EOF on exit
	stdoutW.Close()
	stderrW.Close()

	if err != nil {
		stdoutR.Close()
		stderrR.Close()
		return nil, nil, nil, err
	}

	return cmd, stdoutR, stderrR, nil
}

// drain feeds every line of r into video. A read error kills the child so Wait returns.
func (d *YTDLPDownloader) drain(cmd *exec.Cmd, r io.Reader, video *domain.Video, log *zap.Logger) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, errorMarker) {
			log.Error("Downloader error",
				zap.String("title", video.DisplayName()),
				zap.String("line", line))
		} else {
			log.Debug("Downloader output",
				zap.String("title", video.DisplayName()),
				zap.String("line", line))
		}
		video.UpdateLine(line)
	}

	if err := scanner.Err(); err != nil {
		if killErr := cmd.Process.Kill(); killErr != nil {
			log.Warn("Failed to kill downloader", zap.Error(killErr))
		}
		return err
	}
	return nil
}

// resolve applies the single terminal transition of a download
func (d *YTDLPDownloader) resolve(video *domain.Video, log *zap.Logger, reason error) {
	if reason == nil {
		if video.MarkFinished() {
			log.Info("Download finished",
				zap.String("title", video.DisplayName()),
				zap.String("output_file", video.OutputFile()))
			if d.notifier != nil {
				d.notifier.NotifyVideoFinished(video)
			}
		}
		return
	}

	if video.MarkFailed(reason) {
		log.Error("Download failed",
			zap.String("title", video.DisplayName()),
			zap.Error(reason))
		if d.notifier != nil {
			d.notifier.NotifyVideoFailed(video, reason)
		}
	}
}
