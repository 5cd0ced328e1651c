package ui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/yourusername/showcase-dl/internal/domain"
	"go.uber.org/zap"
)

// Shutdowner stops all downloads and reports completion
type Shutdowner interface {
	InitiateShutdown(ctx context.Context) error
	Done() <-chan struct{}
}

// Dashboard renders the registry at a fixed tick until the operator quits
type Dashboard struct {
	console  Console
	registry *domain.Registry
	shutdown Shutdowner
	tick     time.Duration
	signals  <-chan os.Signal
	logger   *zap.Logger
}

// NewDashboard creates a new dashboard
func NewDashboard(console Console, registry *domain.Registry, shutdown Shutdowner, tick time.Duration, logger *zap.Logger) *Dashboard {
	return &Dashboard{
		console:  console,
		registry: registry,
		shutdown: shutdown,
		tick:     tick,
		logger:   logger,
	}
}

// WithSignals treats every value received on signals as a quit request
func (d *Dashboard) WithSignals(signals <-chan os.Signal) *Dashboard {
	d.signals = signals
	return d
}

// workPanic carries a panic out of the work goroutine
type workPanic struct {
	value any
}

func (w *workPanic) Error() string {
	return fmt.Sprintf("panic in pipeline: %v", w.value)
}

// Run captures the console, runs work alongside the render loop and releases
// the console on every path. Errors surface only once the console is released.
func (d *Dashboard) Run(ctx context.Context, work func(ctx context.Context) error) (err error) {
	if err := d.console.Acquire(); err != nil {
		return fmt.Errorf("failed to acquire terminal: %w", err)
	}

	defer func() {
		r := recover()
		if releaseErr := d.console.Release(); releaseErr != nil {
			d.logger.Error("Failed to release terminal", zap.Error(releaseErr))
			if err == nil && r == nil {
				err = releaseErr
			}
		}
		if r != nil {
			panic(r)
		}
	}()

	return d.loop(ctx, work)
}

func (d *Dashboard) loop(ctx context.Context, work func(ctx context.Context) error) error {
	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()

	workDone := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				workDone <- &workPanic{value: r}
			}
		}()
		workDone <- work(workCtx)
	}()

	events := make(chan inputEvent)
	stopInput := make(chan struct{})
	defer close(stopInput)
	go readInput(d.console.Input(), events, stopInput)

	ticker := time.NewTicker(d.tick)
	defer ticker.Stop()

	var (
		loopErr         error
		workErr         error
		workFinished    bool
		shutdownStarted bool
	)

	requestShutdown := func(reason string) {
		if shutdownStarted {
			return
		}
		shutdownStarted = true
		d.logger.Info("Shutdown requested", zap.String("reason", reason))
		go func() {
			if err := d.shutdown.InitiateShutdown(ctx); err != nil {
				d.logger.Error("Shutdown failed", zap.Error(err))
			}
		}()
	}

	if loopErr = d.render(); loopErr != nil {
		return d.finish(ctx, cancelWork, workDone, false, loopErr)
	}

	results := workDone
	handle := func(ev inputEvent) bool {
		if ev.err != nil {
			loopErr = fmt.Errorf("failed to read input: %w", ev.err)
			return false
		}
		if ev.quit {
			requestShutdown("key")
		}
		return !ev.eof
	}

loop:
	for {
		// shutdown completion first, then input, then everything else
		select {
		case <-d.shutdown.Done():
			break loop
		default:
		}
		select {
		case ev := <-events:
			if !handle(ev) {
				break loop
			}
			continue
		default:
		}

		select {
		case <-d.shutdown.Done():
			break loop
		case ev := <-events:
			if !handle(ev) {
				break loop
			}
		case sig := <-d.signals:
			requestShutdown(sig.String())
		case err := <-results:
			results = nil
			workFinished = true
			var wp *workPanic
			if errors.As(err, &wp) {
				cancelWork()
				d.stopBeforePanic(ctx, wp.value)
			}
			if err != nil && !errors.Is(err, context.Canceled) {
				workErr = err
				break loop
			}
		case <-ticker.C:
			if loopErr = d.render(); loopErr != nil {
				break loop
			}
		}
	}

	if workErr != nil {
		return d.finish(ctx, cancelWork, nil, true, workErr)
	}
	return d.finish(ctx, cancelWork, workDone, workFinished, loopErr)
}

// finish stops further discovery, makes sure no downloader is left running,
// then waits for the work to return.
func (d *Dashboard) finish(ctx context.Context, cancelWork context.CancelFunc, workDone <-chan error, workFinished bool, loopErr error) error {
	cancelWork()

	if !workFinished {
		select {
		case <-d.shutdown.Done():
		default:
			if err := d.shutdown.InitiateShutdown(ctx); err != nil {
				d.logger.Error("Shutdown failed", zap.Error(err))
			}
		}

		err := <-workDone
		var wp *workPanic
		if errors.As(err, &wp) {
			d.stopBeforePanic(ctx, wp.value)
		}
		if loopErr == nil && err != nil && !errors.Is(err, context.Canceled) {
			loopErr = err
		}
	}

	return loopErr
}

// stopBeforePanic interrupts every running downloader, waits for the shutdown
// to complete and then re-panics with value.
func (d *Dashboard) stopBeforePanic(ctx context.Context, value any) {
	d.logger.Error("Pipeline panicked, stopping downloads", zap.Any("panic", value))
	if err := d.shutdown.InitiateShutdown(ctx); err != nil {
		d.logger.Error("Shutdown failed", zap.Error(err))
	} else {
		// a shutdown already in flight may still own some signals
		select {
		case <-d.shutdown.Done():
		case <-ctx.Done():
		}
	}
	panic(value)
}

// render draws one frame from a fresh snapshot. No lock is held while writing.
func (d *Dashboard) render() error {
	snap := d.registry.Snapshot()

	width, height, err := d.console.Size()
	if err != nil {
		return fmt.Errorf("failed to get terminal size: %w", err)
	}

	lines := renderFrame(snap, width, height, d.console.Colorize())
	if _, err := d.console.Write(frameBytes(lines)); err != nil {
		return fmt.Errorf("failed to draw frame: %w", err)
	}
	return nil
}
