package domain

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrInvalidPID is returned when a process id cannot be signalled safely
	ErrInvalidPID = errors.New("invalid process id")

	// ErrVideoNotFound is returned when no registered video has the requested id
	ErrVideoNotFound = errors.New("video not found")
)

// guarded holds one independently locked field, so readers of one field
// never wait for writers of another.
type guarded[T any] struct {
	mu sync.RWMutex
	v  T
}

func (g *guarded[T]) load() T {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.v
}

func (g *guarded[T]) store(v T) {
	g.mu.Lock()
	g.v = v
	g.mu.Unlock()
}

// Video is one discovered video and the live state of its download
type Video struct {
	id      string
	url     string
	referer string

	stage       guarded[VideoStage]
	title       guarded[string]
	line        guarded[string]
	outputFile  guarded[string]
	percentDone guarded[*float64]
	failure     guarded[string]
}

// NewVideo creates a video in the Initializing stage. referer may be empty.
func NewVideo(url, referer string) *Video {
	return NewVideoWithTitle(url, referer, "")
}

// NewVideoWithTitle creates a video whose title is already known
func NewVideoWithTitle(url, referer, title string) *Video {
	v := &Video{
		id:      uuid.New().String(),
		url:     url,
		referer: referer,
	}
	v.stage.store(Initializing())
	v.title.store(title)
	return v
}

// ID returns the unique id of the video
func (v *Video) ID() string { return v.id }

// ShortID returns the first block of the id, for log correlation
func (v *Video) ShortID() string { return v.id[:8] }

// URL returns the source URL
func (v *Video) URL() string { return v.url }

// Referer returns the referer header value required by the host, or ""
func (v *Video) Referer() string { return v.referer }

// Stage returns the current lifecycle stage
func (v *Video) Stage() VideoStage { return v.stage.load() }

// transition applies next if the lifecycle allows it
func (v *Video) transition(next VideoStage) bool {
	v.stage.mu.Lock()
	defer v.stage.mu.Unlock()
	if !v.stage.v.CanTransitionTo(next) {
		return false
	}
	v.stage.v = next
	return true
}

// MarkRunning records the process id of a spawned downloader
func (v *Video) MarkRunning(pid int) bool { return v.transition(Running(pid)) }

// MarkShuttingDown records that the downloader has been interrupted
func (v *Video) MarkShuttingDown() bool { return v.transition(ShuttingDown()) }

// MarkFinished records a zero exit status
func (v *Video) MarkFinished() bool { return v.transition(Finished()) }

// MarkFailed records a failed download along with its reason
func (v *Video) MarkFailed(reason error) bool {
	if !v.transition(Failed()) {
		return false
	}
	if reason != nil {
		v.failure.store(reason.Error())
	}
	return true
}

// Failure returns the reason of a failed download, or ""
func (v *Video) Failure() string { return v.failure.load() }

// Title returns the late-bound title, or "" while unknown
func (v *Video) Title() string { return v.title.load() }

// SetTitle sets the title once discovery resolved it
func (v *Video) SetTitle(title string) { v.title.store(title) }

// DisplayName returns the title, falling back to the URL
func (v *Video) DisplayName() string {
	if t := v.Title(); t != "" {
		return t
	}
	return v.url
}

// Line returns the last raw output line of the downloader
func (v *Video) Line() string { return v.line.load() }

// OutputFile returns the last announced destination path, or ""
func (v *Video) OutputFile() string { return v.outputFile.load() }

// PercentDone returns the last known download percentage, or nil
func (v *Video) PercentDone() *float64 {
	p := v.percentDone.load()
	if p == nil {
		return nil
	}
	pct := *p
	return &pct
}

// SetPercentDone stores a fresh percentage
func (v *Video) SetPercentDone(pct float64) { v.percentDone.store(&pct) }

// SetOutputFile stores the destination path
func (v *Video) SetOutputFile(path string) { v.outputFile.store(path) }

// UpdateLine feeds one downloader output line into the video.
// Output file and percent are only overwritten when the line carries them.
func (v *Video) UpdateLine(line string) {
	if file, ok := ParseOutputFile(line); ok {
		v.SetOutputFile(file)
	}
	if pct, ok := ParsePercent(line); ok {
		v.SetPercentDone(pct)
	}
	v.line.store(line)
}

// VideoSnapshot is a self-consistent per-field copy of a video.
// Fields are read one after another, so no cross-field atomicity is promised.
type VideoSnapshot struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Referer     string     `json:"referer,omitempty"`
	Title       string     `json:"title,omitempty"`
	Stage       VideoStage `json:"-"`
	StageName   string     `json:"stage"`
	PID         int        `json:"pid,omitempty"`
	Line        string     `json:"line,omitempty"`
	OutputFile  string     `json:"output_file,omitempty"`
	PercentDone *float64   `json:"percent_done,omitempty"`
	Failure     string     `json:"failure,omitempty"`
}

// Snapshot reads every mutable field of the video
func (v *Video) Snapshot() VideoSnapshot {
	stage := v.Stage()
	s := VideoSnapshot{
		ID:          v.id,
		URL:         v.url,
		Referer:     v.referer,
		Title:       v.Title(),
		Stage:       stage,
		StageName:   stage.Name(),
		Line:        v.Line(),
		OutputFile:  v.OutputFile(),
		PercentDone: v.PercentDone(),
		Failure:     v.Failure(),
	}
	if stage.IsRunning() {
		s.PID = stage.PID
	}
	return s
}

// DisplayName returns the title, falling back to the URL
func (s VideoSnapshot) DisplayName() string {
	if s.Title != "" {
		return s.Title
	}
	return s.URL
}

// ProgressDetail derives the display fields from the stored line
func (s VideoSnapshot) ProgressDetail() ProgressDetail {
	return ParseProgressDetail(s.Line, s.PercentDone)
}

// DisplayPercent is the percentage shown on the gauge.
// A video finished without ever reporting progress was already downloaded.
func (s VideoSnapshot) DisplayPercent() float64 {
	if s.PercentDone != nil {
		return *s.PercentDone
	}
	if s.Stage.Kind == StageFinished {
		return 100
	}
	return 0
}
