package domain

import "fmt"

// StageKind enumerates the lifecycle states of a single video download
type StageKind int

const (
	StageInitializing StageKind = iota
	StageRunning
	StageShuttingDown
	StageFinished
	StageFailed
)

// VideoStage is the lifecycle state of a video. PID is only meaningful while Running.
type VideoStage struct {
	Kind StageKind
	PID  int
}

// Initializing returns the initial stage of every video
func Initializing() VideoStage { return VideoStage{Kind: StageInitializing} }

// Running returns the stage of a video whose downloader process is alive
func Running(pid int) VideoStage { return VideoStage{Kind: StageRunning, PID: pid} }

// ShuttingDown returns the stage of a video whose process has been interrupted
func ShuttingDown() VideoStage { return VideoStage{Kind: StageShuttingDown} }

// Finished returns the stage of a video whose process exited with status zero
func Finished() VideoStage { return VideoStage{Kind: StageFinished} }

// Failed returns the stage of a video that could not be downloaded
func Failed() VideoStage { return VideoStage{Kind: StageFailed} }

// IsTerminal reports whether the stage can never change again
func (s VideoStage) IsTerminal() bool {
	return s.Kind == StageFinished || s.Kind == StageFailed
}

// IsRunning reports whether a downloader process is known to be alive
func (s VideoStage) IsRunning() bool {
	return s.Kind == StageRunning
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle monotonic.
// Finished is only reachable from a spawned process; Failed from any non-terminal stage.
func (s VideoStage) CanTransitionTo(next VideoStage) bool {
	if s.IsTerminal() {
		return false
	}
	switch next.Kind {
	case StageRunning:
		return s.Kind == StageInitializing && next.PID > 0
	case StageShuttingDown:
		return s.Kind == StageRunning
	case StageFinished:
		return s.Kind == StageRunning || s.Kind == StageShuttingDown
	case StageFailed:
		return true
	default:
		// nothing returns to Initializing
		return false
	}
}

// Label is the human readable status shown on the dashboard
func (s VideoStage) Label() string {
	switch s.Kind {
	case StageInitializing:
		return "Initializing..."
	case StageRunning:
		return "Running..."
	case StageShuttingDown:
		return "Shutting down..."
	case StageFinished:
		return "Finished!"
	case StageFailed:
		return "Failed!"
	default:
		return "Unknown"
	}
}

// String returns a short machine friendly name, used in logs and the status API
func (s VideoStage) String() string {
	switch s.Kind {
	case StageInitializing:
		return "initializing"
	case StageRunning:
		return fmt.Sprintf("running(pid=%d)", s.PID)
	case StageShuttingDown:
		return "shutting_down"
	case StageFinished:
		return "finished"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Name is String without the pid payload
func (s VideoStage) Name() string {
	if s.Kind == StageRunning {
		return "running"
	}
	return s.String()
}

// PipelineStageKind enumerates the global stages of a page download
type PipelineStageKind int

const (
	PipelineInitializing PipelineStageKind = iota
	PipelineFetchingSource
	PipelineProcessing
	PipelineShuttingDown
	PipelineDone
)

// PipelineStage is the global stage of the registry. SourceURL is set for FetchingSource.
type PipelineStage struct {
	Kind      PipelineStageKind
	SourceURL string
}

// Title is the dashboard headline for the stage
func (p PipelineStage) Title() string {
	switch p.Kind {
	case PipelineFetchingSource:
		return fmt.Sprintf(" FETCHING SOURCE PAGE '%s' ... ", p.SourceURL)
	case PipelineProcessing:
		return " VIDEO DOWNLOAD "
	case PipelineShuttingDown:
		return " SHUTTING DOWN - PLEASE WAIT ... "
	case PipelineDone:
		return " FINISHED! "
	default:
		return " INITIALIZING ... "
	}
}

// String returns a short machine friendly name
func (p PipelineStage) String() string {
	switch p.Kind {
	case PipelineFetchingSource:
		return "fetching_source"
	case PipelineProcessing:
		return "processing"
	case PipelineShuttingDown:
		return "shutting_down"
	case PipelineDone:
		return "done"
	default:
		return "initializing"
	}
}
