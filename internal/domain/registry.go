package domain

import (
	"sort"
	"sync"
)

// Registry is the append-only, ordered collection of discovered videos
// together with the global pipeline stage.
type Registry struct {
	stageMu sync.RWMutex
	stage   PipelineStage

	videosMu sync.RWMutex
	videos   []*Video
}

// NewRegistry creates an empty registry in the Initializing stage
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a video. It stays legal during shutdown, as in-flight
// discovery may still resolve.
func (r *Registry) Register(v *Video) {
	r.videosMu.Lock()
	r.videos = append(r.videos, v)
	r.videosMu.Unlock()
}

// Videos returns the registered videos in registration order
func (r *Registry) Videos() []*Video {
	r.videosMu.RLock()
	defer r.videosMu.RUnlock()
	out := make([]*Video, len(r.videos))
	copy(out, r.videos)
	return out
}

// Len returns the number of registered videos
func (r *Registry) Len() int {
	r.videosMu.RLock()
	defer r.videosMu.RUnlock()
	return len(r.videos)
}

// Find returns the video with the given id
func (r *Registry) Find(id string) (*Video, error) {
	r.videosMu.RLock()
	defer r.videosMu.RUnlock()
	for _, v := range r.videos {
		if v.ID() == id {
			return v, nil
		}
	}
	return nil, ErrVideoNotFound
}

// Stage returns the current pipeline stage
func (r *Registry) Stage() PipelineStage {
	r.stageMu.RLock()
	defer r.stageMu.RUnlock()
	return r.stage
}

// IsShuttingDown reports whether new downloads must be refused
func (r *Registry) IsShuttingDown() bool {
	return r.Stage().Kind == PipelineShuttingDown
}

// setStage replaces the stage unless a shutdown is in progress
func (r *Registry) setStage(next PipelineStage) bool {
	r.stageMu.Lock()
	defer r.stageMu.Unlock()
	if r.stage.Kind == PipelineShuttingDown {
		return false
	}
	r.stage = next
	return true
}

// SetFetchingSource marks the start of the source page fetch
func (r *Registry) SetFetchingSource(url string) bool {
	return r.setStage(PipelineStage{Kind: PipelineFetchingSource, SourceURL: url})
}

// SetProcessing marks the start of embed extraction and downloads
func (r *Registry) SetProcessing() bool {
	return r.setStage(PipelineStage{Kind: PipelineProcessing})
}

// SetDone marks the pipeline as finished
func (r *Registry) SetDone() bool {
	return r.setStage(PipelineStage{Kind: PipelineDone})
}

// BeginShutdown flips the registry to ShuttingDown.
// It returns false if a shutdown was already in progress.
func (r *Registry) BeginShutdown() bool {
	r.stageMu.Lock()
	defer r.stageMu.Unlock()
	if r.stage.Kind == PipelineShuttingDown {
		return false
	}
	r.stage = PipelineStage{Kind: PipelineShuttingDown}
	return true
}

// RegistrySnapshot is a render-time copy of the registry
type RegistrySnapshot struct {
	Stage  PipelineStage
	Videos []VideoSnapshot
}

// Snapshot copies the registry and every video, sorted by display name.
// The video list lock is only held while copying the list.
func (r *Registry) Snapshot() RegistrySnapshot {
	stage := r.Stage()
	videos := r.Videos()

	snaps := make([]VideoSnapshot, 0, len(videos))
	for _, v := range videos {
		snaps = append(snaps, v.Snapshot())
	}
	SortSnapshots(snaps)

	return RegistrySnapshot{Stage: stage, Videos: snaps}
}

// SortSnapshots orders snapshots by title, falling back to URL
func SortSnapshots(snaps []VideoSnapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		return snaps[i].DisplayName() < snaps[j].DisplayName()
	})
}
