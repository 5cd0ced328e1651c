package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/showcase-dl/internal/domain"
)

// fakeSignaler records interrupted pids and runs an optional reaction per pid
type fakeSignaler struct {
	mu         sync.Mutex
	calls      []int
	reactions  map[int]func()
	failForPID map[int]bool
}

func newFakeSignaler() *fakeSignaler {
	return &fakeSignaler{reactions: map[int]func(){}, failForPID: map[int]bool{}}
}

func (s *fakeSignaler) on(pid int, reaction func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions[pid] = reaction
}

func (s *fakeSignaler) Interrupt(pid int) error {
	s.mu.Lock()
	s.calls = append(s.calls, pid)
	reaction := s.reactions[pid]
	fail := s.failForPID[pid]
	s.mu.Unlock()

	if fail {
		return errors.New("no such process")
	}
	if reaction != nil {
		go reaction()
	}
	return nil
}

func (s *fakeSignaler) interrupted() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.calls))
	copy(out, s.calls)
	return out
}

func runningVideo(t *testing.T, registry *domain.Registry, pid int) *domain.Video {
	t.Helper()
	video := domain.NewVideo("https://player.example.com/video/x", "")
	require.True(t, video.MarkRunning(pid))
	registry.Register(video)
	return video
}

func TestShutdownCoordinator_InterruptsEveryRunningVideoOnce(t *testing.T) {
	registry := domain.NewRegistry()
	signaler := newFakeSignaler()

	for _, pid := range []int{101, 102, 103} {
		video := runningVideo(t, registry, pid)
		signaler.on(pid, func() { video.MarkFinished() })
	}

	finished := runningVideo(t, registry, 104)
	require.True(t, finished.MarkFinished())

	idle := domain.NewVideo("https://player.example.com/video/idle", "")
	registry.Register(idle)

	coordinator := NewShutdownCoordinator(registry, signaler, 5*time.Millisecond, zap.NewNop())
	require.NoError(t, coordinator.InitiateShutdown(context.Background()))

	assert.ElementsMatch(t, []int{101, 102, 103}, signaler.interrupted())
	assert.True(t, registry.IsShuttingDown())
	assert.Equal(t, domain.Initializing(), idle.Stage())

	for _, video := range registry.Videos() {
		stage := video.Stage()
		assert.True(t, stage.IsTerminal() || stage.Kind == domain.StageInitializing, stage.String())
	}

	select {
	case <-coordinator.Done():
	default:
		t.Fatal("Done not closed after shutdown completed")
	}
}

func TestShutdownCoordinator_IsIdempotent(t *testing.T) {
	registry := domain.NewRegistry()
	signaler := newFakeSignaler()
	video := runningVideo(t, registry, 200)
	signaler.on(200, func() { video.MarkFinished() })

	coordinator := NewShutdownCoordinator(registry, signaler, 5*time.Millisecond, zap.NewNop())
	require.NoError(t, coordinator.InitiateShutdown(context.Background()))
	require.NoError(t, coordinator.InitiateShutdown(context.Background()))

	assert.Equal(t, []int{200}, signaler.interrupted())
	<-coordinator.Done()
}

func TestShutdownCoordinator_NoVideos(t *testing.T) {
	coordinator := NewShutdownCoordinator(domain.NewRegistry(), newFakeSignaler(), 5*time.Millisecond, zap.NewNop())

	require.NoError(t, coordinator.InitiateShutdown(context.Background()))
	<-coordinator.Done()
}

func TestShutdownCoordinator_SignalsLateSpawn(t *testing.T) {
	registry := domain.NewRegistry()
	signaler := newFakeSignaler()

	early := runningVideo(t, registry, 300)
	late := domain.NewVideo("https://player.example.com/video/late", "")
	registry.Register(late)

	// the first video only settles once the late one has been interrupted too
	signaler.on(301, func() {
		late.MarkFinished()
		early.MarkFinished()
	})

	coordinator := NewShutdownCoordinator(registry, signaler, 5*time.Millisecond, zap.NewNop())

	go func() {
		for !registry.IsShuttingDown() {
			time.Sleep(time.Millisecond)
		}
		late.MarkRunning(301)
	}()

	require.NoError(t, coordinator.InitiateShutdown(context.Background()))
	assert.Equal(t, []int{300, 301}, signaler.interrupted())
}

func TestShutdownCoordinator_SkipsClaimedVideos(t *testing.T) {
	registry := domain.NewRegistry()
	signaler := newFakeSignaler()

	// a supervisor already claimed this one
	claimed := runningVideo(t, registry, 400)
	require.True(t, claimed.MarkShuttingDown())
	go func() {
		time.Sleep(20 * time.Millisecond)
		claimed.MarkFinished()
	}()

	coordinator := NewShutdownCoordinator(registry, signaler, 5*time.Millisecond, zap.NewNop())
	require.NoError(t, coordinator.InitiateShutdown(context.Background()))

	assert.Empty(t, signaler.interrupted())
}

func TestShutdownCoordinator_ContextCancelled(t *testing.T) {
	registry := domain.NewRegistry()
	signaler := newFakeSignaler()
	runningVideo(t, registry, 500)

	coordinator := NewShutdownCoordinator(registry, signaler, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := coordinator.InitiateShutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-coordinator.Done():
		t.Fatal("Done closed although the shutdown never completed")
	default:
	}
}

func TestShutdownCoordinator_InterruptErrorKeepsWaiting(t *testing.T) {
	registry := domain.NewRegistry()
	signaler := newFakeSignaler()
	signaler.failForPID[600] = true
	video := runningVideo(t, registry, 600)

	coordinator := NewShutdownCoordinator(registry, signaler, 5*time.Millisecond, zap.NewNop())

	go func() {
		time.Sleep(20 * time.Millisecond)
		video.MarkFailed(errors.New("exited on its own"))
	}()

	require.NoError(t, coordinator.InitiateShutdown(context.Background()))
	assert.Equal(t, []int{600}, signaler.interrupted())
}
