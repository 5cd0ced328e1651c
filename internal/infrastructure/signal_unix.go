//go:build unix

package infrastructure

import (
	"fmt"

	"github.com/yourusername/showcase-dl/internal/domain"
	"golang.org/x/sys/unix"
)

// UnixSignaler interrupts processes with SIGINT
type UnixSignaler struct{}

// NewUnixSignaler creates a new signaler
func NewUnixSignaler() *UnixSignaler {
	return &UnixSignaler{}
}

// Interrupt sends SIGINT to exactly pid. Zero and negative pids would address
// process groups, so they are rejected.
func (s *UnixSignaler) Interrupt(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("interrupt pid %d: %w", pid, domain.ErrInvalidPID)
	}
	if err := unix.Kill(pid, unix.SIGINT); err != nil {
		return fmt.Errorf("interrupt pid %d: %w", pid, err)
	}
	return nil
}
