// Package ui renders the live download dashboard.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/yourusername/showcase-dl/internal/domain"
	"golang.org/x/term"
)

const (
	ansiEnterAltScreen = "\x1b[?1049h"
	ansiLeaveAltScreen = "\x1b[?1049l"
	ansiHideCursor     = "\x1b[?25l"
	ansiShowCursor     = "\x1b[?25h"
	ansiHome           = "\x1b[H"
	ansiClearLine      = "\x1b[K"
	ansiClearBelow     = "\x1b[J"
)

// Console is the surface the dashboard draws on and reads keys from
type Console interface {
	io.Writer
	Acquire() error
	Release() error
	Size() (width, height int, err error)
	Input() io.Reader
	Colorize() bool
}

// Terminal is a Console backed by the process's tty
type Terminal struct {
	in    *os.File
	out   *os.File
	state *term.State
}

// IsTerminal reports whether f is an interactive terminal
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewTerminal wraps in and out. Both must be terminals.
func NewTerminal(in, out *os.File) (*Terminal, error) {
	if !IsTerminal(out) || !IsTerminal(in) {
		return nil, domain.ErrNotATerminal
	}
	return &Terminal{in: in, out: out}, nil
}

// Acquire switches to raw mode and the alternate screen
func (t *Terminal) Acquire() error {
	state, err := term.MakeRaw(int(t.in.Fd()))
	if err != nil {
		return fmt.Errorf("failed to enable raw mode: %w", err)
	}
	t.state = state

	if _, err := io.WriteString(t.out, ansiEnterAltScreen+ansiHideCursor); err != nil {
		term.Restore(int(t.in.Fd()), t.state)
		t.state = nil
		return fmt.Errorf("failed to enter alternate screen: %w", err)
	}
	return nil
}

// Release restores the screen and the terminal mode it found
func (t *Terminal) Release() error {
	_, writeErr := io.WriteString(t.out, ansiShowCursor+ansiLeaveAltScreen)

	if t.state != nil {
		if err := term.Restore(int(t.in.Fd()), t.state); err != nil {
			return fmt.Errorf("failed to restore terminal: %w", err)
		}
		t.state = nil
	}

	if writeErr != nil {
		return fmt.Errorf("failed to leave alternate screen: %w", writeErr)
	}
	return nil
}

func (t *Terminal) Write(p []byte) (int, error) {
	return t.out.Write(p)
}

// Size returns the current terminal dimensions
func (t *Terminal) Size() (int, int, error) {
	return term.GetSize(int(t.out.Fd()))
}

// Input returns the keyboard stream
func (t *Terminal) Input() io.Reader {
	return t.in
}

// Colorize reports whether ANSI colors should be used
func (t *Terminal) Colorize() bool {
	return IsTerminal(t.out)
}
