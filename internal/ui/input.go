package ui

import (
	"errors"
	"io"
)

const (
	keyEsc   = 0x1b
	keyCtrlC = 0x03
)

// inputEvent is one read from the keyboard stream
type inputEvent struct {
	quit bool
	eof  bool
	err  error
}

// isQuit reports whether a single read holds a quit key. Raw mode delivers
// Ctrl-C as a byte. A lone Esc is the key; Esc followed by more bytes is an
// escape sequence such as an arrow key.
func isQuit(buf []byte) bool {
	if len(buf) == 1 && buf[0] == keyEsc {
		return true
	}
	for i := 0; i < len(buf); i++ {
		switch buf[i] {
		case keyEsc:
			return false
		case 'q', keyCtrlC:
			return true
		}
	}
	return false
}

// readInput forwards keyboard events until EOF, a read error or stop.
// A blocked Read cannot be interrupted, so the goroutine may outlive the loop.
func readInput(r io.Reader, events chan<- inputEvent, stop <-chan struct{}) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)

		var ev inputEvent
		if n > 0 && isQuit(buf[:n]) {
			ev.quit = true
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				ev.eof = true
			} else {
				ev.err = err
			}
		}

		if ev.quit || ev.eof || ev.err != nil {
			select {
			case events <- ev:
			case <-stop:
				return
			}
		}
		if err != nil {
			return
		}
	}
}
