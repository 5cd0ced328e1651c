package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsQuit(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected bool
	}{
		{name: "q", input: []byte("q"), expected: true},
		{name: "ctrl-c", input: []byte{keyCtrlC}, expected: true},
		{name: "lone esc", input: []byte{keyEsc}, expected: true},
		{name: "q after typing", input: []byte("abq"), expected: true},
		{name: "arrow key", input: []byte("\x1b[A"), expected: false},
		{name: "alt-q", input: []byte("\x1bq"), expected: false},
		{name: "capital Q", input: []byte("Q"), expected: false},
		{name: "other key", input: []byte("x"), expected: false},
		{name: "empty", input: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isQuit(tt.input))
		})
	}
}

func collectEvents(t *testing.T, events <-chan inputEvent, n int) []inputEvent {
	t.Helper()
	var out []inputEvent
	for len(out) < n {
		select {
		case ev := <-events:
			out = append(out, ev)
		case <-time.After(time.Second):
			t.Fatalf("got %d of %d input events", len(out), n)
		}
	}
	return out
}

func TestReadInput_QuitThenEOF(t *testing.T) {
	events := make(chan inputEvent)
	stop := make(chan struct{})
	defer close(stop)

	go readInput(strings.NewReader("hello q"), events, stop)

	got := collectEvents(t, events, 2)
	assert.Equal(t, inputEvent{quit: true}, got[0])
	assert.Equal(t, inputEvent{eof: true}, got[1])
}

type failingReader struct{ err error }

func (r failingReader) Read(p []byte) (int, error) { return 0, r.err }

func TestReadInput_Error(t *testing.T) {
	events := make(chan inputEvent)
	stop := make(chan struct{})
	defer close(stop)

	readErr := errors.New("input/output error")
	go readInput(failingReader{err: readErr}, events, stop)

	got := collectEvents(t, events, 1)
	require.Error(t, got[0].err)
	assert.ErrorIs(t, got[0].err, readErr)
	assert.False(t, got[0].eof)
}

func TestReadInput_StopsWhenNobodyListens(t *testing.T) {
	events := make(chan inputEvent)
	stop := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		readInput(strings.NewReader("q"), events, stop)
		close(exited)
	}()

	close(stop)
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("readInput kept running after stop")
	}
}
