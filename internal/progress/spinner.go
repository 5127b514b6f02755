package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var spinnerFrames = []string{"|", "/", "-", "\\"}

const spinnerInterval = 100 * time.Millisecond

// clearLine returns the cursor to column 0 and erases the line.
const clearLine = "\r\033[K"

// Spinner animates a status line on a terminal. Elsewhere it prints the
// initial and final messages as plain lines.
type Spinner struct {
	mu      sync.Mutex
	output  io.Writer
	message string
	done    chan struct{}
	stopped bool
	isTTY   bool
}

// NewSpinner creates a spinner writing to output, or os.Stderr if nil.
func NewSpinner(output io.Writer) *Spinner {
	if output == nil {
		output = os.Stderr
	}
	return &Spinner{
		output: output,
		done:   make(chan struct{}),
		isTTY:  ShouldShowProgress(),
	}
}

// Start shows message and, on a terminal, starts animating.
func (s *Spinner) Start(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()

	if !s.isTTY {
		fmt.Fprintln(s.output, message)
		return
	}
	go s.animate()
}

// SetMessage replaces the message shown next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Stop halts the animation and erases the status line.
func (s *Spinner) Stop() {
	s.stop("")
}

// StopWithMessage halts the animation and leaves message on its own line.
func (s *Spinner) StopWithMessage(message string) {
	s.stop(message)
}

func (s *Spinner) stop(final string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	close(s.done)

	if s.isTTY {
		fmt.Fprint(s.output, clearLine)
	}
	if final != "" {
		fmt.Fprintln(s.output, final)
	}
}

func (s *Spinner) animate() {
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for frame := 0; ; frame++ {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		if !s.stopped {
			fmt.Fprintf(s.output, "%s%s %s", clearLine, spinnerFrames[frame%len(spinnerFrames)], s.message)
		}
		s.mu.Unlock()
	}
}
