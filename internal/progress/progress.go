// Package progress shows transient status on a terminal while verse works
// through a batch of projects.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// IsTerminalFunc reports whether a file descriptor is a terminal.
// Tests override it.
var IsTerminalFunc = term.IsTerminal

// ShouldShowProgress reports whether stdout is a terminal.
func ShouldShowProgress() bool {
	return IsTerminalFunc(int(os.Stdout.Fd()))
}

// Counter tracks a fixed number of tasks and renders "label n/total" on a
// spinner. Done may be called from several goroutines.
type Counter struct {
	mu      sync.Mutex
	spinner *Spinner
	label   string
	total   int
	done    int
	failed  int
	start   time.Time
	now     func() time.Time
}

// NewCounter creates a counter for total tasks writing to output.
func NewCounter(output io.Writer, label string, total int) *Counter {
	return &Counter{
		spinner: NewSpinner(output),
		label:   label,
		total:   total,
		now:     time.Now,
	}
}

// Start shows the counter.
func (c *Counter) Start() {
	c.mu.Lock()
	c.start = c.now()
	msg := c.message("")
	c.mu.Unlock()
	c.spinner.Start(msg)
}

// Done records one finished task.
func (c *Counter) Done(name string, err error) {
	c.mu.Lock()
	c.done++
	if err != nil {
		c.failed++
	}
	msg := c.message(name)
	c.mu.Unlock()
	c.spinner.SetMessage(msg)
}

// Finish stops the spinner and prints a one-line summary.
func (c *Counter) Finish() {
	c.mu.Lock()
	summary := fmt.Sprintf("%s %d/%d in %s", c.label, c.done, c.total, formatElapsed(c.now().Sub(c.start)))
	if c.failed > 0 {
		summary += fmt.Sprintf(", %d failed", c.failed)
	}
	c.mu.Unlock()
	c.spinner.StopWithMessage(summary)
}

func (c *Counter) message(last string) string {
	msg := fmt.Sprintf("%s %d/%d", c.label, c.done, c.total)
	if c.failed > 0 {
		msg += fmt.Sprintf(" (%d failed)", c.failed)
	}
	if last != "" {
		msg += " " + last
	}
	return msg
}

// formatElapsed renders d as 850ms, 4.2s or 2m05s.
func formatElapsed(d time.Duration) string {
	switch {
	case d < 0:
		d = 0
		fallthrough
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		s := int(d.Round(time.Second).Seconds())
		return fmt.Sprintf("%dm%02ds", s/60, s%60)
	}
}
