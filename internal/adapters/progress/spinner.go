package progress

import (
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// spinnerLine owns the single spinner of a reporter. Messages printed while
// it spins pause it so lines do not interleave with the animation.
type spinnerLine struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	spinner     *spinner.Spinner
}

func newSpinnerLine(out io.Writer, interactive bool) *spinnerLine {
	return &spinnerLine{out: out, interactive: interactive}
}

// start shows the spinner with a message; a no-op without a terminal
func (l *spinnerLine) start(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.interactive {
		return
	}
	if l.spinner == nil {
		l.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		l.spinner.Writer = l.out
		l.spinner.HideCursor = false
		_ = l.spinner.Color("cyan", "bold")
	}
	l.spinner.Suffix = " " + message
	if !l.spinner.Active() {
		l.spinner.Start()
	}
}

func (l *spinnerLine) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.spinner != nil && l.spinner.Active() {
		l.spinner.Stop()
	}
}

// println prints a line, pausing the spinner if it is running
func (l *spinnerLine) println(c *color.Color, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	wasActive := l.spinner != nil && l.spinner.Active()
	if wasActive {
		l.spinner.Stop()
	}
	if c == nil {
		_, _ = io.WriteString(l.out, message+"\n")
	} else {
		_, _ = c.Fprintln(l.out, message)
	}
	if wasActive {
		l.spinner.Start()
	}
}
