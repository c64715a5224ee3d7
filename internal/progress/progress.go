// Package progress renders quantizer progress updates.
package progress

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/maax3v3/palcalc/internal/quantizer"
)

// DefaultInterval is the minimum time between two throttled updates.
const DefaultInterval = 500 * time.Millisecond

const (
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
	clearLine  = "\r\x1b[2K"
)

// Terminal draws a single-line progress bar. On a terminal the line is
// redrawn in place; on any other writer one line is printed per finished
// attempt.
//
// Open must be paired with a deferred Close so the cursor is restored on
// every exit path.
type Terminal struct {
	w        io.Writer
	attempts int
	limiter  *rate.Limiter
	tty      bool
	width    int
	start    time.Time
	open     bool
}

// NewTerminal creates a Terminal reporting a run of the given number of
// attempts to w.
func NewTerminal(w io.Writer, attempts int) *Terminal {
	t := &Terminal{
		w:        w,
		attempts: attempts,
		limiter:  rate.NewLimiter(rate.Every(DefaultInterval), 1),
		width:    80,
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		t.tty = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			t.width = width
		}
	}
	return t
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Open acquires the display.
func (t *Terminal) Open() {
	if t.open {
		return
	}
	t.open = true
	t.start = time.Now()
	if t.tty {
		io.WriteString(t.w, hideCursor)
	}
}

// Close releases the display. It is safe to call more than once.
func (t *Terminal) Close() {
	if !t.open {
		return
	}
	t.open = false
	if t.tty {
		io.WriteString(t.w, "\n"+showCursor)
	}
}

// Due reports whether the throttle interval has elapsed.
func (t *Terminal) Due() bool {
	return t.limiter.Allow()
}

// Report draws u.
func (t *Terminal) Report(u quantizer.Update) {
	if !t.open {
		t.Open()
	}
	line := t.format(u)
	if t.tty {
		fmt.Fprint(t.w, clearLine+line)
		return
	}
	if u.Final {
		fmt.Fprintln(t.w, line)
	}
}

func (t *Terminal) format(u quantizer.Update) string {
	status := fmt.Sprintf(" attempt %d/%d  step %d  moved %d  distance %.3f%%  %s",
		u.Attempt+1, t.attempts, u.Step, u.PointsMoved, u.Distance,
		time.Since(t.start).Round(time.Second))

	barWidth := t.width - len(status) - 8
	if barWidth < 10 {
		return strings.TrimSpace(status)
	}

	frac := 0.0
	if u.StepsEstimated > 0 {
		frac = float64(u.StepsDone) / float64(u.StepsEstimated)
	}
	frac = min(frac, 1)
	filled := int(frac * float64(barWidth))
	return fmt.Sprintf("[%s%s] %3.0f%%%s",
		strings.Repeat("#", filled), strings.Repeat(".", barWidth-filled), frac*100, status)
}

// Log writes updates as structured log records: throttled step updates at
// debug level, attempt results at info level.
type Log struct {
	logger  *slog.Logger
	limiter *rate.Limiter
}

// NewLog creates a Log reporter that lets at most one step update through
// per interval.
func NewLog(logger *slog.Logger, interval time.Duration) *Log {
	return &Log{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Due reports whether the throttle interval has elapsed.
func (l *Log) Due() bool {
	return l.logger.Enabled(context.Background(), slog.LevelDebug) && l.limiter.Allow()
}

// Report logs u.
func (l *Log) Report(u quantizer.Update) {
	level := slog.LevelDebug
	msg := "quantization step"
	if u.Final {
		level = slog.LevelInfo
		msg = "attempt finished"
	}
	l.logger.Log(context.Background(), level, msg,
		"attempt", u.Attempt,
		"step", u.Step,
		"moved", u.PointsMoved,
		"distance_pct", u.Distance,
		"steps_done", u.StepsDone,
		"steps_estimated", u.StepsEstimated,
	)
}

// Multi fans updates out to several reporters, each keeping its own
// throttle.
type Multi struct {
	reporters []quantizer.Reporter
	due       []bool
}

// NewMulti combines reporters.
func NewMulti(reporters ...quantizer.Reporter) *Multi {
	return &Multi{reporters: reporters, due: make([]bool, len(reporters))}
}

// Due polls every reporter and is true when any of them is due.
func (m *Multi) Due() bool {
	due := false
	for i, r := range m.reporters {
		m.due[i] = r.Due()
		due = due || m.due[i]
	}
	return due
}

// Report forwards u to the reporters that were due, or to all of them for
// a final update.
func (m *Multi) Report(u quantizer.Update) {
	for i, r := range m.reporters {
		if u.Final || m.due[i] {
			r.Report(u)
		}
		m.due[i] = false
	}
}
