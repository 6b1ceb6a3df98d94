// Package timer tracks practice time against the wall clock.
package timer

import (
	"fmt"
	"time"
)

// Stopwatch measures practice time. Elapsed is derived from the clock on every
// call, so redraw frequency has no effect on accuracy.
type Stopwatch struct {
	now      func() time.Time
	startRef time.Time
	elapsed  time.Duration
	running  bool
}

// New returns a stopped stopwatch. A nil clock means time.Now.
func New(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	return &Stopwatch{now: now}
}

// Start starts or resumes timing. Calling it while running does nothing.
func (s *Stopwatch) Start() {
	if s.running {
		return
	}
	s.startRef = s.now().Add(-s.elapsed)
	s.running = true
}

// Pause freezes the elapsed time.
func (s *Stopwatch) Pause() {
	if !s.running {
		return
	}
	s.elapsed = max(s.now().Sub(s.startRef), 0)
	s.running = false
}

// Toggle pauses a running stopwatch and starts a stopped one.
func (s *Stopwatch) Toggle() {
	if s.running {
		s.Pause()
		return
	}
	s.Start()
}

// Stop returns the elapsed time and resets the stopwatch. Callers record a
// session only when the result is positive.
func (s *Stopwatch) Stop() time.Duration {
	d := s.Elapsed()
	s.Reset()
	return d
}

// Reset discards the elapsed time without returning it.
func (s *Stopwatch) Reset() {
	s.startRef = time.Time{}
	s.elapsed = 0
	s.running = false
}

// Elapsed returns the time accumulated so far.
func (s *Stopwatch) Elapsed() time.Duration {
	if s.running {
		return max(s.now().Sub(s.startRef), 0)
	}
	return s.elapsed
}

func (s *Stopwatch) Running() bool {
	return s.running
}

// Uncommitted reports whether stopping now would lose practice time.
func (s *Stopwatch) Uncommitted() bool {
	return s.running || s.elapsed > 0
}

// Guard asks before discarding uncommitted practice time.
type Guard struct {
	Watch *Stopwatch
}

// ConfirmDiscard reports whether it is fine to leave. confirm is only called
// when there is time to lose.
func (g Guard) ConfirmDiscard(confirm func() bool) bool {
	if g.Watch == nil || !g.Watch.Uncommitted() {
		return true
	}
	return confirm()
}

// FormatClock renders d as HH:MM:SS. Hours grow past two digits as needed.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}
