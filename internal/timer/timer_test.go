package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFake() (*fakeClock, *Stopwatch) {
	c := &fakeClock{t: time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)}
	return c, New(c.now)
}

func TestStopwatchStartPauseResume(t *testing.T) {
	clock, sw := newFake()
	assert.False(t, sw.Uncommitted())

	sw.Start()
	clock.advance(5 * time.Second)
	assert.Equal(t, 5*time.Second, sw.Elapsed())
	assert.True(t, sw.Running())

	sw.Pause()
	clock.advance(time.Hour)
	assert.Equal(t, 5*time.Second, sw.Elapsed())
	assert.False(t, sw.Running())
	assert.True(t, sw.Uncommitted())

	sw.Toggle()
	clock.advance(3 * time.Second)
	sw.Start()
	assert.Equal(t, 8*time.Second, sw.Elapsed())
}

func TestStopwatchStopResets(t *testing.T) {
	clock, sw := newFake()
	sw.Start()
	clock.advance(90 * time.Second)

	assert.Equal(t, 90*time.Second, sw.Stop())
	assert.Equal(t, time.Duration(0), sw.Elapsed())
	assert.False(t, sw.Uncommitted())
	assert.Equal(t, time.Duration(0), sw.Stop())
}

func TestStopwatchReset(t *testing.T) {
	clock, sw := newFake()
	sw.Start()
	clock.advance(time.Minute)
	sw.Reset()
	assert.False(t, sw.Running())
	assert.Equal(t, time.Duration(0), sw.Elapsed())
}

func TestStopwatchClockGoingBackwards(t *testing.T) {
	clock, sw := newFake()
	sw.Start()
	clock.advance(-time.Minute)
	assert.Equal(t, time.Duration(0), sw.Elapsed())
}

func TestGuardConfirmDiscard(t *testing.T) {
	clock, sw := newFake()
	g := Guard{Watch: sw}
	asked := false
	confirm := func(answer bool) func() bool {
		return func() bool {
			asked = true
			return answer
		}
	}

	assert.True(t, g.ConfirmDiscard(confirm(false)))
	assert.False(t, asked)

	sw.Start()
	clock.advance(time.Second)
	assert.False(t, g.ConfirmDiscard(confirm(false)))
	assert.True(t, asked)
	assert.True(t, g.ConfirmDiscard(confirm(true)))

	assert.True(t, Guard{}.ConfirmDiscard(confirm(false)))
}

func TestPauseAfterClockStepsBack(t *testing.T) {
	clock, sw := newFake()
	sw.Start()
	clock.advance(-time.Minute)
	sw.Pause()
	assert.Equal(t, time.Duration(0), sw.Elapsed())
	assert.False(t, sw.Uncommitted())
	assert.Equal(t, time.Duration(0), sw.Stop())
}

func TestFormatClock(t *testing.T) {
	tests := map[time.Duration]string{
		0:                      "00:00:00",
		-time.Second:           "00:00:00",
		999 * time.Millisecond: "00:00:00",
		61 * time.Second:       "00:01:01",
		3723 * time.Second:     "01:02:03",
		125 * time.Hour:        "125:00:00",
	}
	for d, want := range tests {
		assert.Equal(t, want, FormatClock(d), "d=%s", d)
	}
}
