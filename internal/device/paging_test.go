package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// tap simulates a press of the given duration with 1 ms ticks, then a
// release, and returns the time after the release tick.
func tap(b *PageButton, start time.Time, held time.Duration) time.Time {
	now := start
	for elapsed := time.Duration(0); elapsed <= held; elapsed += time.Millisecond {
		b.Tick(true, now)
		now = now.Add(time.Millisecond)
	}
	b.Tick(false, now)
	return now
}

func TestShortPressAdvancesPage(t *testing.T) {
	var presses int
	var pages []uint8
	b := NewPageButton(3, func() { presses++ }, func(p uint8) { pages = append(pages, p) })

	now := time.Now()
	now = tap(b, now, 10*time.Millisecond)

	assert.Equal(t, 1, presses)
	assert.Equal(t, []uint8{1}, pages)
	assert.Equal(t, uint8(1), b.Page())
}

func TestPageWrapsAround(t *testing.T) {
	b := NewPageButton(3, nil, nil)

	now := time.Now()
	for i := 0; i < 3; i++ {
		now = tap(b, now.Add(100*time.Millisecond), 10*time.Millisecond)
	}

	assert.Equal(t, uint8(0), b.Page())
}

func TestLongPressDoesNotAdvance(t *testing.T) {
	b := NewPageButton(3, nil, nil)

	now := time.Now()
	tap(b, now, 200*time.Millisecond)

	assert.Equal(t, uint8(0), b.Page())
}

func TestBouncedReleaseEmitsOnce(t *testing.T) {
	var presses int
	b := NewPageButton(3, func() { presses++ }, nil)

	now := time.Now()
	// Clean press...
	for i := 0; i < 10; i++ {
		b.Tick(true, now)
		now = now.Add(time.Millisecond)
	}
	// ...then a bouncing release: open, closed, open within a few ms.
	b.Tick(false, now)
	now = now.Add(time.Millisecond)
	b.Tick(true, now)
	now = now.Add(time.Millisecond)
	b.Tick(false, now)

	assert.Equal(t, 1, presses)
	assert.Equal(t, uint8(1), b.Page())
}

func TestStuckButtonForcesIdle(t *testing.T) {
	b := NewPageButton(3, nil, nil)

	now := time.Now()
	// Held far past the max-hold limit.
	for elapsed := time.Duration(0); elapsed < 3*time.Second; elapsed += 10 * time.Millisecond {
		b.Tick(true, now)
		now = now.Add(10 * time.Millisecond)
	}
	// The release after a forced reset must not count as anything.
	b.Tick(false, now)
	assert.Equal(t, uint8(0), b.Page())

	// A normal press afterwards works again.
	tap(b, now.Add(100*time.Millisecond), 10*time.Millisecond)
	assert.Equal(t, uint8(1), b.Page())
}

func TestHostForcedPage(t *testing.T) {
	b := NewPageButton(3, nil, nil)

	b.SetPage(2)
	assert.Equal(t, uint8(2), b.Page())

	// Out of range is ignored.
	b.SetPage(7)
	assert.Equal(t, uint8(2), b.Page())

	// The next press wraps from the forced page.
	tap(b, time.Now(), 10*time.Millisecond)
	assert.Equal(t, uint8(0), b.Page())
}
