package device

import "time"

// Button timing defaults.
const (
	// DefaultDebounce is the press timer. A release before it expires is a
	// short press (page advance); expiry while held enters the long-press
	// state.
	DefaultDebounce = 40 * time.Millisecond

	// DefaultMaxHold force-resets the state machine if the button appears
	// stuck, so a failed switch cannot wedge paging.
	DefaultMaxHold = 1500 * time.Millisecond
)

// buttonState is the paging button state machine state.
type buttonState uint8

const (
	stateIdle buttonState = iota
	statePressed
	stateLongPress
)

// PageButton debounces the paging button and advances the active page.
//
// A short press advances the page with wraparound. The long-press path is
// recognized but currently has no action bound to it.
type PageButton struct {
	pages    uint8
	page     uint8
	debounce time.Duration
	maxHold  time.Duration

	state       buttonState
	pressedAt   time.Time
	waitRelease bool
	quietUntil  time.Time

	// onPage is called with the new page after a short press.
	onPage func(page uint8)

	// onPress is called on every accepted press, before the page advances.
	onPress func()
}

// NewPageButton creates the button state machine starting at page 0.
func NewPageButton(pages uint8, onPress func(), onPage func(page uint8)) *PageButton {
	if pages == 0 {
		pages = 1
	}
	return &PageButton{
		pages:    pages,
		debounce: DefaultDebounce,
		maxHold:  DefaultMaxHold,
		onPress:  onPress,
		onPage:   onPage,
	}
}

// SetTiming overrides the debounce and max-hold durations.
func (b *PageButton) SetTiming(debounce, maxHold time.Duration) {
	b.debounce = debounce
	b.maxHold = maxHold
}

// Page returns the current active page.
func (b *PageButton) Page() uint8 { return b.page }

// SetPage forces the active page, used when the host resynchronizes.
func (b *PageButton) SetPage(page uint8) {
	if page < b.pages {
		b.page = page
	}
}

// Tick advances the state machine with the current raw switch state. It is
// called once per polling cycle.
func (b *PageButton) Tick(pressed bool, now time.Time) {
	// After a forced reset the switch must be seen released once before a
	// new press is accepted.
	if b.waitRelease {
		if !pressed {
			b.waitRelease = false
		}
		return
	}

	switch b.state {
	case stateIdle:
		if pressed && !now.Before(b.quietUntil) {
			b.state = statePressed
			b.pressedAt = now
		}

	case statePressed:
		if !pressed {
			// Released before the timer: short press, advance the page.
			b.state = stateIdle
			b.quietUntil = now.Add(b.debounce)
			b.advance()
			return
		}
		if now.Sub(b.pressedAt) >= b.maxHold {
			b.forceReset()
			return
		}
		if now.Sub(b.pressedAt) >= b.debounce {
			b.state = stateLongPress
		}

	case stateLongPress:
		if !pressed {
			// Long-press action reserved. No page change.
			b.state = stateIdle
			b.quietUntil = now.Add(b.debounce)
			return
		}
		if now.Sub(b.pressedAt) >= b.maxHold {
			b.forceReset()
		}
	}
}

// advance moves to the next page with wraparound and fires the callbacks.
func (b *PageButton) advance() {
	if b.onPress != nil {
		b.onPress()
	}
	b.page = (b.page + 1) % b.pages
	if b.onPage != nil {
		b.onPage(b.page)
	}
}

// forceReset handles a stuck switch: back to Idle, require a release.
func (b *PageButton) forceReset() {
	b.state = stateIdle
	b.waitRelease = true
}
