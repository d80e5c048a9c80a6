package device

import "sync"

// Simulated peripherals. They back the TCP-attached simulator binary and
// the package tests; no real hardware required.

// SimBus records every transfer and can be programmed to reject addresses.
type SimBus struct {
	mu sync.Mutex

	// Writes is the transfer history as (addr, first data byte) pairs.
	Writes [][2]uint8

	// Fail maps addresses that answer with ErrBusNack.
	Fail map[uint8]bool
}

// NewSimBus creates an empty simulated bus.
func NewSimBus() *SimBus {
	return &SimBus{Fail: make(map[uint8]bool)}
}

// Write implements Bus.
func (b *SimBus) Write(addr uint8, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Fail[addr] {
		return ErrBusNack
	}
	first := uint8(0)
	if len(data) > 0 {
		first = data[0]
	}
	b.Writes = append(b.Writes, [2]uint8{addr, first})
	return nil
}

// History returns a copy of the transfer history.
func (b *SimBus) History() [][2]uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([][2]uint8, len(b.Writes))
	copy(out, b.Writes)
	return out
}

// SimADC serves programmable raw readings per channel.
type SimADC struct {
	mu     sync.Mutex
	values [ChannelCount]uint16
	fail   [ChannelCount]bool
}

// SetValue programs the raw reading of one channel.
func (a *SimADC) SetValue(ch uint8, raw uint16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ch < ChannelCount {
		a.values[ch] = raw
	}
}

// SetFail makes one channel answer with ErrBusNack.
func (a *SimADC) SetFail(ch uint8, fail bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ch < ChannelCount {
		a.fail[ch] = fail
	}
}

// Read implements ADCReader.
func (a *SimADC) Read(ch uint8) (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if ch >= ChannelCount {
		return 0, ErrBusNack
	}
	if a.fail[ch] {
		return 0, ErrBusNack
	}
	return a.values[ch], nil
}

// SimButton is a settable switch state.
type SimButton struct {
	mu      sync.Mutex
	pressed bool
}

// SetPressed sets the raw switch state.
func (b *SimButton) SetPressed(pressed bool) {
	b.mu.Lock()
	b.pressed = pressed
	b.mu.Unlock()
}

// Pressed implements ButtonInput.
func (b *SimButton) Pressed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pressed
}

// SimDisplay records drawn text and can be programmed to fail.
type SimDisplay struct {
	mu sync.Mutex

	// Draws holds the drawn text, one [2]string per draw call.
	Draws [][2]string

	// FailNext makes the next Draw fail once.
	FailNext bool
}

// Draw implements DisplayDriver.
func (d *SimDisplay) Draw(line1, line2 string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FailNext {
		d.FailNext = false
		return ErrBusNack
	}
	d.Draws = append(d.Draws, [2]string{line1, line2})
	return nil
}

// DrawCount returns how many draws succeeded.
func (d *SimDisplay) DrawCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.Draws)
}

// SimStrip is an in-memory LED strip.
type SimStrip struct {
	mu     sync.Mutex
	pixels [][3]uint8
	shows  int
}

// NewSimStrip creates a strip with the given pixel count.
func NewSimStrip(count int) *SimStrip {
	return &SimStrip{pixels: make([][3]uint8, count)}
}

// Set implements LEDStrip.
func (s *SimStrip) Set(index int, r, g, b uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index >= 0 && index < len(s.pixels) {
		s.pixels[index] = [3]uint8{r, g, b}
	}
}

// Count implements LEDStrip.
func (s *SimStrip) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pixels)
}

// Show implements LEDStrip.
func (s *SimStrip) Show() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shows++
	return nil
}

// Pixel returns the latched color of one pixel.
func (s *SimStrip) Pixel(index int) [3]uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.pixels) {
		return [3]uint8{}
	}
	return s.pixels[index]
}
