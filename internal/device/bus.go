package device

import "errors"

// ErrBusNack indicates the addressed device did not acknowledge a transfer.
// It is transient: the caller skips the channel for this polling cycle and
// retries on the next sweep.
var ErrBusNack = errors.New("bus: no acknowledge")

// Bus is the shared I2C-style bus behind the channel multiplexer.
type Bus interface {
	// Write sends data to the device at addr. Returns ErrBusNack when the
	// device does not acknowledge.
	Write(addr uint8, data []byte) error
}

// ADCReader reads raw fader positions. Channel values are 10-bit (0..1023).
type ADCReader interface {
	Read(channel uint8) (uint16, error)
}

// ButtonInput samples the physical paging button.
type ButtonInput interface {
	// Pressed returns the raw, unbounced switch state.
	Pressed() bool
}

// DisplayDriver blits host-composed text to the currently selected display.
type DisplayDriver interface {
	// Draw writes both lines to the display reachable through the
	// multiplexer. The multiplexer must have selected the display first.
	Draw(line1, line2 string) error
}

// LEDStrip drives the addressable RGB strip.
type LEDStrip interface {
	// Set stages the color of one pixel.
	Set(index int, r, g, b uint8)

	// Count returns the number of pixels.
	Count() int

	// Show latches staged colors onto the strip.
	Show() error
}
