package wire

import (
	"errors"
	"fmt"
)

// Protocol limits.
const (
	// ProtocolVersion is the current wire protocol version.
	ProtocolVersion = 1

	// ChannelCount is the number of fader channels on the device.
	ChannelCount = 5

	// MaxDisplayLine is the maximum length of one display line in bytes.
	MaxDisplayLine = 16
)

// Validation errors.
var (
	ErrInvalidChannel = errors.New("channel out of range")
	ErrInvalidValue   = errors.New("value out of range")
	ErrLineTooLong    = errors.New("display line too long")
)

// MsgType identifies a protocol message on the wire.
type MsgType uint8

const (
	// MsgHeartbeat is exchanged periodically in both directions.
	MsgHeartbeat MsgType = 0x01

	// MsgHello is sent by the device after (re)connecting.
	MsgHello MsgType = 0x02

	// MsgFaderMoved reports a significant fader movement (device to host).
	MsgFaderMoved MsgType = 0x10

	// MsgButtonPressed reports a raw page-button press (device to host).
	MsgButtonPressed MsgType = 0x11

	// MsgPageChanged announces the active page. The device sends it when the
	// button advances the page; the host sends it to force the page during
	// resynchronization.
	MsgPageChanged MsgType = 0x12

	// MsgSetVolume sets a fader's visual/motor position (host to device).
	MsgSetVolume MsgType = 0x20

	// MsgRenderDisplay writes pre-composed text to one channel display.
	MsgRenderDisplay MsgType = 0x21

	// MsgSetLED sets one channel's RGB feedback LED.
	MsgSetLED MsgType = 0x22

	// MsgSetLEDBar sets the fill level of the 8-LED bar.
	MsgSetLEDBar MsgType = 0x23
)

// String returns the message type name.
func (t MsgType) String() string {
	switch t {
	case MsgHeartbeat:
		return "HEARTBEAT"
	case MsgHello:
		return "HELLO"
	case MsgFaderMoved:
		return "FADER_MOVED"
	case MsgButtonPressed:
		return "BUTTON_PRESSED"
	case MsgPageChanged:
		return "PAGE_CHANGED"
	case MsgSetVolume:
		return "SET_VOLUME"
	case MsgRenderDisplay:
		return "RENDER_DISPLAY"
	case MsgSetLED:
		return "SET_LED"
	case MsgSetLEDBar:
		return "SET_LED_BAR"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", uint8(t))
	}
}

// Valid reports whether t is a known message type.
func (t MsgType) Valid() bool {
	switch t {
	case MsgHeartbeat, MsgHello, MsgFaderMoved, MsgButtonPressed,
		MsgPageChanged, MsgSetVolume, MsgRenderDisplay, MsgSetLED, MsgSetLEDBar:
		return true
	}
	return false
}

// Heartbeat is exchanged at a fixed interval in both directions.
// It carries no payload fields beyond its presence.
type Heartbeat struct{}

// Hello announces the device after a (re)connect. The host responds by
// retransmitting full state, since the device does not retain state across
// a reconnect.
type Hello struct {
	// Protocol is the wire protocol version the device speaks.
	Protocol uint8 `cbor:"1,keyasint"`

	// Channels is the number of fader channels (5).
	Channels uint8 `cbor:"2,keyasint"`

	// Pages is the number of pages the device cycles through.
	Pages uint8 `cbor:"3,keyasint"`
}

// FaderMoved reports a filtered, dead-banded fader movement.
type FaderMoved struct {
	// Channel is the fader index, 0..4.
	Channel uint8 `cbor:"1,keyasint"`

	// Value is the filtered position normalized to 0.0..1.0.
	Value float64 `cbor:"2,keyasint"`
}

// Validate checks field ranges.
func (m *FaderMoved) Validate() error {
	if m.Channel >= ChannelCount {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, m.Channel)
	}
	if m.Value < 0 || m.Value > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidValue, m.Value)
	}
	return nil
}

// ButtonPressed reports a debounced press of the paging button.
type ButtonPressed struct{}

// PageChanged announces the active page on either side.
type PageChanged struct {
	// Page is the new active page index.
	Page uint8 `cbor:"1,keyasint"`
}

// SetVolume commands the device to show a channel at an absolute value.
type SetVolume struct {
	// Channel is the fader index, 0..4.
	Channel uint8 `cbor:"1,keyasint"`

	// Value is the absolute position, 0.0..1.0.
	Value float64 `cbor:"2,keyasint"`
}

// Validate checks field ranges.
func (m *SetVolume) Validate() error {
	if m.Channel >= ChannelCount {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, m.Channel)
	}
	if m.Value < 0 || m.Value > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidValue, m.Value)
	}
	return nil
}

// RenderDisplay writes host-composed text to one channel display.
// The host composes the text; the device only blits it.
type RenderDisplay struct {
	// Channel is the display index, 0..4.
	Channel uint8 `cbor:"1,keyasint"`

	// Line1 is the top display line (target name).
	Line1 string `cbor:"2,keyasint"`

	// Line2 is the bottom display line (volume percentage).
	Line2 string `cbor:"3,keyasint,omitempty"`
}

// Validate checks field ranges.
func (m *RenderDisplay) Validate() error {
	if m.Channel >= ChannelCount {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, m.Channel)
	}
	if len(m.Line1) > MaxDisplayLine || len(m.Line2) > MaxDisplayLine {
		return ErrLineTooLong
	}
	return nil
}

// SetLED sets one channel's RGB feedback LED to an absolute color.
type SetLED struct {
	// Channel is the LED index, 0..4.
	Channel uint8 `cbor:"1,keyasint"`

	R uint8 `cbor:"2,keyasint"`
	G uint8 `cbor:"3,keyasint"`
	B uint8 `cbor:"4,keyasint"`
}

// Validate checks field ranges.
func (m *SetLED) Validate() error {
	if m.Channel >= ChannelCount {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, m.Channel)
	}
	return nil
}

// SetLEDBar sets the fill level of the 8-LED bar below the faders.
type SetLEDBar struct {
	// Level is the fill level, 0.0..1.0.
	Level float64 `cbor:"1,keyasint"`
}

// Validate checks field ranges.
func (m *SetLEDBar) Validate() error {
	if m.Level < 0 || m.Level > 1 {
		return fmt.Errorf("%w: %g", ErrInvalidValue, m.Level)
	}
	return nil
}
