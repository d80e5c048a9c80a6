// Package wire defines the message vocabulary exchanged between the CyberMix
// fader device and the host companion process.
//
// Messages are small typed payloads encoded as canonical CBOR. Framing
// (start marker, length, checksum) is handled by package transport; this
// package only concerns itself with message types and payload encoding.
//
// Device-to-host: FaderMoved, ButtonPressed, PageChanged, Hello, Heartbeat.
// Host-to-device: SetVolume, RenderDisplay, SetLED, SetLEDBar, PageChanged,
// Heartbeat.
//
// SetVolume, RenderDisplay, SetLED and SetLEDBar set absolute state, so a
// duplicated or resent message is harmless.
package wire
