// Package device models the embedded side of CyberMix: five faders, five
// displays and an LED strip multiplexed onto one shared bus, a paging
// button, and a framed serial link to the host.
//
// Everything runs in a single cooperative loop. One polling cycle covers the
// multiplexed ADC sweep, the button debounce tick, serial RX/TX and the
// display refresh; the loop never issues two bus operations concurrently, so
// single-owner bus access is structural rather than locked.
//
// The same code drives real hardware (behind the Bus/ADCReader/DisplayDriver
// interfaces) and the TCP-attached simulator used for development and tests.
package device
