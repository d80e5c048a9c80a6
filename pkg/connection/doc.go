// Package connection manages the lifecycle of the link to the fader device.
//
// The host keeps exactly one connection to the device (serial port or the
// TCP simulator). Manager tracks its state, reconnects automatically with
// exponential backoff when the link drops, and notifies the coordinator on
// state changes so it can queue outgoing commands while disconnected and
// retransmit full state after a reconnect.
package connection
