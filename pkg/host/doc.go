// Package host implements the desktop-side coordinator.
//
// The coordinator funnels every input (decoded device frames, platform
// audio events, console commands and link timeouts) into one ordered queue
// consumed by a single goroutine. All binding and session-table mutation
// happens on that goroutine, so page flips, fader moves and session churn
// interleave deterministically and races between "fader moved" and "session
// vanished" cannot corrupt state.
//
// The device holds no durable state. Whenever a link comes up, or the device
// reports an unexpected page, the coordinator retransmits the full visual
// state (page, fader positions, display text, LED colors) instead of trying
// to infer what the device still shows.
package host
