// Package binding maps (page, channel) slots to audio session identities.
//
// A binding holds only the stable identity string, never the session itself,
// so it survives the session disappearing and re-resolves when the same
// identity reappears. At most one channel per page may bind a given identity;
// conflicting assignments are rejected, never silently overwritten.
//
// Bindings, the last active page and the last fader positions persist to a
// JSON state file and are reloaded at startup. Malformed records are dropped
// individually with a warning; they never abort the whole load.
package binding
