// Package layout resolves debounced key events into active keycodes
// through a layered keymap.
//
// Keymaps are indexed [layer][output][input], the same orientation as the
// scan. A press resolves against the most recently activated momentary
// layer and falls through transparent entries to lower layers; the
// resulting action is fixed until the key is released, even if the layer
// changes meanwhile.
//
// Hold-tap entries wait until either the key is released (tap) or it has
// been held for the configured number of ticks (hold). Events arriving
// while a hold-tap is undecided are queued and replayed in order once it
// resolves. A tap is active for the cycle it resolves in.
package layout
