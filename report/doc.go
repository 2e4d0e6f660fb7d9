// Package report fuses the resolved keycodes of both keyboard halves and
// the wheel encoder into HID reports.
//
// Keyboard codes are compared as a set: duplicates are dropped and the
// codes sorted before comparison, so the order in which keys resolve on
// either half never causes a write by itself. Only membership changes
// reach the sink.
package report
