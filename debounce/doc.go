// Package debounce turns raw scan samples into confirmed key events.
//
// Each cell keeps a counter of consecutive samples that disagree with its
// confirmed state. A sample that agrees resets the counter, so a bounce
// shorter than the tolerance never produces an event. Events for one
// update are emitted in output-major order, matching the scan.
package debounce
