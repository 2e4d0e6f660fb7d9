package debounce

import (
	"fmt"

	"github.com/ardnew/softkb/matrix"
	"github.com/ardnew/softkb/pkg"
)

// Kind distinguishes press and release events.
type Kind uint8

// Event kinds.
const (
	Press Kind = iota
	Release
)

// String returns "Press" or "Release".
func (k Kind) String() string {
	if k == Press {
		return "Press"
	}
	return "Release"
}

// Event is a confirmed state change of one switch.
type Event struct {
	Kind   Kind
	Output int
	Input  int
}

// String returns the event as "Press(o,i)" or "Release(o,i)".
func (e Event) String() string {
	return fmt.Sprintf("%s(%d,%d)", e.Kind, e.Output, e.Input)
}

// Debouncer filters raw scan matrices into confirmed press and release
// events. A cell's confirmed state changes only after its raw value has
// disagreed with it for Tolerance consecutive updates.
type Debouncer struct {
	tolerance int
	counts    []int
	confirmed *matrix.Matrix
}

// New returns a debouncer for geometry g with every cell released.
// A tolerance below one is treated as one, which confirms every change on
// the first update.
func New(g matrix.Geometry, tolerance int) *Debouncer {
	if tolerance < 1 {
		tolerance = 1
	}
	return &Debouncer{
		tolerance: tolerance,
		counts:    make([]int, g.Cells()),
		confirmed: matrix.New(g),
	}
}

// Geometry returns the debounced grid geometry.
func (d *Debouncer) Geometry() matrix.Geometry {
	return d.confirmed.Geometry()
}

// Tolerance returns the number of consecutive disagreeing samples needed
// to confirm a change.
func (d *Debouncer) Tolerance() int {
	return d.tolerance
}

// Update feeds one raw sample and appends the resulting events to dst in
// output-major, ascending order.
func (d *Debouncer) Update(raw *matrix.Matrix, dst []Event) ([]Event, error) {
	g := d.confirmed.Geometry()
	if raw.Geometry() != g {
		return dst, fmt.Errorf("%w: debouncer %s, sample %s", pkg.ErrGeometryMismatch, g, raw.Geometry())
	}

	for o := 0; o < g.Outputs; o++ {
		for i := 0; i < g.Inputs; i++ {
			idx := g.Index(o, i)
			state := raw.Get(o, i)
			if state == d.confirmed.Get(o, i) {
				d.counts[idx] = 0
				continue
			}
			d.counts[idx]++
			if d.counts[idx] < d.tolerance {
				continue
			}
			d.counts[idx] = 0
			d.confirmed.Set(o, i, state)
			kind := Release
			if state {
				kind = Press
			}
			dst = append(dst, Event{Kind: kind, Output: o, Input: i})
		}
	}
	return dst, nil
}

// ReleaseAll appends a Release event for every confirmed-pressed cell and
// resets all state.
func (d *Debouncer) ReleaseAll(dst []Event) []Event {
	g := d.confirmed.Geometry()
	for o := 0; o < g.Outputs; o++ {
		for i := 0; i < g.Inputs; i++ {
			if d.confirmed.Get(o, i) {
				dst = append(dst, Event{Kind: Release, Output: o, Input: i})
			}
		}
	}
	d.Reset()
	return dst
}

// Confirmed reports the confirmed state of cell (o, i).
func (d *Debouncer) Confirmed(o, i int) bool {
	return d.confirmed.Get(o, i)
}

// Pressed returns the number of confirmed-pressed cells.
func (d *Debouncer) Pressed() int {
	return d.confirmed.Pressed()
}

// Reset releases every cell and clears pending counters without emitting
// events.
func (d *Debouncer) Reset() {
	d.confirmed.Clear()
	for idx := range d.counts {
		d.counts[idx] = 0
	}
}
