// Package wheel decodes a two-phase mechanical rotary encoder into scroll
// steps.
//
// The decoder samples phase A once per cycle. When A changes level, phase
// B is compared with the new A: equal means one step down, different
// means one step up. No debouncing is applied, so contact bounce on a
// noisy encoder can produce extra steps.
package wheel

import (
	"fmt"

	"github.com/ardnew/softkb/matrix/hal"
	"github.com/ardnew/softkb/pkg"
)

// Direction deltas returned by Read.
const (
	Up   int8 = 1
	Down int8 = -1
)

// Encoder is a rotary encoder decoder.
type Encoder struct {
	a, b     hal.Pin
	ground   hal.Pin
	prev     bool
	position int
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithGround names a pin that serves as the encoder's common return and
// is driven low at construction.
func WithGround(pin hal.Pin) Option {
	return func(e *Encoder) {
		e.ground = pin
	}
}

// New returns a decoder for phases a and b. The previous phase A level
// starts high, the resting level of a pulled-up encoder.
func New(a, b hal.Pin, opts ...Option) (*Encoder, error) {
	e := &Encoder{a: a, b: b, prev: true}
	for _, opt := range opts {
		opt(e)
	}
	if e.ground != nil {
		if err := e.ground.Set(false); err != nil {
			return nil, fmt.Errorf("%w: wheel ground: %w", pkg.ErrPinIO, err)
		}
	}
	return e, nil
}

// Read samples the encoder and returns Up, Down, or zero when phase A did
// not change since the last call.
func (e *Encoder) Read() (int8, error) {
	a, err := e.a.Get()
	if err != nil {
		return 0, fmt.Errorf("%w: wheel phase A: %w", pkg.ErrPinIO, err)
	}
	if a == e.prev {
		return 0, nil
	}
	b, err := e.b.Get()
	if err != nil {
		// prev is not updated, so the step is retried next cycle
		return 0, fmt.Errorf("%w: wheel phase B: %w", pkg.ErrPinIO, err)
	}
	e.prev = a

	if b == a {
		e.position--
		pkg.LogDebug(pkg.ComponentWheel, "scroll", "dir", "down", "position", e.position)
		return Down, nil
	}
	e.position++
	pkg.LogDebug(pkg.ComponentWheel, "scroll", "dir", "up", "position", e.position)
	return Up, nil
}

// Position returns the accumulated step count, up minus down.
func (e *Encoder) Position() int {
	return e.position
}
