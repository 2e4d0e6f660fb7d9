package expander

import (
	"errors"
	"fmt"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/mcp23017"

	"github.com/ardnew/softkb/matrix/hal"
	"github.com/ardnew/softkb/pkg"
)

// ErrInputOnly is returned when a matrix input pin is driven.
var ErrInputOnly = errors.New("expander: input pin cannot be driven")

// Expander exposes the lines of an MCP23017 as matrix pins.
//
// Output lines are configured as push-pull outputs resting high. Input
// lines are configured with the internal pull-ups enabled, so a closed
// switch to a driven-low output reads low.
//
// Input reads share one GPIO transaction per round: the first input read
// after an output changes (or after the same input is read again) fetches
// both ports, and the remaining inputs are served from that snapshot. A
// full scan of an N-output grid therefore costs N reads instead of one
// per switch.
type Expander struct {
	dev     *mcp23017.Device
	addr    uint8
	outputs []int
	inputs  []int

	snap     mcp23017.Pins
	consumed mcp23017.Pins
	valid    bool
	reads    int
}

// New configures the expander at addr on bus and returns it. outputs and
// inputs list expander pin numbers (0-7 port A, 8-15 port B) in matrix
// index order. Unlisted pins are left as pulled-up inputs.
func New(bus drivers.I2C, addr uint8, outputs, inputs []int) (*Expander, error) {
	if err := checkPins(outputs, inputs); err != nil {
		return nil, err
	}

	dev, err := mcp23017.NewI2C(bus, addr)
	if err != nil {
		if errors.Is(err, mcp23017.ErrInvalidHWAddress) {
			return nil, fmt.Errorf("%w: expander address 0x%02x", pkg.ErrInvalidParameter, addr)
		}
		return nil, fmt.Errorf("%w: %w", pkg.ErrPinIO, err)
	}

	e := &Expander{
		dev:     dev,
		addr:    addr,
		outputs: outputs,
		inputs:  inputs,
	}

	var outMask mcp23017.Pins
	for _, n := range outputs {
		outMask.High(n)
	}

	// The driver skips writes that match its cached levels, and that cache
	// was seeded from a read of the pins, not the output latch. Force a
	// low then high write so the latch is high before the lines become
	// outputs.
	if err := dev.SetPins(0, outMask); err != nil {
		return nil, e.wrap("latch", err)
	}
	if err := dev.SetPins(outMask, outMask); err != nil {
		return nil, e.wrap("latch", err)
	}

	modes := make([]mcp23017.PinMode, mcp23017.PinCount)
	for n := range modes {
		modes[n] = mcp23017.Input | mcp23017.Pullup
	}
	for _, n := range outputs {
		modes[n] = mcp23017.Output
	}
	if err := dev.SetModes(modes); err != nil {
		return nil, e.wrap("modes", err)
	}

	pkg.LogDebug(pkg.ComponentHAL, "expander configured",
		"address", fmt.Sprintf("0x%02x", addr),
		"outputs", len(outputs),
		"inputs", len(inputs))

	return e, nil
}

// Outputs returns the matrix output pins in index order.
func (e *Expander) Outputs() []hal.Pin {
	pins := make([]hal.Pin, len(e.outputs))
	for o, n := range e.outputs {
		pins[o] = &outputPin{exp: e, pin: e.dev.Pin(n)}
	}
	return pins
}

// Inputs returns the matrix input pins in index order.
func (e *Expander) Inputs() []hal.Pin {
	pins := make([]hal.Pin, len(e.inputs))
	for i, n := range e.inputs {
		pins[i] = &inputPin{exp: e, n: n}
	}
	return pins
}

// Reads returns the number of GPIO read transactions issued for inputs.
func (e *Expander) Reads() int {
	return e.reads
}

func (e *Expander) invalidate() {
	e.valid = false
}

func (e *Expander) sample(n int) (bool, error) {
	if !e.valid || e.consumed.Get(n) {
		pins, err := e.dev.GetPins()
		if err != nil {
			e.valid = false
			return false, e.wrap("read", err)
		}
		e.reads++
		e.snap = pins
		e.consumed = 0
		e.valid = true
	}
	e.consumed.High(n)
	return e.snap.Get(n), nil
}

func (e *Expander) wrap(op string, err error) error {
	return fmt.Errorf("expander 0x%02x %s: %w", e.addr, op, err)
}

func checkPins(outputs, inputs []int) error {
	var used mcp23017.Pins
	for _, set := range [][]int{outputs, inputs} {
		for _, n := range set {
			if n < 0 || n >= mcp23017.PinCount {
				return fmt.Errorf("%w: expander pin %d out of range", pkg.ErrInvalidParameter, n)
			}
			if used.Get(n) {
				return fmt.Errorf("%w: expander pin %d assigned twice", pkg.ErrInvalidParameter, n)
			}
			used.High(n)
		}
	}
	return nil
}

type outputPin struct {
	exp *Expander
	pin mcp23017.Pin
}

func (p *outputPin) Get() (bool, error) {
	return p.pin.Get()
}

func (p *outputPin) Set(level bool) error {
	p.exp.invalidate()
	if err := p.pin.Set(level); err != nil {
		return p.exp.wrap("write", err)
	}
	return nil
}

type inputPin struct {
	exp *Expander
	n   int
}

func (p *inputPin) Get() (bool, error) {
	return p.exp.sample(p.n)
}

func (p *inputPin) Set(bool) error {
	return ErrInputOnly
}
