package sim

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardnew/softkb/matrix/hal"
)

// ErrInputOnly is returned when an input line of a Grid is driven.
var ErrInputOnly = errors.New("sim: input pin cannot be driven")

// Grid simulates a switch matrix wired between output lines and pulled-up
// input lines. An input reads low when any output driven low is connected
// to it through a closed switch.
//
// Grid is safe for concurrent use so a test or simulator script can press
// switches while a scanner runs on another goroutine.
type Grid struct {
	mu sync.Mutex

	outputs int
	inputs  int

	level  []bool // output levels, true is high
	closed []bool // switch states, output-major

	outFault map[int]error
	inFault  map[int]error

	drives  int
	samples int
}

// NewGrid returns a grid with every switch open and every output high.
func NewGrid(outputs, inputs int) *Grid {
	g := &Grid{
		outputs:  outputs,
		inputs:   inputs,
		level:    make([]bool, outputs),
		closed:   make([]bool, outputs*inputs),
		outFault: make(map[int]error),
		inFault:  make(map[int]error),
	}
	for o := range g.level {
		g.level[o] = true
	}
	return g
}

// Outputs returns the output pins in index order.
func (g *Grid) Outputs() []hal.Pin {
	pins := make([]hal.Pin, g.outputs)
	for o := range pins {
		pins[o] = &outputPin{grid: g, index: o}
	}
	return pins
}

// Inputs returns the input pins in index order.
func (g *Grid) Inputs() []hal.Pin {
	pins := make([]hal.Pin, g.inputs)
	for i := range pins {
		pins[i] = &inputPin{grid: g, index: i}
	}
	return pins
}

// Press closes switch (o, i).
func (g *Grid) Press(o, i int) {
	g.SetSwitch(o, i, true)
}

// Release opens switch (o, i).
func (g *Grid) Release(o, i int) {
	g.SetSwitch(o, i, false)
}

// SetSwitch sets switch (o, i) closed or open.
func (g *Grid) SetSwitch(o, i int, closed bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed[g.index(o, i)] = closed
}

// Switch reports whether switch (o, i) is closed.
func (g *Grid) Switch(o, i int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed[g.index(o, i)]
}

// ReleaseAll opens every switch.
func (g *Grid) ReleaseAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for idx := range g.closed {
		g.closed[idx] = false
	}
}

// OutputLevel returns the level currently driven on output o.
func (g *Grid) OutputLevel(o int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.level[o]
}

// FailOutput makes every Set on output o return err. A nil err clears it.
func (g *Grid) FailOutput(o int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.outFault, o)
		return
	}
	g.outFault[o] = err
}

// FailInput makes every Get on input i return err. A nil err clears it.
func (g *Grid) FailInput(i int, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.inFault, i)
		return
	}
	g.inFault[i] = err
}

// Counts returns the number of output Set calls and input Get calls made
// so far.
func (g *Grid) Counts() (drives, samples int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.drives, g.samples
}

func (g *Grid) index(o, i int) int {
	if o < 0 || o >= g.outputs || i < 0 || i >= g.inputs {
		panic(fmt.Sprintf("sim: switch (%d, %d) outside %dx%d grid", o, i, g.outputs, g.inputs))
	}
	return o*g.inputs + i
}

type outputPin struct {
	grid  *Grid
	index int
}

func (p *outputPin) Get() (bool, error) {
	p.grid.mu.Lock()
	defer p.grid.mu.Unlock()
	return p.grid.level[p.index], nil
}

func (p *outputPin) Set(level bool) error {
	p.grid.mu.Lock()
	defer p.grid.mu.Unlock()
	p.grid.drives++
	if err := p.grid.outFault[p.index]; err != nil {
		return err
	}
	p.grid.level[p.index] = level
	return nil
}

type inputPin struct {
	grid  *Grid
	index int
}

func (p *inputPin) Get() (bool, error) {
	g := p.grid
	g.mu.Lock()
	defer g.mu.Unlock()
	g.samples++
	if err := g.inFault[p.index]; err != nil {
		return false, err
	}
	for o := 0; o < g.outputs; o++ {
		if !g.level[o] && g.closed[o*g.inputs+p.index] {
			return false, nil
		}
	}
	return true, nil
}

func (p *inputPin) Set(bool) error {
	return ErrInputOnly
}

// Line is a single simulated signal line, such as one phase of a rotary
// encoder or a ground return driven by firmware.
type Line struct {
	mu    sync.Mutex
	level bool
	fault error
}

// NewLine returns a line at the given level.
func NewLine(level bool) *Line {
	return &Line{level: level}
}

// Get returns the line level.
func (l *Line) Get() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fault != nil {
		return false, l.fault
	}
	return l.level, nil
}

// Set drives the line level.
func (l *Line) Set(level bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fault != nil {
		return l.fault
	}
	l.level = level
	return nil
}

// Fail makes Get and Set return err. A nil err clears it.
func (l *Line) Fail(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fault = err
}

// Quadrature drives two lines as the A and B phases of a rotary encoder.
type Quadrature struct {
	A, B *Line
}

// NewQuadrature returns a pair of lines resting high, the detent position
// of a typical mechanical encoder with pull-ups.
func NewQuadrature() *Quadrature {
	return &Quadrature{A: NewLine(true), B: NewLine(true)}
}

// Step moves the encoder one phase change. A positive dir toggles A so it
// differs from B afterwards, which decodes as scroll up; a negative dir
// toggles A so it matches B, which decodes as scroll down. B is toggled
// first when needed to reach that relationship.
func (q *Quadrature) Step(dir int) {
	a, _ := q.A.Get()
	b, _ := q.B.Get()
	next := !a
	switch {
	case dir > 0 && b == next:
		_ = q.B.Set(!b)
	case dir < 0 && b != next:
		_ = q.B.Set(!b)
	}
	_ = q.A.Set(next)
}
