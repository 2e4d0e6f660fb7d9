package layout

import (
	"fmt"

	"github.com/ardnew/softkb/debounce"
	"github.com/ardnew/softkb/hid"
	"github.com/ardnew/softkb/matrix"
	"github.com/ardnew/softkb/pkg"
)

// MaxActive bounds the number of simultaneously active keycodes.
const MaxActive = 20

// maxQueued bounds the events held back while a hold-tap is undecided.
// Overflowing it resolves the hold-tap as hold.
const maxQueued = 16

type state struct {
	output, input int
	layer         int // -1 for key states
	code          hid.Keycode
	tap           bool // released tap, dropped on the next tick
}

type waiting struct {
	output, input int
	action        Action
	ticks         int
}

// Engine resolves debounced key events through a layered keymap into the
// set of active keycodes.
//
// Each cycle the caller invokes Tick once, then Event for each event in
// the order produced by the debouncer, then Keycodes.
type Engine struct {
	layers Layers
	geom   matrix.Geometry

	states  []state
	waiting *waiting
	queue   []debounce.Event
}

// New returns an engine over layers, which must match geometry g.
func New(layers Layers, g matrix.Geometry) (*Engine, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := layers.Validate(g); err != nil {
		return nil, err
	}
	return &Engine{
		layers: layers,
		geom:   g,
		states: make([]state, 0, MaxActive),
		queue:  make([]debounce.Event, 0, maxQueued),
	}, nil
}

// Geometry returns the keymap geometry.
func (e *Engine) Geometry() matrix.Geometry {
	return e.geom
}

// Tick advances one cycle: taps from the previous cycle end and an
// undecided hold-tap that reached its timeout resolves as hold.
func (e *Engine) Tick() {
	kept := e.states[:0]
	for _, s := range e.states {
		if !s.tap {
			kept = append(kept, s)
		}
	}
	e.states = kept

	if e.waiting == nil {
		return
	}
	e.waiting.ticks++
	if e.waiting.ticks >= e.waiting.action.Timeout {
		e.resolve(false)
	}
}

// Event feeds one debounced event.
func (e *Engine) Event(ev debounce.Event) {
	if !e.geom.Contains(ev.Output, ev.Input) {
		pkg.LogWarn(pkg.ComponentLayout, "event outside keymap", "event", ev.String())
		return
	}
	if e.waiting == nil {
		e.handle(ev)
		return
	}
	if ev.Kind == debounce.Release && ev.Output == e.waiting.output && ev.Input == e.waiting.input {
		e.resolve(true)
		return
	}
	e.queue = append(e.queue, ev)
	if len(e.queue) >= maxQueued {
		e.resolve(false)
	}
}

// Keycodes appends the active keycodes to dst in press order.
func (e *Engine) Keycodes(dst []hid.Keycode) []hid.Keycode {
	for _, s := range e.states {
		if s.layer < 0 {
			dst = append(dst, s.code)
		}
	}
	return dst
}

// CurrentLayer returns the layer new presses resolve against: the most
// recently activated momentary layer, or 0.
func (e *Engine) CurrentLayer() int {
	for n := len(e.states) - 1; n >= 0; n-- {
		if e.states[n].layer >= 0 {
			return e.states[n].layer
		}
	}
	return 0
}

// Action returns the action a press at (o, i) resolves to on the current
// layer stack.
func (e *Engine) Action(o, i int) Action {
	for n := e.CurrentLayer(); n >= 0; n-- {
		a := e.layers[n][o][i]
		if a.Kind != Trans {
			return a
		}
	}
	return No
}

// Reset drops every active state and pending event.
func (e *Engine) Reset() {
	e.states = e.states[:0]
	e.queue = e.queue[:0]
	e.waiting = nil
}

func (e *Engine) handle(ev debounce.Event) {
	if ev.Kind == debounce.Release {
		e.release(ev.Output, ev.Input)
		return
	}

	a := e.Action(ev.Output, ev.Input)
	if a.Kind == HoldTap {
		e.waiting = &waiting{output: ev.Output, input: ev.Input, action: a}
		return
	}
	e.activate(ev.Output, ev.Input, a, false)
}

func (e *Engine) activate(o, i int, a Action, tap bool) {
	s := state{output: o, input: i, layer: -1, tap: tap}
	switch a.Kind {
	case Key:
		s.code = a.Code
	case Layer:
		s.layer = a.Layer
	default:
		return
	}
	if len(e.states) >= MaxActive {
		pkg.LogDebug(pkg.ComponentLayout, "active set full, press dropped",
			"output", o, "input", i, "action", a.String())
		return
	}
	e.states = append(e.states, s)
}

func (e *Engine) release(o, i int) {
	kept := e.states[:0]
	for _, s := range e.states {
		if s.output == o && s.input == i && !s.tap {
			continue
		}
		kept = append(kept, s)
	}
	e.states = kept
}

// resolve settles the pending hold-tap and replays the events queued
// behind it.
func (e *Engine) resolve(tap bool) {
	w := e.waiting
	e.waiting = nil

	if tap {
		e.activate(w.output, w.input, *w.action.Tap, true)
	} else {
		e.activate(w.output, w.input, *w.action.Hold, false)
	}
	pkg.LogDebug(pkg.ComponentLayout, "hold-tap resolved",
		"output", w.output, "input", w.input, "tap", tap, "ticks", w.ticks)

	if len(e.queue) == 0 {
		return
	}
	// Replayed events may start another hold-tap and be queued again.
	replay := append([]debounce.Event(nil), e.queue...)
	e.queue = e.queue[:0]
	for _, ev := range replay {
		e.Event(ev)
	}
}

// String summarizes the active states, for debugging.
func (e *Engine) String() string {
	return fmt.Sprintf("layer=%d keys=%v waiting=%v queued=%d",
		e.CurrentLayer(), e.Keycodes(nil), e.waiting != nil, len(e.queue))
}
