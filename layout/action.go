package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ardnew/softkb/hid"
	"github.com/ardnew/softkb/matrix"
	"github.com/ardnew/softkb/pkg"
)

// ActionKind selects the behavior of a keymap entry.
type ActionKind uint8

// Action kinds.
const (
	NoOp    ActionKind = iota // Does nothing
	Trans                     // Falls through to the next lower layer
	Key                       // Emits a keycode while held
	Layer                     // Activates a layer while held
	HoldTap                   // Tap or hold action depending on press duration
)

// String returns a string representation of the action kind.
func (k ActionKind) String() string {
	switch k {
	case NoOp:
		return "noop"
	case Trans:
		return "trans"
	case Key:
		return "key"
	case Layer:
		return "layer"
	case HoldTap:
		return "hold-tap"
	default:
		return "unknown"
	}
}

// Action is one keymap entry.
type Action struct {
	Kind    ActionKind
	Code    hid.Keycode // Key
	Layer   int         // Layer
	Timeout int         // HoldTap: ticks held before Hold is chosen
	Tap     *Action     // HoldTap
	Hold    *Action     // HoldTap
}

// Common actions.
var (
	No          = Action{Kind: NoOp}
	Transparent = Action{Kind: Trans}
)

// K returns an action emitting code.
func K(code hid.Keycode) Action {
	return Action{Kind: Key, Code: code}
}

// MO returns a momentary layer action.
func MO(layer int) Action {
	return Action{Kind: Layer, Layer: layer}
}

// HT returns a hold-tap action resolving to hold after timeout ticks.
func HT(timeout int, tap, hold Action) Action {
	return Action{Kind: HoldTap, Timeout: timeout, Tap: &tap, Hold: &hold}
}

// String renders a in the syntax accepted by ParseAction.
func (a Action) String() string {
	switch a.Kind {
	case NoOp:
		return "No"
	case Trans:
		return "_"
	case Key:
		return a.Code.String()
	case Layer:
		return fmt.Sprintf("MO(%d)", a.Layer)
	case HoldTap:
		return fmt.Sprintf("HT(%d,%s,%s)", a.Timeout, a.Tap, a.Hold)
	default:
		return "?"
	}
}

// ParseAction parses a keymap entry:
//
//	A, LCtrl, ScrollUp   key names (see hid.ParseKeycode)
//	_, Trans             transparent
//	No                   no action
//	MO(n)                momentary layer n
//	HT(ticks,tap,hold)   hold-tap; tap and hold are key or MO actions
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "_" || strings.EqualFold(s, "trans"):
		return Transparent, nil
	case strings.EqualFold(s, "no"):
		return No, nil
	case hasCall(s, "MO"):
		arg := s[3 : len(s)-1]
		n, err := strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || n < 0 {
			return No, fmt.Errorf("%w: layer in %q", pkg.ErrInvalidParameter, s)
		}
		return MO(n), nil
	case hasCall(s, "HT"):
		args := strings.Split(s[3:len(s)-1], ",")
		if len(args) != 3 {
			return No, fmt.Errorf("%w: %q wants HT(ticks,tap,hold)", pkg.ErrInvalidParameter, s)
		}
		timeout, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil || timeout < 1 {
			return No, fmt.Errorf("%w: timeout in %q", pkg.ErrInvalidParameter, s)
		}
		tap, err := parseSimple(args[1])
		if err != nil {
			return No, fmt.Errorf("tap in %q: %w", s, err)
		}
		hold, err := parseSimple(args[2])
		if err != nil {
			return No, fmt.Errorf("hold in %q: %w", s, err)
		}
		return HT(timeout, tap, hold), nil
	}
	code, err := hid.ParseKeycode(s)
	if err != nil {
		return No, fmt.Errorf("%w: %w", pkg.ErrInvalidParameter, err)
	}
	if code == hid.KeyNone {
		return No, nil
	}
	return K(code), nil
}

func parseSimple(s string) (Action, error) {
	a, err := ParseAction(s)
	if err != nil {
		return No, err
	}
	if a.Kind != Key && a.Kind != Layer {
		return No, fmt.Errorf("%w: %q is not a key or layer", pkg.ErrInvalidParameter, s)
	}
	return a, nil
}

func hasCall(s, name string) bool {
	return len(s) > len(name)+1 &&
		strings.EqualFold(s[:len(name)], name) &&
		s[len(name)] == '(' &&
		s[len(s)-1] == ')'
}

// Layers is a keymap indexed [layer][output][input].
type Layers [][][]Action

// Validate checks that every layer has geometry g and that every layer
// reference names an existing layer.
func (l Layers) Validate(g matrix.Geometry) error {
	if len(l) == 0 {
		return fmt.Errorf("%w: keymap has no layers", pkg.ErrInvalidParameter)
	}
	for n, layer := range l {
		if len(layer) != g.Outputs {
			return fmt.Errorf("%w: layer %d has %d outputs, want %d", pkg.ErrGeometryMismatch, n, len(layer), g.Outputs)
		}
		for o, row := range layer {
			if len(row) != g.Inputs {
				return fmt.Errorf("%w: layer %d output %d has %d inputs, want %d", pkg.ErrGeometryMismatch, n, o, len(row), g.Inputs)
			}
			for i, a := range row {
				if err := l.checkRefs(a); err != nil {
					return fmt.Errorf("layer %d (%d,%d): %w", n, o, i, err)
				}
			}
		}
	}
	return nil
}

func (l Layers) checkRefs(a Action) error {
	switch a.Kind {
	case Layer:
		if a.Layer < 0 || a.Layer >= len(l) {
			return fmt.Errorf("%w: layer %d does not exist", pkg.ErrInvalidParameter, a.Layer)
		}
	case HoldTap:
		if a.Tap == nil || a.Hold == nil {
			return fmt.Errorf("%w: incomplete hold-tap", pkg.ErrInvalidParameter)
		}
		if err := l.checkRefs(*a.Tap); err != nil {
			return err
		}
		return l.checkRefs(*a.Hold)
	}
	return nil
}

// ParseLayers parses a keymap given as rows of action strings.
func ParseLayers(src [][][]string) (Layers, error) {
	layers := make(Layers, len(src))
	for n, layer := range src {
		layers[n] = make([][]Action, len(layer))
		for o, row := range layer {
			layers[n][o] = make([]Action, len(row))
			for i, s := range row {
				a, err := ParseAction(s)
				if err != nil {
					return nil, fmt.Errorf("layer %d (%d,%d): %w", n, o, i, err)
				}
				layers[n][o][i] = a
			}
		}
	}
	return layers, nil
}
