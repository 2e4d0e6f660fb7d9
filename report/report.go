package report

import (
	"errors"
	"slices"

	"github.com/ardnew/softkb/hid"
	"github.com/ardnew/softkb/layout"
	"github.com/ardnew/softkb/pkg"
)

// maxCodes bounds the canonical set: two resolved sets of layout.MaxActive.
const maxCodes = 2 * layout.MaxActive

// Stats counts fuser outcomes.
type Stats struct {
	Cycles         uint64
	KeyboardWrites uint64
	MouseWrites    uint64
	Blocked        uint64 // ErrWouldBlock results
	Duplicates     uint64 // ErrDuplicate results
}

// Fuser merges resolved keycode sets into HID reports and writes them to
// a sink, suppressing keyboard reports that would repeat the last one
// written.
type Fuser struct {
	sink hid.Sink

	last  []hid.Keycode
	codes []hid.Keycode

	keyboard hid.KeyboardReport
	mouse    hid.MouseReport

	stats Stats
}

// New returns a fuser writing to sink. The host is assumed to start with
// every key released, so an empty first cycle writes nothing.
func New(sink hid.Sink) *Fuser {
	return &Fuser{
		sink:  sink,
		last:  make([]hid.Keycode, 0, maxCodes),
		codes: make([]hid.Keycode, 0, maxCodes),
	}
}

// Fuse runs one cycle. detent is the wheel encoder's step for the cycle
// and sets are the resolved keycodes of each half.
//
// Wheel pseudo-codes are separated from keyboard codes. The keyboard
// codes are reduced to a sorted set; a keyboard report is written only
// when that set differs from the last one the sink accepted. A mouse
// report carrying the net wheel movement, clamped to one detent, is
// written whenever a set holds a wheel code or detent is non-zero, even
// if the movements cancel out.
//
// pkg.ErrWouldBlock and pkg.ErrDuplicate from the sink are absorbed. Any
// other sink error is returned as a *pkg.Fault of kind pkg.FaultSink.
func (f *Fuser) Fuse(detent int8, sets ...[]hid.Keycode) error {
	f.stats.Cycles++

	wheel, moved := int(detent), detent != 0
	f.codes = f.codes[:0]
	for _, set := range sets {
		for _, k := range set {
			switch {
			case k == hid.KeyNone:
			case k.IsWheel():
				wheel += k.WheelDelta()
				moved = true
			default:
				f.codes = append(f.codes, k)
			}
		}
	}
	slices.Sort(f.codes)
	f.codes = slices.Compact(f.codes)

	if !slices.Equal(f.codes, f.last) {
		build(&f.keyboard, f.codes)
		err := f.sink.WriteKeyboard(&f.keyboard)
		if ok, err := f.settle(err); err != nil {
			return err
		} else if ok {
			f.last = append(f.last[:0], f.codes...)
			f.stats.KeyboardWrites++
			pkg.LogDebug(pkg.ComponentReport, "keyboard report", "report", f.keyboard.String())
		}
	}

	if moved {
		f.mouse.Clear()
		f.mouse.Wheel = clamp(wheel)
		err := f.sink.WriteMouse(&f.mouse)
		if ok, err := f.settle(err); err != nil {
			return err
		} else if ok {
			f.stats.MouseWrites++
			pkg.LogDebug(pkg.ComponentReport, "mouse report", "report", f.mouse.String())
		}
	}
	return nil
}

// Last returns the keyboard codes of the last accepted report, sorted.
func (f *Fuser) Last() []hid.Keycode {
	return slices.Clone(f.last)
}

// Stats returns the outcome counters.
func (f *Fuser) Stats() Stats {
	return f.stats
}

// Reset forgets the last written report, so the next non-empty cycle
// writes even if unchanged. Used after the host side reconnects.
func (f *Fuser) Reset() {
	f.last = f.last[:0]
}

// settle classifies a sink result. It reports whether the sink now holds
// the report, or a fault.
func (f *Fuser) settle(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case !pkg.IsBenign(err):
		return false, pkg.NewFault(pkg.FaultSink, f.stats.Cycles, err)
	case errors.Is(err, pkg.ErrDuplicate):
		f.stats.Duplicates++
		return true, nil
	default:
		f.stats.Blocked++
		return false, nil
	}
}

// build fills r from a canonical code set. More than six non-modifier
// codes produce the rollover report.
func build(r *hid.KeyboardReport, codes []hid.Keycode) {
	r.Clear()
	keys := 0
	for _, k := range codes {
		if k.IsModifier() {
			r.Modifiers |= k.ModifierBit()
			continue
		}
		keys++
	}
	if keys > len(r.Keys) {
		r.SetRollOver()
		return
	}
	for _, k := range codes {
		if !k.IsModifier() {
			r.SetKey(k)
		}
	}
}

func clamp(wheel int) int8 {
	switch {
	case wheel > 0:
		return 1
	case wheel < 0:
		return -1
	}
	return 0
}
