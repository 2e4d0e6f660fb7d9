package hid

import (
	"fmt"
	"strings"
)

// KeyboardReport is an 8-byte boot-protocol keyboard input report.
type KeyboardReport struct {
	Modifiers uint8      // Modifier key state
	Reserved  uint8      // Reserved (always 0)
	Keys      [6]Keycode // Up to 6 simultaneous key codes
}

// KeyboardReportSize is the size of a keyboard report in bytes.
const KeyboardReportSize = 8

// MarshalTo writes the keyboard report to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (r *KeyboardReport) MarshalTo(buf []byte) int {
	if len(buf) < KeyboardReportSize {
		return 0
	}
	buf[0] = r.Modifiers
	buf[1] = r.Reserved
	for i, k := range r.Keys {
		buf[2+i] = byte(k)
	}
	return KeyboardReportSize
}

// UnmarshalFrom reads a keyboard report from buf, as written by
// MarshalTo. Returns the number of bytes read, or 0 if buf is too small.
func (r *KeyboardReport) UnmarshalFrom(buf []byte) int {
	if len(buf) < KeyboardReportSize {
		return 0
	}
	r.Modifiers = buf[0]
	r.Reserved = buf[1]
	for i := range r.Keys {
		r.Keys[i] = Keycode(buf[2+i])
	}
	return KeyboardReportSize
}

// Clear resets the keyboard report to all keys released.
func (r *KeyboardReport) Clear() {
	r.Modifiers = 0
	r.Reserved = 0
	r.Keys = [6]Keycode{}
}

// SetKey adds a key to the report. Modifiers set their bit in the
// modifier byte; other codes take the first free slot.
// Returns false if no slot is available.
func (r *KeyboardReport) SetKey(key Keycode) bool {
	if key.IsModifier() {
		r.Modifiers |= key.ModifierBit()
		return true
	}
	for i := range r.Keys {
		if r.Keys[i] == KeyNone {
			r.Keys[i] = key
			return true
		}
		if r.Keys[i] == key {
			return true // Already set
		}
	}
	return false
}

// ClearKey removes a key from the report.
func (r *KeyboardReport) ClearKey(key Keycode) {
	if key.IsModifier() {
		r.Modifiers &^= key.ModifierBit()
		return
	}
	for i := range r.Keys {
		if r.Keys[i] == key {
			copy(r.Keys[i:], r.Keys[i+1:])
			r.Keys[len(r.Keys)-1] = KeyNone
			return
		}
	}
}

// SetRollOver fills every key slot with KeyErrorRollOver, the boot
// protocol's phantom state for too many simultaneous keys. Modifiers are
// preserved.
func (r *KeyboardReport) SetRollOver() {
	for i := range r.Keys {
		r.Keys[i] = KeyErrorRollOver
	}
}

// IsRollOver reports whether the report is in the phantom state.
func (r *KeyboardReport) IsRollOver() bool {
	return r.Keys[0] == KeyErrorRollOver
}

// String renders the report as "mods=0xMM keys=[A B]".
func (r KeyboardReport) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mods=0x%02X keys=[", r.Modifiers)
	first := true
	for _, k := range r.Keys {
		if k == KeyNone {
			continue
		}
		if !first {
			sb.WriteByte(' ')
		}
		sb.WriteString(k.String())
		first = false
	}
	sb.WriteByte(']')
	return sb.String()
}

// MouseReport is a 5-byte mouse input report with vertical and horizontal
// wheels.
type MouseReport struct {
	Buttons uint8 // Button state
	X       int8  // X movement (-127 to 127)
	Y       int8  // Y movement (-127 to 127)
	Wheel   int8  // Vertical wheel, positive scrolls up
	Pan     int8  // Horizontal wheel (AC Pan)
}

// MouseReportSize is the size of a mouse report in bytes.
const MouseReportSize = 5

// MarshalTo writes the mouse report to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (r *MouseReport) MarshalTo(buf []byte) int {
	if len(buf) < MouseReportSize {
		return 0
	}
	buf[0] = r.Buttons
	buf[1] = byte(r.X)
	buf[2] = byte(r.Y)
	buf[3] = byte(r.Wheel)
	buf[4] = byte(r.Pan)
	return MouseReportSize
}

// UnmarshalFrom reads a mouse report from buf.
func (r *MouseReport) UnmarshalFrom(buf []byte) int {
	if len(buf) < MouseReportSize {
		return 0
	}
	r.Buttons = buf[0]
	r.X = int8(buf[1])
	r.Y = int8(buf[2])
	r.Wheel = int8(buf[3])
	r.Pan = int8(buf[4])
	return MouseReportSize
}

// Clear resets the mouse report.
func (r *MouseReport) Clear() {
	*r = MouseReport{}
}

// String renders the report as "buttons=0xBB x=0 y=0 wheel=1 pan=0".
func (r MouseReport) String() string {
	return fmt.Sprintf("buttons=0x%02X x=%d y=%d wheel=%d pan=%d", r.Buttons, r.X, r.Y, r.Wheel, r.Pan)
}
