package hid

import (
	"fmt"
	"strings"
)

// Keycode is a USB HID Keyboard/Keypad page usage, or one of the wheel
// pseudo-codes KeyScrollUp and KeyScrollDown.
type Keycode uint8

// Keyboard usages (USB HID Usage Tables, page 0x07).
const (
	KeyNone          Keycode = 0x00
	KeyErrorRollOver Keycode = 0x01
	KeyA             Keycode = 0x04
	KeyB             Keycode = 0x05
	KeyC             Keycode = 0x06
	KeyD             Keycode = 0x07
	KeyE             Keycode = 0x08
	KeyF             Keycode = 0x09
	KeyG             Keycode = 0x0A
	KeyH             Keycode = 0x0B
	KeyI             Keycode = 0x0C
	KeyJ             Keycode = 0x0D
	KeyK             Keycode = 0x0E
	KeyL             Keycode = 0x0F
	KeyM             Keycode = 0x10
	KeyN             Keycode = 0x11
	KeyO             Keycode = 0x12
	KeyP             Keycode = 0x13
	KeyQ             Keycode = 0x14
	KeyR             Keycode = 0x15
	KeyS             Keycode = 0x16
	KeyT             Keycode = 0x17
	KeyU             Keycode = 0x18
	KeyV             Keycode = 0x19
	KeyW             Keycode = 0x1A
	KeyX             Keycode = 0x1B
	KeyY             Keycode = 0x1C
	KeyZ             Keycode = 0x1D
	Key1             Keycode = 0x1E
	Key2             Keycode = 0x1F
	Key3             Keycode = 0x20
	Key4             Keycode = 0x21
	Key5             Keycode = 0x22
	Key6             Keycode = 0x23
	Key7             Keycode = 0x24
	Key8             Keycode = 0x25
	Key9             Keycode = 0x26
	Key0             Keycode = 0x27
	KeyEnter         Keycode = 0x28
	KeyEscape        Keycode = 0x29
	KeyBackspace     Keycode = 0x2A
	KeyTab           Keycode = 0x2B
	KeySpace         Keycode = 0x2C
	KeyMinus         Keycode = 0x2D
	KeyEqual         Keycode = 0x2E
	KeyLeftBrace     Keycode = 0x2F
	KeyRightBrace    Keycode = 0x30
	KeyBackslash     Keycode = 0x31
	KeySemicolon     Keycode = 0x33
	KeyQuote         Keycode = 0x34
	KeyGrave         Keycode = 0x35
	KeyComma         Keycode = 0x36
	KeyDot           Keycode = 0x37
	KeySlash         Keycode = 0x38
	KeyCapsLock      Keycode = 0x39
	KeyF1            Keycode = 0x3A
	KeyF2            Keycode = 0x3B
	KeyF3            Keycode = 0x3C
	KeyF4            Keycode = 0x3D
	KeyF5            Keycode = 0x3E
	KeyF6            Keycode = 0x3F
	KeyF7            Keycode = 0x40
	KeyF8            Keycode = 0x41
	KeyF9            Keycode = 0x42
	KeyF10           Keycode = 0x43
	KeyF11           Keycode = 0x44
	KeyF12           Keycode = 0x45
	KeyPrintScreen   Keycode = 0x46
	KeyScrollLock    Keycode = 0x47
	KeyPause         Keycode = 0x48
	KeyInsert        Keycode = 0x49
	KeyHome          Keycode = 0x4A
	KeyPageUp        Keycode = 0x4B
	KeyDelete        Keycode = 0x4C
	KeyEnd           Keycode = 0x4D
	KeyPageDown      Keycode = 0x4E
	KeyRight         Keycode = 0x4F
	KeyLeft          Keycode = 0x50
	KeyDown          Keycode = 0x51
	KeyUp            Keycode = 0x52
)

// Modifier usages. These occupy the modifier byte of a keyboard report
// rather than a key slot.
const (
	KeyLeftCtrl   Keycode = 0xE0
	KeyLeftShift  Keycode = 0xE1
	KeyLeftAlt    Keycode = 0xE2
	KeyLeftGUI    Keycode = 0xE3
	KeyRightCtrl  Keycode = 0xE4
	KeyRightShift Keycode = 0xE5
	KeyRightAlt   Keycode = 0xE6
	KeyRightGUI   Keycode = 0xE7
)

// Wheel pseudo-codes. They are never sent in a keyboard report; the
// report fuser turns them into a wheel delta on the mouse report.
const (
	KeyScrollUp   Keycode = 0xF5
	KeyScrollDown Keycode = 0xF6
)

// IsModifier reports whether k is one of the eight modifier usages.
func (k Keycode) IsModifier() bool {
	return k >= KeyLeftCtrl && k <= KeyRightGUI
}

// ModifierBit returns the modifier byte bit for k, or zero if k is not a
// modifier.
func (k Keycode) ModifierBit() uint8 {
	if !k.IsModifier() {
		return 0
	}
	return 1 << (k - KeyLeftCtrl)
}

// IsWheel reports whether k is a wheel pseudo-code.
func (k Keycode) IsWheel() bool {
	return k == KeyScrollUp || k == KeyScrollDown
}

// WheelDelta returns +1 for KeyScrollUp, -1 for KeyScrollDown and zero
// for every other code.
func (k Keycode) WheelDelta() int {
	switch k {
	case KeyScrollUp:
		return 1
	case KeyScrollDown:
		return -1
	}
	return 0
}

var keyNames = map[Keycode]string{
	KeyNone:          "No",
	KeyErrorRollOver: "ErrorRollOver",
	KeyA:             "A",
	KeyB:             "B",
	KeyC:             "C",
	KeyD:             "D",
	KeyE:             "E",
	KeyF:             "F",
	KeyG:             "G",
	KeyH:             "H",
	KeyI:             "I",
	KeyJ:             "J",
	KeyK:             "K",
	KeyL:             "L",
	KeyM:             "M",
	KeyN:             "N",
	KeyO:             "O",
	KeyP:             "P",
	KeyQ:             "Q",
	KeyR:             "R",
	KeyS:             "S",
	KeyT:             "T",
	KeyU:             "U",
	KeyV:             "V",
	KeyW:             "W",
	KeyX:             "X",
	KeyY:             "Y",
	KeyZ:             "Z",
	Key1:             "Kb1",
	Key2:             "Kb2",
	Key3:             "Kb3",
	Key4:             "Kb4",
	Key5:             "Kb5",
	Key6:             "Kb6",
	Key7:             "Kb7",
	Key8:             "Kb8",
	Key9:             "Kb9",
	Key0:             "Kb0",
	KeyEnter:         "Enter",
	KeyEscape:        "Escape",
	KeyBackspace:     "BSpace",
	KeyTab:           "Tab",
	KeySpace:         "Space",
	KeyMinus:         "Minus",
	KeyEqual:         "Equal",
	KeyLeftBrace:     "LBracket",
	KeyRightBrace:    "RBracket",
	KeyBackslash:     "Bslash",
	KeySemicolon:     "SColon",
	KeyQuote:         "Quote",
	KeyGrave:         "Grave",
	KeyComma:         "Comma",
	KeyDot:           "Dot",
	KeySlash:         "Slash",
	KeyCapsLock:      "CapsLock",
	KeyF1:            "F1",
	KeyF2:            "F2",
	KeyF3:            "F3",
	KeyF4:            "F4",
	KeyF5:            "F5",
	KeyF6:            "F6",
	KeyF7:            "F7",
	KeyF8:            "F8",
	KeyF9:            "F9",
	KeyF10:           "F10",
	KeyF11:           "F11",
	KeyF12:           "F12",
	KeyPrintScreen:   "PScreen",
	KeyScrollLock:    "ScrollLock",
	KeyPause:         "Pause",
	KeyInsert:        "Insert",
	KeyHome:          "Home",
	KeyPageUp:        "PgUp",
	KeyDelete:        "Delete",
	KeyEnd:           "End",
	KeyPageDown:      "PgDown",
	KeyRight:         "Right",
	KeyLeft:          "Left",
	KeyDown:          "Down",
	KeyUp:            "Up",
	KeyLeftCtrl:      "LCtrl",
	KeyLeftShift:     "LShift",
	KeyLeftAlt:       "LAlt",
	KeyLeftGUI:       "LGui",
	KeyRightCtrl:     "RCtrl",
	KeyRightShift:    "RShift",
	KeyRightAlt:      "RAlt",
	KeyRightGUI:      "RGui",
	KeyScrollUp:      "ScrollUp",
	KeyScrollDown:    "ScrollDown",
}

// Aliases accepted by ParseKeycode in addition to the canonical names.
var keyAliases = map[string]Keycode{
	"none":            KeyNone,
	"esc":             KeyEscape,
	"backspace":       KeyBackspace,
	"lshift":          KeyLeftShift,
	"lcontrol":        KeyLeftCtrl,
	"rcontrol":        KeyRightCtrl,
	"mediascrollup":   KeyScrollUp,
	"mediascrolldown": KeyScrollDown,
	"wheelup":         KeyScrollUp,
	"wheeldown":       KeyScrollDown,
	"semicolon":       KeySemicolon,
	"backslash":       KeyBackslash,
	"pageup":          KeyPageUp,
	"pagedown":        KeyPageDown,
}

var keysByName = func() map[string]Keycode {
	m := make(map[string]Keycode, len(keyNames)+len(keyAliases))
	for k, name := range keyNames {
		m[strings.ToLower(name)] = k
	}
	for name, k := range keyAliases {
		m[name] = k
	}
	return m
}()

// String returns the canonical name of k, or its hex value if unnamed.
func (k Keycode) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("0x%02X", uint8(k))
}

// ParseKeycode returns the keycode named s. Names are matched without
// regard to case; hex values such as "0x2C" are also accepted.
func ParseKeycode(s string) (Keycode, error) {
	if k, ok := keysByName[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	var v uint8
	if _, err := fmt.Sscanf(s, "0x%x", &v); err == nil {
		return Keycode(v), nil
	}
	return KeyNone, fmt.Errorf("unknown keycode %q", s)
}
