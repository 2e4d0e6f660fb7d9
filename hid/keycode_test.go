package hid

import (
	"testing"
)

func TestParseKeycode(t *testing.T) {
	tests := []struct {
		in      string
		want    Keycode
		wantErr bool
	}{
		{"A", KeyA, false},
		{"a", KeyA, false},
		{"LCtrl", KeyLeftCtrl, false},
		{"Escape", KeyEscape, false},
		{"esc", KeyEscape, false},
		{"ScrollUp", KeyScrollUp, false},
		{"MediaScrollDown", KeyScrollDown, false},
		{"Kb1", Key1, false},
		{"No", KeyNone, false},
		{"0x2C", KeySpace, false},
		{"Hyper", KeyNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKeycode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKeycode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKeycode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestKeycode_StringRoundTrip(t *testing.T) {
	for k := range keyNames {
		got, err := ParseKeycode(k.String())
		if err != nil {
			t.Errorf("ParseKeycode(%q) error = %v", k.String(), err)
			continue
		}
		if got != k {
			t.Errorf("ParseKeycode(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if got := Keycode(0xA5).String(); got != "0xA5" {
		t.Errorf("String() = %q, want 0xA5", got)
	}
}

func TestKeycode_Classes(t *testing.T) {
	tests := []struct {
		k        Keycode
		modifier bool
		bit      uint8
		wheel    int
	}{
		{KeyA, false, 0, 0},
		{KeyLeftCtrl, true, 0x01, 0},
		{KeyLeftAlt, true, 0x04, 0},
		{KeyRightGUI, true, 0x80, 0},
		{KeyScrollUp, false, 0, 1},
		{KeyScrollDown, false, 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.k.String(), func(t *testing.T) {
			if got := tt.k.IsModifier(); got != tt.modifier {
				t.Errorf("IsModifier() = %v, want %v", got, tt.modifier)
			}
			if got := tt.k.ModifierBit(); got != tt.bit {
				t.Errorf("ModifierBit() = %#x, want %#x", got, tt.bit)
			}
			if got := tt.k.WheelDelta(); got != tt.wheel {
				t.Errorf("WheelDelta() = %d, want %d", got, tt.wheel)
			}
			if got := tt.k.IsWheel(); got != (tt.wheel != 0) {
				t.Errorf("IsWheel() = %v", got)
			}
		})
	}
}
