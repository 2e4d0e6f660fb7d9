package layout

import (
	"testing"

	"github.com/ardnew/softkb/hid"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		kind    ActionKind
		wantErr bool
	}{
		{"A", "A", Key, false},
		{"lctrl", "LCtrl", Key, false},
		{"ScrollUp", "ScrollUp", Key, false},
		{"_", "_", Trans, false},
		{"Trans", "_", Trans, false},
		{"No", "No", NoOp, false},
		{"MO(1)", "MO(1)", Layer, false},
		{"mo( 2 )", "MO(2)", Layer, false},
		{"HT(200,Escape,LCtrl)", "HT(200,Escape,LCtrl)", HoldTap, false},
		{"HT(10, Space, MO(1))", "HT(10,Space,MO(1))", HoldTap, false},
		{"HT(10,A)", "", NoOp, true},
		{"HT(0,A,B)", "", NoOp, true},
		{"HT(5,_,A)", "", NoOp, true},
		{"MO(-1)", "", NoOp, true},
		{"MO(x)", "", NoOp, true},
		{"Hyper", "", NoOp, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAction(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.String() != tt.want {
				t.Errorf("String() = %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestParseLayers(t *testing.T) {
	layers, err := ParseLayers([][][]string{
		{{"Q", "W"}, {"MO(1)", "_"}},
		{{"Kb1", "Kb2"}, {"_", "HT(3,A,LShift)"}},
	})
	if err != nil {
		t.Fatalf("ParseLayers() error = %v", err)
	}
	if got := layers[0][0][1]; got != K(hid.KeyW) {
		t.Errorf("layers[0][0][1] = %v", got)
	}
	if got := layers[1][1][1].Hold.Code; got != hid.KeyLeftShift {
		t.Errorf("hold = %v", got)
	}

	if _, err := ParseLayers([][][]string{{{"Q", "bogus"}}}); err == nil {
		t.Error("ParseLayers() accepted an unknown key")
	}
}
