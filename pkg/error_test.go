package pkg

import (
	"errors"
	"fmt"
	"testing"
)

func TestFaultKind_String(t *testing.T) {
	tests := []struct {
		kind FaultKind
		want string
	}{
		{FaultNone, "none"},
		{FaultPinIO, "pin-io"},
		{FaultSink, "sink"},
		{FaultRadio, "radio"},
		{FaultGeometry, "geometry"},
		{FaultKind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("FaultKind.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFaultKind_Error(t *testing.T) {
	tests := []struct {
		kind    FaultKind
		wantErr error
	}{
		{FaultNone, nil},
		{FaultPinIO, ErrPinIO},
		{FaultRadio, ErrRadio},
		{FaultGeometry, ErrGeometryMismatch},
		{FaultSink, ErrSink},
		{FaultKind(99), ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			err := tt.kind.Error()
			if tt.wantErr == nil && err != nil {
				t.Errorf("FaultKind.Error() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("FaultKind.Error() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFault_Unwrap(t *testing.T) {
	cause := fmt.Errorf("output 2: %w", ErrPinIO)
	var err error = NewFault(FaultPinIO, 42, cause)

	if !errors.Is(err, ErrPinIO) {
		t.Errorf("errors.Is(fault, ErrPinIO) = false")
	}

	var fault *Fault
	if !errors.As(err, &fault) {
		t.Fatal("errors.As failed to extract *Fault")
	}
	if fault.Kind != FaultPinIO || fault.Cycle != 42 {
		t.Errorf("fault = %+v", fault)
	}

	want := "pin-io fault at cycle 42: output 2: pin I/O failure"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := NewFault(FaultRadio, 3, nil)
	if got := bare.Error(); got != "radio fault at cycle 3" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsBenign(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"would block", ErrWouldBlock, true},
		{"wrapped duplicate", fmt.Errorf("keyboard: %w", ErrDuplicate), true},
		{"pin", ErrPinIO, false},
		{"other", errors.New("endpoint stalled"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsBenign(tt.err); got != tt.want {
				t.Errorf("IsBenign(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
