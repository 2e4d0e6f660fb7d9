package matrix

import (
	"fmt"
	"time"

	"github.com/ardnew/softkb/matrix/hal"
	"github.com/ardnew/softkb/pkg"
)

// DefaultSettle is the delay between driving an output low and sampling
// the inputs.
const DefaultSettle = 5 * time.Microsecond

// Scan operations reported in ScanError.
const (
	OpInit    = "init"
	OpDrive   = "drive"
	OpSample  = "sample"
	OpRestore = "restore"
)

// ScanError reports a pin failure during construction or scanning.
// It matches pkg.ErrPinIO with errors.Is.
type ScanError struct {
	Op     string
	Output int
	Input  int // -1 when the failure is on an output
	Err    error
}

func (e *ScanError) Error() string {
	if e.Input < 0 {
		return fmt.Sprintf("scan %s output %d: %v", e.Op, e.Output, e.Err)
	}
	return fmt.Sprintf("scan %s output %d input %d: %v", e.Op, e.Output, e.Input, e.Err)
}

// Unwrap returns both pkg.ErrPinIO and the pin's own error.
func (e *ScanError) Unwrap() []error {
	return []error{pkg.ErrPinIO, e.Err}
}

// Scanner drives a switch grid and produces bit-packed snapshots of it.
//
// Switches connect an output line to an input line and the inputs are
// pulled up, so an output is active when driven low and a closed switch
// reads low on its input.
type Scanner struct {
	inputs  []hal.Pin
	outputs []hal.Pin
	geom    Geometry

	settle time.Duration
	delay  hal.Delayer

	// scratch for ScanMatrix
	buf []byte
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithSettle sets the delay between driving an output and sampling.
func WithSettle(d time.Duration) ScannerOption {
	return func(s *Scanner) {
		s.settle = d
	}
}

// WithDelayer sets the delay implementation used for settling.
func WithDelayer(d hal.Delayer) ScannerOption {
	return func(s *Scanner) {
		s.delay = d
	}
}

// NewScanner returns a scanner over the given input and output pins. The
// order of each slice defines the input and output indices.
//
// Every output is driven to its inactive (high) level before NewScanner
// returns.
func NewScanner(inputs, outputs []hal.Pin, opts ...ScannerOption) (*Scanner, error) {
	g := Geometry{Outputs: len(outputs), Inputs: len(inputs)}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	s := &Scanner{
		inputs:  inputs,
		outputs: outputs,
		geom:    g,
		settle:  DefaultSettle,
		delay:   hal.SleepDelayer,
		buf:     make([]byte, g.ByteLen()),
	}
	for _, opt := range opts {
		opt(s)
	}

	for o, out := range s.outputs {
		if err := out.Set(true); err != nil {
			return nil, &ScanError{Op: OpInit, Output: o, Input: -1, Err: err}
		}
	}

	pkg.LogDebug(pkg.ComponentMatrix, "scanner initialized",
		"geometry", g.String(),
		"settle", s.settle)

	return s, nil
}

// Geometry returns the scanned grid geometry.
func (s *Scanner) Geometry() Geometry {
	return s.geom
}

// ByteLen returns the required length of the buffer passed to Scan.
func (s *Scanner) ByteLen() int {
	return s.geom.ByteLen()
}

// Scan samples every switch and overwrites buf with the packed result.
//
// Outputs are visited in ascending order; for each output every input is
// sampled in ascending order and written to bit o*Inputs+i, least
// significant bit first. This order is the wire contract shared with the
// other half. Pad bits are zero.
//
// On a pin failure the driven output is restored (best effort) and a
// *ScanError is returned; buf contents are then undefined.
func (s *Scanner) Scan(buf []byte) error {
	if len(buf) != s.geom.ByteLen() {
		return fmt.Errorf("%w: have %d bytes, want %d", pkg.ErrBufferSize, len(buf), s.geom.ByteLen())
	}
	for idx := range buf {
		buf[idx] = 0
	}

	for o, out := range s.outputs {
		if err := out.Set(false); err != nil {
			return &ScanError{Op: OpDrive, Output: o, Input: -1, Err: err}
		}
		s.delay.Delay(s.settle)

		for i, in := range s.inputs {
			level, err := in.Get()
			if err != nil {
				_ = out.Set(true)
				return &ScanError{Op: OpSample, Output: o, Input: i, Err: err}
			}
			if !level {
				idx := s.geom.Index(o, i)
				buf[idx/8] |= 1 << (idx % 8)
			}
		}

		if err := out.Set(true); err != nil {
			return &ScanError{Op: OpRestore, Output: o, Input: -1, Err: err}
		}
	}
	return nil
}

// ScanMatrix scans into m, which must have the scanner's geometry.
func (s *Scanner) ScanMatrix(m *Matrix) error {
	if m.Geometry() != s.geom {
		return fmt.Errorf("%w: scanner %s, matrix %s", pkg.ErrGeometryMismatch, s.geom, m.Geometry())
	}
	if err := s.Scan(s.buf); err != nil {
		return err
	}
	return m.Unpack(s.buf)
}
