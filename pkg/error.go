package pkg

import (
	"errors"
	"fmt"
)

// Firmware errors.
var (
	// ErrPinIO indicates a GPIO read or write failed.
	ErrPinIO = errors.New("pin I/O failure")

	// ErrBufferSize indicates a packed buffer does not match the matrix geometry.
	ErrBufferSize = errors.New("buffer size does not match geometry")

	// ErrInvalidGeometry indicates a matrix geometry with a zero or negative dimension.
	ErrInvalidGeometry = errors.New("invalid matrix geometry")

	// ErrGeometryMismatch indicates two components disagree on matrix geometry.
	ErrGeometryMismatch = errors.New("matrix geometry mismatch")

	// ErrFrameLength indicates a received wire frame has the wrong length.
	ErrFrameLength = errors.New("wire frame length mismatch")

	// ErrUnknownPeer indicates a wire frame arrived from an unregistered address.
	ErrUnknownPeer = errors.New("unknown peer address")

	// ErrNoFrame indicates no datagram is pending on the radio.
	ErrNoFrame = errors.New("no frame available")

	// ErrRadio indicates the wireless link failed to send or receive.
	ErrRadio = errors.New("radio failure")

	// ErrWouldBlock indicates the HID sink cannot accept a report this cycle.
	ErrWouldBlock = errors.New("operation would block")

	// ErrDuplicate indicates the HID sink already holds an identical report.
	ErrDuplicate = errors.New("duplicate report")

	// ErrSink indicates the HID sink rejected a report for a non-benign reason.
	ErrSink = errors.New("HID sink failure")

	// ErrNotConfigured indicates the component has not been configured.
	ErrNotConfigured = errors.New("not configured")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrClosed indicates the resource has been closed.
	ErrClosed = errors.New("closed")
)

// FaultKind classifies a non-benign failure surfaced by a pipeline cycle.
type FaultKind int

// Fault kinds.
const (
	FaultNone     FaultKind = iota // No fault
	FaultPinIO                     // Matrix or encoder pin failure
	FaultSink                      // HID sink rejected a report
	FaultRadio                     // Wireless link failure
	FaultGeometry                  // Sender and receiver disagree on geometry
)

// String returns a string representation of the fault kind.
func (k FaultKind) String() string {
	switch k {
	case FaultNone:
		return "none"
	case FaultPinIO:
		return "pin-io"
	case FaultSink:
		return "sink"
	case FaultRadio:
		return "radio"
	case FaultGeometry:
		return "geometry"
	default:
		return "unknown"
	}
}

// Error returns the sentinel error corresponding to the fault kind.
func (k FaultKind) Error() error {
	switch k {
	case FaultNone:
		return nil
	case FaultPinIO:
		return ErrPinIO
	case FaultSink:
		return ErrSink
	case FaultRadio:
		return ErrRadio
	case FaultGeometry:
		return ErrGeometryMismatch
	default:
		return ErrInvalidParameter
	}
}

// Fault is a classified failure reported by a pipeline cycle instead of
// halting the firmware. A supervising policy decides whether to retry,
// degrade, or reset.
type Fault struct {
	Kind  FaultKind
	Cycle uint64
	Err   error
}

// NewFault returns a fault of the given kind wrapping err.
func NewFault(kind FaultKind, cycle uint64, err error) *Fault {
	return &Fault{Kind: kind, Cycle: cycle, Err: err}
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s fault at cycle %d", f.Kind, f.Cycle)
	}
	return fmt.Sprintf("%s fault at cycle %d: %v", f.Kind, f.Cycle, f.Err)
}

// Unwrap returns the underlying error.
func (f *Fault) Unwrap() error {
	return f.Err
}

// IsBenign reports whether err is a sink result that is retried next cycle
// rather than surfaced.
func IsBenign(err error) bool {
	return errors.Is(err, ErrWouldBlock) || errors.Is(err, ErrDuplicate)
}
