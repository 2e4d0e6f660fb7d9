package hid

import (
	"context"
	"fmt"

	"github.com/ardnew/softkb/pkg"
)

// Sink accepts HID reports for delivery to the host.
//
// A sink may return pkg.ErrWouldBlock when it cannot take a report yet,
// or pkg.ErrDuplicate when it already holds an identical one. Both are
// benign; callers retry on a later cycle. Any other error is a fault.
type Sink interface {
	WriteKeyboard(r *KeyboardReport) error
	WriteMouse(r *MouseReport) error
}

// EndpointWriter writes data to an interrupt IN endpoint. A USB device
// stack's endpoint write satisfies it.
type EndpointWriter interface {
	Write(ctx context.Context, address uint8, data []byte) (int, error)
}

// MaxReportSize is the largest report the handoff marshals.
const MaxReportSize = KeyboardReportSize

// Handoff passes reports from the firmware loop to the context that
// services the USB endpoints. Each report kind has a one-slot mailbox:
// the producer never blocks and the consumer only ever sees the most
// recent report that fit.
//
// WriteKeyboard and WriteMouse must be called from a single producer;
// Poll and Serve from a single consumer.
type Handoff struct {
	keyboard chan KeyboardReport
	mouse    chan MouseReport

	keyboardEP uint8
	mouseEP    uint8

	// producer side
	lastKeyboard KeyboardReport
	lastMouse    MouseReport

	// consumer side
	buf [MaxReportSize]byte
}

// HandoffOption configures a Handoff.
type HandoffOption func(*Handoff)

// WithEndpoints sets the keyboard and mouse interrupt IN endpoint
// addresses.
func WithEndpoints(keyboard, mouse uint8) HandoffOption {
	return func(h *Handoff) {
		h.keyboardEP = keyboard
		h.mouseEP = mouse
	}
}

// NewHandoff returns an empty handoff using KeyboardEndpoint and
// MouseEndpoint unless overridden.
func NewHandoff(opts ...HandoffOption) *Handoff {
	h := &Handoff{
		keyboard:   make(chan KeyboardReport, 1),
		mouse:      make(chan MouseReport, 1),
		keyboardEP: KeyboardEndpoint,
		mouseEP:    MouseEndpoint,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WriteKeyboard queues r. It returns pkg.ErrDuplicate if the pending
// report is identical to r and pkg.ErrWouldBlock if a different report is
// still pending.
func (h *Handoff) WriteKeyboard(r *KeyboardReport) error {
	select {
	case h.keyboard <- *r:
		h.lastKeyboard = *r
		return nil
	default:
		if h.lastKeyboard == *r {
			return pkg.ErrDuplicate
		}
		return pkg.ErrWouldBlock
	}
}

// WriteMouse queues r with the same semantics as WriteKeyboard.
func (h *Handoff) WriteMouse(r *MouseReport) error {
	select {
	case h.mouse <- *r:
		h.lastMouse = *r
		return nil
	default:
		if h.lastMouse == *r {
			return pkg.ErrDuplicate
		}
		return pkg.ErrWouldBlock
	}
}

// Pending returns whether a keyboard and a mouse report are queued.
func (h *Handoff) Pending() (keyboard, mouse bool) {
	return len(h.keyboard) > 0, len(h.mouse) > 0
}

// Poll writes whatever reports are pending to ep without waiting and
// returns how many were written. It is meant to be called from an
// interrupt-style service routine.
func (h *Handoff) Poll(ctx context.Context, ep EndpointWriter) (int, error) {
	written := 0
	select {
	case r := <-h.keyboard:
		if err := h.sendKeyboard(ctx, ep, &r); err != nil {
			return written, err
		}
		written++
	default:
	}
	select {
	case r := <-h.mouse:
		if err := h.sendMouse(ctx, ep, &r); err != nil {
			return written, err
		}
		written++
	default:
	}
	return written, nil
}

// Serve writes reports to ep as they are queued until ctx is done.
// Endpoint errors are logged and the report is dropped; the next report
// is still delivered.
func (h *Handoff) Serve(ctx context.Context, ep EndpointWriter) error {
	for {
		var err error
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r := <-h.keyboard:
			err = h.sendKeyboard(ctx, ep, &r)
		case r := <-h.mouse:
			err = h.sendMouse(ctx, ep, &r)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			pkg.LogWarn(pkg.ComponentHID, "endpoint write failed", "error", err)
		}
	}
}

func (h *Handoff) sendKeyboard(ctx context.Context, ep EndpointWriter, r *KeyboardReport) error {
	n := r.MarshalTo(h.buf[:])
	return h.send(ctx, ep, h.keyboardEP, h.buf[:n])
}

func (h *Handoff) sendMouse(ctx context.Context, ep EndpointWriter, r *MouseReport) error {
	n := r.MarshalTo(h.buf[:])
	return h.send(ctx, ep, h.mouseEP, h.buf[:n])
}

func (h *Handoff) send(ctx context.Context, ep EndpointWriter, address uint8, data []byte) error {
	n, err := ep.Write(ctx, address, data)
	if err != nil {
		return fmt.Errorf("%w: endpoint 0x%02x: %w", pkg.ErrSink, address, err)
	}
	if n != len(data) {
		return fmt.Errorf("%w: endpoint 0x%02x: short write %d of %d", pkg.ErrSink, address, n, len(data))
	}
	pkg.LogDebug(pkg.ComponentHID, "report sent", "endpoint", address, "len", n)
	return nil
}
