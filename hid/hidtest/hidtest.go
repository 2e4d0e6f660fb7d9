// Package hidtest provides recording HID sinks and endpoints for tests and
// the host simulator.
package hidtest

import (
	"context"
	"sync"

	"github.com/ardnew/softkb/hid"
)

// Recorder is a hid.Sink that records every accepted report in order.
// Errors queued with Fail are returned, one per write, before any report
// is accepted again.
type Recorder struct {
	mu       sync.Mutex
	Keyboard []hid.KeyboardReport
	Mouse    []hid.MouseReport
	attempts int
	errs     []error
	onWrite  func(kind string, report any)
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnWrite registers fn to be called after each accepted report, with kind
// "keyboard" or "mouse".
func (r *Recorder) OnWrite(fn func(kind string, report any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onWrite = fn
}

// Fail queues errs to be returned by the next writes of either kind.
func (r *Recorder) Fail(errs ...error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, errs...)
}

// WriteKeyboard implements hid.Sink.
func (r *Recorder) WriteKeyboard(report *hid.KeyboardReport) error {
	r.mu.Lock()
	if err := r.next(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.Keyboard = append(r.Keyboard, *report)
	fn := r.onWrite
	r.mu.Unlock()
	if fn != nil {
		fn("keyboard", *report)
	}
	return nil
}

// WriteMouse implements hid.Sink.
func (r *Recorder) WriteMouse(report *hid.MouseReport) error {
	r.mu.Lock()
	if err := r.next(); err != nil {
		r.mu.Unlock()
		return err
	}
	r.Mouse = append(r.Mouse, *report)
	fn := r.onWrite
	r.mu.Unlock()
	if fn != nil {
		fn("mouse", *report)
	}
	return nil
}

// Attempts returns the number of writes of either kind, including failed
// ones.
func (r *Recorder) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

// Writes returns the number of accepted keyboard and mouse reports.
func (r *Recorder) Writes() (keyboard, mouse int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Keyboard), len(r.Mouse)
}

// LastKeyboard returns the most recent accepted keyboard report.
func (r *Recorder) LastKeyboard() (hid.KeyboardReport, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Keyboard) == 0 {
		return hid.KeyboardReport{}, false
	}
	return r.Keyboard[len(r.Keyboard)-1], true
}

func (r *Recorder) next() error {
	r.attempts++
	if len(r.errs) == 0 {
		return nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return err
}

// Packet is one endpoint write captured by Endpoint.
type Packet struct {
	Address uint8
	Data    []byte
}

// Endpoint is a hid.EndpointWriter that records packets.
type Endpoint struct {
	mu      sync.Mutex
	packets []Packet
	err     error
	notify  chan struct{}
}

// NewEndpoint returns an endpoint that accepts every write.
func NewEndpoint() *Endpoint {
	return &Endpoint{notify: make(chan struct{}, 64)}
}

// SetError makes subsequent writes fail with err. A nil err clears it.
func (e *Endpoint) SetError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

// Write implements hid.EndpointWriter.
func (e *Endpoint) Write(ctx context.Context, address uint8, data []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	if e.err != nil {
		err := e.err
		e.mu.Unlock()
		return 0, err
	}
	e.packets = append(e.packets, Packet{Address: address, Data: append([]byte(nil), data...)})
	e.mu.Unlock()

	select {
	case e.notify <- struct{}{}:
	default:
	}
	return len(data), nil
}

// Packets returns a copy of the recorded packets.
func (e *Endpoint) Packets() []Packet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Packet(nil), e.packets...)
}

// Written returns a channel that receives a value after each write.
func (e *Endpoint) Written() <-chan struct{} {
	return e.notify
}
