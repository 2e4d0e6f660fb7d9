// Package mem provides an in-memory datagram medium for running both
// halves of the keyboard in one process.
package mem

import (
	"fmt"
	"sync"

	"github.com/ardnew/softkb/link"
	"github.com/ardnew/softkb/pkg"
)

// DefaultQueueLen is the number of datagrams a radio buffers before new
// arrivals are dropped.
const DefaultQueueLen = 16

type datagram struct {
	src     link.Addr
	payload []byte
}

// DropFunc decides whether a datagram from src to dst is lost in flight.
type DropFunc func(src, dst link.Addr, payload []byte) bool

// Air connects radios by address. Delivery is immediate unless the drop
// function discards the datagram or the receiver's queue is full.
type Air struct {
	mu       sync.Mutex
	radios   map[link.Addr]*Radio
	drop     DropFunc
	queueLen int
	dropped  uint64
}

// Option configures an Air.
type Option func(*Air)

// WithDrop installs a loss model.
func WithDrop(fn DropFunc) Option {
	return func(a *Air) {
		a.drop = fn
	}
}

// WithQueueLen sets the per-radio receive queue length.
func WithQueueLen(n int) Option {
	return func(a *Air) {
		if n > 0 {
			a.queueLen = n
		}
	}
}

// NewAir returns an empty medium.
func NewAir(opts ...Option) *Air {
	a := &Air{
		radios:   make(map[link.Addr]*Radio),
		queueLen: DefaultQueueLen,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Join attaches a radio with address addr.
func (a *Air) Join(addr link.Addr) (*Radio, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if addr.IsBroadcast() {
		return nil, fmt.Errorf("%w: cannot join as broadcast", pkg.ErrInvalidParameter)
	}
	if _, ok := a.radios[addr]; ok {
		return nil, fmt.Errorf("%w: address %s in use", pkg.ErrInvalidParameter, addr)
	}
	r := &Radio{air: a, addr: addr}
	a.radios[addr] = r
	return r, nil
}

// Dropped returns the number of datagrams lost so far.
func (a *Air) Dropped() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}

func (a *Air) deliver(src, dst link.Addr, payload []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var targets []*Radio
	if dst.IsBroadcast() {
		for addr, r := range a.radios {
			if addr != src {
				targets = append(targets, r)
			}
		}
	} else if r, ok := a.radios[dst]; ok {
		targets = append(targets, r)
	}

	for _, r := range targets {
		if a.drop != nil && a.drop(src, r.addr, payload) {
			a.dropped++
			continue
		}
		if !r.enqueue(datagram{src: src, payload: append([]byte(nil), payload...)}, a.queueLen) {
			a.dropped++
		}
	}
}

// Radio is one endpoint on an Air. It implements link.Radio.
type Radio struct {
	air    *Air
	addr   link.Addr
	mu     sync.Mutex
	queue  []datagram
	closed bool
}

// Addr returns the radio's address.
func (r *Radio) Addr() link.Addr {
	return r.addr
}

// Send implements link.Radio. Sending to an absent address succeeds, as
// it would on air.
func (r *Radio) Send(dst link.Addr, payload []byte) error {
	if r.isClosed() {
		return pkg.ErrClosed
	}
	if len(payload) > link.MaxPayload {
		return fmt.Errorf("%w: %d byte payload", pkg.ErrFrameLength, len(payload))
	}
	r.air.deliver(r.addr, dst, payload)
	return nil
}

// Receive implements link.Radio.
func (r *Radio) Receive(buf []byte) (link.Addr, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return link.Addr{}, 0, pkg.ErrClosed
	}
	if len(r.queue) == 0 {
		return link.Addr{}, 0, pkg.ErrNoFrame
	}
	d := r.queue[0]
	r.queue = r.queue[1:]
	if len(d.payload) > len(buf) {
		return d.src, 0, fmt.Errorf("%w: %d byte frame, %d byte buffer", pkg.ErrFrameLength, len(d.payload), len(buf))
	}
	return d.src, copy(buf, d.payload), nil
}

// Close detaches the radio from its Air.
func (r *Radio) Close() error {
	r.air.mu.Lock()
	delete(r.air.radios, r.addr)
	r.air.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.queue = nil
	return nil
}

func (r *Radio) enqueue(d datagram, limit int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || len(r.queue) >= limit {
		return false
	}
	r.queue = append(r.queue, d)
	return true
}

func (r *Radio) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
