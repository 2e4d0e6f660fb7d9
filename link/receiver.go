package link

import (
	"errors"
	"fmt"

	"github.com/ardnew/softkb/matrix"
	"github.com/ardnew/softkb/pkg"
)

type peer struct {
	addr   Addr
	matrix *matrix.Matrix
	age    int
	frames uint64
}

// ReceiverStats counts what Poll has seen.
type ReceiverStats struct {
	Polls     uint64 // Poll calls
	Frames    uint64 // Frames decoded into a peer matrix
	Unknown   uint64 // Frames from unregistered addresses
	Malformed uint64 // Frames with the wrong length
}

// Receiver polls a radio for reports from registered peers and retains
// the last decoded matrix of each.
//
// When no frame arrives, a peer's matrix is left unchanged: the remote
// half's keys stay as last reported. Age reports how long that has been.
type Receiver struct {
	radio Radio
	peers []*peer
	buf   [MaxPayload]byte
	stats ReceiverStats
}

// NewReceiver returns a receiver with no peers.
func NewReceiver(radio Radio) *Receiver {
	return &Receiver{radio: radio}
}

// AddPeer registers addr as a sender of geometry g reports. Its matrix
// starts all released.
func (r *Receiver) AddPeer(addr Addr, g matrix.Geometry) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if err := CheckGeometry(g, g); err != nil {
		return err
	}
	if addr.IsBroadcast() {
		return fmt.Errorf("%w: peer cannot be the broadcast address", pkg.ErrInvalidParameter)
	}
	if r.find(addr) != nil {
		return fmt.Errorf("%w: peer %s already registered", pkg.ErrInvalidParameter, addr)
	}
	r.peers = append(r.peers, &peer{addr: addr, matrix: matrix.New(g)})
	return nil
}

// Peers returns the registered addresses in registration order.
func (r *Receiver) Peers() []Addr {
	addrs := make([]Addr, len(r.peers))
	for n, p := range r.peers {
		addrs[n] = p.addr
	}
	return addrs
}

// Matrix returns the retained matrix of peer addr, or nil if addr is not
// registered. The matrix is owned by the receiver and updated in place.
func (r *Receiver) Matrix(addr Addr) *matrix.Matrix {
	if p := r.find(addr); p != nil {
		return p.matrix
	}
	return nil
}

// Age returns the number of polls since the last frame from addr, or -1
// if addr is not registered.
func (r *Receiver) Age(addr Addr) int {
	if p := r.find(addr); p != nil {
		return p.age
	}
	return -1
}

// Stats returns the poll counters.
func (r *Receiver) Stats() ReceiverStats {
	return r.stats
}

// Poll checks the radio once. On a frame from a registered peer it
// decodes the payload into that peer's matrix and returns the peer's
// address.
//
// Errors: pkg.ErrNoFrame when nothing is pending; pkg.ErrUnknownPeer and
// pkg.ErrFrameLength when a frame was dropped; pkg.ErrRadio when the radio
// itself failed. Only the last one indicates a fault.
func (r *Receiver) Poll() (Addr, error) {
	r.stats.Polls++
	for _, p := range r.peers {
		p.age++
	}

	src, n, err := r.radio.Receive(r.buf[:])
	if err != nil {
		if errors.Is(err, pkg.ErrNoFrame) {
			return Addr{}, pkg.ErrNoFrame
		}
		return Addr{}, fmt.Errorf("%w: receive: %w", pkg.ErrRadio, err)
	}

	p := r.find(src)
	if p == nil {
		r.stats.Unknown++
		pkg.LogDebug(pkg.ComponentLink, "frame from unknown peer dropped", "src", src.String(), "len", n)
		return src, fmt.Errorf("%w: %s", pkg.ErrUnknownPeer, src)
	}

	if err := Decode(r.buf[:n], p.matrix); err != nil {
		r.stats.Malformed++
		pkg.LogWarn(pkg.ComponentLink, "malformed frame dropped", "src", src.String(), "error", err)
		return src, err
	}

	p.age = 0
	p.frames++
	r.stats.Frames++
	return src, nil
}

func (r *Receiver) find(addr Addr) *peer {
	for _, p := range r.peers {
		if p.addr == addr {
			return p
		}
	}
	return nil
}
