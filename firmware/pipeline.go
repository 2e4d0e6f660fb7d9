package firmware

import (
	"errors"
	"fmt"

	"github.com/ardnew/softkb/debounce"
	"github.com/ardnew/softkb/hid"
	"github.com/ardnew/softkb/layout"
	"github.com/ardnew/softkb/link"
	"github.com/ardnew/softkb/matrix"
	"github.com/ardnew/softkb/pkg"
	"github.com/ardnew/softkb/report"
	"github.com/ardnew/softkb/wheel"
)

// Pipeline is one half's per-cycle work.
type Pipeline interface {
	// Cycle runs one cycle. Faults are returned as *pkg.Fault.
	Cycle() error

	// Degrade drops the wireless part of the pipeline and keeps the local
	// part running. It reports false if there is no local part.
	Degrade() bool

	// Cycles returns the number of cycles started.
	Cycles() uint64
}

// Secondary scans the local matrix and transmits it to the primary half.
type Secondary struct {
	scanner *matrix.Scanner
	sender  *link.Sender
	buf     []byte
	cycle   uint64
}

// NewSecondary returns a secondary pipeline. The scanner and sender must
// share a geometry.
func NewSecondary(scanner *matrix.Scanner, sender *link.Sender) (*Secondary, error) {
	if scanner.Geometry() != sender.Geometry() {
		return nil, fmt.Errorf("%w: scanner %s, sender %s", pkg.ErrGeometryMismatch, scanner.Geometry(), sender.Geometry())
	}
	return &Secondary{
		scanner: scanner,
		sender:  sender,
		buf:     make([]byte, scanner.ByteLen()),
	}, nil
}

// Cycle scans and sends one report. A radio failure loses the frame and
// is logged; the primary half keeps the last report it received.
func (s *Secondary) Cycle() error {
	s.cycle++
	if err := s.scanner.Scan(s.buf); err != nil {
		return pkg.NewFault(pkg.FaultPinIO, s.cycle, err)
	}
	if err := s.sender.Send(s.buf); err != nil {
		pkg.LogWarn(pkg.ComponentFirmware, "report not sent",
			"cycle", s.cycle,
			"peer", s.sender.Peer().String(),
			"error", err)
	}
	return nil
}

// Degrade returns false; a secondary half has no local output to fall
// back to.
func (s *Secondary) Degrade() bool { return false }

// Cycles returns the number of cycles started.
func (s *Secondary) Cycles() uint64 {
	return s.cycle
}

// Sender returns the pipeline's sender.
func (s *Secondary) Sender() *link.Sender {
	return s.sender
}

// half is a matrix resolved through a debouncer and a layout.
type half struct {
	name      string
	debouncer *debounce.Debouncer
	layout    *layout.Engine
	codes     []hid.Keycode
}

func newHalf(name string, keymap layout.Layers, g matrix.Geometry, tolerance int) (*half, error) {
	eng, err := layout.New(keymap, g)
	if err != nil {
		return nil, err
	}
	return &half{
		name:      name,
		debouncer: debounce.New(g, tolerance),
		layout:    eng,
		codes:     make([]hid.Keycode, 0, layout.MaxActive),
	}, nil
}

func (h *half) apply(events []debounce.Event) {
	for _, ev := range events {
		h.layout.Event(ev)
	}
}

// remote is a half whose matrix arrives over the radio.
type remote struct {
	*half
	addr     link.Addr
	released bool // keys released after the peer went silent
}

// Primary resolves every half's keys and writes HID reports.
type Primary struct {
	local *half
	raw   *matrix.Matrix
	scan  *matrix.Scanner

	receiver *link.Receiver
	remotes  []*remote
	stale    int
	degraded bool

	wheel *wheel.Encoder
	fuser *report.Fuser

	events []debounce.Event
	sets   [][]hid.Keycode
	cycle  uint64
}

// Cycle runs one primary cycle:
//
//  1. tick every layout
//  2. scan, debounce and resolve the local matrix, if any
//  3. poll the receiver once and feed every peer's retained matrix
//     through its debouncer and layout
//  4. read the wheel
//  5. fuse the resolved sets and write reports
//
// Pin and sink failures abort the cycle and are returned as a *pkg.Fault.
// A radio failure is returned as a pkg.FaultRadio fault after the rest of
// the cycle has run.
func (p *Primary) Cycle() error {
	p.cycle++

	if p.local != nil {
		p.local.layout.Tick()
	}
	for _, r := range p.remotes {
		r.layout.Tick()
	}

	if p.local != nil {
		if err := p.scan.ScanMatrix(p.raw); err != nil {
			return pkg.NewFault(pkg.FaultPinIO, p.cycle, err)
		}
		if err := p.feed(p.local, p.raw); err != nil {
			return err
		}
	}

	radioErr := p.receive()

	var detent int8
	if p.wheel != nil {
		d, err := p.wheel.Read()
		if err != nil {
			return pkg.NewFault(pkg.FaultPinIO, p.cycle, err)
		}
		detent = d
	}

	p.sets = p.sets[:0]
	if p.local != nil {
		p.local.codes = p.local.layout.Keycodes(p.local.codes[:0])
		p.sets = append(p.sets, p.local.codes)
	}
	for _, r := range p.remotes {
		r.codes = r.layout.Keycodes(r.codes[:0])
		p.sets = append(p.sets, r.codes)
	}

	if err := p.fuser.Fuse(detent, p.sets...); err != nil {
		var fault *pkg.Fault
		if errors.As(err, &fault) {
			return pkg.NewFault(fault.Kind, p.cycle, fault.Err)
		}
		return pkg.NewFault(pkg.FaultSink, p.cycle, err)
	}

	if radioErr != nil {
		return pkg.NewFault(pkg.FaultRadio, p.cycle, radioErr)
	}
	return nil
}

func (p *Primary) feed(h *half, raw *matrix.Matrix) error {
	events, err := h.debouncer.Update(raw, p.events[:0])
	if err != nil {
		return pkg.NewFault(pkg.FaultGeometry, p.cycle, err)
	}
	h.apply(events)
	p.events = events[:0]
	return nil
}

// receive polls the radio once and runs every remote half. It returns a
// radio failure, if any.
func (p *Primary) receive() error {
	if p.degraded || p.receiver == nil {
		return nil
	}

	var radioErr error
	src, err := p.receiver.Poll()
	switch {
	case err == nil:
		pkg.LogDebug(pkg.ComponentFirmware, "frame received", "cycle", p.cycle, "src", src.String())
	case errors.Is(err, pkg.ErrNoFrame),
		errors.Is(err, pkg.ErrUnknownPeer),
		errors.Is(err, pkg.ErrFrameLength):
		// No change for any peer this cycle.
	default:
		radioErr = err
	}

	for _, r := range p.remotes {
		if p.stale > 0 && p.receiver.Age(r.addr) >= p.stale {
			if !r.released {
				r.released = true
				r.apply(r.debouncer.ReleaseAll(p.events[:0]))
				pkg.LogWarn(pkg.ComponentFirmware, "peer silent, keys released",
					"peer", r.name,
					"cycles", p.receiver.Age(r.addr))
			}
			continue
		}
		if r.released {
			r.released = false
			pkg.LogInfo(pkg.ComponentFirmware, "peer resumed", "peer", r.name)
		}
		if err := p.feed(r.half, p.receiver.Matrix(r.addr)); err != nil {
			return err
		}
	}
	return radioErr
}

// Degrade releases every remote key and stops polling the radio. A
// primary without a local matrix would have no keys left, so it refuses
// and returns false.
func (p *Primary) Degrade() bool {
	if p.local == nil {
		return false
	}
	if p.degraded {
		return true
	}
	p.degraded = true
	for _, r := range p.remotes {
		r.apply(r.debouncer.ReleaseAll(p.events[:0]))
	}
	pkg.LogWarn(pkg.ComponentFirmware, "running local-only", "cycle", p.cycle, "peers", len(p.remotes))
	return true
}

// Degraded reports whether Degrade has been called.
func (p *Primary) Degraded() bool {
	return p.degraded
}

// Cycles returns the number of cycles started.
func (p *Primary) Cycles() uint64 {
	return p.cycle
}

// Receiver returns the primary's receiver, or nil when it has no peers.
func (p *Primary) Receiver() *link.Receiver {
	return p.receiver
}

// Fuser returns the primary's report fuser.
func (p *Primary) Fuser() *report.Fuser {
	return p.fuser
}

// Layer returns the current layer of the named half, or -1 if the half is
// unknown.
func (p *Primary) Layer(name string) int {
	if p.local != nil && p.local.name == name {
		return p.local.layout.CurrentLayer()
	}
	for _, r := range p.remotes {
		if r.name == name {
			return r.layout.CurrentLayer()
		}
	}
	return -1
}
