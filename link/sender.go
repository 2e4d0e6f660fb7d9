package link

import (
	"fmt"

	"github.com/ardnew/softkb/matrix"
	"github.com/ardnew/softkb/pkg"
)

// Sender transmits scan reports to one fixed peer.
type Sender struct {
	radio Radio
	peer  Addr
	geom  matrix.Geometry
	buf   []byte

	sent   uint64
	failed uint64
}

// NewSender returns a sender of geometry g reports to peer.
func NewSender(radio Radio, peer Addr, g matrix.Geometry) (*Sender, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := CheckGeometry(g, g); err != nil {
		return nil, err
	}
	return &Sender{
		radio: radio,
		peer:  peer,
		geom:  g,
		buf:   make([]byte, g.ByteLen()),
	}, nil
}

// Peer returns the destination address.
func (s *Sender) Peer() Addr {
	return s.peer
}

// Geometry returns the report geometry.
func (s *Sender) Geometry() matrix.Geometry {
	return s.geom
}

// Send transmits one packed report. There is no retry: a lost frame is
// superseded by the next cycle's report. Radio failures are returned
// wrapped in pkg.ErrRadio.
func (s *Sender) Send(report []byte) error {
	if len(report) != s.geom.ByteLen() {
		return fmt.Errorf("%w: have %d bytes, want %d", pkg.ErrFrameLength, len(report), s.geom.ByteLen())
	}
	if err := s.radio.Send(s.peer, report); err != nil {
		s.failed++
		return fmt.Errorf("%w: send to %s: %w", pkg.ErrRadio, s.peer, err)
	}
	s.sent++
	return nil
}

// SendMatrix encodes m and sends it.
func (s *Sender) SendMatrix(m *matrix.Matrix) error {
	if err := Encode(m, s.buf); err != nil {
		return err
	}
	return s.Send(s.buf)
}

// Stats returns the number of frames sent and failed.
func (s *Sender) Stats() (sent, failed uint64) {
	return s.sent, s.failed
}
