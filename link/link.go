package link

import (
	"fmt"

	"github.com/ardnew/softkb/matrix"
	"github.com/ardnew/softkb/pkg"
)

// MaxPayload is the largest datagram payload a radio must carry.
const MaxPayload = 250

// Radio is a connectionless, best-effort datagram link.
type Radio interface {
	// Send transmits payload to dst without acknowledgement.
	Send(dst Addr, payload []byte) error

	// Receive copies one pending datagram into buf without blocking. It
	// returns pkg.ErrNoFrame when nothing is pending.
	Receive(buf []byte) (src Addr, n int, err error)
}

// Encode packs m into buf, the raw wire payload.
func Encode(m *matrix.Matrix, buf []byte) error {
	return m.Pack(buf)
}

// Decode unpacks payload into m. The payload length must match the
// matrix geometry exactly.
func Decode(payload []byte, m *matrix.Matrix) error {
	if len(payload) != m.Geometry().ByteLen() {
		return fmt.Errorf("%w: have %d bytes, want %d for %s",
			pkg.ErrFrameLength, len(payload), m.Geometry().ByteLen(), m.Geometry())
	}
	return m.Unpack(payload)
}

// CheckGeometry verifies that a sender and receiver agree on the grid
// geometry. The frame carries no header, so a mismatch would otherwise
// decode silently into the wrong cells.
func CheckGeometry(sender, receiver matrix.Geometry) error {
	if sender != receiver {
		return fmt.Errorf("%w: sender %s, receiver %s", pkg.ErrGeometryMismatch, sender, receiver)
	}
	if sender.ByteLen() > MaxPayload {
		return fmt.Errorf("%w: %s needs %d bytes, radio carries %d",
			pkg.ErrInvalidGeometry, sender, sender.ByteLen(), MaxPayload)
	}
	return nil
}
