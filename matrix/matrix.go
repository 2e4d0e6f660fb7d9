package matrix

import (
	"fmt"
	"strings"

	"github.com/ardnew/softkb/pkg"
)

// Matrix is a grid of switch states indexed by (output, input). Its
// geometry is fixed at construction.
type Matrix struct {
	geom  Geometry
	cells []bool
}

// New returns an all-released matrix with geometry g.
// It panics if g is invalid; geometry is build-time configuration.
func New(g Geometry) *Matrix {
	if err := g.Validate(); err != nil {
		panic(err)
	}
	return &Matrix{geom: g, cells: make([]bool, g.Cells())}
}

// Geometry returns the matrix geometry.
func (m *Matrix) Geometry() Geometry {
	return m.geom
}

// Get returns the state of cell (o, i).
func (m *Matrix) Get(o, i int) bool {
	return m.cells[m.geom.Index(o, i)]
}

// Set changes the state of cell (o, i).
func (m *Matrix) Set(o, i int, pressed bool) {
	m.cells[m.geom.Index(o, i)] = pressed
}

// Clear releases every cell.
func (m *Matrix) Clear() {
	for idx := range m.cells {
		m.cells[idx] = false
	}
}

// Fill sets every cell to pressed.
func (m *Matrix) Fill(pressed bool) {
	for idx := range m.cells {
		m.cells[idx] = pressed
	}
}

// Pressed returns the number of pressed cells.
func (m *Matrix) Pressed() int {
	n := 0
	for _, c := range m.cells {
		if c {
			n++
		}
	}
	return n
}

// Equal reports whether other has the same geometry and cell states.
func (m *Matrix) Equal(other *Matrix) bool {
	if other == nil || m.geom != other.geom {
		return false
	}
	for idx, c := range m.cells {
		if other.cells[idx] != c {
			return false
		}
	}
	return true
}

// CopyFrom overwrites m with the states of src.
func (m *Matrix) CopyFrom(src *Matrix) error {
	if src.geom != m.geom {
		return fmt.Errorf("%w: %s into %s", pkg.ErrGeometryMismatch, src.geom, m.geom)
	}
	copy(m.cells, src.cells)
	return nil
}

// Clone returns an independent copy of m.
func (m *Matrix) Clone() *Matrix {
	c := New(m.geom)
	copy(c.cells, m.cells)
	return c
}

// Pack writes the bit-packed form of m into buf.
//
// Cell (o, i) is stored at bit index o*Inputs+i, in byte index/8 at bit
// position index%8 (least-significant bit first). Pad bits in the final
// byte are written as zero. len(buf) must equal Geometry().ByteLen().
func (m *Matrix) Pack(buf []byte) error {
	if len(buf) != m.geom.ByteLen() {
		return fmt.Errorf("%w: have %d bytes, want %d", pkg.ErrBufferSize, len(buf), m.geom.ByteLen())
	}
	for idx := range buf {
		buf[idx] = 0
	}
	for idx, c := range m.cells {
		if c {
			buf[idx/8] |= 1 << (idx % 8)
		}
	}
	return nil
}

// Unpack overwrites m from a bit-packed report produced with the same
// geometry. Pad bits are ignored.
func (m *Matrix) Unpack(buf []byte) error {
	if len(buf) != m.geom.ByteLen() {
		return fmt.Errorf("%w: have %d bytes, want %d", pkg.ErrBufferSize, len(buf), m.geom.ByteLen())
	}
	for idx := range m.cells {
		m.cells[idx] = buf[idx/8]&(1<<(idx%8)) != 0
	}
	return nil
}

// String renders the grid one output per line, '#' for pressed and '.'
// for released.
func (m *Matrix) String() string {
	var sb strings.Builder
	for o := 0; o < m.geom.Outputs; o++ {
		for i := 0; i < m.geom.Inputs; i++ {
			if m.Get(o, i) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
