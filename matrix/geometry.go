package matrix

import (
	"fmt"

	"github.com/ardnew/softkb/pkg"
)

// Geometry is the fixed shape of a switch grid: the number of driven
// output lines and sensed input lines.
type Geometry struct {
	Outputs int `yaml:"outputs"`
	Inputs  int `yaml:"inputs"`
}

// Cells returns the number of switches in the grid.
func (g Geometry) Cells() int {
	return g.Outputs * g.Inputs
}

// ByteLen returns the length of a bit-packed report for this geometry,
// ceil(Outputs*Inputs/8).
func (g Geometry) ByteLen() int {
	return (g.Cells() + 7) / 8
}

// Index returns the bit position of cell (o, i) in a packed report.
func (g Geometry) Index(o, i int) int {
	return o*g.Inputs + i
}

// Contains reports whether (o, i) addresses a cell of the grid.
func (g Geometry) Contains(o, i int) bool {
	return o >= 0 && o < g.Outputs && i >= 0 && i < g.Inputs
}

// Validate returns an error if either dimension is less than one.
func (g Geometry) Validate() error {
	if g.Outputs < 1 || g.Inputs < 1 {
		return fmt.Errorf("%w: %s", pkg.ErrInvalidGeometry, g)
	}
	return nil
}

// String returns the geometry as "OUTPUTSxINPUTS".
func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d", g.Outputs, g.Inputs)
}

// ParseGeometry parses the "OUTPUTSxINPUTS" form produced by String.
func ParseGeometry(s string) (Geometry, error) {
	var g Geometry
	if _, err := fmt.Sscanf(s, "%dx%d", &g.Outputs, &g.Inputs); err != nil {
		return Geometry{}, fmt.Errorf("%w: %q", pkg.ErrInvalidGeometry, s)
	}
	if err := g.Validate(); err != nil {
		return Geometry{}, err
	}
	return g, nil
}
