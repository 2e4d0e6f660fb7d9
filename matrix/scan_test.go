package matrix_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softkb/matrix"
	"github.com/ardnew/softkb/matrix/hal"
	"github.com/ardnew/softkb/matrix/hal/sim"
	"github.com/ardnew/softkb/pkg"
)

func newScanner(t *testing.T, g *sim.Grid, opts ...matrix.ScannerOption) *matrix.Scanner {
	t.Helper()
	opts = append([]matrix.ScannerOption{matrix.WithDelayer(hal.NoDelay)}, opts...)
	s, err := matrix.NewScanner(g.Inputs(), g.Outputs(), opts...)
	require.NoError(t, err)
	return s
}

func TestNewScanner_DrivesOutputsHigh(t *testing.T) {
	g := sim.NewGrid(4, 6)
	outs := g.Outputs()
	for _, out := range outs {
		require.NoError(t, out.Set(false))
	}

	s := newScanner(t, g)
	assert.Equal(t, matrix.Geometry{Outputs: 4, Inputs: 6}, s.Geometry())
	assert.Equal(t, 3, s.ByteLen())
	for o := range outs {
		assert.True(t, g.OutputLevel(o), "output %d", o)
	}
}

func TestNewScanner_Errors(t *testing.T) {
	g := sim.NewGrid(2, 2)
	_, err := matrix.NewScanner(nil, g.Outputs())
	assert.ErrorIs(t, err, pkg.ErrInvalidGeometry)

	boom := errors.New("boom")
	g.FailOutput(1, boom)
	_, err = matrix.NewScanner(g.Inputs(), g.Outputs())
	require.Error(t, err)
	assert.ErrorIs(t, err, pkg.ErrPinIO)
	assert.ErrorIs(t, err, boom)

	var se *matrix.ScanError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, matrix.OpInit, se.Op)
	assert.Equal(t, 1, se.Output)
}

func TestScanner_BitPositions(t *testing.T) {
	g := sim.NewGrid(4, 6)
	s := newScanner(t, g)
	geom := s.Geometry()

	for o := 0; o < geom.Outputs; o++ {
		for i := 0; i < geom.Inputs; i++ {
			g.ReleaseAll()
			g.Press(o, i)

			buf := make([]byte, s.ByteLen())
			require.NoError(t, s.Scan(buf))

			idx := o*geom.Inputs + i
			want := make([]byte, s.ByteLen())
			want[idx/8] = 1 << (idx % 8)
			assert.Equal(t, want, buf, "switch (%d, %d)", o, i)
		}
	}
}

func TestScanner_MatchesPack(t *testing.T) {
	g := sim.NewGrid(5, 7)
	s := newScanner(t, g)

	want := matrix.New(s.Geometry())
	for o := 0; o < 5; o++ {
		for i := 0; i < 7; i++ {
			if (o*7+i)%3 == 0 {
				g.Press(o, i)
				want.Set(o, i, true)
			}
		}
	}

	scanned := make([]byte, s.ByteLen())
	require.NoError(t, s.Scan(scanned))
	packed := make([]byte, s.ByteLen())
	require.NoError(t, want.Pack(packed))
	assert.Equal(t, packed, scanned)

	got := matrix.New(s.Geometry())
	require.NoError(t, s.ScanMatrix(got))
	assert.True(t, want.Equal(got))
}

func TestScanner_AllReleased(t *testing.T) {
	g := sim.NewGrid(4, 6)
	s := newScanner(t, g)

	buf := []byte{0xFF, 0xFF, 0xFF}
	require.NoError(t, s.Scan(buf))
	assert.Equal(t, []byte{0, 0, 0}, buf)

	for o := 0; o < 4; o++ {
		assert.True(t, g.OutputLevel(o), "output %d left driven", o)
	}
	drives, samples := g.Counts()
	assert.Equal(t, 4+4*2, drives, "init plus drive and restore per output")
	assert.Equal(t, 4*6, samples)
}

func TestScanner_SettleDelay(t *testing.T) {
	var delays []time.Duration
	rec := hal.DelayFunc(func(d time.Duration) { delays = append(delays, d) })

	g := sim.NewGrid(3, 2)
	s, err := matrix.NewScanner(g.Inputs(), g.Outputs(),
		matrix.WithDelayer(rec), matrix.WithSettle(7*time.Microsecond))
	require.NoError(t, err)
	require.NoError(t, s.Scan(make([]byte, s.ByteLen())))

	assert.Equal(t, []time.Duration{7 * time.Microsecond, 7 * time.Microsecond, 7 * time.Microsecond}, delays)
}

func TestScanner_PinFaults(t *testing.T) {
	boom := errors.New("bus error")

	t.Run("sample", func(t *testing.T) {
		g := sim.NewGrid(3, 3)
		s := newScanner(t, g)
		g.FailInput(2, boom)

		err := s.Scan(make([]byte, s.ByteLen()))
		assert.ErrorIs(t, err, pkg.ErrPinIO)
		assert.ErrorIs(t, err, boom)

		var se *matrix.ScanError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, matrix.OpSample, se.Op)
		assert.Equal(t, 0, se.Output)
		assert.Equal(t, 2, se.Input)
		assert.True(t, g.OutputLevel(0), "driven output must be restored")
		assert.Equal(t, "scan sample output 0 input 2: bus error", err.Error())
	})

	t.Run("drive", func(t *testing.T) {
		g := sim.NewGrid(3, 3)
		s := newScanner(t, g)
		g.FailOutput(1, boom)

		err := s.Scan(make([]byte, s.ByteLen()))
		var se *matrix.ScanError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, matrix.OpDrive, se.Op)
		assert.Equal(t, 1, se.Output)
		assert.Equal(t, -1, se.Input)
		assert.Equal(t, "scan drive output 1: bus error", err.Error())
	})
}

func TestScanner_BufferAndGeometryChecks(t *testing.T) {
	g := sim.NewGrid(4, 6)
	s := newScanner(t, g)

	assert.ErrorIs(t, s.Scan(make([]byte, 4)), pkg.ErrBufferSize)
	assert.ErrorIs(t, s.ScanMatrix(matrix.New(matrix.Geometry{Outputs: 6, Inputs: 4})), pkg.ErrGeometryMismatch)
}
