package report_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softkb/hid"
	"github.com/ardnew/softkb/hid/hidtest"
	"github.com/ardnew/softkb/pkg"
	"github.com/ardnew/softkb/report"
)

func codes(k ...hid.Keycode) []hid.Keycode { return k }

// {A}, {A}, {A,B} produces writes on the first and third cycles only.
func TestFuser_WritesOnChange(t *testing.T) {
	rec := hidtest.NewRecorder()
	f := report.New(rec)

	require.NoError(t, f.Fuse(0, codes(hid.KeyA)))
	require.NoError(t, f.Fuse(0, codes(hid.KeyA)))
	require.NoError(t, f.Fuse(0, codes(hid.KeyA, hid.KeyB)))

	require.Len(t, rec.Keyboard, 2)
	assert.Equal(t, [6]hid.Keycode{hid.KeyA}, rec.Keyboard[0].Keys)
	assert.Equal(t, [6]hid.Keycode{hid.KeyA, hid.KeyB}, rec.Keyboard[1].Keys)
	assert.Empty(t, rec.Mouse)
}

func TestFuser_Idempotent(t *testing.T) {
	rec := hidtest.NewRecorder()
	f := report.New(rec)

	for n := 0; n < 50; n++ {
		require.NoError(t, f.Fuse(0, codes(hid.KeyQ, hid.KeyLeftCtrl)))
	}
	kbd, _ := rec.Writes()
	assert.Equal(t, 1, kbd)

	require.NoError(t, f.Fuse(0, codes(hid.KeyQ)))
	kbd, _ = rec.Writes()
	assert.Equal(t, 2, kbd)
}

func TestFuser_EmptyFirstCycle(t *testing.T) {
	rec := hidtest.NewRecorder()
	f := report.New(rec)
	require.NoError(t, f.Fuse(0))
	require.NoError(t, f.Fuse(0, nil, nil))
	assert.Zero(t, rec.Attempts())
}

func TestFuser_SetEquality(t *testing.T) {
	rec := hidtest.NewRecorder()
	f := report.New(rec)

	require.NoError(t, f.Fuse(0, codes(hid.KeyB, hid.KeyA), codes(hid.KeyC)))
	require.NoError(t, f.Fuse(0, codes(hid.KeyC), codes(hid.KeyA, hid.KeyB)))
	require.NoError(t, f.Fuse(0, codes(hid.KeyA, hid.KeyA, hid.KeyB), codes(hid.KeyC, hid.KeyB)))

	require.Len(t, rec.Keyboard, 1, "reordering and duplicates never write")
	assert.Equal(t, [6]hid.Keycode{hid.KeyA, hid.KeyB, hid.KeyC}, rec.Keyboard[0].Keys)
	assert.Equal(t, codes(hid.KeyA, hid.KeyB, hid.KeyC), f.Last())
}

func TestFuser_Release(t *testing.T) {
	rec := hidtest.NewRecorder()
	f := report.New(rec)

	require.NoError(t, f.Fuse(0, codes(hid.KeyEscape)))
	require.NoError(t, f.Fuse(0))
	require.Len(t, rec.Keyboard, 2)
	assert.Equal(t, hid.KeyboardReport{}, rec.Keyboard[1])
}

func TestFuser_ModifiersAndRollOver(t *testing.T) {
	rec := hidtest.NewRecorder()
	f := report.New(rec)

	require.NoError(t, f.Fuse(0, codes(hid.KeyLeftShift, hid.KeyA, hid.KeyRightAlt)))
	last, _ := rec.LastKeyboard()
	assert.Equal(t, uint8(0x42), last.Modifiers)
	assert.Equal(t, [6]hid.Keycode{hid.KeyA}, last.Keys)

	seven := codes(hid.KeyLeftCtrl, hid.KeyA, hid.KeyB, hid.KeyC, hid.KeyD, hid.KeyE, hid.KeyF, hid.KeyG)
	require.NoError(t, f.Fuse(0, seven))
	last, _ = rec.LastKeyboard()
	assert.True(t, last.IsRollOver())
	assert.Equal(t, uint8(0x01), last.Modifiers)

	six := codes(hid.KeyA, hid.KeyB, hid.KeyC, hid.KeyD, hid.KeyE, hid.KeyF)
	require.NoError(t, f.Fuse(0, six))
	last, _ = rec.LastKeyboard()
	assert.False(t, last.IsRollOver())
}

func TestFuser_Wheel(t *testing.T) {
	tests := []struct {
		name   string
		detent int8
		sets   [][]hid.Keycode
		want   []int8
		kbd    int
	}{
		{"encoder up", 1, nil, []int8{1}, 0},
		{"encoder down", -1, nil, []int8{-1}, 0},
		{"pseudo-code up", 0, [][]hid.Keycode{codes(hid.KeyScrollUp)}, []int8{1}, 0},
		{"both halves down", 0, [][]hid.Keycode{codes(hid.KeyScrollDown), codes(hid.KeyScrollDown)}, []int8{-1}, 0},
		{"cancel out", 1, [][]hid.Keycode{codes(hid.KeyScrollDown)}, []int8{0}, 0},
		{"held against encoder", -1, [][]hid.Keycode{codes(hid.KeyScrollUp)}, []int8{0}, 0},
		{"no wheel", 0, [][]hid.Keycode{codes(hid.KeyA)}, nil, 1},
		{"mixed with keys", 0, [][]hid.Keycode{codes(hid.KeyScrollUp, hid.KeyA)}, []int8{1}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := hidtest.NewRecorder()
			f := report.New(rec)
			require.NoError(t, f.Fuse(tt.detent, tt.sets...))

			var got []int8
			for _, m := range rec.Mouse {
				assert.Zero(t, m.Pan)
				got = append(got, m.Wheel)
			}
			assert.Equal(t, tt.want, got)
			kbd, _ := rec.Writes()
			assert.Equal(t, tt.kbd, kbd, "wheel codes never reach the keyboard report")
		})
	}
}

func TestFuser_WouldBlockRetried(t *testing.T) {
	rec := hidtest.NewRecorder()
	rec.Fail(pkg.ErrWouldBlock, fmt.Errorf("keyboard endpoint: %w", pkg.ErrWouldBlock))
	f := report.New(rec)

	for n := 0; n < 4; n++ {
		require.NoError(t, f.Fuse(0, codes(hid.KeyA)))
	}
	assert.Equal(t, 3, rec.Attempts(), "retried until accepted, then deduplicated")
	kbd, _ := rec.Writes()
	assert.Equal(t, 1, kbd)
	assert.Equal(t, uint64(2), f.Stats().Blocked)
}

func TestFuser_DuplicateRecorded(t *testing.T) {
	rec := hidtest.NewRecorder()
	rec.Fail(pkg.ErrDuplicate)
	f := report.New(rec)

	require.NoError(t, f.Fuse(0, codes(hid.KeyA)))
	require.NoError(t, f.Fuse(0, codes(hid.KeyA)))
	assert.Equal(t, 1, rec.Attempts(), "duplicate counts as written")
	assert.Equal(t, uint64(1), f.Stats().Duplicates)
}

func TestFuser_SinkFault(t *testing.T) {
	rec := hidtest.NewRecorder()
	stall := errors.New("endpoint halted")
	rec.Fail(stall)
	f := report.New(rec)

	err := f.Fuse(0, codes(hid.KeyA))
	require.Error(t, err)
	var fault *pkg.Fault
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, pkg.FaultSink, fault.Kind)
	assert.Equal(t, uint64(1), fault.Cycle)
	assert.ErrorIs(t, err, stall)

	// The report was not recorded, so the next cycle tries again.
	require.NoError(t, f.Fuse(0, codes(hid.KeyA)))
	kbd, _ := rec.Writes()
	assert.Equal(t, 1, kbd)
}

func TestFuser_Reset(t *testing.T) {
	rec := hidtest.NewRecorder()
	f := report.New(rec)
	require.NoError(t, f.Fuse(0, codes(hid.KeyA)))
	f.Reset()
	require.NoError(t, f.Fuse(0, codes(hid.KeyA)))
	kbd, _ := rec.Writes()
	assert.Equal(t, 2, kbd)
}
