package printer

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softkb/hid"
)

func TestPrinter(t *testing.T) {
	buf := &bytes.Buffer{}
	p := New(buf, true)

	p.Success("board is valid")
	p.Success("✓ already marked")
	p.Info("%d halves", 3)
	p.Warning("stale policy off")
	err := p.Failure("bad %s", "frame")
	require.EqualError(t, err, "bad frame")

	r := hid.KeyboardReport{}
	r.SetKey(hid.KeyD)
	p.Report(7, "keyboard", r)
	p.Grid("#.\n.#\n")

	want := "✓ board is valid\n" +
		"✓ already marked\n" +
		"3 halves\n" +
		"! stale policy off\n" +
		"✗ bad frame\n" +
		"   7 keyboard mods=0x00 keys=[D]\n" +
		"  #.\n" +
		"  .#\n"
	assert.Equal(t, want, buf.String())
	assert.Same(t, buf, p.Writer())
}
