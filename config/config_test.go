package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardnew/softkb/hid"
	"github.com/ardnew/softkb/layout"
	"github.com/ardnew/softkb/link"
	"github.com/ardnew/softkb/matrix"
	"github.com/ardnew/softkb/pkg"
)

func TestDefault(t *testing.T) {
	b, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "softkb", b.Name)
	assert.Equal(t, 1, b.Tolerance)
	assert.Equal(t, 5*time.Microsecond, b.Settle())
	assert.Equal(t, 300*time.Microsecond, b.Cycle())
	assert.Equal(t, []string{"core", "left", "right"}, b.Names())
	assert.Equal(t, []string{"left", "right"}, b.Secondaries())

	name, primary := b.Primary()
	require.NotNil(t, primary)
	assert.Equal(t, "core", name)
	assert.True(t, primary.Wheel)
	assert.False(t, primary.HasMatrix())

	left, err := b.Half("left")
	require.NoError(t, err)
	assert.Equal(t, link.MustParseAddr("48:27:e2:0d:73:70"), left.Address)
	assert.Equal(t, matrix.Geometry{Outputs: 4, Inputs: 6}, left.Geometry)
	require.Len(t, left.Keymap, 1)
	assert.Equal(t, layout.K(hid.KeyD), left.Keymap[0][2][3])
	assert.Equal(t, layout.No, left.Keymap[0][0][0])
	assert.Equal(t, layout.K(hid.KeyLeftCtrl), left.Keymap[0][0][3])

	right, err := b.Half("right")
	require.NoError(t, err)
	assert.Equal(t, link.MustParseAddr("48:27:e2:0d:6e:98"), right.Address)
	assert.Equal(t, layout.K(hid.KeyM), right.Keymap[0][2][5])

	_, err = b.Half("thumb")
	assert.ErrorIs(t, err, pkg.ErrInvalidParameter)
}

func TestDefaultYAML_Copy(t *testing.T) {
	raw := DefaultYAML()
	raw[0] = '!'
	assert.NotEqual(t, raw[0], DefaultYAML()[0])
}

const minimal = `
name: test
halves:
  main:
    role: primary
    address: "02:00:00:00:00:01"
    geometry: {outputs: 2, inputs: 2}
    layers:
      - - [A, B]
        - [MO(1), _]
      - - [Kb1, Kb2]
        - [_, "HT(20,Space,LShift)"]
`

func TestParse_Defaults(t *testing.T) {
	b, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, DefaultTolerance, b.Tolerance)
	assert.Equal(t, DefaultSettleUS, b.SettleUS)
	assert.Equal(t, DefaultCycleUS, b.CycleUS)
	assert.Equal(t, 0, b.StaleCycles)

	_, h := b.Primary()
	require.Len(t, h.Keymap, 2)
	assert.Equal(t, layout.MO(1), h.Keymap[0][1][0])
	assert.Equal(t, layout.Transparent, h.Keymap[0][1][1])
	assert.Equal(t, layout.HT(20, layout.K(hid.KeySpace), layout.K(hid.KeyLeftShift)), h.Keymap[1][1][1])
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad yaml",
			yaml:    "name: [",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "no name",
			yaml:    "halves: {}",
			wantErr: "board name is required",
		},
		{
			name:    "no halves",
			yaml:    "name: x",
			wantErr: "no halves defined",
		},
		{
			name: "negative",
			yaml: `
name: x
tolerance: -1
halves:
  a: {role: primary, address: "02:00:00:00:00:01"}
`,
			wantErr: "must not be negative",
		},
		{
			name: "no primary",
			yaml: `
name: x
halves:
  a: {role: secondary, address: "02:00:00:00:00:01", geometry: {outputs: 1, inputs: 1}, layers: [[[A]]]}
`,
			wantErr: "want exactly one primary half, have 0",
		},
		{
			name: "two primaries",
			yaml: `
name: x
halves:
  a: {role: primary, address: "02:00:00:00:00:01"}
  b: {role: primary, address: "02:00:00:00:00:02"}
`,
			wantErr: "want exactly one primary half, have 2",
		},
		{
			name: "bad role",
			yaml: `
name: x
halves:
  a: {role: central, address: "02:00:00:00:00:01"}
`,
			wantErr: "role must be 'primary' or 'secondary', got 'central'",
		},
		{
			name: "shared address",
			yaml: `
name: x
halves:
  a: {role: primary, address: "02:00:00:00:00:01"}
  b: {role: secondary, address: "02:00:00:00:00:01", geometry: {outputs: 1, inputs: 1}, layers: [[[A]]]}
`,
			wantErr: "halves 'a' and 'b' share address 02:00:00:00:00:01",
		},
		{
			name: "broadcast address",
			yaml: `
name: x
halves:
  a: {role: primary, address: "ff:ff:ff:ff:ff:ff"}
`,
			wantErr: "is not a unicast address",
		},
		{
			name: "missing address",
			yaml: `
name: x
halves:
  a: {role: primary}
`,
			wantErr: "is not a unicast address",
		},
		{
			name: "malformed address",
			yaml: `
name: x
halves:
  a: {role: primary, address: "48:27"}
`,
			wantErr: "failed to parse YAML",
		},
		{
			name: "secondary without geometry",
			yaml: `
name: x
halves:
  a: {role: primary, address: "02:00:00:00:00:01"}
  b: {role: secondary, address: "02:00:00:00:00:02"}
`,
			wantErr: "secondary half needs a geometry",
		},
		{
			name: "secondary wheel",
			yaml: `
name: x
halves:
  a: {role: primary, address: "02:00:00:00:00:01"}
  b: {role: secondary, address: "02:00:00:00:00:02", wheel: true, geometry: {outputs: 1, inputs: 1}, layers: [[[A]]]}
`,
			wantErr: "wheel is only read on the primary half",
		},
		{
			name: "layers without geometry",
			yaml: `
name: x
halves:
  a: {role: primary, address: "02:00:00:00:00:01", layers: [[[A]]]}
`,
			wantErr: "layers given without a geometry",
		},
		{
			name: "negative geometry",
			yaml: `
name: x
halves:
  a: {role: primary, address: "02:00:00:00:00:01", geometry: {outputs: -1, inputs: 2}}
`,
			wantErr: "invalid matrix geometry",
		},
		{
			name: "frame too large",
			yaml: `
name: x
halves:
  a: {role: primary, address: "02:00:00:00:00:01"}
  b: {role: secondary, address: "02:00:00:00:00:02", geometry: {outputs: 64, inputs: 64}, layers: []}
`,
			wantErr: "half 'b'",
		},
		{
			name: "layer shape",
			yaml: `
name: x
halves:
  a: {role: primary, address: "02:00:00:00:00:01", geometry: {outputs: 1, inputs: 2}, layers: [[[A]]]}
`,
			wantErr: "layer 0 output 0 has 1 inputs, want 2",
		},
		{
			name: "unknown key",
			yaml: `
name: x
halves:
  a: {role: primary, address: "02:00:00:00:00:01", geometry: {outputs: 1, inputs: 1}, layers: [[[Hyper]]]}
`,
			wantErr: "layer 0 (0,0)",
		},
		{
			name: "missing layer",
			yaml: `
name: x
halves:
  a: {role: primary, address: "02:00:00:00:00:01", geometry: {outputs: 1, inputs: 1}, layers: [[["MO(3)"]]]}
`,
			wantErr: "layer 3 does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	require.NoError(t, os.WriteFile(path, DefaultYAML(), 0o644))

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "softkb", b.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to read board file"))
}
