package config

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/softkb/layout"
	"github.com/ardnew/softkb/link"
	"github.com/ardnew/softkb/matrix"
	"github.com/ardnew/softkb/pkg"
)

// Half roles.
const (
	RolePrimary   = "primary"
	RoleSecondary = "secondary"
)

// Defaults applied by Validate to zero-valued fields.
const (
	DefaultTolerance = 1
	DefaultSettleUS  = 5
	DefaultCycleUS   = 300
)

//go:embed board.yaml
var defaultBoard []byte

// Board is the build-time description of a split keyboard.
type Board struct {
	Name        string           `yaml:"name"`
	Tolerance   int              `yaml:"tolerance,omitempty"`    // consecutive cycles before a change is confirmed
	SettleUS    int              `yaml:"settle_us,omitempty"`    // scan settle delay in microseconds
	CycleUS     int              `yaml:"cycle_us,omitempty"`     // firmware cycle period in microseconds
	StaleCycles int              `yaml:"stale_cycles,omitempty"` // 0 disables releasing silent peers
	Halves      map[string]*Half `yaml:"halves"`
}

// Half describes one microcontroller of the board.
type Half struct {
	Role     string          `yaml:"role"`
	Address  link.Addr       `yaml:"address"`
	Geometry matrix.Geometry `yaml:"geometry,omitempty"` // zero when the half has no switch matrix
	Wheel    bool            `yaml:"wheel,omitempty"`
	Layers   [][][]string    `yaml:"layers,omitempty"`

	// Keymap is Layers parsed by Validate.
	Keymap layout.Layers `yaml:"-"`
}

// HasMatrix reports whether the half scans a switch matrix.
func (h *Half) HasMatrix() bool {
	return h.Geometry != (matrix.Geometry{})
}

// Default returns the embedded board description.
func Default() (*Board, error) {
	return Parse(defaultBoard)
}

// DefaultYAML returns the raw embedded board description.
func DefaultYAML() []byte {
	return slices.Clone(defaultBoard)
}

// Load reads and validates a board description from path.
func Load(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a board description.
func Parse(data []byte) (*Board, error) {
	var b Board
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	pkg.LogDebug(pkg.ComponentConfig, "board loaded",
		"name", b.Name,
		"halves", len(b.Halves))
	return &b, nil
}

// Validate applies defaults and checks the board for consistency. On
// success every half with a matrix has its Keymap populated.
func (b *Board) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("%w: board name is required", pkg.ErrInvalidParameter)
	}
	if b.Tolerance == 0 {
		b.Tolerance = DefaultTolerance
	}
	if b.SettleUS == 0 {
		b.SettleUS = DefaultSettleUS
	}
	if b.CycleUS == 0 {
		b.CycleUS = DefaultCycleUS
	}
	if b.Tolerance < 0 || b.SettleUS < 0 || b.CycleUS < 0 || b.StaleCycles < 0 {
		return fmt.Errorf("%w: tolerance, settle_us, cycle_us and stale_cycles must not be negative", pkg.ErrInvalidParameter)
	}
	if len(b.Halves) == 0 {
		return fmt.Errorf("%w: no halves defined", pkg.ErrInvalidParameter)
	}

	primaries := 0
	seen := make(map[link.Addr]string)
	for _, name := range b.Names() {
		h := b.Halves[name]
		if h == nil {
			return fmt.Errorf("%w: half '%s' is empty", pkg.ErrInvalidParameter, name)
		}
		if err := h.Validate(name); err != nil {
			return err
		}
		if h.Role == RolePrimary {
			primaries++
		}
		if other, ok := seen[h.Address]; ok {
			return fmt.Errorf("%w: halves '%s' and '%s' share address %s", pkg.ErrInvalidParameter, other, name, h.Address)
		}
		seen[h.Address] = name
	}
	if primaries != 1 {
		return fmt.Errorf("%w: want exactly one primary half, have %d", pkg.ErrInvalidParameter, primaries)
	}
	return nil
}

// Validate checks a single half named name.
func (h *Half) Validate(name string) error {
	switch h.Role {
	case RolePrimary, RoleSecondary:
	default:
		return fmt.Errorf("%w: half '%s': role must be '%s' or '%s', got '%s'",
			pkg.ErrInvalidParameter, name, RolePrimary, RoleSecondary, h.Role)
	}
	if h.Address.IsBroadcast() || h.Address == (link.Addr{}) {
		return fmt.Errorf("%w: half '%s': address %s is not a unicast address", pkg.ErrInvalidParameter, name, h.Address)
	}

	if h.Role == RoleSecondary {
		if !h.HasMatrix() {
			return fmt.Errorf("%w: half '%s': secondary half needs a geometry", pkg.ErrInvalidGeometry, name)
		}
		if h.Wheel {
			return fmt.Errorf("%w: half '%s': wheel is only read on the primary half", pkg.ErrInvalidParameter, name)
		}
	}

	if !h.HasMatrix() {
		if len(h.Layers) > 0 {
			return fmt.Errorf("%w: half '%s': layers given without a geometry", pkg.ErrGeometryMismatch, name)
		}
		return nil
	}

	if err := h.Geometry.Validate(); err != nil {
		return fmt.Errorf("half '%s': %w", name, err)
	}
	if h.Role == RoleSecondary {
		// The primary receives with the geometry configured here.
		if err := link.CheckGeometry(h.Geometry, h.Geometry); err != nil {
			return fmt.Errorf("half '%s': %w", name, err)
		}
	}

	keymap, err := layout.ParseLayers(h.Layers)
	if err != nil {
		return fmt.Errorf("half '%s': %w", name, err)
	}
	if err := keymap.Validate(h.Geometry); err != nil {
		return fmt.Errorf("half '%s': %w", name, err)
	}
	h.Keymap = keymap
	return nil
}

// Names returns the half names in sorted order.
func (b *Board) Names() []string {
	names := make([]string, 0, len(b.Halves))
	for name := range b.Halves {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Primary returns the name and description of the primary half.
func (b *Board) Primary() (string, *Half) {
	for _, name := range b.Names() {
		if h := b.Halves[name]; h.Role == RolePrimary {
			return name, h
		}
	}
	return "", nil
}

// Secondaries returns the names of the secondary halves in sorted order.
func (b *Board) Secondaries() []string {
	var names []string
	for _, name := range b.Names() {
		if b.Halves[name].Role == RoleSecondary {
			names = append(names, name)
		}
	}
	return names
}

// Half returns the named half or an error wrapping pkg.ErrInvalidParameter.
func (b *Board) Half(name string) (*Half, error) {
	h, ok := b.Halves[name]
	if !ok || h == nil {
		return nil, fmt.Errorf("%w: board '%s' has no half '%s'", pkg.ErrInvalidParameter, b.Name, name)
	}
	return h, nil
}

// Settle returns the scan settle delay.
func (b *Board) Settle() time.Duration {
	return time.Duration(b.SettleUS) * time.Microsecond
}

// Cycle returns the firmware cycle period.
func (b *Board) Cycle() time.Duration {
	return time.Duration(b.CycleUS) * time.Microsecond
}
