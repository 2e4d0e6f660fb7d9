package cli

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/softkb/config"
	"github.com/ardnew/softkb/pkg"
)

//go:embed demo.yaml
var demoScript []byte

// Script drives a simulation. Each step changes switches or turns the
// wheel, then runs one or more cycles.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Step is one script entry.
type Step struct {
	Half    string   `yaml:"half,omitempty"`    // half whose switches change
	Press   []string `yaml:"press,omitempty"`   // switches as "OUTPUT,INPUT"
	Release []string `yaml:"release,omitempty"` // applied before Press
	Scroll  int      `yaml:"scroll,omitempty"`  // detents, one per cycle; negative scrolls down
	Wait    int      `yaml:"wait,omitempty"`    // cycles to run, default 1
}

// Cycles returns the number of cycles the step runs.
func (s Step) Cycles() int {
	n := max(s.Wait, 1)
	if s.Scroll > n {
		n = s.Scroll
	}
	if -s.Scroll > n {
		n = -s.Scroll
	}
	return n
}

// LoadScript reads a script from path, or the embedded demo when path is
// empty.
func LoadScript(path string) (*Script, error) {
	data := demoScript
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read script: %w", err)
		}
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &s, nil
}

// Validate checks every step against board.
func (s *Script) Validate(board *config.Board) error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: script has no steps", pkg.ErrInvalidParameter)
	}
	_, primary := board.Primary()
	for n, step := range s.Steps {
		if step.Wait < 0 {
			return fmt.Errorf("%w: step %d: wait must not be negative", pkg.ErrInvalidParameter, n+1)
		}
		if step.Scroll != 0 && !primary.Wheel {
			return fmt.Errorf("%w: step %d: board has no wheel", pkg.ErrInvalidParameter, n+1)
		}
		if len(step.Press) == 0 && len(step.Release) == 0 {
			continue
		}
		h, err := board.Half(step.Half)
		if err != nil {
			return fmt.Errorf("step %d: %w", n+1, err)
		}
		if !h.HasMatrix() {
			return fmt.Errorf("%w: step %d: half '%s' has no matrix", pkg.ErrInvalidParameter, n+1, step.Half)
		}
		for _, cell := range append(step.Release[:len(step.Release):len(step.Release)], step.Press...) {
			o, i, err := parseCell(cell)
			if err != nil {
				return fmt.Errorf("step %d: %w", n+1, err)
			}
			if !h.Geometry.Contains(o, i) {
				return fmt.Errorf("%w: step %d: switch (%d,%d) is outside %s", pkg.ErrInvalidParameter, n+1, o, i, h.Geometry)
			}
		}
	}
	return nil
}
