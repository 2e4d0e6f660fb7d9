package firmware

import (
	"fmt"

	"github.com/ardnew/softkb/config"
	"github.com/ardnew/softkb/hid"
	"github.com/ardnew/softkb/link"
	"github.com/ardnew/softkb/matrix"
	"github.com/ardnew/softkb/matrix/hal"
	"github.com/ardnew/softkb/pkg"
	"github.com/ardnew/softkb/report"
	"github.com/ardnew/softkb/wheel"
)

// Hardware is what a half is built on.
type Hardware struct {
	// Matrix lines, in index order. Required for halves with a geometry.
	Inputs  []hal.Pin
	Outputs []hal.Pin

	// Wheel phases and optional common return. Required on a primary half
	// with a wheel.
	WheelA, WheelB, WheelGround hal.Pin

	// Delayer for scan settling. Defaults to hal.SleepDelayer.
	Delayer hal.Delayer

	// Radio is required unless the board has a single half.
	Radio link.Radio

	// Sink receives HID reports. Required on the primary half.
	Sink hid.Sink
}

// Build constructs the pipeline for the named half of board.
func Build(board *config.Board, name string, hw Hardware) (Pipeline, error) {
	h, err := board.Half(name)
	if err != nil {
		return nil, err
	}
	if h.Role == config.RoleSecondary {
		return buildSecondary(board, name, h, hw)
	}
	return buildPrimary(board, name, h, hw)
}

func buildScanner(board *config.Board, name string, h *config.Half, hw Hardware) (*matrix.Scanner, error) {
	opts := []matrix.ScannerOption{matrix.WithSettle(board.Settle())}
	if hw.Delayer != nil {
		opts = append(opts, matrix.WithDelayer(hw.Delayer))
	}
	s, err := matrix.NewScanner(hw.Inputs, hw.Outputs, opts...)
	if err != nil {
		return nil, fmt.Errorf("half '%s': %w", name, err)
	}
	if s.Geometry() != h.Geometry {
		return nil, fmt.Errorf("%w: half '%s' has %s pins, board says %s",
			pkg.ErrGeometryMismatch, name, s.Geometry(), h.Geometry)
	}
	return s, nil
}

func buildSecondary(board *config.Board, name string, h *config.Half, hw Hardware) (*Secondary, error) {
	if hw.Radio == nil {
		return nil, fmt.Errorf("%w: half '%s' has no radio", pkg.ErrNotConfigured, name)
	}
	_, primary := board.Primary()
	if primary == nil {
		return nil, fmt.Errorf("%w: board '%s' has no primary half", pkg.ErrNotConfigured, board.Name)
	}

	scanner, err := buildScanner(board, name, h, hw)
	if err != nil {
		return nil, err
	}
	sender, err := link.NewSender(hw.Radio, primary.Address, h.Geometry)
	if err != nil {
		return nil, fmt.Errorf("half '%s': %w", name, err)
	}

	pkg.LogInfo(pkg.ComponentFirmware, "secondary half built",
		"half", name,
		"geometry", h.Geometry.String(),
		"peer", primary.Address.String())
	return NewSecondary(scanner, sender)
}

func buildPrimary(board *config.Board, name string, h *config.Half, hw Hardware) (*Primary, error) {
	if hw.Sink == nil {
		return nil, fmt.Errorf("%w: half '%s' has no HID sink", pkg.ErrNotConfigured, name)
	}

	p := &Primary{
		stale: board.StaleCycles,
		fuser: report.New(hw.Sink),
	}

	if h.HasMatrix() {
		scanner, err := buildScanner(board, name, h, hw)
		if err != nil {
			return nil, err
		}
		local, err := newHalf(name, h.Keymap, h.Geometry, board.Tolerance)
		if err != nil {
			return nil, fmt.Errorf("half '%s': %w", name, err)
		}
		p.scan = scanner
		p.raw = matrix.New(h.Geometry)
		p.local = local
	}

	if h.Wheel {
		if hw.WheelA == nil || hw.WheelB == nil {
			return nil, fmt.Errorf("%w: half '%s' has no wheel pins", pkg.ErrNotConfigured, name)
		}
		var opts []wheel.Option
		if hw.WheelGround != nil {
			opts = append(opts, wheel.WithGround(hw.WheelGround))
		}
		enc, err := wheel.New(hw.WheelA, hw.WheelB, opts...)
		if err != nil {
			return nil, fmt.Errorf("half '%s': %w", name, err)
		}
		p.wheel = enc
	}

	if peers := board.Secondaries(); len(peers) > 0 {
		if hw.Radio == nil {
			return nil, fmt.Errorf("%w: half '%s' has %d peers and no radio", pkg.ErrNotConfigured, name, len(peers))
		}
		p.receiver = link.NewReceiver(hw.Radio)
		for _, peer := range peers {
			ph := board.Halves[peer]
			if err := p.receiver.AddPeer(ph.Address, ph.Geometry); err != nil {
				return nil, fmt.Errorf("peer '%s': %w", peer, err)
			}
			rh, err := newHalf(peer, ph.Keymap, ph.Geometry, board.Tolerance)
			if err != nil {
				return nil, fmt.Errorf("peer '%s': %w", peer, err)
			}
			p.remotes = append(p.remotes, &remote{half: rh, addr: ph.Address})
		}
	}

	pkg.LogInfo(pkg.ComponentFirmware, "primary half built",
		"half", name,
		"local", h.HasMatrix(),
		"wheel", h.Wheel,
		"peers", len(p.remotes),
		"stale_cycles", p.stale)
	return p, nil
}
