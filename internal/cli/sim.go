package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ardnew/softkb/config"
	"github.com/ardnew/softkb/firmware"
	"github.com/ardnew/softkb/hid"
	"github.com/ardnew/softkb/internal/printer"
	"github.com/ardnew/softkb/link"
	"github.com/ardnew/softkb/link/radio/fifo"
	"github.com/ardnew/softkb/link/radio/mem"
	"github.com/ardnew/softkb/matrix/hal"
	"github.com/ardnew/softkb/matrix/hal/sim"
	"github.com/ardnew/softkb/pkg"
)

// Radio kinds accepted by --radio.
const (
	RadioMem  = "mem"
	RadioFIFO = "fifo"
)

// SimOptions holds flags for the sim command.
type SimOptions struct {
	Board  string
	Script string
	Radio  string
}

// NewSimCommand creates the sim command.
func NewSimCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SimOptions{}

	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Simulate every half of a board on the host",
		Long: `Run every half of a board in its own goroutine on simulated pins,
connected by a simulated radio, and print each HID report the primary
half writes.

The script is a YAML list of steps. Each step presses or releases
switches on one half, or turns the wheel, then runs one or more cycles.
Without --script a short demo runs against the default board.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSim(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Board, "board", "b", "", "board description (default: embedded board)")
	cmd.Flags().StringVarP(&opts.Script, "script", "s", "", "simulation script (default: embedded demo)")
	cmd.Flags().StringVarP(&opts.Radio, "radio", "r", RadioMem, "radio between halves (mem|fifo)")

	return cmd
}

func runSim(ctx context.Context, rootOpts *RootOptions, opts *SimOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p := rootOpts.printer(cmd)

	board, source, err := loadBoard([]string{opts.Board})
	if err != nil {
		return p.Failure("%s: %w", source, err)
	}
	script, err := LoadScript(opts.Script)
	if err != nil {
		return p.Failure("%w", err)
	}
	if err := script.Validate(board); err != nil {
		return p.Failure("%w", err)
	}

	s, err := newSimulator(board, opts.Radio, p)
	if err != nil {
		return p.Failure("%w", err)
	}
	defer s.Close()

	scriptName := opts.Script
	if scriptName == "" {
		scriptName = "(embedded)"
	}
	p.Info("simulating board %s %s over %s radio, script %s", board.Name, source, opts.Radio, scriptName)

	if err := s.Run(ctx, script); err != nil {
		return p.Failure("%w", err)
	}

	p.Info("%d cycles: %d keyboard reports, %d mouse reports", s.cycle, s.keyboard, s.mouse)
	if rx := s.primary.pipe.(*firmware.Primary).Receiver(); rx != nil {
		st := rx.Stats()
		p.Info("receiver: %d frames, %d unknown, %d malformed", st.Frames, st.Unknown, st.Malformed)
	}
	p.Success("simulation complete")
	return nil
}

// errStopped ends a half's run loop once the script is done.
var errStopped = errors.New("simulation stopped")

// simHalf is one simulated microcontroller.
type simHalf struct {
	name string
	pipe firmware.Pipeline
	grid *sim.Grid
	tick chan struct{}
	done chan struct{}
}

// simulator runs every half in lockstep so that output is reproducible:
// each cycle the secondaries run in name order, then the primary runs
// once per secondary so it drains every frame sent that cycle.
type simulator struct {
	board *config.Board
	p     *printer.Printer

	halves  map[string]*simHalf
	order   []*simHalf
	primary *simHalf
	wheel   *sim.Quadrature
	handoff *hid.Handoff
	closers []io.Closer
	cleanup func()
	stop    chan struct{}

	cycle    uint64
	keyboard int
	mouse    int
}

func newSimulator(board *config.Board, radio string, p *printer.Printer) (_ *simulator, err error) {
	s := &simulator{
		board:   board,
		p:       p,
		halves:  make(map[string]*simHalf),
		wheel:   sim.NewQuadrature(),
		handoff: hid.NewHandoff(),
		stop:    make(chan struct{}),
	}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	join, err := s.radio(radio)
	if err != nil {
		return nil, err
	}

	primaryName, _ := board.Primary()
	for _, name := range board.Names() {
		h := board.Halves[name]
		sh := &simHalf{
			name: name,
			tick: make(chan struct{}, 1),
			done: make(chan struct{}, 1),
		}
		hw := firmware.Hardware{Delayer: hal.NoDelay}
		if h.HasMatrix() {
			sh.grid = sim.NewGrid(h.Geometry.Outputs, h.Geometry.Inputs)
			hw.Inputs, hw.Outputs = sh.grid.Inputs(), sh.grid.Outputs()
		}
		if h.Wheel {
			hw.WheelA, hw.WheelB = s.wheel.A, s.wheel.B
		}
		if len(board.Halves) > 1 {
			if hw.Radio, err = join(h.Address); err != nil {
				return nil, fmt.Errorf("half '%s': %w", name, err)
			}
		}
		if name == primaryName {
			hw.Sink = s.handoff
		}
		if sh.pipe, err = firmware.Build(board, name, hw); err != nil {
			return nil, err
		}
		s.halves[name] = sh
		if name == primaryName {
			s.primary = sh
		} else {
			s.order = append(s.order, sh)
		}
	}
	return s, nil
}

// radio returns a function attaching a half to a new simulated radio.
func (s *simulator) radio(kind string) (func(link.Addr) (link.Radio, error), error) {
	switch kind {
	case RadioMem:
		air := mem.NewAir()
		return func(addr link.Addr) (link.Radio, error) {
			r, err := air.Join(addr)
			if err != nil {
				return nil, err
			}
			s.closers = append(s.closers, r)
			return r, nil
		}, nil
	case RadioFIFO:
		dir, err := fifo.NewBusDir(os.TempDir())
		if err != nil {
			return nil, err
		}
		s.cleanup = func() { _ = os.RemoveAll(dir) }
		return func(addr link.Addr) (link.Radio, error) {
			r, err := fifo.Open(dir, addr)
			if err != nil {
				return nil, err
			}
			s.closers = append(s.closers, r)
			return r, nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: radio must be %s or %s, got %q", pkg.ErrInvalidParameter, RadioMem, RadioFIFO, kind)
	}
}

// Close releases every radio.
func (s *simulator) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
	return errors.Join(errs...)
}

// Run plays script. Each half runs firmware.Run in its own goroutine and
// waits for the driver goroutine to release each cycle.
func (s *simulator) Run(ctx context.Context, script *Script) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, h := range s.halves {
		h := h
		g.Go(func() error {
			err := firmware.Run(gctx, h.pipe,
				firmware.WithBeforeCycle(func(uint64) error {
					select {
					case <-h.tick:
						return nil
					case <-s.stop:
						return errStopped
					case <-gctx.Done():
						return gctx.Err()
					}
				}),
				firmware.WithAfterCycle(func(uint64) {
					h.done <- struct{}{}
				}))
			if errors.Is(err, errStopped) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("half '%s': %w", h.name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(s.stop)
		return s.play(gctx, script)
	})

	return g.Wait()
}

func (s *simulator) play(ctx context.Context, script *Script) error {
	for _, step := range script.Steps {
		if err := s.apply(step); err != nil {
			return err
		}
		for n := 0; n < step.Cycles(); n++ {
			switch {
			case n < step.Scroll:
				s.wheel.Step(1)
			case n < -step.Scroll:
				s.wheel.Step(-1)
			}
			s.cycle++
			for _, h := range s.order {
				if err := s.step(ctx, h); err != nil {
					return err
				}
			}
			for k := 0; k < max(len(s.order), 1); k++ {
				if err := s.step(ctx, s.primary); err != nil {
					return err
				}
				if _, err := s.handoff.Poll(ctx, (*simHost)(s)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *simulator) apply(step Step) error {
	if len(step.Press) == 0 && len(step.Release) == 0 {
		return nil
	}
	h := s.halves[step.Half]
	for _, cell := range step.Release {
		o, i, err := parseCell(cell)
		if err != nil {
			return err
		}
		h.grid.Release(o, i)
	}
	for _, cell := range step.Press {
		o, i, err := parseCell(cell)
		if err != nil {
			return err
		}
		h.grid.Press(o, i)
	}
	return nil
}

// step runs one cycle of h and waits for it to finish.
func (s *simulator) step(ctx context.Context, h *simHalf) error {
	select {
	case h.tick <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// simHost is the host side of the primary's USB interface. It decodes
// and prints every report written to an interrupt IN endpoint.
type simHost simulator

func (k *simHost) Write(_ context.Context, address uint8, data []byte) (int, error) {
	switch address {
	case hid.KeyboardEndpoint:
		var r hid.KeyboardReport
		if r.UnmarshalFrom(data) == 0 {
			return 0, fmt.Errorf("%w: keyboard report of %d bytes", pkg.ErrBufferSize, len(data))
		}
		k.keyboard++
		k.p.Report(k.cycle, "keyboard", r)
	case hid.MouseEndpoint:
		var r hid.MouseReport
		if r.UnmarshalFrom(data) == 0 {
			return 0, fmt.Errorf("%w: mouse report of %d bytes", pkg.ErrBufferSize, len(data))
		}
		k.mouse++
		k.p.Report(k.cycle, "mouse", r)
	default:
		return 0, fmt.Errorf("%w: endpoint 0x%02x", pkg.ErrInvalidParameter, address)
	}
	return len(data), nil
}
