package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ardnew/softkb/config"
	"github.com/ardnew/softkb/link"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [board.yaml]",
		Short: "Validate a board description",
		Long: `Load and validate a board description and print a summary of its
halves. Without an argument the embedded default board is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd, args)
		},
	}
	return cmd
}

func loadBoard(args []string) (*config.Board, string, error) {
	if len(args) == 0 || args[0] == "" {
		b, err := config.Default()
		return b, "(embedded)", err
	}
	b, err := config.Load(args[0])
	return b, args[0], err
}

func runCheck(opts *RootOptions, cmd *cobra.Command, args []string) error {
	p := opts.printer(cmd)

	board, source, err := loadBoard(args)
	if err != nil {
		return p.Failure("%s: %w", source, err)
	}

	stale := "off"
	if board.StaleCycles > 0 {
		stale = fmt.Sprintf("%d cycles", board.StaleCycles)
	}
	p.Info("board %s %s", board.Name, source)
	p.Info("  tolerance %d, settle %s, cycle %s, stale %s",
		board.Tolerance, board.Settle(), board.Cycle(), stale)

	for _, name := range board.Names() {
		h := board.Halves[name]
		shape := "no matrix"
		if h.HasMatrix() {
			shape = fmt.Sprintf("%s, %d-byte frames, %d-layer keymap",
				h.Geometry, h.Geometry.ByteLen(), len(h.Keymap))
		}
		extra := ""
		if h.Wheel {
			extra = ", wheel"
		}
		p.Info("  %-8s %-9s %s  %s%s", name, h.Role, h.Address, shape, extra)
	}

	if board.StaleCycles == 0 && len(board.Secondaries()) > 0 {
		p.Warning("stale_cycles is 0: keys held on a silent half stay pressed")
	}
	for _, name := range board.Secondaries() {
		g := board.Halves[name].Geometry
		if g.ByteLen() > link.MaxPayload/2 {
			p.Warning("half %s uses %d of %d payload bytes", name, g.ByteLen(), link.MaxPayload)
		}
	}
	p.Success("board is valid")
	return nil
}
