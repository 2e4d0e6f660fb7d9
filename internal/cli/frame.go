package cli

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ardnew/softkb/link"
	"github.com/ardnew/softkb/matrix"
	"github.com/ardnew/softkb/pkg"
)

// FrameOptions holds flags for the frame commands.
type FrameOptions struct {
	Geometry string
	Press    []string
}

// NewFrameCommand creates the frame command and its subcommands.
func NewFrameCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FrameOptions{}

	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Encode and decode matrix frames",
		Long: `Encode and decode the radio payload a secondary half sends each
cycle: one bit per switch, output-major, least-significant bit first.`,
	}
	cmd.PersistentFlags().StringVarP(&opts.Geometry, "geometry", "g", "4x6", "matrix geometry as OUTPUTSxINPUTS")

	encode := &cobra.Command{
		Use:   "encode",
		Short: "Print the payload for a set of pressed switches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrameEncode(rootOpts, opts, cmd)
		},
	}
	encode.Flags().StringArrayVarP(&opts.Press, "press", "p", nil, "pressed switch as OUTPUT,INPUT (repeatable)")

	decode := &cobra.Command{
		Use:   "decode <hex>",
		Short: "Print the switches set in a payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFrameDecode(rootOpts, opts, cmd, args[0])
		},
	}

	cmd.AddCommand(encode, decode)
	return cmd
}

// parseCell parses "o,i".
func parseCell(s string) (o, i int, err error) {
	so, si, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("%w: switch %q wants OUTPUT,INPUT", pkg.ErrInvalidParameter, s)
	}
	if o, err = strconv.Atoi(strings.TrimSpace(so)); err != nil {
		return 0, 0, fmt.Errorf("%w: output in %q", pkg.ErrInvalidParameter, s)
	}
	if i, err = strconv.Atoi(strings.TrimSpace(si)); err != nil {
		return 0, 0, fmt.Errorf("%w: input in %q", pkg.ErrInvalidParameter, s)
	}
	return o, i, nil
}

func runFrameEncode(rootOpts *RootOptions, opts *FrameOptions, cmd *cobra.Command) error {
	p := rootOpts.printer(cmd)

	g, err := matrix.ParseGeometry(opts.Geometry)
	if err != nil {
		return p.Failure("%w", err)
	}
	m := matrix.New(g)
	for _, s := range opts.Press {
		o, i, err := parseCell(s)
		if err != nil {
			return p.Failure("%w", err)
		}
		if !g.Contains(o, i) {
			return p.Failure("%w: switch (%d,%d) is outside %s", pkg.ErrInvalidParameter, o, i, g)
		}
		m.Set(o, i, true)
	}

	buf := make([]byte, g.ByteLen())
	if err := link.Encode(m, buf); err != nil {
		return p.Failure("%w", err)
	}
	p.Info("%s", hex.EncodeToString(buf))
	return nil
}

func runFrameDecode(rootOpts *RootOptions, opts *FrameOptions, cmd *cobra.Command, payload string) error {
	p := rootOpts.printer(cmd)

	g, err := matrix.ParseGeometry(opts.Geometry)
	if err != nil {
		return p.Failure("%w", err)
	}
	buf, err := hex.DecodeString(strings.TrimPrefix(strings.ReplaceAll(payload, " ", ""), "0x"))
	if err != nil {
		return p.Failure("%w: %w", pkg.ErrInvalidParameter, err)
	}
	m := matrix.New(g)
	if err := link.Decode(buf, m); err != nil {
		return p.Failure("%w", err)
	}

	p.Info("%s, %d pressed", g, m.Pressed())
	p.Grid(m.String())
	for o := 0; o < g.Outputs; o++ {
		for i := 0; i < g.Inputs; i++ {
			if m.Get(o, i) {
				p.Info("  (%d,%d) bit %d", o, i, g.Index(o, i))
			}
		}
	}
	return nil
}
