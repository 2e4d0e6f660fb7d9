// Package cli implements the softkb command-line tool: board checks,
// wire frame encoding and a hosted simulator of both halves.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ardnew/softkb/internal/printer"
	"github.com/ardnew/softkb/pkg"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	LogFormat string // "text" | "json"
	NoColor   bool
}

// ValidLogFormats defines the allowed log formats.
var ValidLogFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the softkb CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "softkb",
		Short: "softkb - split keyboard firmware tools",
		Long: `Tools for the softkb split keyboard firmware: validate board
descriptions, encode and decode matrix frames, print HID descriptors and
simulate both halves of a board on the host.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.apply(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log firmware activity at debug level")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log format (text|json)")
	cmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false, "disable colored output")

	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewFrameCommand(opts))
	cmd.AddCommand(NewDescriptorCommand(opts))
	cmd.AddCommand(NewSimCommand(opts))

	return cmd
}

func (o *RootOptions) apply(cmd *cobra.Command) error {
	switch o.LogFormat {
	case "text":
		pkg.SetLogOutput(cmd.ErrOrStderr())
		pkg.SetLogFormat(pkg.LogFormatText)
	case "json":
		pkg.SetLogOutput(cmd.ErrOrStderr())
		pkg.SetLogFormat(pkg.LogFormatJSON)
	default:
		return fmt.Errorf("invalid log format %q: must be one of %v", o.LogFormat, ValidLogFormats)
	}
	if o.Verbose {
		pkg.SetLogLevel(slog.LevelDebug)
	}
	return nil
}

func (o *RootOptions) printer(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), o.NoColor)
}
