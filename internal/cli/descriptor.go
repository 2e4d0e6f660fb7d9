package cli

import (
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/ardnew/softkb/hid"
	"github.com/ardnew/softkb/pkg"
)

// NewDescriptorCommand creates the descriptor command.
func NewDescriptorCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "descriptor <keyboard|mouse>",
		Short:     "Print an HID interface's descriptors",
		Long:      `Print the HID class descriptor and report descriptor of the boot keyboard or wheel mouse interface, as hex.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"keyboard", "mouse"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescriptor(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runDescriptor(opts *RootOptions, cmd *cobra.Command, which string) error {
	p := opts.printer(cmd)

	var (
		report   []byte
		endpoint uint8
		protocol uint8
		size     int
	)
	switch which {
	case "keyboard":
		report, endpoint, protocol, size = hid.KeyboardReportDescriptor, hid.KeyboardEndpoint, hid.ProtocolKeyboard, hid.KeyboardReportSize
	case "mouse":
		report, endpoint, protocol, size = hid.MouseReportDescriptor, hid.MouseEndpoint, hid.ProtocolMouse, hid.MouseReportSize
	default:
		return p.Failure("%w: unknown interface %q", pkg.ErrInvalidParameter, which)
	}

	class := hid.NewClassDescriptor(report)
	buf := make([]byte, hid.ClassDescriptorSize)
	n := class.MarshalTo(buf)

	p.Info("%s: endpoint 0x%02x, protocol %d, %d-byte reports", which, endpoint, protocol, size)
	p.Info("class  %s", hex.EncodeToString(buf[:n]))
	p.Info("report %s", hex.EncodeToString(report))
	return nil
}
