// Package printer writes the CLI's human-readable output.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Printer writes colored lines to a writer. Color is disabled when the
// writer is not a terminal or NO_COLOR is set (see color.NoColor).
type Printer struct {
	w io.Writer

	green  *color.Color
	yellow *color.Color
	red    *color.Color
	cyan   *color.Color
	faint  *color.Color
}

// New returns a printer writing to w. plain disables color regardless of
// the terminal.
func New(w io.Writer, plain bool) *Printer {
	p := &Printer{
		w:      w,
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed, color.Bold),
		cyan:   color.New(color.FgCyan),
		faint:  color.New(color.Faint),
	}
	if plain {
		for _, c := range []*color.Color{p.green, p.yellow, p.red, p.cyan, p.faint} {
			c.DisableColor()
		}
	}
	return p
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Success prints a message in green with a checkmark prefix.
func (p *Printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	p.green.Fprintln(p.w, msg)
}

// Info prints a message in the default color.
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.w, format+"\n", a...)
}

// Warning prints a message in yellow.
func (p *Printer) Warning(format string, a ...any) {
	p.yellow.Fprintf(p.w, "! "+format+"\n", a...)
}

// Failure prints a message in red and returns it as an error.
func (p *Printer) Failure(format string, a ...any) error {
	err := fmt.Errorf(format, a...)
	p.red.Fprintf(p.w, "✗ %s\n", err)
	return err
}

// Report prints one HID report line for the given cycle.
func (p *Printer) Report(cycle uint64, kind string, report fmt.Stringer) {
	p.faint.Fprintf(p.w, "%4d ", cycle)
	p.cyan.Fprintf(p.w, "%-8s", kind)
	fmt.Fprintf(p.w, " %s\n", report)
}

// Grid prints a matrix rendering, indented.
func (p *Printer) Grid(s string) {
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		fmt.Fprintf(p.w, "  %s\n", line)
	}
}
