package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"
)

type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// Args returns the arguments left after flag parsing.
func (s *SimpleCommand) Args() []string {
	return s.Flags().Args()
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was succcessful call the callback.
func (s *SimpleCommand) Run(sh *Shell, args []string, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	if err := opts.Getopt(args, nil); err != nil {
		fmt.Fprintf(sh.Stderr, "%s: %s\n\n", args[0], err)

		s.PrintHelp(sh.Stdout)
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(sh.Stdout)
		return 0
	}

	return callback()
}

var (
	ColorBoldGreen   = color.New(color.FgGreen, color.Bold)
	ColorBoldCyan    = color.New(color.FgCyan, color.Bold)
	ColorBoldRed     = color.New(color.FgRed, color.Bold)
	ColorBoldMagenta = color.New(color.FgMagenta, color.Bold)
)

// ColorPrinter formats text in color only when the session has color turned
// on. Whether stdout of the current process is a terminal doesn't matter.
type ColorPrinter struct {
	Enabled bool
}

// Color returns c with color forced on, or nil if color is disabled.
func (p ColorPrinter) Color(c *color.Color) *color.Color {
	if !p.Enabled {
		return nil
	}
	forced := *c
	forced.EnableColor()
	return &forced
}

func (p ColorPrinter) Sprintf(c *color.Color, format string, a ...interface{}) string {
	if forced := p.Color(c); forced != nil {
		return forced.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}
