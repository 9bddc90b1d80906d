package nginst

import (
	"fmt"
	"io"
	"os"
)

// color-compatible printer interface (works with *color.Theme and *color.Style)
type colorPrinter interface {
	Printf(format string, a ...any)
	Println(a ...any)
}

// cPrintf prints with a colored style or falls back to fmt.Printf when nil
func cPrintf(p colorPrinter, format string, a ...any) {
	if p == nil {
		fmt.Printf(format, a...)
		return
	}
	p.Printf(format, a...)
}

// debugf prints debug messages when Debug is true
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}

// reporter prints tagged progress messages for one package.
// A nil Out means stdout with colors; tests hand in a buffer.
type reporter struct {
	Tag string
	Out io.Writer
}

func (r *reporter) prefix() string {
	return "Package Installer [" + r.Tag + "]: "
}

// Msg prints an informational line.
func (r *reporter) Msg(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if r.Out != nil {
		fmt.Fprintf(r.Out, "%s%s\n", r.prefix(), msg)
		return
	}
	colArrow.Print("-> ")
	colSuccess.Printf("%s%s\n", r.prefix(), msg)
}

// Warn prints a non-fatal warning.
func (r *reporter) Warn(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if r.Out != nil {
		fmt.Fprintf(r.Out, "%swarning: %s\n", r.prefix(), msg)
		return
	}
	colArrow.Print("-> ")
	colWarn.Printf("%s%s\n", r.prefix(), msg)
}

// Err prints a fatal error and its cause on the following line.
func (r *reporter) Err(msg string, cause error) {
	out := r.Out
	if out == nil {
		out = os.Stderr
		fmt.Fprint(out, colArrow.Sprint("-> "))
		fmt.Fprintln(out, colError.Sprintf("%s%s", r.prefix(), msg))
	} else {
		fmt.Fprintf(out, "%s%s\n", r.prefix(), msg)
	}
	if cause != nil {
		fmt.Fprintln(out, cause)
	}
}
