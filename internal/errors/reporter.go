package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter renders a structured Error with Rust-like caret styling, applied
// to IR-location carets rather than source-position ones: since the
// pipeline's input is already-typed IR with no source text, the
// "source line" shown is the printed statement itself rather than a line
// from an input file.
type Reporter struct {
	verbose bool
}

func NewReporter(verbose bool) *Reporter {
	return &Reporter{verbose: verbose}
}

// Format renders err the way the driver prints it: a header line with the
// code (when set) and message, a line naming the location and pass, a line
// naming the error kind, and the program snapshot only when verbose mode
// populated one.
func (r *Reporter) Format(err *Error) string {
	var b strings.Builder

	levelColor := color.New(color.FgRed, color.Bold).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if err.Code != "" {
		fmt.Fprintf(&b, "%s[%s]: %s\n", levelColor("error"), err.Code, err.Message)
	} else {
		fmt.Fprintf(&b, "%s: %s\n", levelColor("error"), err.Message)
	}

	fmt.Fprintf(&b, "  %s %s in pass %s\n", dim("-->"), err.Loc, bold(err.Pass))
	fmt.Fprintf(&b, "  %s %s\n", dim("│"), dim(string(err.Kind)))

	if r.verbose && err.Snapshot != "" {
		fmt.Fprintf(&b, "  %s\n", dim("│"))
		for _, line := range strings.Split(err.Snapshot, "\n") {
			fmt.Fprintf(&b, "  %s %s\n", dim("│"), line)
		}
	}

	return b.String()
}

// Banner renders the CLI's colorized success/failure line.
func (r *Reporter) Banner(pass string, ok bool) string {
	if ok {
		return color.New(color.FgGreen).Sprintf("✓ %s", pass)
	}
	return color.New(color.FgRed).Sprintf("✗ %s", pass)
}
