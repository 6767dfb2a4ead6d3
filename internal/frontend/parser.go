package frontend

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"futhark-core/internal/ir"
	"futhark-core/internal/namesupply"
)

var parser = participle.MustBuild[Program](
	participle.Lexer(Lexer),
	participle.Elide("Whitespace", "Comment"),
	participle.UseLookahead(4),
)

// ParseProgram parses a .fir source into an ir.Program plus a NameSource
// seeded strictly past every tag the program uses, the same handoff contract
// a real front end must meet.
func ParseProgram(path, src string) (ir.Program, *namesupply.NameSource, error) {
	ast, err := parser.ParseString(path, src)
	if err != nil {
		return ir.Program{}, nil, err
	}
	prog, maxTag, err := Convert(ast)
	if err != nil {
		return ir.Program{}, nil, err
	}
	return prog, namesupply.New(maxTag), nil
}

// ReportParseError renders a participle error as a caret-annotated syntax
// error: the offending line followed by a caret under the failing column.
func ReportParseError(src string, err error) string {
	var b strings.Builder
	pe, ok := err.(participle.Error)
	if !ok {
		fmt.Fprintf(&b, "%s\n", color.RedString("unexpected error: %s", err))
		return b.String()
	}

	pos := pe.Position()
	lines := strings.Split(src, "\n")
	if pos.Line <= 0 || pos.Line > len(lines) {
		fmt.Fprintf(&b, "%s\n", color.RedString("syntax error at unknown location: %s", err))
		return b.String()
	}

	line := lines[pos.Line-1]
	caret := strings.Repeat(" ", maxInt(pos.Column-1, 0)) + "^"

	fmt.Fprintf(&b, "%s\n", color.RedString("syntax error in %s at line %d, column %d:", pos.Filename, pos.Line, pos.Column))
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "%s\n", color.HiRedString(caret))
	fmt.Fprintf(&b, "-> %s\n", pe.Message())
	return b.String()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
