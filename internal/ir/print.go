package ir

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

// DiagnosticName renders a VName the way an error message or a --verbose
// dump prefers: the base name normalized to snake_case (front ends and
// earlier passes are not required to agree on a naming convention) with the
// disambiguating tag appended, e.g. "mapResult" -> "map_result_42".
func DiagnosticName(v VName) string {
	return fmt.Sprintf("%s_%d", strcase.ToSnake(v.Base), v.Tag)
}

// Sprint renders a Program as text close to the .fir format (it does not
// parse back through internal/frontend: binary ops print infix, updates as
// "with", loops as "loop(n merge)"), used for --verbose pass-manager dumps
// and debug output. It is not a pretty-printer in the full sense (no
// round-trip guarantee for every Op payload, e.g. kernel bodies render as a
// tag-only placeholder); it exists to make a failing intermediate program
// legible in a diagnostic, not to serve as canonical syntax.
func Sprint(p Program) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- lore: %s\n", p.Lore)
	for _, fn := range p.Funs {
		sprintFun(&b, fn)
	}
	return b.String()
}

func sprintFun(b *strings.Builder, fn *FunDef) {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("%s: %s", p.Name, p.Type)
	}
	rets := make([]string, len(fn.RetType))
	for i, t := range fn.RetType {
		rets[i] = t.String()
	}
	entry := ""
	if fn.Entry {
		entry = "entry "
	}
	fmt.Fprintf(b, "%sfun %s(%s) : %s =\n", entry, fn.Name, strings.Join(params, ", "), strings.Join(rets, ", "))
	sprintBody(b, fn.Body, 1)
	b.WriteString("\n")
}

func indent(n int) string { return strings.Repeat("  ", n) }

func sprintBody(b *strings.Builder, body Body, depth int) {
	for _, s := range body.Stmts {
		sprintStmt(b, s, depth)
	}
	names := make([]string, len(body.Result))
	for i, r := range body.Result {
		names[i] = r.String()
	}
	fmt.Fprintf(b, "%sin {%s}\n", indent(depth), strings.Join(names, ", "))
}

func sprintStmt(b *strings.Builder, s Stmt, depth int) {
	names := make([]string, len(s.Pattern))
	for i, pe := range s.Pattern {
		names[i] = pe.Name.String()
	}
	fmt.Fprintf(b, "%slet {%s} = %s\n", indent(depth), strings.Join(names, ", "), sprintExp(s.Exp, depth))
}

func sprintExp(e Exp, depth int) string {
	switch ev := e.(type) {
	case SubExpOp:
		return ev.SubExp.String()
	case Index:
		return fmt.Sprintf("index %s%v", ev.Arr, ev.Slice)
	case Reshape:
		return fmt.Sprintf("reshape %s %s", ev.NewShape, ev.Arr)
	case Rearrange:
		return fmt.Sprintf("rearrange %v %s", ev.Perm, ev.Arr)
	case Rotate:
		return fmt.Sprintf("rotate %v %s", ev.Amounts, ev.Arr)
	case Repeat:
		return fmt.Sprintf("repeat %s %s", ev.Outer, ev.Arr)
	case Split:
		return fmt.Sprintf("split %v %s", ev.Sizes, ev.Arr)
	case Concat:
		return fmt.Sprintf("concat@%d %v", ev.Dim, ev.Arrs)
	case Replicate:
		return fmt.Sprintf("replicate %s %s", ev.Shape, ev.Value)
	case Iota:
		return fmt.Sprintf("iota %s", ev.Count)
	case Copy:
		return fmt.Sprintf("copy %s", ev.Arr)
	case Scratch:
		return fmt.Sprintf("scratch %s%s", ev.Shape, ev.Elem)
	case Alloc:
		return fmt.Sprintf("alloc %s %s", ev.Size, ev.Space)
	case Update:
		return fmt.Sprintf("%s with %v <- %s", ev.Arr, ev.Slice, ev.Value)
	case Write:
		fused := ""
		if ev.Lambda != nil {
			fused = " (fused)"
		}
		return fmt.Sprintf("write %s %v -> %s%s", ev.Indices, ev.Arrs, ev.Dest, fused)
	case ArrayLit:
		return fmt.Sprintf("array_lit%s %v", ev.Elem, ev.Rows)
	case Assert:
		return fmt.Sprintf("assert %s %q", ev.Cond, ev.Msg)
	case BinOp:
		return fmt.Sprintf("%s %s %s", ev.X, binOpSymbol(ev.Op), ev.Y)
	case CmpOp:
		return fmt.Sprintf("%s cmp%d %s", ev.X, ev.Op, ev.Y)
	case UnOp:
		return fmt.Sprintf("unop%d %s", ev.Op, ev.X)
	case ConvOp:
		return fmt.Sprintf("conv %s->%s %s", ev.From, ev.To, ev.X)
	case Apply:
		args := make([]string, len(ev.Args))
		for i, a := range ev.Args {
			args[i] = fmt.Sprintf("%s:%s", a.Arg, a.Diet)
		}
		return fmt.Sprintf("apply %s(%s)", ev.Fun, strings.Join(args, ", "))
	case If:
		var tb, fb strings.Builder
		sprintBody(&tb, ev.True, depth+1)
		sprintBody(&fb, ev.False, depth+1)
		return fmt.Sprintf("if %s\n%sthen {\n%s%s}\n%selse {\n%s%s}",
			ev.Cond, indent(depth), tb.String(), indent(depth), indent(depth), fb.String(), indent(depth))
	case DoLoop:
		var bb strings.Builder
		sprintBody(&bb, ev.Body, depth+1)
		return fmt.Sprintf("loop(%d merge) do {\n%s%s}", len(ev.MergeParams()), bb.String(), indent(depth))
	default:
		if op, ok := e.(Op); ok {
			return fmt.Sprintf("<op %T>", op)
		}
		return "<?>"
	}
}

func binOpSymbol(op BinOpKind) string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case SDiv, UDiv:
		return "/"
	case SQuot:
		return "quot"
	case SRem:
		return "rem"
	case SMod, UMod:
		return "%"
	case Pow:
		return "**"
	case And:
		return "&"
	case Or:
		return "|"
	case Xor:
		return "^"
	case Shl:
		return "<<"
	case LShr:
		return ">>"
	case AShr:
		return ">>>"
	case LogAnd:
		return "&&"
	case LogOr:
		return "||"
	default:
		return "?"
	}
}
