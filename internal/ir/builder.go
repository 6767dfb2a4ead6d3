package ir

import (
	"fmt"

	"futhark-core/internal/errors"
)

// Builder accumulates statements for one Body under construction: each
// LetBind call is a plain method that pushes a Stmt and returns the bound
// VNames, after checking the pattern arity. The passes in this module build
// their Stmt slices directly, so that check covers only bodies grown
// through a Builder.
type Builder struct {
	pass  string
	fun   string
	stmts []Stmt
}

// NewBuilder starts a fresh statement accumulator; pass/fun name the
// enclosing context for any arity-violation diagnostics it raises.
func NewBuilder(pass, fun string) *Builder {
	return &Builder{pass: pass, fun: fun}
}

// LetBind binds names (with the given types) to exp, after checking the
// pattern arity against exp's declared return arity. Violating this is a
// builder bug, not a user error: it aborts with an InternalError naming the
// violated invariant.
func (b *Builder) LetBind(names []VName, types []Type, exp Exp) ([]VName, error) {
	want := ExpArity(exp)
	if want >= 0 && want != len(names) {
		return nil, errors.InternalError(b.pass,
			fmt.Sprintf("pattern arity %d disagrees with expression return arity %d", len(names), want),
			errors.Loc{Fun: b.fun, Stmt: fmt.Sprintf("%T", exp)})
	}
	pat := make([]PatElem, len(names))
	for i, n := range names {
		var t Type
		if i < len(types) {
			t = types[i]
		}
		pat[i] = PatElem{Name: n, Type: t}
	}
	b.stmts = append(b.stmts, Stmt{Pattern: pat, Exp: exp})
	return names, nil
}

// LetBind1 is the common case of binding a single name.
func (b *Builder) LetBind1(name VName, t Type, exp Exp) (VName, error) {
	names, err := b.LetBind([]VName{name}, []Type{t}, exp)
	if err != nil {
		return VName{}, err
	}
	return names[0], nil
}

// Finish closes the accumulator into a Body terminated by result.
func (b *Builder) Finish(result []SubExp) Body {
	return Body{Stmts: b.stmts, Result: result}
}

// ExpArity returns how many values exp produces: Apply and If report the
// length of their RetType, a DoLoop its merge-parameter count. It returns -1
// for every other expression (Op payloads among them), and LetBind then
// skips the arity check.
func ExpArity(exp Exp) int {
	switch ev := exp.(type) {
	case SubExpOp, Index, Reshape, Rearrange, Rotate, Repeat, Copy, Scratch, Alloc, Update,
		Replicate, Iota, BinOp, CmpOp, UnOp, ConvOp:
		return 1
	case Assert:
		return 1 // produces one cert value
	case Split:
		return len(ev.Sizes)
	case Concat:
		return 1
	case Apply:
		return len(ev.RetType)
	case If:
		return len(ev.RetType)
	case DoLoop:
		return len(ev.MergeParams())
	default:
		return -1 // Op payloads declare their own arity via ReturnTypes
	}
}
