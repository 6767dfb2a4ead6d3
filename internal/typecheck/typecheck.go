// Package typecheck re-verifies an already-typed IR after every pass, on
// the pass manager's behalf. It is not type inference: the front end
// hands off an already-typed program, so this package only confirms a
// set of structural invariants: the body's result arity against the
// function's declared return type, If/DoLoop/Apply result arities,
// matching BinOp/CmpOp operand types, and existential shape indices in
// range. A statement's pattern types are not compared against its
// expression's type.
//
// A recursive type-compatibility checker walking an expression tree,
// re-verifying IR types rather than inferring source types.
package typecheck

import (
	"fmt"

	"futhark-core/internal/errors"
	"futhark-core/internal/ir"
)

// Checker re-verifies one Program.
type Checker struct {
	pass string // the name attributed to errors, set by the pass manager
}

func New(pass string) *Checker { return &Checker{pass: pass} }

// Check walks every function in p and returns the first violation found.
func Check(pass string, p ir.Program) error {
	c := New(pass)
	for _, fn := range p.Funs {
		if err := c.checkFunction(fn); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) checkFunction(fn *ir.FunDef) error {
	loc := errors.Loc{Fun: fn.Name}
	scope := newScope()
	for _, p := range fn.Params {
		scope.bind(p.Name, p.Type)
	}
	if err := c.checkBody(fn.Name, fn.Body, scope); err != nil {
		return err
	}
	if len(fn.Body.Result) != len(fn.RetType) {
		return errors.TypeError(c.pass,
			fmt.Sprintf("function returns %d values, declared %d", len(fn.Body.Result), len(fn.RetType)), loc)
	}
	return checkShapeContext(c.pass, fn.Name, fn.RetType)
}

// scope maps in-scope names to their declared type, used to look up a
// SubExp's type when checking an expression against its pattern.
type scope struct {
	types map[ir.VName]ir.Type
}

func newScope() *scope { return &scope{types: make(map[ir.VName]ir.Type)} }

func (s *scope) bind(n ir.VName, t ir.Type) { s.types[n] = t }

func (s *scope) fork() *scope {
	child := newScope()
	for n, t := range s.types {
		child.types[n] = t
	}
	return child
}

func (s *scope) typeOf(se ir.SubExp) (ir.Type, bool) {
	switch v := se.(type) {
	case ir.Var:
		t, ok := s.types[v.Name]
		return t, ok
	case ir.Constant:
		return ir.Scalar{Prim: v.Value.Type()}, true
	}
	return nil, false
}

func (c *Checker) checkBody(fun string, b ir.Body, s *scope) error {
	for _, stmt := range b.Stmts {
		patTypes := make([]ir.Type, len(stmt.Pattern))
		for i, pe := range stmt.Pattern {
			patTypes[i] = pe.Type
		}
		if err := c.checkStmt(fun, stmt, patTypes, s); err != nil {
			return err
		}
		for _, pe := range stmt.Pattern {
			s.bind(pe.Name, pe.Type)
		}
	}
	return nil
}

func (c *Checker) checkStmt(fun string, stmt ir.Stmt, patTypes []ir.Type, s *scope) error {
	loc := errors.Loc{Fun: fun, Stmt: fmt.Sprintf("%T", stmt.Exp)}
	switch ev := stmt.Exp.(type) {
	case ir.If:
		if err := c.checkBody(fun, ev.True, s.fork()); err != nil {
			return err
		}
		if err := c.checkBody(fun, ev.False, s.fork()); err != nil {
			return err
		}
		if len(ev.True.Result) != len(ev.RetType) || len(ev.False.Result) != len(ev.RetType) {
			return errors.TypeError(c.pass, "if branches disagree with declared result arity", loc)
		}
		return checkShapeContext(c.pass, fun, ev.RetType)

	case ir.DoLoop:
		child := s.fork()
		for _, mp := range ev.MergeParams() {
			child.bind(mp.Param.Name, mp.Param.Type)
		}
		if err := c.checkBody(fun, ev.Body, child); err != nil {
			return err
		}
		if len(ev.Body.Result) != len(ev.MergeParams()) {
			return errors.TypeError(c.pass, "loop body result arity disagrees with merge parameters", loc)
		}
		return nil

	case ir.Apply:
		if len(ev.RetType) != len(patTypes) {
			return errors.TypeError(c.pass,
				fmt.Sprintf("call to %s returns %d values, pattern expects %d", ev.Fun, len(ev.RetType), len(patTypes)), loc)
		}
		return nil

	case ir.BinOp:
		return c.checkSameType(s, ev.X, ev.Y, loc)
	case ir.CmpOp:
		return c.checkSameType(s, ev.X, ev.Y, loc)

	default:
		// Other expressions are not re-verified here; pattern arity is
		// checked only by ir.Builder.LetBind, for bodies built through it.
		return nil
	}
}

func (c *Checker) checkSameType(s *scope, x, y ir.SubExp, loc errors.Loc) error {
	xt, xok := s.typeOf(x)
	yt, yok := s.typeOf(y)
	if !xok || !yok {
		return nil // unknown operand (e.g. forward reference in a fixture); nothing to contradict
	}
	if !ir.TypesEqual(xt, yt) {
		return errors.TypeError(c.pass, fmt.Sprintf("operand types %s and %s disagree", xt, yt), loc)
	}
	return nil
}

// checkShapeContext verifies that every Ext i in types is a valid index
// into types itself (the actual return list is what discharges existentials
// at the use site).
func checkShapeContext(pass, fun string, types []ir.Type) error {
	for _, t := range types {
		arr, ok := t.(ir.Array)
		if !ok {
			continue
		}
		for _, d := range arr.Shape {
			ext, ok := d.(ir.Ext)
			if !ok {
				continue
			}
			if ext.Which < 0 || ext.Which >= len(types) {
				return errors.ShapeContextError(pass,
					fmt.Sprintf("Ext %d is not discharged by any actual return position (of %d)", ext.Which, len(types)),
					errors.Loc{Fun: fun})
			}
		}
	}
	return nil
}
