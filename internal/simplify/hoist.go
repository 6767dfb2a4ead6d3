package simplify

import "futhark-core/internal/ir"

// isPure reports whether an expression may be hoisted at all: no
// consumption, no assertion side effect, no allocation, no SOAC with a
// side effect. Scratch and Copy are pure but still excluded here
// because moving them changes which statement first establishes an alias
// class the alias analysis computes; only scalar BasicOps (BinOp, CmpOp,
// UnOp, ConvOp), Index and SubExpOp renames are hoisted.
func isPure(e ir.Exp) bool {
	switch e.(type) {
	case ir.SubExpOp, ir.BinOp, ir.CmpOp, ir.UnOp, ir.ConvOp, ir.Index:
		return true
	}
	return false
}

// boundOutside reports whether every free name in s's expression is bound
// outside the set of names the surrounding construct introduces (the loop
// counter/merge parameters, or the map/scan pattern and lambda parameters).
func boundOutside(s ir.Stmt, introduced ir.NameSet) bool {
	for n := range ir.FreeInExp(s.Exp) {
		if introduced.Has(n) {
			return false
		}
	}
	return true
}

// HoistFromLoop extracts pure, loop-invariant statements from the front of
// a DoLoop's body and returns them to be placed immediately before the
// loop statement, along with the loop's now-shorter body.
func HoistFromLoop(d ir.DoLoop) (before []ir.Stmt, rewritten ir.DoLoop, changed bool) {
	introduced := ir.NameSet{}
	for _, mp := range d.MergeParams() {
		introduced.Insert(mp.Param.Name)
	}
	switch f := d.Form.(type) {
	case ir.ForLoop:
		introduced.Insert(f.I)
	}

	remaining := d.Body.Stmts
	for len(remaining) > 0 {
		s := remaining[0]
		if !isPure(s.Exp) || !boundOutside(s, introduced) {
			break
		}
		before = append(before, s)
		remaining = remaining[1:]
		changed = true
	}
	d.Body = ir.Body{Stmts: remaining, Result: d.Body.Result, Dec: d.Body.Dec}
	return before, d, changed
}

// HoistFromBranches extracts a statement that both branches of an If bind
// identically at the front, when its free variables are bound outside the
// If. Like ruleBranchCSEHack, it removes that statement from both branches
// and places one copy before the If; unlike that rule, it only hoists
// expressions isPure accepts.
func HoistFromBranches(iff ir.If) (before []ir.Stmt, rewritten ir.If, changed bool) {
	if len(iff.True.Stmts) == 0 || len(iff.False.Stmts) == 0 {
		return nil, iff, false
	}
	a := iff.True.Stmts[0]
	b := iff.False.Stmts[0]
	if !sameShapeExp(a.Exp, b.Exp) || len(a.Pattern) != len(b.Pattern) {
		return nil, iff, false
	}
	if !isPure(a.Exp) {
		return nil, iff, false
	}
	if len(ir.FreeInExp(a.Exp)) > 0 {
		for n := range ir.FreeInExp(a.Exp) {
			if _, boundByTrue := findBinding(iff.True.Stmts[1:], n); boundByTrue {
				return nil, iff, false
			}
		}
	}
	subst := map[ir.VName]ir.VName{b.Pattern[0].Name: a.Pattern[0].Name}
	newFalse := ir.SubstituteNames(subst, ir.Body{Stmts: iff.False.Stmts[1:], Result: iff.False.Result})
	iff.True = ir.Body{Stmts: iff.True.Stmts[1:], Result: iff.True.Result}
	iff.False = newFalse
	return []ir.Stmt{a}, iff, true
}

func findBinding(stmts []ir.Stmt, n ir.VName) (ir.Stmt, bool) {
	for _, s := range stmts {
		for _, pe := range s.Pattern {
			if pe.Name.Equal(n) {
				return s, true
			}
		}
	}
	return ir.Stmt{}, false
}
