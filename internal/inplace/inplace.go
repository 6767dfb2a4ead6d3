// Package inplace implements the in-place lowering rewrite: when a
// loop's result r is used only through a single post-loop in-place update
// `x = y with [k] <- r`, thread the update into the loop itself so the
// loop writes directly into x's storage, eliminating the separate copy.
//
// Grounded on the forward alias/consumption analysis of internal/alias (the
// table this pass queries to prove the rewrite's preconditions) and on the DoLoop merge-parameter machinery in
// internal/ir/core.go.
package inplace

import (
	"futhark-core/internal/alias"
	"futhark-core/internal/ir"
	"futhark-core/internal/namesupply"
)

// RewriteProgram applies forwarding to every function of p.
func RewriteProgram(ns *namesupply.NameSource, p ir.Program) (ir.Program, error) {
	funs := make([]*ir.FunDef, len(p.Funs))
	for i, f := range p.Funs {
		nf := *f
		paramNames := ir.NewNameSet()
		for _, prm := range f.Params {
			paramNames.Insert(prm.Name)
		}
		at, err := alias.NewAnalyzer(f.Name).AnalyzeBody(f.Body)
		if err != nil {
			return ir.Program{}, err
		}
		nf.Body = rewriteBody(ns, at, paramNames, f.Body)
		funs[i] = &nf
	}
	return ir.Program{Lore: p.Lore, Funs: funs}, nil
}

// rewriteBody first descends into nested If/DoLoop bodies (forwarding is
// proposed bottom-up and committed at the earliest enclosing scope where
// they are safe), then looks for a forwardable loop/update pair at this
// level, repeating until no further candidate is found.
func rewriteBody(ns *namesupply.NameSource, at *alias.Table, bound ir.NameSet, b ir.Body) ir.Body {
	stmts := make([]ir.Stmt, len(b.Stmts))
	copy(stmts, b.Stmts)
	for i, s := range stmts {
		stmts[i] = descend(ns, at, bound, s)
	}

	for {
		idx, ok := findCandidate(at, bound, stmts)
		if !ok {
			break
		}
		stmts = forward(ns, stmts, idx)
	}
	return ir.Body{Stmts: stmts, Result: b.Result, Dec: b.Dec}
}

func descend(ns *namesupply.NameSource, at *alias.Table, bound ir.NameSet, s ir.Stmt) ir.Stmt {
	switch e := s.Exp.(type) {
	case ir.If:
		e.True = rewriteBody(ns, at, bound, e.True)
		e.False = rewriteBody(ns, at, bound, e.False)
		s.Exp = e
	case ir.DoLoop:
		inner := cloneSet(bound)
		for _, mp := range e.MergeParams() {
			inner.Insert(mp.Param.Name)
		}
		e.Body = rewriteBody(ns, at, inner, e.Body)
		s.Exp = e
	}
	return s
}

func cloneSet(s ir.NameSet) ir.NameSet {
	c := ir.NewNameSet()
	for n := range s {
		c.Insert(n)
	}
	return c
}

type candidate struct {
	loopIdx, updateIdx int
	loop               ir.DoLoop
	loopPat            ir.PatElem
	valIdx             int // index into loop.ValParams/loopPat's merge-param slot
	x, y               ir.VName
	slice              []ir.DimIndex
	updatePat          ir.PatElem
}

// findCandidate scans stmts for a DoLoop statement whose sole (or one of
// several) array result r is consumed by exactly one later Update
// `x = y with [k] <- r`, with every forwarding precondition proven against at.
func findCandidate(at *alias.Table, outerBound ir.NameSet, stmts []ir.Stmt) (candidate, bool) {
	boundBefore := cloneSet(outerBound)
	for i, s := range stmts {
		loop, isLoop := s.Exp.(ir.DoLoop)
		if !isLoop {
			for _, pe := range s.Pattern {
				boundBefore.Insert(pe.Name)
			}
			continue
		}

		for vi, pe := range s.Pattern {
			r := pe.Name
			if _, ok := pe.Type.(ir.Array); !ok {
				continue
			}
			updIdx, upd, ok := findSoleUpdate(stmts, i+1, r)
			if !ok {
				continue
			}
			if checkPreconditions(at, stmts, boundBefore, i, updIdx, r, upd) {
				return candidate{
					loopIdx:   i,
					updateIdx: updIdx,
					loop:      loop,
					loopPat:   pe,
					valIdx:    vi - len(loop.CtxParams),
					x:         upd.Pattern[0].Name,
					y:         upd.Exp.(ir.Update).Arr,
					slice:     upd.Exp.(ir.Update).Slice,
					updatePat: upd.Pattern[0],
				}, true
			}
		}
		for _, pe := range s.Pattern {
			boundBefore.Insert(pe.Name)
		}
	}
	return candidate{}, false
}

// findSoleUpdate finds the single statement after start that both reads r
// through an Update and is the only use of r anywhere after start
// (precondition 1: r not consumed again after the update).
func findSoleUpdate(stmts []ir.Stmt, start int, r ir.VName) (int, ir.Stmt, bool) {
	var foundIdx = -1
	var found ir.Stmt
	for i := start; i < len(stmts); i++ {
		s := stmts[i]
		upd, isUpdate := s.Exp.(ir.Update)
		usesR := ir.FreeInExp(s.Exp).Has(r)
		if isUpdate {
			if v, ok := upd.Value.(ir.Var); ok && v.Name == r {
				if foundIdx != -1 {
					return 0, ir.Stmt{}, false // r used more than once
				}
				foundIdx, found = i, s
				continue
			}
		}
		if usesR {
			// r is used by something other than the candidate update,
			// either before or after it: precondition 1 fails.
			return 0, ir.Stmt{}, false
		}
	}
	if foundIdx == -1 {
		return 0, ir.Stmt{}, false
	}
	return foundIdx, found, true
}

func checkPreconditions(at *alias.Table, stmts []ir.Stmt, boundBefore ir.NameSet, loopIdx, updateIdx int, r ir.VName, upd ir.Stmt) bool {
	u := upd.Exp.(ir.Update)

	// 2: k and y available before the loop.
	if !boundBefore.Has(u.Arr) {
		return false
	}
	for n := range freeInSlice(u.Slice) {
		if !boundBefore.Has(n) {
			return false
		}
	}

	// 3: x and r bound in the same body — true by construction (both are
	// pattern names of statements in this very stmts list).

	// 4: if x is consumed after the loop, r is not used after that point.
	// Already guaranteed by findSoleUpdate: r is used nowhere after
	// start except by upd itself, so there is nothing left to violate.
	if at.Consumed[upd.Pattern[0].Name] {
		// x itself consumed later: still fine, since r has no remaining uses.
		_ = stmts
	}

	// 5: size of r is loop-invariant — guaranteed by well-typed DoLoop
	// merge parameters sharing one fixed type across iterations.

	// 6: r comes from the loop statement itself, not a function parameter
	// — guaranteed by construction (findCandidate only looks at DoLoop
	// pattern names).

	// 7: y (or its aliases) not used inside the loop body.
	loop := stmts[loopIdx].Exp.(ir.DoLoop)
	free := ir.FreeInBody(loop.Body)
	for n := range at.AliasesOf(u.Arr) {
		if free.Has(n) {
			return false
		}
	}
	if free.Has(u.Arr) {
		return false
	}

	return true
}

func freeInSlice(slice []ir.DimIndex) ir.NameSet {
	acc := ir.NewNameSet()
	for _, d := range slice {
		switch dv := d.(type) {
		case ir.DimFix:
			insertFree(dv.I, acc)
		case ir.DimSlice:
			insertFree(dv.Start, acc)
			insertFree(dv.Count, acc)
			insertFree(dv.Stride, acc)
		}
	}
	return acc
}

func insertFree(se ir.SubExp, acc ir.NameSet) {
	if v, ok := se.(ir.Var); ok {
		acc.Insert(v.Name)
	}
}

// forward rewrites the loop at cand.loopIdx to carry x/y directly, dropping
// the separate Update statement and the loop's old r-producing merge slot.
func forward(ns *namesupply.NameSource, stmts []ir.Stmt, cand candidate) []ir.Stmt {
	loop := cand.loop
	valIdx := cand.valIdx
	oldMerge := loop.ValParams[valIdx]

	// cand.updatePat was already decorated by the explicit-allocations pass
	// (this pass runs last, after ExplicitMemory is established), so the
	// merge parameter and in-loop write this rewrite synthesizes for the
	// same name reuse that same MemSummary rather than going undecorated.
	xAcc := ir.Param{Name: cand.updatePat.Name, Type: oldMerge.Param.Type, Dec: cand.updatePat.Dec}
	newMerge := ir.MergeParam{Param: xAcc, Init: ir.Var{Name: cand.y}}

	newValParams := append([]ir.MergeParam{}, loop.ValParams...)
	newValParams[valIdx] = newMerge

	// The dropped merge slot's parameter name may still be read inside the
	// body (it carried last iteration's value); those reads now refer to the
	// accumulator that replaced it.
	body := ir.SubstituteNames(map[ir.VName]ir.VName{oldMerge.Param.Name: xAcc.Name}, loop.Body)

	oldResultIdx := len(loop.CtxParams) + valIdx
	computed := body.Result[oldResultIdx]
	writeName := ns.FreshLike(cand.updatePat.Name)
	newStmts := append([]ir.Stmt{}, body.Stmts...)
	newStmts = append(newStmts, ir.Stmt{
		Pattern: []ir.PatElem{{Name: writeName, Type: xAcc.Type, Dec: cand.updatePat.Dec}},
		Exp:     ir.Update{Arr: xAcc.Name, Slice: cand.slice, Value: computed},
	})
	newResult := append([]ir.SubExp{}, body.Result...)
	newResult[oldResultIdx] = ir.Var{Name: writeName}

	loop.ValParams = newValParams
	loop.Body = ir.Body{Stmts: newStmts, Result: newResult, Dec: body.Dec}

	out := make([]ir.Stmt, 0, len(stmts)-1)
	for i, s := range stmts {
		if i == cand.updateIdx {
			continue // folded into the loop
		}
		if i == cand.loopIdx {
			newPattern := append([]ir.PatElem{}, s.Pattern...)
			newPattern[len(loop.CtxParams)+valIdx] = cand.updatePat
			out = append(out, ir.Stmt{Pattern: newPattern, Certs: s.Certs, Exp: loop})
			continue
		}
		out = append(out, s)
	}
	return out
}
