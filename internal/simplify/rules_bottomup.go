package simplify

import (
	"futhark-core/internal/ir"
	"futhark-core/internal/namesupply"
)

// ruleDeadCodeElimination drops a statement none of whose pattern names are
// used later in the body and whose result, if any, is not itself the body's
// output. A statement with side effects (Update, Write, Assert, Apply) is
// never dropped even when unused, since its effect — consuming an array,
// raising a runtime error, calling a function — is observable independent of
// its bound names. SOACs and kernel ops carry no such carve-out: they are
// pure by construction in this IR, so an unused one is dead code like any
// other (a fused-away Map is the canonical case).
func ruleDeadCodeElimination(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	if hasSideEffect(s.Exp) {
		return nil, false
	}
	if ut.StmtUsed(s) {
		return nil, false
	}
	return []ir.Stmt{}, true
}

func hasSideEffect(e ir.Exp) bool {
	switch e.(type) {
	case ir.Update, ir.Write, ir.Assert, ir.Apply:
		return true
	}
	return false
}

// ruleRemoveUnusedMergeParams drops a DoLoop merge parameter (context or
// value) whose loop-exit result is unused and whose name is not referenced
// by the loop body itself, while preserving any parameter still referenced
// by the shape of a value parameter that stays.
func ruleRemoveUnusedMergeParams(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	loop, ok := s.Exp.(ir.DoLoop)
	if !ok {
		return nil, false
	}
	merges := loop.MergeParams()
	if len(merges) != len(s.Pattern) || len(merges) != len(loop.Body.Result) {
		return nil, false
	}

	bodyUsed := ir.FreeInBody(loop.Body)
	neededByShape := ir.NewNameSet()
	for _, mp := range loop.ValParams {
		if arr, ok := mp.Param.Type.(ir.Array); ok {
			for _, d := range arr.Shape {
				if free, ok := d.(ir.Free); ok {
					if v, ok := free.Size.(ir.Var); ok {
						neededByShape.Insert(v.Name)
					}
				}
			}
		}
	}

	keep := make([]bool, len(merges))
	anyDropped := false
	for i, mp := range merges {
		switch {
		case ut.Used(s.Pattern[i].Name), bodyUsed.Has(mp.Param.Name), neededByShape.Has(mp.Param.Name):
			keep[i] = true
		default:
			anyDropped = true
		}
	}
	if !anyDropped {
		return nil, false
	}

	var newCtx, newVal []ir.MergeParam
	var newPattern []ir.PatElem
	var newResult []ir.SubExp
	for i, mp := range merges {
		if !keep[i] {
			continue
		}
		if i < len(loop.CtxParams) {
			newCtx = append(newCtx, mp)
		} else {
			newVal = append(newVal, mp)
		}
		newPattern = append(newPattern, s.Pattern[i])
		newResult = append(newResult, loop.Body.Result[i])
	}
	newBody := loop.Body
	newBody.Result = newResult
	newLoop := loop
	newLoop.CtxParams = newCtx
	newLoop.ValParams = newVal
	newLoop.Body = newBody
	return []ir.Stmt{{Pattern: newPattern, Certs: s.Certs, Exp: newLoop}}, true
}

// ruleRemoveDeadBranchResults drops an If's result positions whose pattern
// name is unused afterward, shrinking both branches' Result tuples and the
// statement's own Pattern to match.
func ruleRemoveDeadBranchResults(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	iff, ok := s.Exp.(ir.If)
	if !ok {
		return nil, false
	}
	if len(s.Pattern) != len(iff.True.Result) || len(s.Pattern) != len(iff.False.Result) || len(s.Pattern) != len(iff.RetType) {
		return nil, false
	}

	var newPattern []ir.PatElem
	var newTrueResult, newFalseResult []ir.SubExp
	var newRetType []ir.Type
	anyDropped := false
	for i, pe := range s.Pattern {
		if ut.Used(pe.Name) {
			newPattern = append(newPattern, pe)
			newTrueResult = append(newTrueResult, iff.True.Result[i])
			newFalseResult = append(newFalseResult, iff.False.Result[i])
			newRetType = append(newRetType, iff.RetType[i])
		} else {
			anyDropped = true
		}
	}
	if !anyDropped {
		return nil, false
	}
	if len(newPattern) == 0 {
		return []ir.Stmt{}, true
	}

	newIf := iff
	newIf.True.Result = newTrueResult
	newIf.False.Result = newFalseResult
	newIf.RetType = newRetType
	return []ir.Stmt{{Pattern: newPattern, Certs: s.Certs, Exp: newIf}}, true
}

// ruleCommonSubexpressionElimination rewrites a statement whose expression
// is syntactically identical to an earlier, still-in-scope binding into a
// rename of that earlier binding.
// Expressions that may be consumed downstream (anything producing an array)
// are excluded: two syntactically-equal array-producing expressions are not
// safe to collapse into one binding when either result might later be
// consumed, since consuming the shared result would then consume both
// original values.
func ruleCommonSubexpressionElimination(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	if len(s.Pattern) != 1 {
		return nil, false
	}
	if _, isArray := s.Pattern[0].Type.(ir.Array); isArray {
		return nil, false
	}
	var repl []ir.Stmt
	st.InOrder(func(n ir.VName, e Entry) bool {
		if n.Equal(s.Pattern[0].Name) {
			return false // only an earlier binding may absorb this one
		}
		if e.IsMerge || e.Expr == nil {
			return true
		}
		if _, isArray := e.Type.(ir.Array); isArray {
			return true
		}
		if sameShapeExp(e.Expr, s.Exp) {
			repl = replace(s, ir.Var{Name: n})
			return false
		}
		return true
	})
	if repl == nil {
		return nil, false
	}
	return repl, true
}
