package simplify

import (
	"futhark-core/internal/ir"
	"futhark-core/internal/namesupply"
)

// Rule is one entry in the rule-book: given the current symbol table, usage
// table, a name source for rules that must mint genuinely fresh bindings,
// and a statement, it either declines (nil, false) or proposes a
// replacement statement list.
//
// Rules are tried in registration order; the first to fire wins for a given
// statement on a given sweep.
type Rule func(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool)

// TopDownRules fire while descending into a body, in the order given here.
var TopDownRules = []Rule{
	ruleConstantFold,
	ruleAlgebraicIdentity,
	ruleIndexIntoReshape,
	ruleIndexIntoReplicate,
	ruleIndexIntoIota,
	ruleEmptySplitRemoval,
	ruleUnrollSingleIterationLoop,
	ruleLoopInvariantMergeHoist,
	ruleBranchConditionFolds,
	ruleBooleanBranchFlattening,
	ruleSimplifyBranchContext,
	ruleReshapeOfReshape,
	ruleIdentityReshapeRemoval,
	ruleCopyOfScratch,
	ruleCopyOfIota,
	ruleBranchCSEHack,
	ruleMapWriteFusion,
}

// BottomUpRules fire while ascending, after usage for the current body has
// been computed.
var BottomUpRules = []Rule{
	ruleDeadCodeElimination,
	ruleCommonSubexpressionElimination,
	ruleRemoveUnusedMergeParams,
	ruleRemoveDeadBranchResults,
}

func scalarType(t ir.Type) (ir.PrimType, bool) {
	s, ok := t.(ir.Scalar)
	if !ok {
		return 0, false
	}
	return s.Prim, true
}

func intVal(pv ir.PrimValue) (int64, bool) {
	iv, ok := pv.(ir.IntValue)
	if !ok {
		return 0, false
	}
	return iv.Val, true
}

func boolVal(pv ir.PrimValue) (bool, bool) {
	bv, ok := pv.(ir.BoolValue)
	return bool(bv), ok
}
