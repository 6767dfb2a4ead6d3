package kernels

import (
	"futhark-core/internal/ir"
	"futhark-core/internal/namesupply"
)

// ConstructKernel emits the flattening prologue (multiplying nesting
// widths into a flat thread count is left to the caller, since prologue
// placement depends on where in the body the nest's widths become
// visible) and the MapKernelOp itself: the deduplicated kernel inputs and
// the per-thread return types taken from the target statement's pattern.
func ConstructKernel(ns *namesupply.NameSource, kn *KernelNest) ir.MapKernelOp {
	dims := make([]ir.SpaceDim, len(kn.Dims))
	for i, d := range kn.Dims {
		dims[i] = ir.SpaceDim{Gtid: ns.Fresh("gtid"), Bound: d.Bound}
	}
	inputs := dedupeInputs(kn.Inputs)
	// Rewire each input's index expression onto this kernel's own gtids,
	// one per dimension, outermost first.
	for i := range inputs {
		idx := make([]ir.SubExp, len(dims))
		for d := range dims {
			idx[d] = ir.Var{Name: dims[d].Gtid}
		}
		inputs[i].IndexExp = idx
	}

	retTypes := make([]ir.Type, len(kn.Target.Stmt.Pattern))
	for i, pe := range kn.Target.Stmt.Pattern {
		retTypes[i] = pe.Type
	}

	body := ir.Body{
		Stmts:  []ir.Stmt{kn.Target.Stmt},
		Result: patternToResult(kn.Target.Stmt.Pattern),
	}

	return ir.MapKernelOp{
		SpaceDims:   dims,
		Inputs:      inputs,
		Body:        body,
		ReturnTypes: retTypes,
	}
}

func patternToResult(pat []ir.PatElem) []ir.SubExp {
	out := make([]ir.SubExp, len(pat))
	for i, pe := range pat {
		out[i] = ir.Var{Name: pe.Name}
	}
	return out
}

func dedupeInputs(inputs []ir.KernelInput) []ir.KernelInput {
	seen := ir.NameSet{}
	var out []ir.KernelInput
	for _, in := range inputs {
		if seen.Has(in.Arr) {
			continue
		}
		seen.Insert(in.Arr)
		out = append(out, in)
	}
	return out
}

// ExpandTarget restores an identity-mapped output — a map body that simply
// returns one of its own free variables unchanged — at the use site rather
// than materializing it inside the kernel.
// It returns a single statement binding kernelPattern[patIndex] to
// identitySource, or nil when patIndex is out of range.
func ExpandTarget(kernelPattern []ir.PatElem, patIndex int, identitySource ir.SubExp) []ir.Stmt {
	if patIndex < 0 || patIndex >= len(kernelPattern) {
		return nil
	}
	return []ir.Stmt{
		{Pattern: []ir.PatElem{kernelPattern[patIndex]}, Exp: ir.SubExpOp{SubExp: identitySource}},
	}
}

// ExtractFromMap attempts to turn a single top-level Map statement into a
// kernel statement, distributing it around the (at most one level deep)
// nesting its own lambda forms. A lambda whose body is a single pure
// BasicOp statement is the distributable case this function handles; a
// lambda containing further maps, branches, or loops is left as a Map;
// extraction makes a single pass and does not revisit it.
func ExtractFromMap(ns *namesupply.NameSource, pattern []ir.PatElem, m ir.Map) (ir.Stmt, bool) {
	if len(m.Lambda.Body.Stmts) != 1 {
		return ir.Stmt{}, false
	}
	inner := m.Lambda.Body.Stmts[0]
	if !isDistributableBasicOp(inner.Exp) {
		return ir.Stmt{}, false
	}

	params := make([]ParamArr, 0, len(m.Arrs))
	bound := ir.NameSet{}
	for i, p := range m.Lambda.Params {
		if i < len(m.Arrs) {
			params = append(params, ParamArr{Param: p.Name, Arr: m.Arrs[i]})
		}
	}
	for _, pe := range inner.Pattern {
		bound.Insert(pe.Name)
	}

	nesting := Nesting{{Pattern: pattern, W: m.W, Params: params, Bound: bound}}
	kn, ok := TryDistribute(nesting, Target{Stmt: inner})
	if !ok {
		return ir.Stmt{}, false
	}
	kop := ConstructKernel(ns, kn)
	return ir.Stmt{Pattern: pattern, Exp: kop}, true
}

// ExtractFromReduce turns a flat top-level Reduce into a segmented-reduction
// kernel (see ConstructSegRed for what the SegRedOp records). The reduce's element
// parameters (the ones after the accumulators) name the per-thread inputs;
// a lambda whose parameter count disagrees with its accumulators plus input
// arrays is malformed and is left for the typechecker to reject.
func ExtractFromReduce(ns *namesupply.NameSource, pattern []ir.PatElem, red ir.Reduce) (ir.Stmt, bool) {
	if red.Lambda == nil || len(red.Arrs) == 0 {
		return ir.Stmt{}, false
	}
	if len(red.Lambda.Params) != len(red.Nes)+len(red.Arrs) {
		return ir.Stmt{}, false
	}

	kn := &KernelNest{Dims: []ir.SpaceDim{{Bound: red.W}}}
	elemParams := red.Lambda.Params[len(red.Nes):]
	for i, arr := range red.Arrs {
		kn.Inputs = append(kn.Inputs, ir.KernelInput{
			Name: elemParams[i].Name,
			Arr:  arr,
			Type: elemParams[i].Type,
		})
	}
	kop := ConstructSegRed(ns, kn, red, DefaultLockStepWidth)
	return ir.Stmt{Pattern: pattern, Exp: kop}, true
}

// ExtractFromScan is ExtractFromReduce's counterpart for Scan.
func ExtractFromScan(ns *namesupply.NameSource, pattern []ir.PatElem, sc ir.Scan) (ir.Stmt, bool) {
	if sc.Lambda == nil || len(sc.Arrs) == 0 {
		return ir.Stmt{}, false
	}
	if len(sc.Lambda.Params) != len(sc.Nes)+len(sc.Arrs) {
		return ir.Stmt{}, false
	}

	kn := &KernelNest{Dims: []ir.SpaceDim{{Bound: sc.W}}}
	elemParams := sc.Lambda.Params[len(sc.Nes):]
	for i, arr := range sc.Arrs {
		kn.Inputs = append(kn.Inputs, ir.KernelInput{
			Name: elemParams[i].Name,
			Arr:  arr,
			Type: elemParams[i].Type,
		})
	}
	kop := ConstructSegScan(ns, kn, sc, DefaultLockStepWidth)
	return ir.Stmt{Pattern: pattern, Exp: kop}, true
}

func isDistributableBasicOp(e ir.Exp) bool {
	switch e.(type) {
	case ir.BinOp, ir.CmpOp, ir.UnOp, ir.ConvOp, ir.Index, ir.SubExpOp:
		return true
	}
	return false
}

// ExtractFunction rewrites the Map, Reduce and Scan statements in fn's body
// into kernel statements where possible, including those inside If/DoLoop
// bodies (extractBody recurses into them), in a single pass; statements
// that don't distribute are left untouched.
func ExtractFunction(ns *namesupply.NameSource, fn *ir.FunDef) {
	fn.Body = extractBody(ns, fn.Body)
}

// ExtractProgram runs ExtractFunction over every function of p, the shape
// internal/pass.Pass.Run expects from a pipeline stage.
func ExtractProgram(ns *namesupply.NameSource, p ir.Program) (ir.Program, error) {
	funs := make([]*ir.FunDef, len(p.Funs))
	for i, f := range p.Funs {
		nf := *f
		ExtractFunction(ns, &nf)
		funs[i] = &nf
	}
	return ir.Program{Lore: p.Lore, Funs: funs}, nil
}

func extractBody(ns *namesupply.NameSource, b ir.Body) ir.Body {
	out := make([]ir.Stmt, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		switch e := s.Exp.(type) {
		case ir.Map:
			if ks, ok := ExtractFromMap(ns, s.Pattern, e); ok {
				ks = degenerate(ks)
				out = append(out, ks)
				continue
			}
			out = append(out, s)
		case ir.Reduce:
			if ks, ok := ExtractFromReduce(ns, s.Pattern, e); ok {
				out = append(out, ks)
				continue
			}
			out = append(out, s)
		case ir.Scan:
			if ks, ok := ExtractFromScan(ns, s.Pattern, e); ok {
				out = append(out, ks)
				continue
			}
			out = append(out, s)
		case ir.If:
			e.True = extractBody(ns, e.True)
			e.False = extractBody(ns, e.False)
			s.Exp = e
			out = append(out, s)
		case ir.DoLoop:
			e.Body = extractBody(ns, e.Body)
			s.Exp = e
			out = append(out, s)
		default:
			out = append(out, s)
		}
	}
	return ir.Body{Stmts: out, Result: b.Result, Dec: b.Dec}
}
