package kernels

import "futhark-core/internal/ir"

// degenerate recognizes a just-constructed kernel statement whose body is
// trivial enough to run on the host instead, and rewrites it to the
// corresponding BasicOp. Only the
// identity-map case (kernel body just renames its single input) is
// recognized as a Copy; anything else is returned unchanged.
//
// TODO: detect the Rearrange/Reshape degenerate cases too (a single-input
// kernel whose body permutes or reinterprets the index space without
// touching values) — needs the index-function composition from
// internal/ixfun to recognize a permutation versus a genuine gather.
func degenerate(s ir.Stmt) ir.Stmt {
	kop, ok := s.Exp.(ir.MapKernelOp)
	if !ok || len(kop.Inputs) != 1 || len(kop.SpaceDims) != 1 {
		return s
	}
	if len(kop.Body.Stmts) != 1 {
		return s
	}
	inner := kop.Body.Stmts[0]
	sub, ok := inner.Exp.(ir.SubExpOp)
	if !ok {
		return s
	}
	v, ok := sub.SubExp.(ir.Var)
	if !ok || !v.Name.Equal(kop.Inputs[0].Name) {
		return s
	}
	return ir.Stmt{Pattern: s.Pattern, Certs: s.Certs, Exp: ir.Copy{Arr: kop.Inputs[0].Arr}}
}
