// Package doublebuf implements the double-buffering rewrite: every
// array-typed loop merge parameter that a kernel-bearing loop body may
// write into gets a second, ping-ponged buffer, so no iteration ever reads
// and writes the same backing memory.
//
// Grounded on ir.Scratch, the uninitialized pre-allocation primitive the
// core IR reserves for exactly this purpose (see its doc comment in
// internal/ir/basicop.go), and on the DoLoop merge-parameter split already
// generalized in internal/ir/core.go (CtxParams/ValParams/MergeParams).
package doublebuf

import (
	"futhark-core/internal/ir"
	"futhark-core/internal/ixfun"
	"futhark-core/internal/namesupply"
)

func primSize(p ir.PrimType) int64 {
	switch p {
	case ir.I8, ir.Bool:
		return 1
	case ir.I16:
		return 2
	case ir.I32, ir.F32:
		return 4
	case ir.I64, ir.F64:
		return 8
	default:
		return 0
	}
}

// constDims mirrors internal/explicitmem's own helper of the same name: the
// compile-time-known extent per dimension, 0 where the size is a variable.
func constDims(s ir.Shape) []int64 {
	out := make([]int64, len(s))
	for i, d := range s {
		f, ok := d.(ir.Free)
		if !ok {
			continue
		}
		if c, ok := f.Size.(ir.Constant); ok {
			if iv, ok := c.Value.(ir.IntValue); ok {
				out[i] = iv.Val
			}
		}
	}
	return out
}

// byteSize mirrors internal/explicitmem's own helper of the same name.
func byteSize(ns *namesupply.NameSource, arr ir.Array) (ir.SubExp, []ir.Stmt) {
	var stmts []ir.Stmt
	acc := ir.SubExp(ir.Constant{Value: ir.IntValue{Bits: ir.I64, Val: primSize(arr.Elem)}})
	for _, d := range arr.Shape {
		f, ok := d.(ir.Free)
		if !ok {
			continue
		}
		name := ns.Fresh("bytesize")
		stmts = append(stmts, ir.Stmt{
			Pattern: []ir.PatElem{{Name: name, Type: ir.Scalar{Prim: ir.I64}, Dec: ir.ScalarSummary()}},
			Exp:     ir.BinOp{Op: ir.Mul, Type: ir.I64, X: acc, Y: f.Size},
		})
		acc = ir.Var{Name: name}
	}
	return acc, stmts
}

// freshArrayMem allocates a brand new memory block sized for arr, returning
// the block's name and the statements producing it. Every synthesized array
// name this pass introduces needs its own correctly-decorated Dec: this
// pass runs after explicit-allocations, so nil or stale Decs are a lore
// violation, and the ping-ponged buffer this pass adds is never the same
// backing block as the array it was copied from.
func freshArrayMem(ns *namesupply.NameSource, arr ir.Array, base string) (ir.VName, []ir.Stmt) {
	size, stmts := byteSize(ns, arr)
	mem := ns.Fresh(base + "_mem")
	stmts = append(stmts, ir.Stmt{
		Pattern: []ir.PatElem{{Name: mem, Type: ir.Memory{Size: size, Space: ir.DefaultSpace}, Dec: ir.ScalarSummary()}},
		Exp:     ir.Alloc{Size: size, Space: ir.DefaultSpace},
	})
	return mem, stmts
}

// RewriteProgram applies the double-buffering rewrite to every loop whose
// body runs a kernel, in every function of p.
func RewriteProgram(ns *namesupply.NameSource, p ir.Program) ir.Program {
	funs := make([]*ir.FunDef, len(p.Funs))
	for i, f := range p.Funs {
		nf := *f
		nf.Body = RewriteBody(ns, f.Body)
		funs[i] = &nf
	}
	return ir.Program{Lore: p.Lore, Funs: funs}
}

// RewriteBody walks b's statements, descending into If and DoLoop bodies,
// rewriting every kernel-bearing loop it finds.
func RewriteBody(ns *namesupply.NameSource, b ir.Body) ir.Body {
	var out []ir.Stmt
	for _, s := range b.Stmts {
		out = append(out, rewriteStmt(ns, s)...)
	}
	return ir.Body{Stmts: out, Result: b.Result, Dec: b.Dec}
}

func rewriteStmt(ns *namesupply.NameSource, s ir.Stmt) []ir.Stmt {
	switch e := s.Exp.(type) {
	case ir.If:
		e.True = RewriteBody(ns, e.True)
		e.False = RewriteBody(ns, e.False)
		s.Exp = e
		return []ir.Stmt{s}
	case ir.DoLoop:
		return rewriteLoop(ns, s, e)
	default:
		return []ir.Stmt{s}
	}
}

// runsKernel reports whether b directly contains a kernel-bearing
// statement, the trigger condition for double buffering: a loop whose body is pure host code never
// aliases its merge array across iterations the way an in-place kernel
// write can, so it is left alone.
func runsKernel(b ir.Body) bool {
	for _, s := range b.Stmts {
		if _, ok := s.Exp.(ir.KernelOp); ok {
			return true
		}
	}
	return false
}

// rewriteLoop double-buffers every array-typed value merge parameter of a
// kernel-bearing loop. A loop's merge-parameter type never changes across
// iterations (a well-typed DoLoop requires it), so every array ValParam
// already satisfies the loop-invariant-size precondition the rewrite needs.
func rewriteLoop(ns *namesupply.NameSource, s ir.Stmt, d ir.DoLoop) []ir.Stmt {
	d.Body = RewriteBody(ns, d.Body)
	if !runsKernel(d.Body) {
		s.Exp = d
		return []ir.Stmt{s}
	}

	var prelude []ir.Stmt
	newVal := make([]ir.MergeParam, 0, len(d.ValParams)*4)
	newPattern := append([]ir.PatElem{}, s.Pattern[:len(d.CtxParams)]...)
	newBodyResult := append([]ir.SubExp{}, d.Body.Result[:len(d.CtxParams)]...)

	for i, mp := range d.ValParams {
		origPat := s.Pattern[len(d.CtxParams)+i]
		computed := d.Body.Result[len(d.CtxParams)+i]
		arr, isArr := mp.Param.Type.(ir.Array)
		if !isArr {
			newVal = append(newVal, mp)
			newPattern = append(newPattern, origPat)
			newBodyResult = append(newBodyResult, computed)
			continue
		}

		base := mp.Param.Name.Base
		direct := ixfun.Iota(constDims(arr.Shape))

		// Pre-loop: two fresh blocks. The initial value is copied into one
		// so neither ping-ponged slot ever aliases the caller's array; the
		// other starts as uninitialized scratch.
		bufBlk, bufBlkStmts := freshArrayMem(ns, arr, base+"_dbuf0")
		prelude = append(prelude, bufBlkStmts...)
		bufScratch := ns.Fresh(base + "_dbuf0")
		prelude = append(prelude, ir.Stmt{
			Pattern: []ir.PatElem{{Name: bufScratch, Type: arr, Dec: ir.MemSummary{Mem: bufBlk, IxFun: direct}}},
			Exp:     ir.Scratch{Elem: arr.Elem, Shape: arr.Shape},
		})

		valBlk, valBlkStmts := freshArrayMem(ns, arr, base+"_dbuf_init")
		prelude = append(prelude, valBlkStmts...)
		valScratch := ns.Fresh(base + "_dbuf_init")
		prelude = append(prelude, ir.Stmt{
			Pattern: []ir.PatElem{{Name: valScratch, Type: arr, Dec: ir.MemSummary{Mem: valBlk, IxFun: direct}}},
			Exp:     ir.Copy{Arr: copySource(mp.Init)},
		})

		// The backing memory is itself loop-carried, so the block behind the
		// value slot genuinely changes identity every iteration (the same
		// memory-merge-parameter machinery internal/explicitmem uses for a
		// loop's own merge variables, here with two blocks trading places).
		valMemParam := ir.MergeParam{
			Param: ir.Param{Name: ns.Fresh(base + "_val_mem"), Type: ir.Memory{Space: ir.DefaultSpace}, Dec: ir.ScalarSummary()},
			Init:  ir.Var{Name: valBlk},
		}
		bufMemParam := ir.MergeParam{
			Param: ir.Param{Name: ns.Fresh(base + "_buf_mem"), Type: ir.Memory{Space: ir.DefaultSpace}, Dec: ir.ScalarSummary()},
			Init:  ir.Var{Name: bufBlk},
		}
		valParam := mp.Param
		valParam.Dec = ir.MemSummary{Mem: valMemParam.Param.Name, IxFun: direct}
		bufParam := ir.Param{Name: ns.Fresh(base + "_dbuf"), Type: arr,
			Dec: ir.MemSummary{Mem: bufMemParam.Param.Name, IxFun: direct}}

		newVal = append(newVal, valMemParam, bufMemParam)
		newVal = append(newVal, ir.MergeParam{Param: valParam, Init: ir.Var{Name: valScratch}})
		newVal = append(newVal, ir.MergeParam{Param: bufParam, Init: ir.Var{Name: bufScratch}})

		valMemOut := ns.Fresh(base + "_val_mem_out")
		bufMemOut := ns.Fresh(base + "_buf_mem_out")
		newPattern = append(newPattern,
			ir.PatElem{Name: valMemOut, Type: ir.Memory{Space: ir.DefaultSpace}, Dec: ir.ScalarSummary()},
			ir.PatElem{Name: bufMemOut, Type: ir.Memory{Space: ir.DefaultSpace}, Dec: ir.ScalarSummary()})
		origPat.Dec = ir.MemSummary{Mem: valMemOut, IxFun: direct}
		newPattern = append(newPattern, origPat)
		bufOut := ns.Fresh(base + "_dbuf_out")
		newPattern = append(newPattern, ir.PatElem{Name: bufOut, Type: arr, Dec: ir.MemSummary{Mem: bufMemOut, IxFun: direct}})

		// End-of-iteration: the freshly computed value is copied into the
		// inert block (the one the buffer parameter names), and the two
		// memory names swap in the result. Next iteration's value slot is
		// backed by the block just written, its buffer by the block whose
		// contents have just been superseded.
		copiedName := ns.Fresh(base + "_dbuf_copy")
		d.Body.Stmts = append(d.Body.Stmts, ir.Stmt{
			Pattern: []ir.PatElem{{Name: copiedName, Type: arr, Dec: ir.MemSummary{Mem: bufMemParam.Param.Name, IxFun: direct}}},
			Exp:     ir.Copy{Arr: copySource(computed)},
		})
		newBodyResult = append(newBodyResult,
			ir.Var{Name: bufMemParam.Param.Name}, // next value block: just written
			ir.Var{Name: valMemParam.Param.Name}, // next buffer block: now inert
			ir.Var{Name: copiedName},             // next value
			ir.Var{Name: valParam.Name})          // next buffer contents, free to overwrite
	}

	d.Body.Result = newBodyResult
	d.ValParams = newVal
	s.Exp = d
	s.Pattern = newPattern
	return append(prelude, s)
}

// copySource extracts the VName a Copy needs from a SubExp that is assumed
// (by construction here) to always be a Var: every loop-carried array
// value is bound by a prior statement or merge parameter, never a literal.
func copySource(e ir.SubExp) ir.VName {
	if v, ok := e.(ir.Var); ok {
		return v.Name
	}
	return ir.VName{}
}
