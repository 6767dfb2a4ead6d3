// Package explicitmem lowers the abstract Array type into explicit Memory
// blocks paired with index functions: the last lore transition in the
// pipeline, from Kernels to ExplicitMemory, followed by the double-buffering
// and in-place-lowering passes.
//
// Built around a side-table memory descriptor attached to SSA values that
// may alias a region: a full MemSummary (owning block + index function)
// attached to every array-typed name, with allocation made explicit as a
// new Alloc statement rather than an implicit side effect.
package explicitmem

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

// memFacts tracks, per array-typed name currently in scope, which memory
// block backs it and the index function addressing it into that block —
// exactly the information a MemSummary carries, kept here so later
// statements in the same body can derive their own index function from an
// earlier one.
type memFacts struct {
	mem   map[ir.VName]ir.VName
	ixfun map[ir.VName]*ixfun.IxFun
}

func newMemFacts() *memFacts {
	return &memFacts{mem: map[ir.VName]ir.VName{}, ixfun: map[ir.VName]*ixfun.IxFun{}}
}

func (m *memFacts) set(n ir.VName, mem ir.VName, fn *ixfun.IxFun) {
	m.mem[n] = mem
	m.ixfun[n] = fn
}

func (m *memFacts) clone() *memFacts {
	c := newMemFacts()
	for k, v := range m.mem {
		c.mem[k] = v
	}
	for k, v := range m.ixfun {
		c.ixfun[k] = v
	}
	return c
}

// AllocateProgram rewrites every function in p from the Kernels lore to
// ExplicitMemory.
func AllocateProgram(ns *namesupply.NameSource, p ir.Program) ir.Program {
	funs := make([]*ir.FunDef, len(p.Funs))
	for i, f := range p.Funs {
		funs[i] = AllocateFunction(ns, f)
	}
	return ir.Program{Lore: ir.ExplicitMemory, Funs: funs}
}

// AllocateFunction splits every Array parameter into a memory parameter and
// the original (now MemSummary-decorated) parameter, then lowers the body.
func AllocateFunction(ns *namesupply.NameSource, fn *ir.FunDef) *ir.FunDef {
	facts := newMemFacts()
	newParams := make([]ir.Param, 0, len(fn.Params)*2)
	for _, p := range fn.Params {
		if arr, ok := p.Type.(ir.Array); ok {
			memName := ns.Fresh(p.Name.Base + "_mem")
			// A parameter's backing block is caller-supplied: its byte size
			// is whatever the caller already allocated, not something this
			// function computes.
			newParams = append(newParams, ir.Param{Name: memName, Type: ir.Memory{Space: ir.DefaultSpace}})
			direct := ixfun.Iota(constDims(arr.Shape))
			newParams = append(newParams, ir.Param{Name: p.Name, Type: p.Type, Dec: ir.MemSummary{Mem: memName, IxFun: direct}})
			facts.set(p.Name, memName, direct)
		} else {
			newParams = append(newParams, ir.Param{Name: p.Name, Type: p.Type, Dec: ir.ScalarSummary()})
		}
	}
	body := allocateBody(ns, facts, fn.Body)
	out := *fn
	out.Params = newParams
	out.Body = body
	return &out
}

// constDims extracts each dimension's size as a compile-time int64 for the
// ixfun term algebra, which (unlike the IR's own Shape) only models
// statically-known extents. A dimension that is not a constant SubExp (a
// size variable, or an Ext placeholder) is recorded as 0: the resulting
// index function's ResultShape is then only informative, never relied on
// for bounds checking, which still runs against the IR-level Shape.
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

func allocateBody(ns *namesupply.NameSource, outer *memFacts, b ir.Body) ir.Body {
	facts := outer.clone()
	var out []ir.Stmt
	for _, s := range b.Stmts {
		stmts := allocateStmt(ns, facts, s)
		out = append(out, stmts...)
	}
	return ir.Body{Stmts: out, Result: b.Result, Dec: b.Dec}
}

func allocateStmt(ns *namesupply.NameSource, facts *memFacts, s ir.Stmt) []ir.Stmt {
	switch e := s.Exp.(type) {
	case ir.If:
		e.True = allocateBody(ns, facts, e.True)
		e.False = allocateBody(ns, facts, e.False)
		s.Exp = e
	case ir.DoLoop:
		return allocateLoop(ns, facts, s, e)
	}

	// Results written by a kernel live in device-global memory; everything
	// the host computes stays in the default space.
	space := ir.DefaultSpace
	if _, isKernel := s.Exp.(ir.KernelOp); isKernel {
		space = ir.SpaceGlobal
	}

	var prelude []ir.Stmt
	if seg, isSegRed := s.Exp.(ir.SegRedOp); isSegRed {
		prelude = append(prelude, localAccumulators(ns, seg)...)
	}

	pattern := make([]ir.PatElem, len(s.Pattern))
	for i, pe := range s.Pattern {
		arr, isArr := pe.Type.(ir.Array)
		if !isArr {
			pe.Dec = ir.ScalarSummary()
			pattern[i] = pe
			continue
		}
		mem, fn, extra := memSummaryFor(ns, facts, s.Exp, i, arr, space)
		prelude = append(prelude, extra...)
		pe.Dec = ir.MemSummary{Mem: mem, IxFun: fn}
		facts.set(pe.Name, mem, fn)
		pattern[i] = pe
	}
	s.Pattern = pattern
	return append(prelude, s)
}

// localAccumulators emits one workgroup-local scratch block per reduction
// accumulator, sized workgroup_size times the accumulator's element width.
func localAccumulators(ns *namesupply.NameSource, seg ir.SegRedOp) []ir.Stmt {
	if seg.WorkgroupSize == nil {
		return nil
	}
	var out []ir.Stmt
	for _, t := range seg.ReturnTypes {
		sc, ok := t.(ir.Scalar)
		if !ok {
			continue
		}
		szName := ns.Fresh("local_bytes")
		out = append(out, ir.Stmt{
			Pattern: []ir.PatElem{{Name: szName, Type: ir.Scalar{Prim: ir.I64}, Dec: ir.ScalarSummary()}},
			Exp: ir.BinOp{Op: ir.Mul, Type: ir.I64,
				X: seg.WorkgroupSize,
				Y: ir.Constant{Value: ir.IntValue{Bits: ir.I64, Val: primSize(sc.Prim)}}},
		})
		memName := ns.Fresh("red_local")
		out = append(out, ir.Stmt{
			Pattern: []ir.PatElem{{Name: memName, Type: ir.Memory{Size: ir.Var{Name: szName}, Space: ir.SpaceLocal}, Dec: ir.ScalarSummary()}},
			Exp:     ir.Alloc{Size: ir.Var{Name: szName}, Space: ir.SpaceLocal},
		})
	}
	return out
}

// memSummaryFor decides the (memory, index function) pair for the i'th
// array result of exp, emitting an Alloc statement first when the result
// needs fresh storage, or deriving a view index function from
// an already-known source array's when the op is a pure reshape/view.
func memSummaryFor(ns *namesupply.NameSource, facts *memFacts, exp ir.Exp, resultIdx int, arr ir.Array, space ir.Space) (ir.VName, *ixfun.IxFun, []ir.Stmt) {
	switch ev := exp.(type) {
	case ir.SubExpOp:
		if v, ok := ev.SubExp.(ir.Var); ok {
			if mem, ok := facts.mem[v.Name]; ok {
				return mem, facts.ixfun[v.Name], nil
			}
		}
	case ir.Reshape:
		if mem, ok := facts.mem[ev.Arr]; ok {
			if fn := facts.ixfun[ev.Arr].Reshape(constDims(ev.NewShape)); fn != nil {
				return mem, fn, nil
			}
		}
	case ir.Rearrange:
		if mem, ok := facts.mem[ev.Arr]; ok {
			return mem, facts.ixfun[ev.Arr].Permute(ev.Perm), nil
		}
	case ir.Rotate:
		if mem, ok := facts.mem[ev.Arr]; ok {
			return mem, facts.ixfun[ev.Arr].Rotate(), nil
		}
	case ir.Update:
		// In-place: the result reuses the consumed array's own block.
		if mem, ok := facts.mem[ev.Arr]; ok {
			return mem, facts.ixfun[ev.Arr], nil
		}
	}

	// Fresh storage: compute the byte size and allocate.
	mem := ns.Fresh("mem")
	size, sizeStmts := byteSize(ns, arr)
	alloc := ir.Stmt{
		Pattern: []ir.PatElem{{Name: mem, Type: ir.Memory{Size: size, Space: space}, Dec: ir.ScalarSummary()}},
		Exp:     ir.Alloc{Size: size, Space: space},
	}
	fn := ixfun.Iota(constDims(arr.Shape))
	return mem, fn, append(sizeStmts, alloc)
}

// MergePattern orders a memory pat-elem immediately before the value
// pat-elem it backs — the one convention every call site that synthesizes
// an array-producing pattern must follow, factored out so the
// ordering is enforced here rather than composed by hand at each site.
func MergePattern(mem, value ir.PatElem) []ir.PatElem {
	return []ir.PatElem{mem, value}
}

// allocateLoop rewrites a DoLoop's array-typed value merge parameters into
// (memory, value) pairs, pairing each with a memory merge parameter whose
// initial value is either the init array's own backing block (the common
// case: the loop reuses the caller's storage) or a fresh allocation when
// the init has no tracked block. The loop body re-yields the same memory
// merge name each iteration, which is only sound when the array's size is
// loop-invariant. A loop whose accumulator changes size between iterations
// is not detected: it gets the same pairing, and no per-iteration Alloc is
// inserted for it.
func allocateLoop(ns *namesupply.NameSource, facts *memFacts, s ir.Stmt, d ir.DoLoop) []ir.Stmt {
	var prelude []ir.Stmt

	newCtx := make([]ir.MergeParam, len(d.CtxParams))
	newCtxPat := make([]ir.PatElem, len(d.CtxParams))
	for i, mp := range d.CtxParams {
		mp.Param.Dec = ir.ScalarSummary()
		newCtx[i] = mp
		pe := s.Pattern[i]
		pe.Dec = ir.ScalarSummary()
		newCtxPat[i] = pe
	}

	bodyFacts := facts.clone()
	var newVal []ir.MergeParam
	var newValPat []ir.PatElem
	// memNameForValParam[i] is non-empty exactly when ValParams[i] is an
	// array, naming the memory merge parameter that carries it through the
	// loop body — needed below to patch the body's own Result list.
	memNameForValParam := make([]ir.VName, len(d.ValParams))

	for i, mp := range d.ValParams {
		origPat := s.Pattern[len(d.CtxParams)+i]
		arr, isArr := mp.Param.Type.(ir.Array)
		if !isArr {
			mp.Param.Dec = ir.ScalarSummary()
			newVal = append(newVal, mp)
			origPat.Dec = ir.ScalarSummary()
			newValPat = append(newValPat, origPat)
			continue
		}

		memInit, ok := knownMem(facts, mp.Init)
		if !ok {
			size, sizeStmts := byteSize(ns, arr)
			prelude = append(prelude, sizeStmts...)
			allocMem := ns.Fresh(mp.Param.Name.Base + "_mem")
			prelude = append(prelude, ir.Stmt{
				Pattern: []ir.PatElem{{Name: allocMem, Type: ir.Memory{Size: size, Space: ir.DefaultSpace}, Dec: ir.ScalarSummary()}},
				Exp:     ir.Alloc{Size: size, Space: ir.DefaultSpace},
			})
			memInit = ir.Var{Name: allocMem}
		}

		memMergeName := ns.Fresh(mp.Param.Name.Base + "_mem_merge")
		memOutName := ns.Fresh(mp.Param.Name.Base + "_mem")
		memMergeParam := ir.MergeParam{
			Param: ir.Param{Name: memMergeName, Type: ir.Memory{Space: ir.DefaultSpace}},
			Init:  memInit,
		}
		memOutPat := ir.PatElem{Name: memOutName, Type: ir.Memory{Space: ir.DefaultSpace}}

		direct := ixfun.Iota(constDims(arr.Shape))
		valParam := mp.Param
		valParam.Dec = ir.MemSummary{Mem: memMergeName, IxFun: direct}
		origPat.Dec = ir.MemSummary{Mem: memOutName, IxFun: direct}

		newVal = append(newVal, memMergeParam, ir.MergeParam{Param: valParam, Init: mp.Init})
		newValPat = append(newValPat, MergePattern(memOutPat, origPat)...)

		bodyFacts.set(valParam.Name, memMergeName, direct)
		facts.set(origPat.Name, memOutName, direct)
		memNameForValParam[i] = memMergeName
	}

	body := allocateBody(ns, bodyFacts, d.Body)
	body.Result = rebuildLoopResult(d, body.Result, memNameForValParam)

	d.CtxParams = newCtx
	d.ValParams = newVal
	d.Body = body
	s.Exp = d
	s.Pattern = append(newCtxPat, newValPat...)
	return append(prelude, s)
}

// rebuildLoopResult expands the loop body's original result list (one
// SubExp per old merge parameter) to one per new merge parameter, yielding
// the carried memory name for every array value parameter right before
// that parameter's own result.
func rebuildLoopResult(d ir.DoLoop, oldResult []ir.SubExp, memNames []ir.VName) []ir.SubExp {
	nCtx := len(d.CtxParams)
	out := append([]ir.SubExp{}, oldResult[:nCtx]...)
	for i := range d.ValParams {
		if memNames[i] != (ir.VName{}) {
			out = append(out, ir.Var{Name: memNames[i]})
		}
		out = append(out, oldResult[nCtx+i])
	}
	return out
}

// knownMem reports the memory block already backing init, when init names
// a variable this body already tracked.
func knownMem(facts *memFacts, init ir.SubExp) (ir.SubExp, bool) {
	v, ok := init.(ir.Var)
	if !ok {
		return nil, false
	}
	mem, ok := facts.mem[v.Name]
	if !ok {
		return nil, false
	}
	return ir.Var{Name: mem}, true
}

// byteSize emits the statements computing the product of arr's dimensions
// times its element width, returning the SubExp naming the final product.
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
