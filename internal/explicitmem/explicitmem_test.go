package explicitmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futhark-core/internal/ir"
	"futhark-core/internal/namesupply"
)

func v(base string, tag uint64) ir.VName { return namesupply.VName{Base: base, Tag: tag} }

func c(val int64) ir.SubExp { return ir.Constant{Value: ir.IntValue{Bits: ir.I64, Val: val}} }

func arrType(n int64) ir.Array {
	return ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: c(n)}}}
}

func TestAllocateFunctionSplitsArrayParamIntoMemAndValue(t *testing.T) {
	x := v("x", 1)
	fn := &ir.FunDef{
		Name:     "f",
		Params:   []ir.Param{{Name: x, Type: arrType(4)}},
		RetType:  []ir.Type{arrType(4)},
		Body:     ir.Body{Result: []ir.SubExp{ir.Var{Name: x}}},
	}
	ns := namesupply.New(10)
	out := AllocateFunction(ns, fn)
	require.Len(t, out.Params, 2, "an array parameter becomes a memory parameter plus the value parameter")
	assert.IsType(t, ir.Memory{}, out.Params[0].Type)
	assert.Equal(t, x, out.Params[1].Name, "the original parameter name is preserved")
	dec, ok := out.Params[1].Dec.(ir.MemSummary)
	require.True(t, ok)
	assert.False(t, dec.IsScalar)
	assert.Equal(t, out.Params[0].Name, dec.Mem)
}

func TestAllocateFunctionGivesScalarParamsScalarSummary(t *testing.T) {
	n := v("n", 1)
	fn := &ir.FunDef{
		Name:    "f",
		Params:  []ir.Param{{Name: n, Type: ir.Scalar{Prim: ir.I32}}},
		RetType: []ir.Type{ir.Scalar{Prim: ir.I32}},
		Body:    ir.Body{Result: []ir.SubExp{ir.Var{Name: n}}},
	}
	ns := namesupply.New(10)
	out := AllocateFunction(ns, fn)
	require.Len(t, out.Params, 1)
	dec, ok := out.Params[0].Dec.(ir.MemSummary)
	require.True(t, ok)
	assert.True(t, dec.IsScalar)
}

func TestFreshArrayResultGetsAllocStatement(t *testing.T) {
	y := v("y", 1)
	fn := &ir.FunDef{
		Name: "f",
		Body: ir.Body{
			Stmts: []ir.Stmt{
				{Pattern: []ir.PatElem{{Name: y, Type: arrType(4)}},
					Exp: ir.Iota{Count: c(4), Start: c(0), Stride: c(1), IntType: ir.I32}},
			},
			Result: []ir.SubExp{ir.Var{Name: y}},
		},
		RetType: []ir.Type{arrType(4)},
	}
	ns := namesupply.New(10)
	out := AllocateFunction(ns, fn)

	var sawAlloc bool
	var iotaPattern []ir.PatElem
	for _, s := range out.Body.Stmts {
		if _, ok := s.Exp.(ir.Alloc); ok {
			sawAlloc = true
		}
		if _, ok := s.Exp.(ir.Iota); ok {
			iotaPattern = s.Pattern
		}
	}
	assert.True(t, sawAlloc, "an Iota producing a fresh array must be preceded by an Alloc")
	require.Len(t, iotaPattern, 1)
	dec, ok := iotaPattern[0].Dec.(ir.MemSummary)
	require.True(t, ok)
	assert.False(t, dec.IsScalar)
}

func TestRearrangeReusesSourceMemoryBlock(t *testing.T) {
	a := v("a", 1)
	b := v("b", 2)
	fn := &ir.FunDef{
		Name:   "f",
		Params: []ir.Param{{Name: a, Type: ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: c(2)}, ir.Free{Size: c(2)}}}}},
		Body: ir.Body{
			Stmts: []ir.Stmt{
				{Pattern: []ir.PatElem{{Name: b, Type: ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: c(2)}, ir.Free{Size: c(2)}}}}},
					Exp: ir.Rearrange{Arr: a, Perm: []int{1, 0}}},
			},
			Result: []ir.SubExp{ir.Var{Name: b}},
		},
		RetType: []ir.Type{ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: c(2)}, ir.Free{Size: c(2)}}}},
	}
	ns := namesupply.New(10)
	out := AllocateFunction(ns, fn)

	for _, s := range out.Body.Stmts {
		if _, ok := s.Exp.(ir.Alloc); ok {
			t.Fatal("rearrange is a view: it must not trigger a fresh Alloc")
		}
	}
	for _, s := range out.Body.Stmts {
		if re, ok := s.Exp.(ir.Rearrange); ok {
			_ = re
			dec := s.Pattern[0].Dec.(ir.MemSummary)
			assert.Equal(t, out.Params[0].Name, dec.Mem, "a rearrange aliases its source's memory block")
		}
	}
}

func TestKernelResultIsAllocatedInGlobalSpace(t *testing.T) {
	xs := v("xs", 1)
	gtid := v("gtid", 2)
	elem := v("elem", 3)
	y := v("y", 4)
	out := v("out", 5)
	kop := ir.MapKernelOp{
		SpaceDims: []ir.SpaceDim{{Gtid: gtid, Bound: c(10)}},
		Inputs:    []ir.KernelInput{{Name: elem, Arr: xs, IndexExp: []ir.SubExp{ir.Var{Name: gtid}}, Type: ir.Scalar{Prim: ir.I32}}},
		Body: ir.Body{
			Stmts: []ir.Stmt{
				{Pattern: []ir.PatElem{{Name: y, Type: ir.Scalar{Prim: ir.I32}}},
					Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: ir.Var{Name: elem}, Y: ir.Constant{Value: ir.IntValue{Bits: ir.I32, Val: 1}}}},
			},
			Result: []ir.SubExp{ir.Var{Name: y}},
		},
		ReturnTypes: []ir.Type{ir.Scalar{Prim: ir.I32}},
	}
	fn := &ir.FunDef{
		Name:   "f",
		Params: []ir.Param{{Name: xs, Type: arrType(10)}},
		Body: ir.Body{
			Stmts:  []ir.Stmt{{Pattern: []ir.PatElem{{Name: out, Type: arrType(10)}}, Exp: kop}},
			Result: []ir.SubExp{ir.Var{Name: out}},
		},
		RetType: []ir.Type{arrType(10)},
	}
	ns := namesupply.New(10)
	result := AllocateFunction(ns, fn)

	var sawGlobalAlloc bool
	for _, s := range result.Body.Stmts {
		if a, ok := s.Exp.(ir.Alloc); ok && a.Space == ir.SpaceGlobal {
			sawGlobalAlloc = true
		}
	}
	assert.True(t, sawGlobalAlloc, "a kernel's result block lives in the global address space")
}

func TestSegRedGetsLocalAccumulatorBlock(t *testing.T) {
	xs := v("xs", 1)
	gtid := v("gtid", 2)
	elem := v("elem", 3)
	out := v("out", 4)
	seg := ir.SegRedOp{
		SpaceDims:     []ir.SpaceDim{{Gtid: gtid, Bound: c(1000)}},
		Op:            &ir.Lambda{RetType: []ir.Type{ir.Scalar{Prim: ir.I32}}},
		Nes:           []ir.SubExp{ir.Constant{Value: ir.IntValue{Bits: ir.I32, Val: 0}}},
		Inputs:        []ir.KernelInput{{Name: elem, Arr: xs, IndexExp: []ir.SubExp{ir.Var{Name: gtid}}, Type: ir.Scalar{Prim: ir.I32}}},
		ReturnTypes:   []ir.Type{ir.Scalar{Prim: ir.I32}},
		WorkgroupSize: c(256),
	}
	fn := &ir.FunDef{
		Name:   "f",
		Params: []ir.Param{{Name: xs, Type: arrType(1000)}},
		Body: ir.Body{
			Stmts:  []ir.Stmt{{Pattern: []ir.PatElem{{Name: out, Type: ir.Scalar{Prim: ir.I32}}}, Exp: seg}},
			Result: []ir.SubExp{ir.Var{Name: out}},
		},
		RetType: []ir.Type{ir.Scalar{Prim: ir.I32}},
	}
	ns := namesupply.New(10)
	result := AllocateFunction(ns, fn)

	var sawLocalAlloc bool
	for _, s := range result.Body.Stmts {
		if a, ok := s.Exp.(ir.Alloc); ok && a.Space == ir.SpaceLocal {
			sawLocalAlloc = true
		}
	}
	assert.True(t, sawLocalAlloc, "a reduce accumulator gets a workgroup-local block sized workgroup_size x element_size")
}

func TestAllocateLoopPairsArrayMergeParamWithMemoryParam(t *testing.T) {
	a := v("a", 1)
	i := v("i", 2)
	acc := v("acc", 3)
	accOut := v("accOut", 4)
	fn := &ir.FunDef{
		Name:   "f",
		Params: []ir.Param{{Name: a, Type: arrType(4)}},
		Body: ir.Body{
			Stmts: []ir.Stmt{
				{Pattern: []ir.PatElem{{Name: accOut, Type: arrType(4)}},
					Exp: ir.DoLoop{
						ValParams: []ir.MergeParam{{Param: ir.Param{Name: acc, Type: arrType(4)}, Init: ir.Var{Name: a}}},
						Form:      ir.ForLoop{I: i, IterType: ir.I32, Bound: c(3)},
						Body: ir.Body{
							Result: []ir.SubExp{ir.Var{Name: acc}},
						},
					}},
			},
			Result: []ir.SubExp{ir.Var{Name: accOut}},
		},
		RetType: []ir.Type{arrType(4)},
	}
	ns := namesupply.New(10)
	out := AllocateFunction(ns, fn)

	var loopStmt *ir.Stmt
	for i := range out.Body.Stmts {
		if _, ok := out.Body.Stmts[i].Exp.(ir.DoLoop); ok {
			loopStmt = &out.Body.Stmts[i]
		}
	}
	require.NotNil(t, loopStmt)
	loop := loopStmt.Exp.(ir.DoLoop)
	require.Len(t, loop.ValParams, 2, "the array merge parameter gains a paired memory merge parameter")
	assert.IsType(t, ir.Memory{}, loop.ValParams[0].Param.Type)
	assert.Equal(t, acc, loop.ValParams[1].Param.Name)
	require.Len(t, loopStmt.Pattern, 2, "the statement's own pattern grows to match the new merge-parameter count")
	require.Len(t, loop.Body.Result, 2, "the loop body now yields the carried memory name alongside the value")
}
