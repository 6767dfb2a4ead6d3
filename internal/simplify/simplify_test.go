package simplify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futhark-core/internal/ir"
	"futhark-core/internal/namesupply"
)

func v(base string, tag uint64) ir.VName { return namesupply.VName{Base: base, Tag: tag} }

func c(val int64) ir.SubExp { return ir.Constant{Value: ir.IntValue{Bits: ir.I32, Val: val}} }

func TestConstantFoldingAddition(t *testing.T) {
	y := v("y", 1)
	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: y, Type: ir.Scalar{Prim: ir.I32}}},
				Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: c(1), Y: c(2)}},
		},
		Result: []ir.SubExp{ir.Var{Name: y}},
	}
	ns := namesupply.New(10)
	out := Simplify(ns, body)
	require.Len(t, out.Stmts, 1)
	sub, ok := out.Stmts[0].Exp.(ir.SubExpOp)
	require.True(t, ok, "expected the Add to fold to a SubExpOp constant")
	cst, ok := sub.SubExp.(ir.Constant)
	require.True(t, ok)
	iv, ok := cst.Value.(ir.IntValue)
	require.True(t, ok)
	assert.Equal(t, int64(3), iv.Val)
}

func TestAlgebraicIdentityMulByZero(t *testing.T) {
	x := v("x", 1)
	y := v("y", 2)
	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: y, Type: ir.Scalar{Prim: ir.I32}}},
				Exp: ir.BinOp{Op: ir.Mul, Type: ir.I32, X: ir.Var{Name: x}, Y: c(0)}},
		},
		Result: []ir.SubExp{ir.Var{Name: y}},
	}
	ns := namesupply.New(10)
	out := Simplify(ns, body)
	require.Len(t, out.Stmts, 1)
	sub := out.Stmts[0].Exp.(ir.SubExpOp)
	cst := sub.SubExp.(ir.Constant)
	assert.Equal(t, int64(0), cst.Value.(ir.IntValue).Val)
}

func TestConstantFoldingRefusesDivisionByZero(t *testing.T) {
	y := v("y", 1)
	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: y, Type: ir.Scalar{Prim: ir.I32}}},
				Exp: ir.BinOp{Op: ir.SDiv, Type: ir.I32, X: c(10), Y: c(0)}},
		},
		Result: []ir.SubExp{ir.Var{Name: y}},
	}
	ns := namesupply.New(10)
	out := Simplify(ns, body)
	require.Len(t, out.Stmts, 1)
	_, stillBinOp := out.Stmts[0].Exp.(ir.BinOp)
	assert.True(t, stillBinOp, "division by a zero constant must never be folded")
}

func TestCopyOfIotaIsReduced(t *testing.T) {
	a := v("a", 1)
	b := v("b", 2)
	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: a, Type: ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: c(4)}}}}},
				Exp: ir.Iota{Count: c(4), Start: c(0), Stride: c(1), IntType: ir.I32}},
			{Pattern: []ir.PatElem{{Name: b, Type: ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: c(4)}}}}},
				Exp: ir.Copy{Arr: a}},
		},
		Result: []ir.SubExp{ir.Var{Name: b}},
	}
	ns := namesupply.New(10)
	out := Simplify(ns, body)
	for _, s := range out.Stmts {
		if s.Pattern[0].Name.Equal(b) {
			_, isCopy := s.Exp.(ir.Copy)
			assert.False(t, isCopy, "copy-of-iota should reduce to the iota itself")
		}
	}
}

func TestCopyOfRearrangeIsPreserved(t *testing.T) {
	a := v("a", 1)
	b := v("b", 2)
	c2 := v("c", 3)
	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: b, Type: ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: c(4)}, ir.Free{Size: c(4)}}}}},
				Exp: ir.Rearrange{Arr: a, Perm: []int{1, 0}}},
			{Pattern: []ir.PatElem{{Name: c2, Type: ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: c(4)}, ir.Free{Size: c(4)}}}}},
				Exp: ir.Copy{Arr: b}},
		},
		Result: []ir.SubExp{ir.Var{Name: c2}},
	}
	ns := namesupply.New(10)
	out := Simplify(ns, body)
	var foundCopy bool
	for _, s := range out.Stmts {
		if _, ok := s.Exp.(ir.Copy); ok {
			foundCopy = true
		}
	}
	assert.True(t, foundCopy, "copy-of-rearrange is not reduced: it is load-bearing for coalescing")
}

func TestDeadCodeEliminationDropsUnusedPureBinding(t *testing.T) {
	used := v("used", 1)
	dead := v("dead", 2)
	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: dead, Type: ir.Scalar{Prim: ir.I32}}},
				Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: c(1), Y: c(1)}},
			{Pattern: []ir.PatElem{{Name: used, Type: ir.Scalar{Prim: ir.I32}}},
				Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: c(3), Y: c(4)}},
		},
		Result: []ir.SubExp{ir.Var{Name: used}},
	}
	ns := namesupply.New(10)
	out := Simplify(ns, body)
	for _, s := range out.Stmts {
		for _, pe := range s.Pattern {
			assert.False(t, pe.Name.Equal(dead), "unused pure binding should have been eliminated")
		}
	}
}

func TestDeadCodeEliminationKeepsConsumingUpdate(t *testing.T) {
	arr := v("arr", 1)
	result := v("result", 2)
	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: result, Type: ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: c(4)}}}}},
				Exp: ir.Update{Arr: arr, Slice: []ir.DimIndex{ir.DimFix{I: c(0)}}, Value: c(9)}},
		},
		Result: []ir.SubExp{},
	}
	ns := namesupply.New(10)
	out := Simplify(ns, body)
	require.Len(t, out.Stmts, 1, "a consuming Update must never be eliminated as dead code")
}

func TestCommonSubexpressionEliminationCollapsesScalars(t *testing.T) {
	x := v("x", 1)
	a := v("a", 2)
	b := v("b", 3)
	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: a, Type: ir.Scalar{Prim: ir.I32}}},
				Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: ir.Var{Name: x}, Y: c(1)}},
			{Pattern: []ir.PatElem{{Name: b, Type: ir.Scalar{Prim: ir.I32}}},
				Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: ir.Var{Name: x}, Y: c(1)}},
		},
		Result: []ir.SubExp{ir.Var{Name: a}, ir.Var{Name: b}},
	}
	ns := namesupply.New(10)
	out := Simplify(ns, body)
	var defCount int
	for _, s := range out.Stmts {
		if _, ok := s.Exp.(ir.BinOp); ok {
			defCount++
		}
	}
	assert.Equal(t, 1, defCount, "the second identical scalar addition should collapse into a rename of the first")
}

func TestIdentityReshapeRemoved(t *testing.T) {
	x := v("x", 1)
	y := v("y", 2)
	xType := ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: c(4)}}}
	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: x, Type: xType}}, Exp: ir.Scratch{Elem: ir.I32, Shape: xType.Shape}},
			{Pattern: []ir.PatElem{{Name: y, Type: xType}}, Exp: ir.Reshape{Arr: x, NewShape: xType.Shape}},
		},
		Result: []ir.SubExp{ir.Var{Name: y}},
	}
	ns := namesupply.New(10)
	out := Simplify(ns, body)
	for _, s := range out.Stmts {
		_, isReshape := s.Exp.(ir.Reshape)
		assert.False(t, isReshape, "a reshape to the already-known source shape should be removed")
	}
}

// let v' = map (...) v in let a' = write idx [v'] -> a should fuse into a
// single fused Write, with the now-unused Map statement dropped entirely.
func TestMapWriteFusionLeavesOneWrite(t *testing.T) {
	v1 := v("v", 1)
	vPrime := v("vPrime", 2)
	idx := v("idx", 3)
	a := v("a", 4)
	aPrime := v("aPrime", 5)
	row := v("row", 6)
	arrType := ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: c(4)}}}

	lambda := &ir.Lambda{
		Params:  []ir.Param{{Name: row, Type: ir.Scalar{Prim: ir.I32}}},
		Body:    ir.Body{Result: []ir.SubExp{ir.Var{Name: row}}},
		RetType: []ir.Type{ir.Scalar{Prim: ir.I32}},
	}

	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: vPrime, Type: arrType}},
				Exp: ir.Map{W: c(4), Lambda: lambda, Arrs: []ir.VName{v1}}},
			{Pattern: []ir.PatElem{{Name: aPrime, Type: arrType}},
				Exp: ir.Write{Indices: idx, Arrs: []ir.VName{vPrime}, Dest: a}},
		},
		Result: []ir.SubExp{ir.Var{Name: aPrime}},
	}
	ns := namesupply.New(10)
	out := Simplify(ns, body)

	var writes, maps int
	var fused *ir.Write
	for _, s := range out.Stmts {
		switch e := s.Exp.(type) {
		case ir.Write:
			writes++
			fused = &e
		case ir.Map:
			maps++
		}
	}
	assert.Equal(t, 1, writes, "exactly one Write construct should remain")
	assert.Equal(t, 0, maps, "the fused Map statement is now dead and should be dropped")
	require.NotNil(t, fused)
	assert.NotNil(t, fused.Lambda, "the surviving Write carries the fused lambda")
	assert.Equal(t, []ir.VName{v1}, fused.Arrs, "the fused Write reads directly from the map's input array")
}

func TestArrayLitSurvivesSimplification(t *testing.T) {
	a := v("a", 1)
	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: a, Type: ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: c(3)}}}}},
				Exp: ir.ArrayLit{Elem: ir.I32, Rows: []ir.SubExp{c(1), c(2), c(3)}}},
		},
		Result: []ir.SubExp{ir.Var{Name: a}},
	}
	ns := namesupply.New(10)
	out := Simplify(ns, body)
	require.Len(t, out.Stmts, 1)
	_, isArrayLit := out.Stmts[0].Exp.(ir.ArrayLit)
	assert.True(t, isArrayLit, "an ArrayLit whose result is used survives simplification unchanged")
}

func TestRemoveUnusedMergeParamsDropsDeadValueParam(t *testing.T) {
	i := v("i", 1)
	acc := v("acc", 2)
	dead := v("dead", 3)
	accOut := v("accOut", 4)
	deadOut := v("deadOut", 5)
	accNext := v("accNext", 6)
	deadNext := v("deadNext", 7)

	loop := ir.DoLoop{
		ValParams: []ir.MergeParam{
			{Param: ir.Param{Name: acc, Type: ir.Scalar{Prim: ir.I32}}, Init: c(0)},
			{Param: ir.Param{Name: dead, Type: ir.Scalar{Prim: ir.I32}}, Init: c(0)},
		},
		Form: ir.ForLoop{I: i, IterType: ir.I32, Bound: c(10)},
		Body: ir.Body{
			Result: []ir.SubExp{ir.Var{Name: accNext}, ir.Var{Name: deadNext}},
		},
	}
	stmt := ir.Stmt{
		Pattern: []ir.PatElem{{Name: accOut, Type: ir.Scalar{Prim: ir.I32}}, {Name: deadOut, Type: ir.Scalar{Prim: ir.I32}}},
		Exp:     loop,
	}
	ut := NewUsageTable(ir.Body{Result: []ir.SubExp{ir.Var{Name: accOut}}})
	out, ok := ruleRemoveUnusedMergeParams(NewSymbolTable(), ut, namesupply.New(10), stmt)
	require.True(t, ok)
	require.Len(t, out, 1)
	newLoop := out[0].Exp.(ir.DoLoop)
	require.Len(t, newLoop.ValParams, 1, "the unused merge parameter is dropped")
	assert.Equal(t, acc, newLoop.ValParams[0].Param.Name)
	require.Len(t, out[0].Pattern, 1)
	assert.Equal(t, accOut, out[0].Pattern[0].Name)
}

func TestRemoveDeadBranchResultsDropsUnusedResult(t *testing.T) {
	keep := v("keep", 1)
	dead := v("dead", 2)
	keepOut := v("keepOut", 3)
	deadOut := v("deadOut", 4)

	iff := ir.If{
		Cond:    ir.Var{Name: v("c", 5)},
		True:    ir.Body{Result: []ir.SubExp{ir.Var{Name: keep}, ir.Var{Name: dead}}},
		False:   ir.Body{Result: []ir.SubExp{c(0), c(1)}},
		RetType: []ir.Type{ir.Scalar{Prim: ir.I32}, ir.Scalar{Prim: ir.I32}},
	}
	stmt := ir.Stmt{
		Pattern: []ir.PatElem{{Name: keepOut, Type: ir.Scalar{Prim: ir.I32}}, {Name: deadOut, Type: ir.Scalar{Prim: ir.I32}}},
		Exp:     iff,
	}
	ut := NewUsageTable(ir.Body{Result: []ir.SubExp{ir.Var{Name: keepOut}}})
	out, ok := ruleRemoveDeadBranchResults(NewSymbolTable(), ut, namesupply.New(10), stmt)
	require.True(t, ok)
	require.Len(t, out, 1)
	require.Len(t, out[0].Pattern, 1)
	assert.Equal(t, keepOut, out[0].Pattern[0].Name)
	newIf := out[0].Exp.(ir.If)
	assert.Len(t, newIf.True.Result, 1)
	assert.Len(t, newIf.False.Result, 1)
	assert.Len(t, newIf.RetType, 1)
}

// `for i < 1` unrolls to a straight-line equivalent: counter bound to 0,
// merge parameters bound to their initial values, body spliced in, pattern
// names bound to the body's results.
func TestSingleIterationLoopUnrolls(t *testing.T) {
	i := v("i", 1)
	acc := v("acc", 2)
	accNext := v("accNext", 3)
	out := v("out", 4)
	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: out, Type: ir.Scalar{Prim: ir.I32}}},
				Exp: ir.DoLoop{
					ValParams: []ir.MergeParam{{Param: ir.Param{Name: acc, Type: ir.Scalar{Prim: ir.I32}}, Init: c(5)}},
					Form:      ir.ForLoop{I: i, IterType: ir.I32, Bound: ir.Constant{Value: ir.IntValue{Bits: ir.I32, Val: 1}}},
					Body: ir.Body{
						Stmts: []ir.Stmt{
							{Pattern: []ir.PatElem{{Name: accNext, Type: ir.Scalar{Prim: ir.I32}}},
								Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: ir.Var{Name: acc}, Y: ir.Var{Name: i}}},
						},
						Result: []ir.SubExp{ir.Var{Name: accNext}},
					},
				}},
		},
		Result: []ir.SubExp{ir.Var{Name: out}},
	}
	ns := namesupply.New(10)
	simplified := Simplify(ns, body)
	for _, s := range simplified.Stmts {
		_, isLoop := s.Exp.(ir.DoLoop)
		assert.False(t, isLoop, "a single-iteration loop must unroll to straight-line code")
	}
}

// A merge parameter whose body result re-yields the parameter itself is
// hoisted out of the loop: bound once to its initial value before it.
func TestLoopInvariantMergeParamIsHoisted(t *testing.T) {
	i := v("i", 1)
	acc := v("acc", 2)
	inv := v("inv", 3)
	accNext := v("accNext", 4)
	accOut := v("accOut", 5)
	invOut := v("invOut", 6)
	k := v("k", 7)

	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{
				{Name: accOut, Type: ir.Scalar{Prim: ir.I32}},
				{Name: invOut, Type: ir.Scalar{Prim: ir.I32}},
			},
				Exp: ir.DoLoop{
					ValParams: []ir.MergeParam{
						{Param: ir.Param{Name: acc, Type: ir.Scalar{Prim: ir.I32}}, Init: c(0)},
						{Param: ir.Param{Name: inv, Type: ir.Scalar{Prim: ir.I32}}, Init: ir.Var{Name: k}},
					},
					Form: ir.ForLoop{I: i, IterType: ir.I32, Bound: c(10)},
					Body: ir.Body{
						Stmts: []ir.Stmt{
							{Pattern: []ir.PatElem{{Name: accNext, Type: ir.Scalar{Prim: ir.I32}}},
								Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: ir.Var{Name: acc}, Y: ir.Var{Name: inv}}},
						},
						Result: []ir.SubExp{ir.Var{Name: accNext}, ir.Var{Name: inv}},
					},
				}},
		},
		Result: []ir.SubExp{ir.Var{Name: accOut}, ir.Var{Name: invOut}},
	}
	ns := namesupply.New(10)
	simplified := Simplify(ns, body)

	var loop *ir.DoLoop
	for _, s := range simplified.Stmts {
		if l, ok := s.Exp.(ir.DoLoop); ok {
			loop = &l
		}
	}
	require.NotNil(t, loop, "the loop itself survives")
	assert.Len(t, loop.ValParams, 1, "the invariant merge parameter left the loop")
	assert.Equal(t, acc, loop.ValParams[0].Param.Name)
}

// An existential dimension in an If's result type is discharged when both
// branches agree on the actual size.
func TestBranchContextAgreementDischargesExt(t *testing.T) {
	cond := v("cond", 1)
	n := v("n", 2)
	szOut := v("szOut", 3)
	arrOut := v("arrOut", 4)
	tArr := v("tArr", 5)
	fArr := v("fArr", 6)

	sizeC := ir.Constant{Value: ir.IntValue{Bits: ir.I64, Val: 4}}
	arrT := ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Ext{Which: 0}}}
	stmt := ir.Stmt{
		Pattern: []ir.PatElem{
			{Name: szOut, Type: ir.Scalar{Prim: ir.I64}},
			{Name: arrOut, Type: ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: sizeC}}}},
		},
		Exp: ir.If{
			Cond: ir.Var{Name: cond},
			True: ir.Body{
				Stmts:  []ir.Stmt{{Pattern: []ir.PatElem{{Name: tArr, Type: ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: sizeC}}}}}, Exp: ir.Iota{Count: sizeC, Start: c(0), Stride: c(1), IntType: ir.I32}}},
				Result: []ir.SubExp{ir.Var{Name: n}, ir.Var{Name: tArr}},
			},
			False: ir.Body{
				Stmts:  []ir.Stmt{{Pattern: []ir.PatElem{{Name: fArr, Type: ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Free{Size: sizeC}}}}}, Exp: ir.Iota{Count: sizeC, Start: c(1), Stride: c(1), IntType: ir.I32}}},
				Result: []ir.SubExp{ir.Var{Name: n}, ir.Var{Name: fArr}},
			},
			RetType: []ir.Type{ir.Scalar{Prim: ir.I64}, arrT},
		},
	}

	out, ok := ruleSimplifyBranchContext(NewSymbolTable(), NewUsageTable(ir.Body{}), namesupply.New(10), stmt)
	require.True(t, ok)
	require.Len(t, out, 1)
	newIf := out[0].Exp.(ir.If)
	newArr := newIf.RetType[1].(ir.Array)
	free, isFree := newArr.Shape[0].(ir.Free)
	require.True(t, isFree, "the Ext dimension is replaced by the agreed size")
	assert.Equal(t, ir.Var{Name: n}, free.Size)
}

// `if c then let x = y+1 in x*2 else let x = y+1 in x+2` binds y+1 once,
// outside the branch.
func TestBranchInvariantBindingHoistedOnce(t *testing.T) {
	cond := v("cond", 1)
	y := v("y", 2)
	x1 := v("x1", 3)
	r1 := v("r1", 4)
	x2 := v("x2", 5)
	r2 := v("r2", 6)
	out := v("out", 7)

	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: out, Type: ir.Scalar{Prim: ir.I32}}},
				Exp: ir.If{
					Cond: ir.Var{Name: cond},
					True: ir.Body{
						Stmts: []ir.Stmt{
							{Pattern: []ir.PatElem{{Name: x1, Type: ir.Scalar{Prim: ir.I32}}},
								Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: ir.Var{Name: y}, Y: c(1)}},
							{Pattern: []ir.PatElem{{Name: r1, Type: ir.Scalar{Prim: ir.I32}}},
								Exp: ir.BinOp{Op: ir.Mul, Type: ir.I32, X: ir.Var{Name: x1}, Y: c(2)}},
						},
						Result: []ir.SubExp{ir.Var{Name: r1}},
					},
					False: ir.Body{
						Stmts: []ir.Stmt{
							{Pattern: []ir.PatElem{{Name: x2, Type: ir.Scalar{Prim: ir.I32}}},
								Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: ir.Var{Name: y}, Y: c(1)}},
							{Pattern: []ir.PatElem{{Name: r2, Type: ir.Scalar{Prim: ir.I32}}},
								Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: ir.Var{Name: x2}, Y: c(2)}},
						},
						Result: []ir.SubExp{ir.Var{Name: r2}},
					},
					RetType: []ir.Type{ir.Scalar{Prim: ir.I32}},
				}},
		},
		Result: []ir.SubExp{ir.Var{Name: out}},
	}
	ns := namesupply.New(10)
	simplified := Simplify(ns, body)

	countAddsOfY := func(b ir.Body) int {
		n := 0
		ir.WalkBodyStmts(b, func(s ir.Stmt) {
			if bo, ok := s.Exp.(ir.BinOp); ok && bo.Op == ir.Add {
				if xv, ok := bo.X.(ir.Var); ok && xv.Name.Equal(y) {
					n++
				}
			}
		})
		return n
	}
	assert.Equal(t, 1, countAddsOfY(simplified), "y+1 is bound exactly once after simplification")

	var topLevelAdd bool
	for _, s := range simplified.Stmts {
		if bo, ok := s.Exp.(ir.BinOp); ok && bo.Op == ir.Add {
			if xv, ok := bo.X.(ir.Var); ok && xv.Name.Equal(y) {
				topLevelAdd = true
			}
		}
	}
	assert.True(t, topLevelAdd, "the shared binding sits outside the branch")
}

// Simplifying an already-simplified body changes nothing: the fixed point
// is a fixed point.
func TestSimplifyIsIdempotent(t *testing.T) {
	x := v("x", 1)
	a := v("a", 2)
	b := v("b", 3)
	body := ir.Body{
		Stmts: []ir.Stmt{
			{Pattern: []ir.PatElem{{Name: a, Type: ir.Scalar{Prim: ir.I32}}},
				Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: c(1), Y: c(2)}},
			{Pattern: []ir.PatElem{{Name: b, Type: ir.Scalar{Prim: ir.I32}}},
				Exp: ir.BinOp{Op: ir.Mul, Type: ir.I32, X: ir.Var{Name: x}, Y: ir.Var{Name: a}}},
		},
		Result: []ir.SubExp{ir.Var{Name: b}},
	}
	ns := namesupply.New(10)
	once := Simplify(ns, body)
	twice := Simplify(ns, once)

	require.Len(t, twice.Stmts, len(once.Stmts))
	for i := range once.Stmts {
		assert.IsType(t, once.Stmts[i].Exp, twice.Stmts[i].Exp)
		require.Len(t, twice.Stmts[i].Pattern, len(once.Stmts[i].Pattern))
		for j := range once.Stmts[i].Pattern {
			assert.True(t, once.Stmts[i].Pattern[j].Name.Equal(twice.Stmts[i].Pattern[j].Name))
		}
	}
}

func TestHoistFromLoopLiftsInvariantComputation(t *testing.T) {
	k := v("k", 1)
	invariant := v("invariant", 2)
	acc := v("acc", 3)
	i := v("i", 4)
	loop := ir.DoLoop{
		ValParams: []ir.MergeParam{{Param: ir.Param{Name: acc, Type: ir.Scalar{Prim: ir.I32}}, Init: c(0)}},
		Form:      ir.ForLoop{I: i, IterType: ir.I32, Bound: c(10)},
		Body: ir.Body{
			Stmts: []ir.Stmt{
				{Pattern: []ir.PatElem{{Name: invariant, Type: ir.Scalar{Prim: ir.I32}}},
					Exp: ir.BinOp{Op: ir.Mul, Type: ir.I32, X: ir.Var{Name: k}, Y: c(2)}},
				{Pattern: []ir.PatElem{{Name: v("acc2", 5), Type: ir.Scalar{Prim: ir.I32}}},
					Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: ir.Var{Name: acc}, Y: ir.Var{Name: invariant}}},
			},
			Result: []ir.SubExp{ir.Var{Name: v("acc2", 5)}},
		},
	}
	before, rewritten, changed := HoistFromLoop(loop)
	require.True(t, changed)
	require.Len(t, before, 1)
	assert.Len(t, rewritten.Body.Stmts, 1, "the invariant multiplication should have left the loop body")
}
