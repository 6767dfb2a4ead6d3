package frontend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futhark-core/internal/ir"
)

func TestParseScalarFunction(t *testing.T) {
	src := `
entry fun addOne(x_1: i32) : i32 =
  let { y_2: i32 } = binop add i32 x_1 1
  in { y_2 }
`
	prog, ns, err := ParseProgram("t.fir", src)
	require.NoError(t, err)
	require.Len(t, prog.Funs, 1)

	fn := prog.Funs[0]
	assert.Equal(t, "addOne", fn.Name)
	assert.True(t, fn.Entry)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, ir.VName{Base: "x", Tag: 1}, fn.Params[0].Name)
	assert.Equal(t, ir.Scalar{Prim: ir.I32}, fn.Params[0].Type)

	require.Len(t, fn.Body.Stmts, 1)
	bop, ok := fn.Body.Stmts[0].Exp.(ir.BinOp)
	require.True(t, ok)
	assert.Equal(t, ir.Add, bop.Op)
	assert.Equal(t, ir.I32, bop.Type)
	assert.Equal(t, ir.Var{Name: ir.VName{Base: "x", Tag: 1}}, bop.X)

	require.Len(t, fn.Body.Result, 1)
	assert.Equal(t, ir.Var{Name: ir.VName{Base: "y", Tag: 2}}, fn.Body.Result[0])

	assert.GreaterOrEqual(t, ns.Cursor(), uint64(2), "the seed NameSource starts past every tag the program used")
}

func TestParseArrayOpsAndUpdate(t *testing.T) {
	src := `
fun bump(a_1: [4]i32) : [4]i32 =
  let { i_2: i32 } = iota 4
  let { b_3: [4]i32 } = copy a_1
  let { c_4: [4]i32 } = update b_3 [0] <- 7
  in { c_4 }
`
	prog, _, err := ParseProgram("t.fir", src)
	require.NoError(t, err)
	fn := prog.Funs[0]
	require.Len(t, fn.Body.Stmts, 3)

	iotaExp, ok := fn.Body.Stmts[0].Exp.(ir.Iota)
	require.True(t, ok)
	assert.Equal(t, ir.Constant{Value: ir.IntValue{Bits: ir.I32, Val: 4}}, iotaExp.Count)

	copyExp, ok := fn.Body.Stmts[1].Exp.(ir.Copy)
	require.True(t, ok)
	assert.Equal(t, ir.VName{Base: "a", Tag: 1}, copyExp.Arr)

	updExp, ok := fn.Body.Stmts[2].Exp.(ir.Update)
	require.True(t, ok)
	assert.Equal(t, ir.VName{Base: "b", Tag: 3}, updExp.Arr)
	require.Len(t, updExp.Slice, 1)
	_, isFix := updExp.Slice[0].(ir.DimFix)
	assert.True(t, isFix)
}

func TestParseRejectsUntaggedName(t *testing.T) {
	src := `
fun f(x: i32) : i32 =
  let { y_1: i32 } = x
  in { y_1 }
`
	_, _, err := ParseProgram("t.fir", src)
	assert.Error(t, err, "a name missing its _<tag> suffix is rejected")
}

func TestReportParseErrorRendersCaret(t *testing.T) {
	src := "fun f(() : i32 = in {}"
	_, _, err := ParseProgram("t.fir", src)
	require.Error(t, err)
	msg := ReportParseError(src, err)
	assert.Contains(t, msg, "syntax error")
}
