package typecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futhark-core/internal/ir"
	"futhark-core/internal/namesupply"
)

func v(base string, tag uint64) ir.VName { return namesupply.VName{Base: base, Tag: tag} }

func TestCheckAcceptsWellTypedFunction(t *testing.T) {
	x := v("x", 1)
	y := v("y", 2)
	fn := &ir.FunDef{
		Name:    "f",
		RetType: []ir.Type{ir.Scalar{Prim: ir.I32}},
		Params:  []ir.Param{{Name: x, Type: ir.Scalar{Prim: ir.I32}}},
		Body: ir.Body{
			Stmts: []ir.Stmt{
				{Pattern: []ir.PatElem{{Name: y, Type: ir.Scalar{Prim: ir.I32}}},
					Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: ir.Var{Name: x}, Y: ir.Constant{Value: ir.IntValue{Bits: ir.I32, Val: 1}}}},
			},
			Result: []ir.SubExp{ir.Var{Name: y}},
		},
	}
	require.NoError(t, Check("typecheck", ir.Program{Lore: ir.SOACS, Funs: []*ir.FunDef{fn}}))
}

func TestCheckRejectsReturnArityMismatch(t *testing.T) {
	fn := &ir.FunDef{
		Name:    "f",
		RetType: []ir.Type{ir.Scalar{Prim: ir.I32}, ir.Scalar{Prim: ir.I32}},
		Body:    ir.Body{Result: []ir.SubExp{ir.Constant{Value: ir.IntValue{Bits: ir.I32, Val: 0}}}},
	}
	err := Check("typecheck", ir.Program{Lore: ir.SOACS, Funs: []*ir.FunDef{fn}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TypeError")
}

func TestCheckRejectsUnresolvedExt(t *testing.T) {
	fn := &ir.FunDef{
		Name: "f",
		RetType: []ir.Type{
			ir.Array{Elem: ir.I32, Shape: ir.Shape{ir.Ext{Which: 5}}},
		},
		Body: ir.Body{Result: []ir.SubExp{ir.Constant{Value: ir.IntValue{Bits: ir.I32, Val: 0}}}},
	}
	err := Check("typecheck", ir.Program{Lore: ir.SOACS, Funs: []*ir.FunDef{fn}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ShapeContextError")
}

func TestCheckRejectsMismatchedBinOpOperands(t *testing.T) {
	x := v("x", 1)
	y := v("y", 2)
	z := v("z", 3)
	fn := &ir.FunDef{
		Name:    "f",
		RetType: []ir.Type{ir.Scalar{Prim: ir.I32}},
		Params: []ir.Param{
			{Name: x, Type: ir.Scalar{Prim: ir.I32}},
			{Name: y, Type: ir.Scalar{Prim: ir.F32}},
		},
		Body: ir.Body{
			Stmts: []ir.Stmt{
				{Pattern: []ir.PatElem{{Name: z, Type: ir.Scalar{Prim: ir.I32}}},
					Exp: ir.BinOp{Op: ir.Add, Type: ir.I32, X: ir.Var{Name: x}, Y: ir.Var{Name: y}}},
			},
			Result: []ir.SubExp{ir.Var{Name: z}},
		},
	}
	err := Check("typecheck", ir.Program{Lore: ir.SOACS, Funs: []*ir.FunDef{fn}})
	require.Error(t, err)
}
