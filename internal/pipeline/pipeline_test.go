package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futhark-core/internal/ir"
	"futhark-core/internal/namesupply"
)

func v(base string, tag uint64) ir.VName { return namesupply.VName{Base: base, Tag: tag} }

func TestStandardValidatesLoreChain(t *testing.T) {
	pl, err := Standard(namesupply.New(0))
	require.NoError(t, err)
	require.Len(t, pl.Passes, 5)

	assert.True(t, pl.Passes[0].InLore.Equal(ir.SOACS))
	assert.True(t, pl.Passes[len(pl.Passes)-1].OutLore.Equal(ir.ExplicitMemory))
	for i := 1; i < len(pl.Passes); i++ {
		assert.True(t, pl.Passes[i-1].OutLore.Equal(pl.Passes[i].InLore),
			"pass %q's output lore must match %q's input lore", pl.Passes[i-1].Name, pl.Passes[i].Name)
	}
}

func TestStandardRunsScalarProgramToExplicitMemory(t *testing.T) {
	ns := namesupply.New(10)
	pl, err := Standard(ns)
	require.NoError(t, err)

	x := v("x", 1)
	y := v("y", 2)
	prog := ir.Program{
		Lore: ir.SOACS,
		Funs: []*ir.FunDef{
			{
				Name:    "addOne",
				Entry:   true,
				RetType: []ir.Type{ir.Scalar{Prim: ir.I32}},
				Params:  []ir.Param{{Name: x, Type: ir.Scalar{Prim: ir.I32}}},
				Body: ir.Body{
					Stmts: []ir.Stmt{
						{
							Pattern: []ir.PatElem{{Name: y, Type: ir.Scalar{Prim: ir.I32}}},
							Exp: ir.BinOp{
								Op:   ir.Add,
								Type: ir.I32,
								X:    ir.Var{Name: x},
								Y:    ir.Constant{Value: ir.IntValue{Bits: ir.I32, Val: 1}},
							},
						},
					},
					Result: []ir.SubExp{ir.Var{Name: y}},
				},
			},
		},
	}

	result, err := pl.Run(prog)
	require.NoError(t, err)
	assert.True(t, result.Program.Lore.Equal(ir.ExplicitMemory))
	require.Len(t, result.Program.Funs, 1)
	assert.Equal(t, "addOne", result.Program.Funs[0].Name)
}
