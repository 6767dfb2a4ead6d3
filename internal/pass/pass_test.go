package pass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futhark-core/internal/ir"
)

func identityProgram() ir.Program {
	return ir.Program{
		Lore: ir.SOACS,
		Funs: []*ir.FunDef{
			{
				Name:    "main",
				RetType: []ir.Type{ir.Scalar{Prim: ir.I32}},
				Body: ir.Body{
					Result: []ir.SubExp{ir.Constant{Value: ir.IntValue{Bits: ir.I32, Val: 0}}},
				},
			},
		},
	}
}

func TestNewPipelineRejectsMismatchedLoreChain(t *testing.T) {
	passes := []Pass{
		{Name: "a", InLore: ir.SOACS, OutLore: ir.Kernels, Run: func(p ir.Program) (ir.Program, error) { return p, nil }},
		{Name: "b", InLore: ir.SOACS, OutLore: ir.ExplicitMemory, Run: func(p ir.Program) (ir.Program, error) { return p, nil }},
	}
	_, err := NewPipeline(passes)
	require.Error(t, err)
}

func TestPipelineRunThreadsLoreThroughPasses(t *testing.T) {
	passes := []Pass{
		{Name: "a", InLore: ir.SOACS, OutLore: ir.Kernels, Run: func(p ir.Program) (ir.Program, error) { return p, nil }},
	}
	pl, err := NewPipeline(passes)
	require.NoError(t, err)

	res, err := pl.Run(identityProgram())
	require.NoError(t, err)
	assert.True(t, res.Program.Lore.Equal(ir.Kernels))
	assert.NotEmpty(t, res.RunID.String())
}

func TestPipelineCheckedModeCatchesBrokenPass(t *testing.T) {
	passes := []Pass{
		{Name: "breaks-arity", InLore: ir.SOACS, OutLore: ir.SOACS, Run: func(p ir.Program) (ir.Program, error) {
			p.Funs[0].RetType = append(p.Funs[0].RetType, ir.Scalar{Prim: ir.I32})
			return p, nil
		}},
	}
	pl, err := NewPipeline(passes)
	require.NoError(t, err)
	pl.Checked = true

	_, err = pl.Run(identityProgram())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "breaks-arity")
}
