// Package pipeline wires the individual rewrite passes (simplify, kernel
// extraction, explicit memory allocation, double buffering, in-place
// lowering) into the pass.Pipeline sequencing shape, in the order the
// compilation needs them.
package pipeline

import (
	"futhark-core/internal/explicitmem"
	"futhark-core/internal/doublebuf"
	"futhark-core/internal/inplace"
	"futhark-core/internal/ir"
	"futhark-core/internal/kernels"
	"futhark-core/internal/namesupply"
	"futhark-core/internal/pass"
	"futhark-core/internal/simplify"
)

// Standard builds the full SOACS -> ExplicitMemory pipeline: simplification,
// kernel extraction, explicit memory allocation, double buffering, and
// in-place update forwarding, sharing one NameSource across every pass so
// names stay globally fresh.
func Standard(ns *namesupply.NameSource) (*pass.Pipeline, error) {
	passes := []pass.Pass{
		{
			Name:    "simplify",
			InLore:  ir.SOACS,
			OutLore: ir.SOACS,
			Run: func(p ir.Program) (ir.Program, error) {
				return simplify.SimplifyProgram(ns, p), nil
			},
		},
		{
			Name:    "extract-kernels",
			InLore:  ir.SOACS,
			OutLore: ir.Kernels,
			Run: func(p ir.Program) (ir.Program, error) {
				return kernels.ExtractProgram(ns, p)
			},
		},
		{
			Name:    "explicit-allocations",
			InLore:  ir.Kernels,
			OutLore: ir.ExplicitMemory,
			Run: func(p ir.Program) (ir.Program, error) {
				return explicitmem.AllocateProgram(ns, p), nil
			},
		},
		{
			Name:    "double-buffer",
			InLore:  ir.ExplicitMemory,
			OutLore: ir.ExplicitMemory,
			Run: func(p ir.Program) (ir.Program, error) {
				return doublebuf.RewriteProgram(ns, p), nil
			},
		},
		{
			Name:    "in-place-lowering",
			InLore:  ir.ExplicitMemory,
			OutLore: ir.ExplicitMemory,
			Run: func(p ir.Program) (ir.Program, error) {
				return inplace.RewriteProgram(ns, p)
			},
		},
	}
	return pass.NewPipeline(passes)
}
