package kernels

import (
	"strconv"

	"futhark-core/internal/ir"
	"futhark-core/internal/namesupply"

	"github.com/iancoleman/strcase"
)

// DefaultLockStepWidth is the assumed hardware wave/warp width used when no
// device-specific configuration is available.
const DefaultLockStepWidth = 32

// ConstructSegRed builds a segmented-reduction kernel for a Reduce SOAC
// being distributed at the given nest. The SegRedOp records the lock-step
// width as an i64 WorkgroupSize (DefaultLockStepWidth when the given width
// is not positive); it carries no round or barrier structure.
func ConstructSegRed(ns *namesupply.NameSource, kn *KernelNest, red ir.Reduce, lockStepWidth int) ir.SegRedOp {
	dims := make([]ir.SpaceDim, len(kn.Dims))
	for i, d := range kn.Dims {
		dims[i] = ir.SpaceDim{Gtid: ns.Fresh("gtid"), Bound: d.Bound}
	}
	inputs := dedupeInputs(kn.Inputs)
	for i := range inputs {
		idx := make([]ir.SubExp, len(dims))
		for d := range dims {
			idx[d] = ir.Var{Name: dims[d].Gtid}
		}
		inputs[i].IndexExp = idx
	}

	retTypes := make([]ir.Type, len(red.Lambda.RetType))
	copy(retTypes, red.Lambda.RetType)

	size := lockStepWidth
	if size <= 0 {
		size = DefaultLockStepWidth
	}

	return ir.SegRedOp{
		SpaceDims:     dims,
		Op:            red.Lambda,
		Nes:           red.Nes,
		Inputs:        inputs,
		ReturnTypes:   retTypes,
		WorkgroupSize: ir.Constant{Value: ir.IntValue{Bits: ir.I64, Val: int64(size)}},
	}
}

// ConstructSegScan builds a segmented-scan kernel, structurally the same
// template as ConstructSegRed but keeping every partial result.
func ConstructSegScan(ns *namesupply.NameSource, kn *KernelNest, sc ir.Scan, lockStepWidth int) ir.SegScanOp {
	dims := make([]ir.SpaceDim, len(kn.Dims))
	for i, d := range kn.Dims {
		dims[i] = ir.SpaceDim{Gtid: ns.Fresh("gtid"), Bound: d.Bound}
	}
	inputs := dedupeInputs(kn.Inputs)
	for i := range inputs {
		idx := make([]ir.SubExp, len(dims))
		for d := range dims {
			idx[d] = ir.Var{Name: dims[d].Gtid}
		}
		inputs[i].IndexExp = idx
	}

	retTypes := make([]ir.Type, len(sc.Lambda.RetType))
	copy(retTypes, sc.Lambda.RetType)

	size := lockStepWidth
	if size <= 0 {
		size = DefaultLockStepWidth
	}

	return ir.SegScanOp{
		SpaceDims:     dims,
		Op:            sc.Lambda,
		Nes:           sc.Nes,
		Inputs:        inputs,
		ReturnTypes:   retTypes,
		WorkgroupSize: ir.Constant{Value: ir.IntValue{Bits: ir.I64, Val: int64(size)}},
	}
}

// KernelEntryLabel formats a base kernel name into the stable label used in
// a compiled program's "uses" listing, a normalize-for-display job.
func KernelEntryLabel(fun string, ordinal int) string {
	return strcase.ToSnake(fun) + "_kernel_" + strconv.Itoa(ordinal)
}
