// Package kernels implements kernel extraction and flattening: it
// turns nested map/reduce/scan/redomap into flat GPU-style kernels.
//
// Built around a delayed, indexable access descriptor: KernelNest/
// KernelInput accumulate outside-in while walking enclosing maps, and the
// descriptor is only materialized into a concrete MapKernelOp once the
// innermost distributable statement is found.
package kernels

import (
	"futhark-core/internal/ir"
)

// ParamArr binds one lambda parameter name to the source array it slices.
type ParamArr struct {
	Param ir.VName
	Arr   ir.VName
}

// MapNesting is one enclosing map contributing a dimension to a kernel's
// flat thread-index space. Params is ordered the way the
// map's lambda declares its parameters, so kernel inputs come out in a
// stable order.
type MapNesting struct {
	Pattern []ir.PatElem // the map statement's own pattern
	W       ir.SubExp    // this map's width
	Params  []ParamArr   // lambda parameter -> source array, in declaration order
	Bound   ir.NameSet   // every name let-bound inside this map before the target
}

// Nesting is a nonempty, outermost-first stack of MapNestings.
type Nesting []MapNesting

// Target is the statement kernel extraction is trying to push into a
// kernel, together with the pattern the enclosing context expects it to
// bind.
type Target struct {
	Stmt ir.Stmt
}

// KernelNest is a nonempty, outermost-first stack of MapNestings that have
// been confirmed distributable around a Target, plus the per-thread inputs
// collected while confirming it.
type KernelNest struct {
	Dims   []ir.SpaceDim
	Inputs []ir.KernelInput
	Target Target
}

// TryDistribute attempts to push every nesting in the stack around target
// into a single kernel nest. It fails (false)
// as soon as one nesting cannot be represented as a per-thread slice, or the
// target consumes an array one of the nestings reads — in which case it
// returns nil; no partial nest is kept.
func TryDistribute(ns Nesting, target Target) (*KernelNest, bool) {
	if len(ns) == 0 {
		return nil, false
	}
	kn := &KernelNest{Target: target}
	consumed := consumedArrays(target.Stmt.Exp)

	for _, nest := range ns {
		gtid := ir.VName{Base: "gtid", Tag: 0} // re-tagged by the caller's name source at construction time
		kn.Dims = append(kn.Dims, ir.SpaceDim{Gtid: gtid, Bound: nest.W})

		for _, pa := range nest.Params {
			if consumed.Has(pa.Arr) {
				return nil, false // consumed arrays prevent distribution
			}
			if !dependencyIsPerThreadSlice(nest, pa.Arr) {
				return nil, false
			}
			kn.Inputs = append(kn.Inputs, ir.KernelInput{
				Name:     pa.Param,
				Arr:      pa.Arr,
				IndexExp: []ir.SubExp{ir.Var{Name: gtid}},
			})
		}
	}
	return kn, true
}

// dependencyIsPerThreadSlice reports whether arrName, read inside nest, can
// be represented as a single per-thread slice: true unless the array was
// itself let-bound inside the same nest by something other than a direct
// map parameter (in which case it is nest-local and does not need — or
// permit — an outside kernel input at all).
func dependencyIsPerThreadSlice(nest MapNesting, arrName ir.VName) bool {
	return !nest.Bound.Has(arrName) || isMapParamSource(nest, arrName)
}

func isMapParamSource(nest MapNesting, arrName ir.VName) bool {
	for _, pa := range nest.Params {
		if pa.Arr.Equal(arrName) {
			return true
		}
	}
	return false
}

// consumedArrays returns the set of array names an expression consumes,
// reusing the same per-expression knowledge internal/alias encodes, kept
// local here to avoid a kernels->alias dependency for one helper.
func consumedArrays(e ir.Exp) ir.NameSet {
	out := ir.NameSet{}
	if u, ok := e.(ir.Update); ok {
		out.Insert(u.Arr)
	}
	return out
}
