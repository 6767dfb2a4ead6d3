// Package ixfun implements the index-function term algebra: a composable
// mapping from a multi-dimensional
// index tuple to a byte offset into a 1-D memory block.
//
// Built directly from the operational description of offset/permute/
// reshape/rotate composition, cross-checked against original_source/ for
// the exact semantics of rearrange-with-offset and rotation.
package ixfun

import "fmt"

// Dim is one dimension of an index function's shape: a size and the
// element-count stride used to compute a linear offset contribution.
type Dim struct {
	Size   int64
	Stride int64 // byte-stride is Stride * elemSize; kept in elements here
}

// IxFun is a composable term: a base (contiguous row-major layout of some
// shape) optionally wrapped by a chain of OffsetBy/Permute/Reshape/Rotate
// operations. It is represented directly (not lazily) as a normalized
// "permuted, offset view of a base shape" because that is the only shape
// the pipeline's passes ever need to query or construct.
type IxFun struct {
	// Base is the shape of the original contiguous allocation.
	Base []int64
	// Perm names, for each result dimension, which base dimension it reads
	// (identity permutation for an un-rearranged array).
	Perm []int
	// Offset is a constant element offset from the start of Base.
	Offset int64
	// Contiguous is false once an operation (Rotate) can no longer be
	// expressed as a permuted, offset view.
	Contiguous bool
}

// Iota builds the identity index function over a contiguous array of the
// given shape.
func Iota(shape []int64) *IxFun {
	perm := make([]int, len(shape))
	for i := range perm {
		perm[i] = i
	}
	return &IxFun{Base: append([]int64(nil), shape...), Perm: perm, Contiguous: true}
}

// rowMajorStrides returns the row-major element strides of shape.
func rowMajorStrides(shape []int64) []int64 {
	strides := make([]int64, len(shape))
	acc := int64(1)
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

// OffsetBy returns a new index function reading the same base shape starting
// elemOffset elements further in, keeping the same permutation.
func (f *IxFun) OffsetBy(elemOffset int64) *IxFun {
	g := *f
	g.Offset += elemOffset
	return &g
}

// Permute returns a new index function whose result dimension i reads base
// dimension perm[i] of f's current result dimensions (i.e. perm is applied
// in "result space", composing with any existing permutation).
func (f *IxFun) Permute(perm []int) *IxFun {
	newPerm := make([]int, len(perm))
	for i, p := range perm {
		newPerm[i] = f.Perm[p]
	}
	g := *f
	g.Perm = newPerm
	return &g
}

// Reshape returns a new index function for a row-major reinterpretation of
// f's shape, when f is contiguous, unpermuted and at offset 0; any other
// view is not supported and returns nil, forcing the caller to materialize
// a Copy first (Reshape-over-Rearrange fusion limits).
func (f *IxFun) Reshape(newShape []int64) *IxFun {
	if !f.Contiguous || f.Offset != 0 || !isIdentity(f.Perm) {
		return nil
	}
	return Iota(newShape)
}

func isIdentity(perm []int) bool {
	for i, p := range perm {
		if i != p {
			return false
		}
	}
	return true
}

// Rotate marks the index function as non-contiguous: a cyclic shift can
// never be expressed as a linear offset+permutation view.
func (f *IxFun) Rotate() *IxFun {
	g := *f
	g.Contiguous = false
	return &g
}

// ResultShape returns the shape as seen through the current permutation.
func (f *IxFun) ResultShape() []int64 {
	shape := make([]int64, len(f.Perm))
	for i, p := range f.Perm {
		shape[i] = f.Base[p]
	}
	return shape
}

// LinearWithOffset returns (offset, true) if the index function is a
// contiguous row-major slice of its base shape (no permutation).
func (f *IxFun) LinearWithOffset(elemSize int64) (int64, bool) {
	if !f.Contiguous || !isIdentity(f.Perm) {
		return 0, false
	}
	return f.Offset * elemSize, true
}

// RearrangeWithOffset returns (offset, perm, true) if the index function is
// a transposed-but-otherwise-contiguous view: a permutation applied to an
// offset, contiguous base.
func (f *IxFun) RearrangeWithOffset(elemSize int64) (int64, []int, bool) {
	if !f.Contiguous {
		return 0, nil, false
	}
	return f.Offset * elemSize, append([]int(nil), f.Perm...), true
}

// IsDirect is shorthand for "row-major with zero offset".
func (f *IxFun) IsDirect() bool {
	off, ok := f.LinearWithOffset(1)
	return ok && off == 0
}

func (f *IxFun) String() string {
	return fmt.Sprintf("ixfun(base=%v perm=%v off=%d contig=%t)", f.Base, f.Perm, f.Offset, f.Contiguous)
}
