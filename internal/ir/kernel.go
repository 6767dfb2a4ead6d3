package ir

import "futhark-core/internal/ixfun"

// SpaceDim is one dimension of a kernel's flat thread-index space: a
// generated thread-index variable and the dimension's width.
type SpaceDim struct {
	Gtid  VName
	Bound SubExp
}

// KernelInput is one scalar or array slice fed into a kernel body, named by
// its source array and the index expression selecting a thread's slice of
// it.
type KernelInput struct {
	Name      VName  // name bound inside the kernel body
	Arr       VName  // source array outside the kernel
	IndexExp  []SubExp
	Type      Type
}

// KernelOp is the family of Op payloads available once kernel extraction
// has run (the Kernels lore).
type KernelOp interface {
	Op
	kernelOp()
}

// MapKernelOp is a flattened map nest: SpaceDims give the thread-index
// space, Inputs the per-thread slices, Body the per-thread computation.
type MapKernelOp struct {
	SpaceDims   []SpaceDim
	Inputs      []KernelInput
	Body        Body
	ReturnTypes []Type
}

func (MapKernelOp) exp()       {}
func (MapKernelOp) op()        {}
func (MapKernelOp) kernelOp()  {}

// SegRedOp is a segmented reduction kernel, emitted with an explicit
// wave/workgroup template: WorkgroupSize is nil
// until a concrete lock-step width has been chosen.
type SegRedOp struct {
	SpaceDims     []SpaceDim
	Op            *Lambda
	Nes           []SubExp
	Inputs        []KernelInput
	ReturnTypes   []Type
	WorkgroupSize SubExp
}

func (SegRedOp) exp()      {}
func (SegRedOp) op()       {}
func (SegRedOp) kernelOp() {}

// SegScanOp is a segmented scan kernel, structurally identical to SegRedOp
// but keeping every intermediate partial result.
type SegScanOp struct {
	SpaceDims     []SpaceDim
	Op            *Lambda
	Nes           []SubExp
	Inputs        []KernelInput
	ReturnTypes   []Type
	WorkgroupSize SubExp
}

func (SegScanOp) exp()      {}
func (SegScanOp) op()       {}
func (SegScanOp) kernelOp() {}

// HostOp is a catch-all for operations that run on the host rather than on
// the device. No pass in this module constructs one; the degenerate-kernel
// peephole rewrites an identity kernel into a Copy instead.
type HostOp struct {
	Name string
	Args []SubExp
}

func (HostOp) exp()      {}
func (HostOp) op()       {}
func (HostOp) kernelOp() {}

// MemSummary is the per-array decoration attached to let-bound names and
// parameters once the ExplicitMemory pass has run: either the name is a
// plain scalar, or it names an array backed by a memory block through an
// index function.
type MemSummary struct {
	IsScalar bool
	Mem      VName        // the owning memory block, when !IsScalar
	IxFun    *ixfun.IxFun // the array's index function into Mem, when !IsScalar
}

// ScalarSummary is the MemSummary for a non-array let-bound name.
func ScalarSummary() MemSummary { return MemSummary{IsScalar: true} }
