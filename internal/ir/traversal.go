package ir

// This file is the shared traversal layer: FreeIn, SubstituteNames, and the
// open-recursion MapExp/WalkExp pair. Several passes (internal/alias,
// internal/simplify, internal/kernels and others) also recurse over
// If/DoLoop bodies with their own type switches.

// NameSet is a small set of VNames, used throughout for free-variable and
// alias computations.
type NameSet map[VName]struct{}

func NewNameSet(names ...VName) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s NameSet) Insert(n VName) { s[n] = struct{}{} }

func (s NameSet) Has(n VName) bool {
	_, ok := s[n]
	return ok
}

// Union returns a new set containing every name in s or o.
func (s NameSet) Union(o NameSet) NameSet {
	out := make(NameSet, len(s)+len(o))
	for n := range s {
		out[n] = struct{}{}
	}
	for n := range o {
		out[n] = struct{}{}
	}
	return out
}

// Minus returns a new set containing every name in s not in o.
func (s NameSet) Minus(o NameSet) NameSet {
	out := make(NameSet, len(s))
	for n := range s {
		if !o.Has(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

func (s NameSet) List() []VName {
	out := make([]VName, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	return out
}

// freeInSubExp adds n's referenced name, if any, to acc.
func freeInSubExp(se SubExp, acc NameSet) {
	if v, ok := se.(Var); ok {
		acc.Insert(v.Name)
	}
}

func freeInSubExps(ses []SubExp, acc NameSet) {
	for _, se := range ses {
		freeInSubExp(se, acc)
	}
}

func freeInDimSize(d DimSize, acc NameSet) {
	if f, ok := d.(Free); ok {
		freeInSubExp(f.Size, acc)
	}
}

func freeInShape(s Shape, acc NameSet) {
	for _, d := range s {
		freeInDimSize(d, acc)
	}
}

func freeInType(t Type, acc NameSet) {
	switch tv := t.(type) {
	case Array:
		freeInShape(tv.Shape, acc)
	case Memory:
		if tv.Size != nil {
			freeInSubExp(tv.Size, acc)
		}
	}
}

func freeInDimIndex(d DimIndex, acc NameSet) {
	switch dv := d.(type) {
	case DimFix:
		freeInSubExp(dv.I, acc)
	case DimSlice:
		freeInSubExp(dv.Start, acc)
		freeInSubExp(dv.Count, acc)
		freeInSubExp(dv.Stride, acc)
	}
}

// FreeInBody returns the names referenced in body but bound neither inside it
// nor by its own Result-producing statements.
func FreeInBody(b Body) NameSet {
	bound := NewNameSet()
	free := NewNameSet()
	for _, stmt := range b.Stmts {
		stmtFree := FreeInExp(stmt.Exp)
		for n := range stmtFree {
			if !bound.Has(n) {
				free.Insert(n)
			}
		}
		for _, c := range stmt.Certs {
			if !bound.Has(c) {
				free.Insert(c)
			}
		}
		for _, pe := range stmt.Pattern {
			bound.Insert(pe.Name)
		}
	}
	for _, r := range b.Result {
		if v, ok := r.(Var); ok && !bound.Has(v.Name) {
			free.Insert(v.Name)
		}
	}
	return free
}

// FreeInExp returns the free variables of a single expression, without
// descending into a surrounding body's later statements.
func FreeInExp(e Exp) NameSet {
	acc := NewNameSet()
	switch ev := e.(type) {
	case SubExpOp:
		freeInSubExp(ev.SubExp, acc)
	case Index:
		acc.Insert(ev.Arr)
		for _, d := range ev.Slice {
			freeInDimIndex(d, acc)
		}
	case Reshape:
		acc.Insert(ev.Arr)
		freeInShape(ev.NewShape, acc)
	case Rearrange:
		acc.Insert(ev.Arr)
	case Rotate:
		acc.Insert(ev.Arr)
		freeInSubExps(ev.Amounts, acc)
	case Repeat:
		acc.Insert(ev.Arr)
		freeInShape(ev.Outer, acc)
	case Split:
		acc.Insert(ev.Arr)
		freeInSubExps(ev.Sizes, acc)
	case Concat:
		for _, a := range ev.Arrs {
			acc.Insert(a)
		}
		freeInSubExp(ev.Size, acc)
	case Replicate:
		freeInShape(ev.Shape, acc)
		freeInSubExp(ev.Value, acc)
	case Iota:
		freeInSubExp(ev.Count, acc)
		freeInSubExp(ev.Start, acc)
		freeInSubExp(ev.Stride, acc)
	case Copy:
		acc.Insert(ev.Arr)
	case Scratch:
		freeInShape(ev.Shape, acc)
	case Alloc:
		freeInSubExp(ev.Size, acc)
	case Update:
		acc.Insert(ev.Arr)
		for _, d := range ev.Slice {
			freeInDimIndex(d, acc)
		}
		freeInSubExp(ev.Value, acc)
	case Write:
		acc.Insert(ev.Indices)
		for _, a := range ev.Arrs {
			acc.Insert(a)
		}
		acc.Insert(ev.Dest)
		acc = acc.Union(freeInLambda(ev.Lambda))
	case ArrayLit:
		freeInSubExps(ev.Rows, acc)
	case Assert:
		freeInSubExp(ev.Cond, acc)
	case BinOp:
		freeInSubExp(ev.X, acc)
		freeInSubExp(ev.Y, acc)
	case CmpOp:
		freeInSubExp(ev.X, acc)
		freeInSubExp(ev.Y, acc)
	case UnOp:
		freeInSubExp(ev.X, acc)
	case ConvOp:
		freeInSubExp(ev.X, acc)
	case Apply:
		for _, a := range ev.Args {
			freeInSubExp(a.Arg, acc)
		}
	case If:
		bodyFree := FreeInBody(ev.True).Union(FreeInBody(ev.False))
		acc = acc.Union(bodyFree)
		freeInSubExp(ev.Cond, acc)
	case DoLoop:
		params := ev.MergeParams()
		bound := NewNameSet()
		for _, mp := range params {
			bound.Insert(mp.Param.Name)
			freeInSubExp(mp.Init, acc)
			freeInType(mp.Param.Type, acc)
		}
		if fl, ok := ev.Form.(ForLoop); ok {
			freeInSubExp(fl.Bound, acc)
		}
		bodyFree := FreeInBody(ev.Body)
		for n := range bodyFree {
			if !bound.Has(n) {
				acc.Insert(n)
			}
		}
	case Map:
		freeInSubExp(ev.W, acc)
		for _, a := range ev.Arrs {
			acc.Insert(a)
		}
		acc = acc.Union(freeInLambda(ev.Lambda))
	case Reduce:
		freeInSubExp(ev.W, acc)
		freeInSubExps(ev.Nes, acc)
		for _, a := range ev.Arrs {
			acc.Insert(a)
		}
		acc = acc.Union(freeInLambda(ev.Lambda))
	case Scan:
		freeInSubExp(ev.W, acc)
		freeInSubExps(ev.Nes, acc)
		for _, a := range ev.Arrs {
			acc.Insert(a)
		}
		acc = acc.Union(freeInLambda(ev.Lambda))
	case Redomap:
		freeInSubExp(ev.W, acc)
		freeInSubExps(ev.Nes, acc)
		for _, a := range ev.Arrs {
			acc.Insert(a)
		}
		acc = acc.Union(freeInLambda(ev.ReduceFn))
		acc = acc.Union(freeInLambda(ev.MapFn))
	case Stream:
		freeInSubExp(ev.W, acc)
		freeInSubExps(ev.Nes, acc)
		for _, a := range ev.Arrs {
			acc.Insert(a)
		}
		acc = acc.Union(freeInLambda(ev.ChunkFn))
	case MapKernelOp:
		for _, sd := range ev.SpaceDims {
			freeInSubExp(sd.Bound, acc)
		}
		bound := NewNameSet()
		for _, sd := range ev.SpaceDims {
			bound.Insert(sd.Gtid)
		}
		for _, in := range ev.Inputs {
			acc.Insert(in.Arr)
			freeInSubExps(in.IndexExp, acc)
			bound.Insert(in.Name)
		}
		for n := range FreeInBody(ev.Body) {
			if !bound.Has(n) {
				acc.Insert(n)
			}
		}
	case SegRedOp:
		acc = acc.Union(freeInSegOp(ev.SpaceDims, ev.Op, ev.Nes, ev.Inputs, ev.WorkgroupSize))
	case SegScanOp:
		acc = acc.Union(freeInSegOp(ev.SpaceDims, ev.Op, ev.Nes, ev.Inputs, ev.WorkgroupSize))
	case HostOp:
		freeInSubExps(ev.Args, acc)
	}
	return acc
}

func freeInSegOp(dims []SpaceDim, op *Lambda, nes []SubExp, inputs []KernelInput, wg SubExp) NameSet {
	acc := NewNameSet()
	for _, sd := range dims {
		freeInSubExp(sd.Bound, acc)
	}
	freeInSubExps(nes, acc)
	for _, in := range inputs {
		acc.Insert(in.Arr)
		freeInSubExps(in.IndexExp, acc)
	}
	if wg != nil {
		freeInSubExp(wg, acc)
	}
	return acc.Union(freeInLambda(op))
}

func freeInLambda(l *Lambda) NameSet {
	if l == nil {
		return NewNameSet()
	}
	bound := NewNameSet()
	for _, p := range l.Params {
		bound.Insert(p.Name)
	}
	acc := NewNameSet()
	for n := range FreeInBody(l.Body) {
		if !bound.Has(n) {
			acc.Insert(n)
		}
	}
	return acc
}

// substSubExp rewrites a SubExp's Var through subst, leaving Constants as-is.
func substSubExp(se SubExp, subst map[VName]VName) SubExp {
	if v, ok := se.(Var); ok {
		if r, ok := subst[v.Name]; ok {
			return Var{Name: r}
		}
	}
	return se
}

func substSubExps(ses []SubExp, subst map[VName]VName) []SubExp {
	out := make([]SubExp, len(ses))
	for i, se := range ses {
		out[i] = substSubExp(se, subst)
	}
	return out
}

func substName(n VName, subst map[VName]VName) VName {
	if r, ok := subst[n]; ok {
		return r
	}
	return n
}

func substNames(ns []VName, subst map[VName]VName) []VName {
	out := make([]VName, len(ns))
	for i, n := range ns {
		out[i] = substName(n, subst)
	}
	return out
}

func substDimSize(d DimSize, subst map[VName]VName) DimSize {
	if f, ok := d.(Free); ok {
		return Free{Size: substSubExp(f.Size, subst)}
	}
	return d
}

func substShape(s Shape, subst map[VName]VName) Shape {
	out := make(Shape, len(s))
	for i, d := range s {
		out[i] = substDimSize(d, subst)
	}
	return out
}

func substType(t Type, subst map[VName]VName) Type {
	switch tv := t.(type) {
	case Array:
		tv.Shape = substShape(tv.Shape, subst)
		return tv
	case Memory:
		if tv.Size != nil {
			tv.Size = substSubExp(tv.Size, subst)
		}
		return tv
	default:
		return t
	}
}

func substDimIndex(d DimIndex, subst map[VName]VName) DimIndex {
	switch dv := d.(type) {
	case DimFix:
		return DimFix{I: substSubExp(dv.I, subst)}
	case DimSlice:
		return DimSlice{
			Start:  substSubExp(dv.Start, subst),
			Count:  substSubExp(dv.Count, subst),
			Stride: substSubExp(dv.Stride, subst),
		}
	default:
		return d
	}
}

func substSlice(slice []DimIndex, subst map[VName]VName) []DimIndex {
	out := make([]DimIndex, len(slice))
	for i, d := range slice {
		out[i] = substDimIndex(d, subst)
	}
	return out
}

// SubstituteNames performs capture-avoiding substitution of VNames throughout
// a Body: every bound name stays put (renaming binders is the renamer's job,
// not substitution's), only uses are rewritten.
func SubstituteNames(subst map[VName]VName, b Body) Body {
	out := Body{Stmts: make([]Stmt, len(b.Stmts)), Result: substSubExps(b.Result, subst), Dec: b.Dec}
	for i, s := range b.Stmts {
		out.Stmts[i] = Stmt{
			Pattern: s.Pattern,
			Certs:   substNames(s.Certs, subst),
			Exp:     SubstituteNamesExp(subst, s.Exp),
			Dec:     s.Dec,
		}
	}
	return out
}

// SubstituteNamesExp is SubstituteNames specialized to one expression.
func SubstituteNamesExp(subst map[VName]VName, e Exp) Exp {
	lam := func(l *Lambda) *Lambda {
		if l == nil {
			return nil
		}
		return &Lambda{Params: l.Params, Body: SubstituteNames(subst, l.Body), RetType: l.RetType}
	}
	switch ev := e.(type) {
	case SubExpOp:
		return SubExpOp{SubExp: substSubExp(ev.SubExp, subst)}
	case Index:
		return Index{Arr: substName(ev.Arr, subst), Slice: substSlice(ev.Slice, subst)}
	case Reshape:
		return Reshape{Arr: substName(ev.Arr, subst), NewShape: substShape(ev.NewShape, subst)}
	case Rearrange:
		return Rearrange{Arr: substName(ev.Arr, subst), Perm: ev.Perm}
	case Rotate:
		return Rotate{Arr: substName(ev.Arr, subst), Amounts: substSubExps(ev.Amounts, subst)}
	case Repeat:
		return Repeat{Arr: substName(ev.Arr, subst), Outer: substShape(ev.Outer, subst)}
	case Split:
		return Split{Arr: substName(ev.Arr, subst), Sizes: substSubExps(ev.Sizes, subst)}
	case Concat:
		return Concat{Dim: ev.Dim, Arrs: substNames(ev.Arrs, subst), Size: substSubExp(ev.Size, subst)}
	case Replicate:
		return Replicate{Shape: substShape(ev.Shape, subst), Value: substSubExp(ev.Value, subst)}
	case Iota:
		return Iota{
			Count: substSubExp(ev.Count, subst), Start: substSubExp(ev.Start, subst),
			Stride: substSubExp(ev.Stride, subst), IntType: ev.IntType,
		}
	case Copy:
		return Copy{Arr: substName(ev.Arr, subst)}
	case Scratch:
		return Scratch{Elem: ev.Elem, Shape: substShape(ev.Shape, subst)}
	case Alloc:
		return Alloc{Size: substSubExp(ev.Size, subst), Space: ev.Space}
	case Update:
		return Update{Arr: substName(ev.Arr, subst), Slice: substSlice(ev.Slice, subst), Value: substSubExp(ev.Value, subst)}
	case Write:
		return Write{
			Indices: substName(ev.Indices, subst), Lambda: lam(ev.Lambda),
			Arrs: substNames(ev.Arrs, subst), Dest: substName(ev.Dest, subst),
		}
	case ArrayLit:
		return ArrayLit{Elem: ev.Elem, Rows: substSubExps(ev.Rows, subst)}
	case Assert:
		return Assert{Cond: substSubExp(ev.Cond, subst), Msg: ev.Msg}
	case BinOp:
		return BinOp{Op: ev.Op, Type: ev.Type, X: substSubExp(ev.X, subst), Y: substSubExp(ev.Y, subst)}
	case CmpOp:
		return CmpOp{Op: ev.Op, Type: ev.Type, X: substSubExp(ev.X, subst), Y: substSubExp(ev.Y, subst)}
	case UnOp:
		return UnOp{Op: ev.Op, Type: ev.Type, X: substSubExp(ev.X, subst)}
	case ConvOp:
		return ConvOp{Op: ev.Op, From: ev.From, To: ev.To, X: substSubExp(ev.X, subst)}
	case Apply:
		args := make([]ApplyArg, len(ev.Args))
		for i, a := range ev.Args {
			args[i] = ApplyArg{Arg: substSubExp(a.Arg, subst), Diet: a.Diet}
		}
		return Apply{Fun: ev.Fun, Args: args, RetType: ev.RetType}
	case If:
		return If{
			Cond: substSubExp(ev.Cond, subst), True: SubstituteNames(subst, ev.True),
			False: SubstituteNames(subst, ev.False), RetType: ev.RetType, Sort: ev.Sort,
		}
	case DoLoop:
		ctx := make([]MergeParam, len(ev.CtxParams))
		for i, mp := range ev.CtxParams {
			ctx[i] = MergeParam{Param: mp.Param, Init: substSubExp(mp.Init, subst)}
		}
		val := make([]MergeParam, len(ev.ValParams))
		for i, mp := range ev.ValParams {
			val[i] = MergeParam{Param: mp.Param, Init: substSubExp(mp.Init, subst)}
		}
		form := ev.Form
		if fl, ok := ev.Form.(ForLoop); ok {
			form = ForLoop{I: fl.I, IterType: fl.IterType, Bound: substSubExp(fl.Bound, subst)}
		}
		return DoLoop{CtxParams: ctx, ValParams: val, Form: form, Body: SubstituteNames(subst, ev.Body)}
	case Map:
		return Map{W: substSubExp(ev.W, subst), Lambda: lam(ev.Lambda), Arrs: substNames(ev.Arrs, subst)}
	case Reduce:
		return Reduce{W: substSubExp(ev.W, subst), Comm: ev.Comm, Lambda: lam(ev.Lambda), Nes: substSubExps(ev.Nes, subst), Arrs: substNames(ev.Arrs, subst)}
	case Scan:
		return Scan{W: substSubExp(ev.W, subst), Lambda: lam(ev.Lambda), Nes: substSubExps(ev.Nes, subst), Arrs: substNames(ev.Arrs, subst)}
	case Redomap:
		return Redomap{
			W: substSubExp(ev.W, subst), Comm: ev.Comm, ReduceFn: lam(ev.ReduceFn),
			Nes: substSubExps(ev.Nes, subst), MapFn: lam(ev.MapFn), Arrs: substNames(ev.Arrs, subst),
		}
	case Stream:
		return Stream{W: substSubExp(ev.W, subst), ChunkFn: lam(ev.ChunkFn), Nes: substSubExps(ev.Nes, subst), Arrs: substNames(ev.Arrs, subst)}
	case HostOp:
		return HostOp{Name: ev.Name, Args: substSubExps(ev.Args, subst)}
	default:
		// Kernel-lore Ops are rewritten only by kernel-extraction/
		// lowering passes that build their own replacements; substitution
		// before that point never reaches them.
		return e
	}
}

// Mapper hooks MapExp's traversal of a Body: each field is called for the
// corresponding sub-term and its return value replaces it. A nil field means
// "leave unchanged".
type Mapper struct {
	MapBody func(Body) Body
	MapOp   func(Op) Op
}

// MapExp applies m to every Body/Op reachable as an immediate child of e,
// without recursing further itself — callers recurse by supplying a Mapper
// whose MapBody/MapOp call back into MapExp.
func MapExp(m Mapper, e Exp) Exp {
	mapBody := func(b Body) Body {
		if m.MapBody != nil {
			return m.MapBody(b)
		}
		return b
	}
	switch ev := e.(type) {
	case If:
		ev.True = mapBody(ev.True)
		ev.False = mapBody(ev.False)
		return ev
	case DoLoop:
		ev.Body = mapBody(ev.Body)
		return ev
	default:
		if op, ok := e.(Op); ok && m.MapOp != nil {
			return m.MapOp(op)
		}
		return e
	}
}

// Walker hooks WalkExp the same way Mapper hooks MapExp, but for read-only
// traversal (no replacement).
type Walker struct {
	WalkBody func(Body)
	WalkOp   func(Op)
}

// WalkExp visits every Body/Op reachable as an immediate child of e.
func WalkExp(w Walker, e Exp) {
	walkBody := func(b Body) {
		if w.WalkBody != nil {
			w.WalkBody(b)
		}
	}
	switch ev := e.(type) {
	case If:
		walkBody(ev.True)
		walkBody(ev.False)
	case DoLoop:
		walkBody(ev.Body)
	default:
		if op, ok := e.(Op); ok && w.WalkOp != nil {
			w.WalkOp(op)
		}
	}
}

// WalkBodyStmts visits every statement's expression in a body with the given
// Walker, recursing into nested bodies it contains. This is the "generic
// recursor" most passes actually call (MapExp/WalkExp handle one level; this
// drives the fixed-point descent over a whole Body).
func WalkBodyStmts(b Body, visit func(Stmt)) {
	for _, s := range b.Stmts {
		visit(s)
		WalkExp(Walker{
			WalkBody: func(inner Body) { WalkBodyStmts(inner, visit) },
		}, s.Exp)
	}
}
