package simplify

import (
	"futhark-core/internal/ir"
	"futhark-core/internal/namesupply"
)

func bitWidth(p ir.PrimType) int {
	switch p {
	case ir.I8:
		return 8
	case ir.I16:
		return 16
	case ir.I32:
		return 32
	default:
		return 64
	}
}

// wrap applies two's-complement wraparound for Add/Sub/Mul.
func wrap(v int64, p ir.PrimType) int64 {
	w := bitWidth(p)
	if w == 64 {
		return v
	}
	mask := int64(1)<<uint(w) - 1
	v &= mask
	signBit := int64(1) << uint(w-1)
	if v&signBit != 0 {
		v -= mask + 1
	}
	return v
}

// ruleConstantFold evaluates BinOp/CmpOp/UnOp when every operand is a
// known constant (ConvOp is not folded), refusing to fold division/modulus
// by a zero constant.
func ruleConstantFold(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	if len(s.Pattern) != 1 {
		return nil, false
	}
	switch e := s.Exp.(type) {
	case ir.BinOp:
		xc, xok := st.ConstOf(e.X)
		yc, yok := st.ConstOf(e.Y)
		if !xok || !yok {
			return nil, false
		}
		xi, xiok := intVal(xc)
		yi, yiok := intVal(yc)
		if !xiok || !yiok {
			return nil, false
		}
		if isDivOrMod(e.Op) && yi == 0 {
			return nil, false // never fold division/modulus by zero
		}
		result, ok := foldBinOp(e.Op, xi, yi, e.Type)
		if !ok {
			return nil, false
		}
		return replace(s, ir.Constant{Value: ir.IntValue{Bits: e.Type, Val: result}}), true

	case ir.CmpOp:
		xc, xok := st.ConstOf(e.X)
		yc, yok := st.ConstOf(e.Y)
		if !xok || !yok {
			return nil, false
		}
		xi, xiok := intVal(xc)
		yi, yiok := intVal(yc)
		if !xiok || !yiok {
			return nil, false
		}
		return replace(s, ir.Constant{Value: ir.BoolValue(foldCmpOp(e.Op, xi, yi))}), true

	case ir.UnOp:
		xc, xok := st.ConstOf(e.X)
		if !xok {
			return nil, false
		}
		xi, ok := intVal(xc)
		if !ok {
			return nil, false
		}
		var result int64
		switch e.Op {
		case ir.Neg:
			result = wrap(-xi, e.Type)
		case ir.Not:
			result = ^xi
		case ir.Abs:
			if xi < 0 {
				result = wrap(-xi, e.Type)
			} else {
				result = xi
			}
		default:
			return nil, false
		}
		return replace(s, ir.Constant{Value: ir.IntValue{Bits: e.Type, Val: result}}), true
	}
	return nil, false
}

func isDivOrMod(op ir.BinOpKind) bool {
	switch op {
	case ir.SDiv, ir.UDiv, ir.SQuot, ir.SRem, ir.SMod, ir.UMod:
		return true
	}
	return false
}

func foldBinOp(op ir.BinOpKind, x, y int64, t ir.PrimType) (int64, bool) {
	switch op {
	case ir.Add:
		return wrap(x+y, t), true
	case ir.Sub:
		return wrap(x-y, t), true
	case ir.Mul:
		return wrap(x*y, t), true
	case ir.SDiv:
		q := x / y
		if (x%y != 0) && ((x < 0) != (y < 0)) {
			q--
		}
		return q, true
	case ir.UDiv:
		return int64(uint64(x) / uint64(y)), true
	case ir.SQuot:
		return x / y, true
	case ir.SRem:
		return x % y, true
	case ir.SMod:
		m := x % y
		if m != 0 && (m < 0) != (y < 0) {
			m += y
		}
		return m, true
	case ir.UMod:
		return int64(uint64(x) % uint64(y)), true
	case ir.And:
		return x & y, true
	case ir.Or:
		return x | y, true
	case ir.Xor:
		return x ^ y, true
	case ir.Shl:
		return wrap(x<<uint(y), t), true
	case ir.LShr:
		return int64(uint64(x) >> uint(y)), true
	case ir.AShr:
		return x >> uint(y), true
	case ir.LogAnd:
		return boolToInt(x != 0 && y != 0), true
	case ir.LogOr:
		return boolToInt(x != 0 || y != 0), true
	default:
		return 0, false
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func foldCmpOp(op ir.CmpOpKind, x, y int64) bool {
	switch op {
	case ir.CmpEq:
		return x == y
	case ir.CmpLt:
		return uint64(x) < uint64(y)
	case ir.CmpLe:
		return uint64(x) <= uint64(y)
	case ir.CmpSlt:
		return x < y
	case ir.CmpSle:
		return x <= y
	default:
		return false
	}
}

// ruleAlgebraicIdentity covers x+0 -> x, x*1 -> x, x*0 -> 0, x-0 -> x, and
// their symmetric forms.
func ruleAlgebraicIdentity(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	e, ok := s.Exp.(ir.BinOp)
	if !ok || len(s.Pattern) != 1 {
		return nil, false
	}
	xc, xIsConst := st.ConstOf(e.X)
	yc, yIsConst := st.ConstOf(e.Y)
	switch e.Op {
	case ir.Add:
		if yIsConst {
			if v, ok := intVal(yc); ok && v == 0 {
				return replace(s, e.X), true
			}
		}
		if xIsConst {
			if v, ok := intVal(xc); ok && v == 0 {
				return replace(s, e.Y), true
			}
		}
	case ir.Sub:
		if yIsConst {
			if v, ok := intVal(yc); ok && v == 0 {
				return replace(s, e.X), true
			}
		}
	case ir.Mul:
		if yIsConst {
			if v, ok := intVal(yc); ok {
				if v == 1 {
					return replace(s, e.X), true
				}
				if v == 0 {
					return replace(s, ir.Constant{Value: ir.IntValue{Bits: e.Type, Val: 0}}), true
				}
			}
		}
		if xIsConst {
			if v, ok := intVal(xc); ok {
				if v == 1 {
					return replace(s, e.Y), true
				}
				if v == 0 {
					return replace(s, ir.Constant{Value: ir.IntValue{Bits: e.Type, Val: 0}}), true
				}
			}
		}
	}
	return nil, false
}

// ruleIndexIntoReshape rewrites an Index of a Reshape's result directly into
// an index of the reshape's source when the shapes have equal rank (the
// common case: a reshape that is really just a rename), avoiding
// materializing the reshape.
func ruleIndexIntoReshape(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	idx, ok := s.Exp.(ir.Index)
	if !ok {
		return nil, false
	}
	def, ok := st.Lookup(idx.Arr)
	if !ok {
		return nil, false
	}
	rs, ok := def.Expr.(ir.Reshape)
	if !ok || len(rs.NewShape) != len(idx.Slice) {
		return nil, false
	}
	src, ok := st.Lookup(rs.Arr)
	if !ok {
		return nil, false
	}
	srcArr, ok := src.Type.(ir.Array)
	if !ok || len(srcArr.Shape) != len(rs.NewShape) {
		return nil, false
	}
	return replace(s, nil, ir.Index{Arr: rs.Arr, Slice: idx.Slice}), true
}

// ruleIndexIntoReplicate folds `index (replicate n v) [i]` to v directly,
// when every slice position is a fixed index (no slicing): replicate's
// result is uniform, so any full index yields the same value.
func ruleIndexIntoReplicate(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	idx, ok := s.Exp.(ir.Index)
	if !ok {
		return nil, false
	}
	def, ok := st.Lookup(idx.Arr)
	if !ok {
		return nil, false
	}
	rep, ok := def.Expr.(ir.Replicate)
	if !ok {
		return nil, false
	}
	for _, d := range idx.Slice {
		if _, ok := d.(ir.DimFix); !ok {
			return nil, false
		}
	}
	return replace(s, rep.Value), true
}

// ruleIndexIntoIota folds `index (iota n) [i]` to `start + i*stride`.
func ruleIndexIntoIota(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	idx, ok := s.Exp.(ir.Index)
	if !ok || len(idx.Slice) != 1 {
		return nil, false
	}
	fix, ok := idx.Slice[0].(ir.DimFix)
	if !ok {
		return nil, false
	}
	def, ok := st.Lookup(idx.Arr)
	if !ok {
		return nil, false
	}
	iota, ok := def.Expr.(ir.Iota)
	if !ok {
		return nil, false
	}
	startC, sOk := st.ConstOf(iota.Start)
	strideC, stOk := st.ConstOf(iota.Stride)
	iC, iOk := st.ConstOf(fix.I)
	if !sOk || !stOk || !iOk {
		return nil, false
	}
	startV, _ := intVal(startC)
	strideV, _ := intVal(strideC)
	iV, _ := intVal(iC)
	return replace(s, ir.Constant{Value: ir.IntValue{Bits: iota.IntType, Val: startV + iV*strideV}}), true
}

// ruleEmptySplitRemoval removes a Split whose every resulting piece has
// statically-zero size, binding each pattern name to a zero-length Scratch
// instead.
func ruleEmptySplitRemoval(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	sp, ok := s.Exp.(ir.Split)
	if !ok {
		return nil, false
	}
	for _, sz := range sp.Sizes {
		c, ok := st.ConstOf(sz)
		if !ok {
			return nil, false
		}
		v, ok := intVal(c)
		if !ok || v != 0 {
			return nil, false
		}
	}
	arrType, ok := st.Lookup(sp.Arr)
	elem := ir.I32
	if ok {
		if a, ok := arrType.Type.(ir.Array); ok {
			elem = a.Elem
		}
	}
	out := make([]ir.Stmt, len(s.Pattern))
	for i, pe := range s.Pattern {
		out[i] = ir.Stmt{Pattern: []ir.PatElem{pe}, Exp: ir.Scratch{Elem: elem, Shape: ir.Shape{ir.Free{Size: ir.Constant{Value: ir.IntValue{Bits: ir.I64, Val: 0}}}}}}
	}
	return out, true
}

// ruleBranchConditionFolds evaluates an If whose condition is a known
// constant, splicing in the taken branch's statements directly.
func ruleBranchConditionFolds(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	iff, ok := s.Exp.(ir.If)
	if !ok {
		return nil, false
	}
	c, ok := st.ConstOf(iff.Cond)
	if !ok {
		return nil, false
	}
	b, ok := boolVal(c)
	if !ok {
		return nil, false
	}
	branch := iff.False
	if b {
		branch = iff.True
	}
	out := append([]ir.Stmt{}, branch.Stmts...)
	for i, pe := range s.Pattern {
		if i < len(branch.Result) {
			out = append(out, ir.Stmt{Pattern: []ir.PatElem{pe}, Exp: ir.SubExpOp{SubExp: branch.Result[i]}})
		}
	}
	return out, true
}

// ruleBooleanBranchFlattening rewrites `if c then x else y : bool` (with
// empty branch bodies, each just returning a SubExp) into
// `(c && x) || (!c && y)`, removing a branch entirely.
func ruleBooleanBranchFlattening(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	iff, ok := s.Exp.(ir.If)
	if !ok || len(iff.RetType) != 1 || len(s.Pattern) != 1 {
		return nil, false
	}
	if _, ok := iff.RetType[0].(ir.Scalar); !ok || iff.RetType[0].(ir.Scalar).Prim != ir.Bool {
		return nil, false
	}
	if len(iff.True.Stmts) != 0 || len(iff.False.Stmts) != 0 {
		return nil, false
	}
	if len(iff.True.Result) != 1 || len(iff.False.Result) != 1 {
		return nil, false
	}
	x := iff.True.Result[0]
	y := iff.False.Result[0]
	pe := s.Pattern[0]

	notC := ns.Fresh("not_cond")
	andL := ns.Fresh("and_l")
	andR := ns.Fresh("and_r")
	out := []ir.Stmt{
		{Pattern: []ir.PatElem{{Name: notC, Type: ir.Scalar{Prim: ir.Bool}}}, Exp: ir.UnOp{Op: ir.Not, Type: ir.Bool, X: iff.Cond}},
		{Pattern: []ir.PatElem{{Name: andL, Type: ir.Scalar{Prim: ir.Bool}}}, Exp: ir.BinOp{Op: ir.LogAnd, Type: ir.Bool, X: iff.Cond, Y: x}},
		{Pattern: []ir.PatElem{{Name: andR, Type: ir.Scalar{Prim: ir.Bool}}}, Exp: ir.BinOp{Op: ir.LogAnd, Type: ir.Bool, X: ir.Var{Name: notC}, Y: y}},
		{Pattern: []ir.PatElem{pe}, Exp: ir.BinOp{Op: ir.LogOr, Type: ir.Bool, X: ir.Var{Name: andL}, Y: ir.Var{Name: andR}}},
	}
	return out, true
}

// ruleReshapeOfReshape fuses `reshape s2 (reshape s1 a)` into `reshape s2 a`.
func ruleReshapeOfReshape(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	rs, ok := s.Exp.(ir.Reshape)
	if !ok {
		return nil, false
	}
	def, ok := st.Lookup(rs.Arr)
	if !ok {
		return nil, false
	}
	inner, ok := def.Expr.(ir.Reshape)
	if !ok {
		return nil, false
	}
	return replace(s, nil, ir.Reshape{Arr: inner.Arr, NewShape: rs.NewShape}), true
}

// ruleIdentityReshapeRemoval removes a Reshape whose target shape already
// equals its source's statically-known shape.
func ruleIdentityReshapeRemoval(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	rs, ok := s.Exp.(ir.Reshape)
	if !ok {
		return nil, false
	}
	def, ok := st.Lookup(rs.Arr)
	if !ok {
		return nil, false
	}
	arrType, ok := def.Type.(ir.Array)
	if !ok || len(arrType.Shape) != len(rs.NewShape) {
		return nil, false
	}
	for i := range arrType.Shape {
		if !shapeDimEqual(st, arrType.Shape[i], rs.NewShape[i]) {
			return nil, false
		}
	}
	return replace(s, ir.Var{Name: rs.Arr}), true
}

func shapeDimEqual(st *SymbolTable, a, b ir.DimSize) bool {
	af, aok := a.(ir.Free)
	bf, bok := b.(ir.Free)
	if !aok || !bok {
		return false
	}
	ac, aok := st.ConstOf(af.Size)
	bc, bok := st.ConstOf(bf.Size)
	if !aok || !bok {
		return false
	}
	av, _ := intVal(ac)
	bv, _ := intVal(bc)
	return av == bv
}

// ruleCopyOfScratch rewrites `copy (scratch ...)` to the scratch itself —
// scratch is already uninitialized, fresh storage, so copying it is a no-op.
func ruleCopyOfScratch(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	cp, ok := s.Exp.(ir.Copy)
	if !ok {
		return nil, false
	}
	def, ok := st.Lookup(cp.Arr)
	if !ok {
		return nil, false
	}
	sc, ok := def.Expr.(ir.Scratch)
	if !ok {
		return nil, false
	}
	return replace(s, nil, sc), true
}

// ruleCopyOfIota rewrites `copy (iota n)` to `iota n` directly: an Iota
// already produces fresh, alias-free storage, so the Copy is
// redundant. This is the deliberate counterpart to "copy of transpose is
// preserved".
func ruleCopyOfIota(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	cp, ok := s.Exp.(ir.Copy)
	if !ok {
		return nil, false
	}
	def, ok := st.Lookup(cp.Arr)
	if !ok {
		return nil, false
	}
	io, ok := def.Expr.(ir.Iota)
	if !ok {
		return nil, false
	}
	return replace(s, nil, io), true
}

// ruleMapWriteFusion fuses a Map that produces a Write's sole values array
// directly into that Write, leaving exactly one Write construct with a
// non-nil Lambda and no intervening Map statement.
func ruleMapWriteFusion(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	wr, ok := s.Exp.(ir.Write)
	if !ok || wr.Lambda != nil || len(wr.Arrs) != 1 {
		return nil, false
	}
	def, ok := st.Lookup(wr.Arrs[0])
	if !ok {
		return nil, false
	}
	m, ok := def.Expr.(ir.Map)
	if !ok {
		return nil, false
	}
	return replace(s, nil, ir.Write{
		Indices: wr.Indices,
		Lambda:  m.Lambda,
		Arrs:    m.Arrs,
		Dest:    wr.Dest,
	}), true
}

// ruleUnrollSingleIterationLoop replaces `for i < 1` with its straight-line
// equivalent: the counter bound to 0, each merge parameter bound to its
// initial value, the body spliced in, and each pattern name bound to the
// corresponding body result.
func ruleUnrollSingleIterationLoop(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	loop, ok := s.Exp.(ir.DoLoop)
	if !ok {
		return nil, false
	}
	fl, ok := loop.Form.(ir.ForLoop)
	if !ok {
		return nil, false
	}
	bc, ok := st.ConstOf(fl.Bound)
	if !ok {
		return nil, false
	}
	bv, ok := intVal(bc)
	if !ok || bv != 1 {
		return nil, false
	}
	merges := loop.MergeParams()
	if len(merges) != len(s.Pattern) || len(merges) != len(loop.Body.Result) {
		return nil, false
	}

	var out []ir.Stmt
	out = append(out, ir.Stmt{
		Pattern: []ir.PatElem{{Name: fl.I, Type: ir.Scalar{Prim: fl.IterType}}},
		Exp:     ir.SubExpOp{SubExp: ir.Constant{Value: ir.IntValue{Bits: fl.IterType, Val: 0}}},
	})
	for _, mp := range merges {
		out = append(out, ir.Stmt{
			Pattern: []ir.PatElem{{Name: mp.Param.Name, Type: mp.Param.Type, Dec: mp.Param.Dec}},
			Exp:     ir.SubExpOp{SubExp: mp.Init},
		})
	}
	out = append(out, loop.Body.Stmts...)
	for i, pe := range s.Pattern {
		out = append(out, ir.Stmt{
			Pattern: []ir.PatElem{pe},
			Exp:     ir.SubExpOp{SubExp: loop.Body.Result[i]},
		})
	}
	return out, true
}

// ruleLoopInvariantMergeHoist removes a value merge parameter the loop never
// changes (its body result re-yields the parameter itself): the parameter is
// bound to its initial value once, before the loop, and the loop's own
// pattern slot becomes a rename of it.
func ruleLoopInvariantMergeHoist(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	loop, ok := s.Exp.(ir.DoLoop)
	if !ok {
		return nil, false
	}
	merges := loop.MergeParams()
	if len(merges) != len(s.Pattern) || len(merges) != len(loop.Body.Result) {
		return nil, false
	}
	wl, isWhile := loop.Form.(ir.WhileLoop)

	invariant := -1
	for i := len(loop.CtxParams); i < len(merges); i++ {
		mp := merges[i]
		if isWhile && mp.Param.Name.Equal(wl.CondName) {
			continue // the loop condition must stay a merge parameter
		}
		if v, ok := loop.Body.Result[i].(ir.Var); ok && v.Name.Equal(mp.Param.Name) {
			invariant = i
			break
		}
	}
	if invariant == -1 || len(merges) == 1 {
		return nil, false
	}

	mp := merges[invariant]
	before := ir.Stmt{
		Pattern: []ir.PatElem{{Name: mp.Param.Name, Type: mp.Param.Type, Dec: mp.Param.Dec}},
		Exp:     ir.SubExpOp{SubExp: mp.Init},
	}
	after := ir.Stmt{
		Pattern: []ir.PatElem{s.Pattern[invariant]},
		Exp:     ir.SubExpOp{SubExp: ir.Var{Name: mp.Param.Name}},
	}

	var newCtx, newVal []ir.MergeParam
	var newPattern []ir.PatElem
	var newResult []ir.SubExp
	for i, m := range merges {
		if i == invariant {
			continue
		}
		if i < len(loop.CtxParams) {
			newCtx = append(newCtx, m)
		} else {
			newVal = append(newVal, m)
		}
		newPattern = append(newPattern, s.Pattern[i])
		newResult = append(newResult, loop.Body.Result[i])
	}
	newLoop := loop
	newLoop.CtxParams = newCtx
	newLoop.ValParams = newVal
	newLoop.Body = ir.Body{Stmts: loop.Body.Stmts, Result: newResult, Dec: loop.Body.Dec}
	return []ir.Stmt{before, {Pattern: newPattern, Certs: s.Certs, Exp: newLoop}, after}, true
}

// ruleSimplifyBranchContext discharges an existential dimension in an If's
// result type when both branches supply the same actual size for it: the
// Ext placeholder becomes a concrete Free dimension. The now
// redundant context result itself is left for the dead-branch-result rule to
// collect once nothing references it.
func ruleSimplifyBranchContext(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	iff, ok := s.Exp.(ir.If)
	if !ok {
		return nil, false
	}
	changed := false
	newRet := make([]ir.Type, len(iff.RetType))
	for i, t := range iff.RetType {
		arr, ok := t.(ir.Array)
		if !ok {
			newRet[i] = t
			continue
		}
		newShape := make(ir.Shape, len(arr.Shape))
		for j, d := range arr.Shape {
			ext, ok := d.(ir.Ext)
			if !ok {
				newShape[j] = d
				continue
			}
			if ext.Which < 0 || ext.Which >= len(iff.True.Result) || ext.Which >= len(iff.False.Result) {
				newShape[j] = d
				continue
			}
			tr := iff.True.Result[ext.Which]
			fr := iff.False.Result[ext.Which]
			if !sameSubExp(tr, fr) {
				newShape[j] = d
				continue
			}
			// The agreed size must be meaningful outside the If: a constant,
			// or a variable neither branch binds itself.
			if v, isVar := tr.(ir.Var); isVar {
				if boundInBranch(iff.True, v.Name) || boundInBranch(iff.False, v.Name) {
					newShape[j] = d
					continue
				}
			}
			newShape[j] = ir.Free{Size: tr}
			changed = true
		}
		arr.Shape = newShape
		newRet[i] = arr
	}
	if !changed {
		return nil, false
	}
	newIf := iff
	newIf.RetType = newRet
	return []ir.Stmt{{Pattern: s.Pattern, Certs: s.Certs, Exp: newIf}}, true
}

func boundInBranch(b ir.Body, n ir.VName) bool {
	found := false
	ir.WalkBodyStmts(b, func(s ir.Stmt) {
		for _, pe := range s.Pattern {
			if pe.Name.Equal(n) {
				found = true
			}
		}
	})
	return found
}

// ruleBranchCSEHack is a narrowly-scoped branch-CSE rule, preserved as a
// known hack flagged for replacement by proper value numbering. It fires
// only when both branches of an If bind the *same* single let-expression
// before diverging — i.e. `if c then {x = e; ...} else {x = e; ...}` with
// the defining expressions for x syntactically identical after
// substituting each branch's own bound names — in which case that shared
// prefix statement is hoisted above the If.
//
// TODO: replace with proper value numbering once internal/simplify grows a
// congruence-class table; syntactic equality under-approximates real
// redundancy (e.g. commuted operands are missed).
func ruleBranchCSEHack(st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	iff, ok := s.Exp.(ir.If)
	if !ok || len(iff.True.Stmts) == 0 || len(iff.False.Stmts) == 0 {
		return nil, false
	}
	a := iff.True.Stmts[0]
	b := iff.False.Stmts[0]
	if !sameShapeExp(a.Exp, b.Exp) {
		return nil, false
	}
	if len(a.Pattern) != len(b.Pattern) {
		return nil, false
	}
	// Rename b's bound names to a's in the remaining branch bodies, then
	// hoist a's statement above the If, leaving both branches one shorter.
	subst := make(map[ir.VName]ir.VName, len(b.Pattern))
	for i := range a.Pattern {
		subst[b.Pattern[i].Name] = a.Pattern[i].Name
	}
	newFalse := ir.SubstituteNames(subst, ir.Body{Stmts: iff.False.Stmts[1:], Result: iff.False.Result})
	newIf := iff
	newIf.True = ir.Body{Stmts: iff.True.Stmts[1:], Result: iff.True.Result}
	newIf.False = newFalse
	return []ir.Stmt{a, {Pattern: s.Pattern, Certs: s.Certs, Exp: newIf}}, true
}

// sameShapeExp is a cheap syntactic-equality check sufficient for the
// branch-CSE hack: same constructor and same operand SubExps/fields, not a
// general structural-equality traversal.
func sameShapeExp(a, b ir.Exp) bool {
	switch av := a.(type) {
	case ir.BinOp:
		bv, ok := b.(ir.BinOp)
		return ok && av.Op == bv.Op && av.Type == bv.Type && sameSubExp(av.X, bv.X) && sameSubExp(av.Y, bv.Y)
	case ir.Iota:
		bv, ok := b.(ir.Iota)
		return ok && sameSubExp(av.Count, bv.Count) && sameSubExp(av.Start, bv.Start) && sameSubExp(av.Stride, bv.Stride)
	case ir.Copy:
		bv, ok := b.(ir.Copy)
		return ok && av.Arr.Equal(bv.Arr)
	default:
		return false
	}
}

func sameSubExp(a, b ir.SubExp) bool {
	switch av := a.(type) {
	case ir.Var:
		bv, ok := b.(ir.Var)
		return ok && av.Name.Equal(bv.Name)
	case ir.Constant:
		bv, ok := b.(ir.Constant)
		return ok && av.Value.String() == bv.Value.String()
	}
	return false
}

// replace is a small helper constructing the single-statement replacement
// list most rules return: the statement binds se through a SubExpOp, or,
// when an expOverride is passed, that expression instead (se is then
// ignored).
func replace(s ir.Stmt, se ir.SubExp, expOverride ...ir.Exp) []ir.Stmt {
	if len(expOverride) > 0 {
		return []ir.Stmt{{Pattern: s.Pattern, Certs: s.Certs, Exp: expOverride[0]}}
	}
	return []ir.Stmt{{Pattern: s.Pattern, Certs: s.Certs, Exp: ir.SubExpOp{SubExp: se}}}
}
