package frontend

import (
	"fmt"
	"strconv"
	"strings"

	"futhark-core/internal/ir"
)

// nameEnv tracks the highest tag seen, so Convert can hand back a seed
// NameSource per the front-end handoff contract ("strictly greater than any tag
// already occurring in the program").
type nameEnv struct {
	maxTag uint64
}

func (e *nameEnv) vname(tok string) (ir.VName, error) {
	idx := strings.LastIndex(tok, "_")
	if idx <= 0 || idx == len(tok)-1 {
		return ir.VName{}, fmt.Errorf("name %q is missing its _<tag> suffix", tok)
	}
	tag, err := strconv.ParseUint(tok[idx+1:], 10, 64)
	if err != nil {
		return ir.VName{}, fmt.Errorf("name %q has a non-numeric tag: %w", tok, err)
	}
	if tag > e.maxTag {
		e.maxTag = tag
	}
	return ir.VName{Base: tok[:idx], Tag: tag}, nil
}

// Convert turns a parsed Program into an ir.Program plus the seed tag to
// build a NameSource from (Convert itself never mints names; see
// ParseProgram for the full seed-NameSource step).
func Convert(p *Program) (ir.Program, uint64, error) {
	env := &nameEnv{}
	funs := make([]*ir.FunDef, len(p.Funcs))
	for i, f := range p.Funcs {
		cf, err := convertFunc(env, f)
		if err != nil {
			return ir.Program{}, 0, err
		}
		funs[i] = cf
	}
	return ir.Program{Lore: ir.SOACS, Funs: funs}, env.maxTag, nil
}

func convertFunc(env *nameEnv, f *Function) (*ir.FunDef, error) {
	params := make([]ir.Param, len(f.Params))
	for i, p := range f.Params {
		n, err := env.vname(p.Name)
		if err != nil {
			return nil, err
		}
		t, err := convertType(env, p.Type)
		if err != nil {
			return nil, err
		}
		params[i] = ir.Param{Name: n, Type: t}
	}
	rets := make([]ir.Type, len(f.Rets))
	for i, t := range f.Rets {
		ct, err := convertType(env, t)
		if err != nil {
			return nil, err
		}
		rets[i] = ct
	}
	body, err := convertBody(env, f.Body)
	if err != nil {
		return nil, err
	}
	return &ir.FunDef{Name: f.Name, Entry: f.Entry, Params: params, RetType: rets, Body: body}, nil
}

func convertType(env *nameEnv, t *Type) (ir.Type, error) {
	prim, err := convertPrim(t.Prim)
	if err != nil {
		return nil, err
	}
	if len(t.Dims) == 0 {
		return ir.Scalar{Prim: prim}, nil
	}
	shape := make(ir.Shape, len(t.Dims))
	for i, d := range t.Dims {
		ds, err := convertDim(env, d)
		if err != nil {
			return nil, err
		}
		shape[i] = ds
	}
	uniq := ir.Nonunique
	if t.Uniq {
		uniq = ir.Unique
	}
	return ir.Array{Elem: prim, Shape: shape, Uniq: uniq}, nil
}

func convertDim(env *nameEnv, d *Dim) (ir.DimSize, error) {
	if d.Int != nil {
		return ir.Free{Size: ir.Constant{Value: ir.IntValue{Bits: ir.I64, Val: *d.Int}}}, nil
	}
	n, err := env.vname(*d.Name)
	if err != nil {
		return nil, err
	}
	return ir.Free{Size: ir.Var{Name: n}}, nil
}

func convertPrim(s string) (ir.PrimType, error) {
	switch s {
	case "i8":
		return ir.I8, nil
	case "i16":
		return ir.I16, nil
	case "i32":
		return ir.I32, nil
	case "i64":
		return ir.I64, nil
	case "f32":
		return ir.F32, nil
	case "f64":
		return ir.F64, nil
	case "bool":
		return ir.Bool, nil
	case "cert":
		return ir.Cert, nil
	default:
		return 0, fmt.Errorf("unknown primitive type %q", s)
	}
}

func convertBody(env *nameEnv, b *Body) (ir.Body, error) {
	stmts := make([]ir.Stmt, len(b.Stmts))
	for i, s := range b.Stmts {
		cs, err := convertStmt(env, s)
		if err != nil {
			return ir.Body{}, err
		}
		stmts[i] = cs
	}
	result := make([]ir.SubExp, len(b.Result))
	for i, r := range b.Result {
		n, err := env.vname(r)
		if err != nil {
			return ir.Body{}, err
		}
		result[i] = ir.Var{Name: n}
	}
	return ir.Body{Stmts: stmts, Result: result}, nil
}

func convertStmt(env *nameEnv, s *Stmt) (ir.Stmt, error) {
	pattern := make([]ir.PatElem, len(s.Pattern))
	for i, pe := range s.Pattern {
		n, err := env.vname(pe.Name)
		if err != nil {
			return ir.Stmt{}, err
		}
		t, err := convertType(env, pe.Type)
		if err != nil {
			return ir.Stmt{}, err
		}
		pattern[i] = ir.PatElem{Name: n, Type: t}
	}
	patHint := ir.I32
	if len(pattern) > 0 {
		if sc, ok := pattern[0].Type.(ir.Scalar); ok {
			patHint = sc.Prim
		} else if arr, ok := pattern[0].Type.(ir.Array); ok {
			patHint = arr.Elem
		}
	}
	exp, err := convertExp(env, s.Exp, patHint)
	if err != nil {
		return ir.Stmt{}, err
	}
	return ir.Stmt{Pattern: pattern, Exp: exp}, nil
}

// convertExp converts an Exp node. patHint is the primitive type of the
// statement's own pattern, the only typed context a bare-SubExp rename
// (the Sub case) has available; BasicOps with their own declared operand
// type (BinOp, CmpOp) use that instead.
func convertExp(env *nameEnv, e *Exp, patHint ir.PrimType) (ir.Exp, error) {
	switch {
	case e.Iota != nil:
		count, err := convertSubExp(env, e.Iota.Count, ir.I32)
		if err != nil {
			return nil, err
		}
		return ir.Iota{
			Count:   count,
			Start:   ir.Constant{Value: ir.IntValue{Bits: ir.I32, Val: 0}},
			Stride:  ir.Constant{Value: ir.IntValue{Bits: ir.I32, Val: 1}},
			IntType: ir.I32,
		}, nil
	case e.Copy != nil:
		n, err := env.vname(e.Copy.Arr)
		if err != nil {
			return nil, err
		}
		return ir.Copy{Arr: n}, nil
	case e.Replicate != nil:
		shape := make(ir.Shape, len(e.Replicate.Dims))
		for i, d := range e.Replicate.Dims {
			ds, err := convertDim(env, d)
			if err != nil {
				return nil, err
			}
			shape[i] = ds
		}
		val, err := convertSubExp(env, e.Replicate.Value, patHint)
		if err != nil {
			return nil, err
		}
		return ir.Replicate{Shape: shape, Value: val}, nil
	case e.Update != nil:
		arr, err := env.vname(e.Update.Arr)
		if err != nil {
			return nil, err
		}
		slice, err := convertSlice(env, e.Update.Slice)
		if err != nil {
			return nil, err
		}
		val, err := convertSubExp(env, e.Update.Value, patHint)
		if err != nil {
			return nil, err
		}
		return ir.Update{Arr: arr, Slice: slice, Value: val}, nil
	case e.Write != nil:
		idx, err := env.vname(e.Write.Indices)
		if err != nil {
			return nil, err
		}
		val, err := env.vname(e.Write.Values)
		if err != nil {
			return nil, err
		}
		dest, err := env.vname(e.Write.Dest)
		if err != nil {
			return nil, err
		}
		return ir.Write{Indices: idx, Arrs: []ir.VName{val}, Dest: dest}, nil
	case e.Index != nil:
		arr, err := env.vname(e.Index.Arr)
		if err != nil {
			return nil, err
		}
		slice, err := convertSlice(env, e.Index.Slice)
		if err != nil {
			return nil, err
		}
		return ir.Index{Arr: arr, Slice: slice}, nil
	case e.BinOp != nil:
		op, err := convertBinOp(e.BinOp.Op)
		if err != nil {
			return nil, err
		}
		typ, err := convertPrim(e.BinOp.Type)
		if err != nil {
			return nil, err
		}
		x, err := convertSubExp(env, e.BinOp.X, typ)
		if err != nil {
			return nil, err
		}
		y, err := convertSubExp(env, e.BinOp.Y, typ)
		if err != nil {
			return nil, err
		}
		return ir.BinOp{Op: op, Type: typ, X: x, Y: y}, nil
	case e.CmpOp != nil:
		op, err := convertCmpOp(e.CmpOp.Op)
		if err != nil {
			return nil, err
		}
		typ, err := convertPrim(e.CmpOp.Type)
		if err != nil {
			return nil, err
		}
		x, err := convertSubExp(env, e.CmpOp.X, typ)
		if err != nil {
			return nil, err
		}
		y, err := convertSubExp(env, e.CmpOp.Y, typ)
		if err != nil {
			return nil, err
		}
		return ir.CmpOp{Op: op, Type: typ, X: x, Y: y}, nil
	case e.Sub != nil:
		se, err := convertSubExp(env, e.Sub, patHint)
		if err != nil {
			return nil, err
		}
		return ir.SubExpOp{SubExp: se}, nil
	default:
		return nil, fmt.Errorf("empty expression")
	}
}

func convertSlice(env *nameEnv, nodes []*DimIndexNode) ([]ir.DimIndex, error) {
	out := make([]ir.DimIndex, len(nodes))
	for i, d := range nodes {
		start, err := convertSubExp(env, d.I, ir.I64)
		if err != nil {
			return nil, err
		}
		if d.Rest == nil {
			out[i] = ir.DimFix{I: start}
			continue
		}
		count, err := convertSubExp(env, d.Rest.Count, ir.I64)
		if err != nil {
			return nil, err
		}
		stride, err := convertSubExp(env, d.Rest.Stride, ir.I64)
		if err != nil {
			return nil, err
		}
		out[i] = ir.DimSlice{Start: start, Count: count, Stride: stride}
	}
	return out, nil
}

func convertSubExp(env *nameEnv, n *SubExpNode, hint ir.PrimType) (ir.SubExp, error) {
	if n.Var != nil {
		vn, err := env.vname(*n.Var)
		if err != nil {
			return nil, err
		}
		return ir.Var{Name: vn}, nil
	}
	if n.Int != nil {
		return ir.Constant{Value: ir.IntValue{Bits: hint, Val: *n.Int}}, nil
	}
	return ir.Constant{Value: ir.FloatValue{Bits: hint, Val: *n.Float}}, nil
}

func convertBinOp(s string) (ir.BinOpKind, error) {
	switch s {
	case "add":
		return ir.Add, nil
	case "sub":
		return ir.Sub, nil
	case "mul":
		return ir.Mul, nil
	case "sdiv":
		return ir.SDiv, nil
	case "udiv":
		return ir.UDiv, nil
	case "squot":
		return ir.SQuot, nil
	case "srem":
		return ir.SRem, nil
	case "smod":
		return ir.SMod, nil
	case "umod":
		return ir.UMod, nil
	case "pow":
		return ir.Pow, nil
	case "and":
		return ir.And, nil
	case "or":
		return ir.Or, nil
	case "xor":
		return ir.Xor, nil
	case "shl":
		return ir.Shl, nil
	case "lshr":
		return ir.LShr, nil
	case "ashr":
		return ir.AShr, nil
	case "logand":
		return ir.LogAnd, nil
	case "logor":
		return ir.LogOr, nil
	default:
		return 0, fmt.Errorf("unknown binop %q", s)
	}
}

func convertCmpOp(s string) (ir.CmpOpKind, error) {
	switch s {
	case "eq":
		return ir.CmpEq, nil
	case "lt":
		return ir.CmpLt, nil
	case "le":
		return ir.CmpLe, nil
	case "slt":
		return ir.CmpSlt, nil
	case "sle":
		return ir.CmpSle, nil
	default:
		return 0, fmt.Errorf("unknown cmpop %q", s)
	}
}
