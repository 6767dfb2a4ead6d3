package ir

import "futhark-core/internal/namesupply"

// Rename re-tags every binding site in p with fresh tags from ns and
// rewrites every use accordingly, re-establishing name uniqueness after
// aggressive inlining. Renaming a renamed program yields a structurally
// identical program; only tag values advance.
func Rename(ns *namesupply.NameSource, p Program) Program {
	funs := make([]*FunDef, len(p.Funs))
	for i, f := range p.Funs {
		funs[i] = renameFun(ns, f)
	}
	return Program{Lore: p.Lore, Funs: funs}
}

func renameFun(ns *namesupply.NameSource, f *FunDef) *FunDef {
	subst := make(map[VName]VName, len(f.Params))
	params := make([]Param, len(f.Params))
	for i, prm := range f.Params {
		fresh := ns.FreshLike(prm.Name)
		subst[prm.Name] = fresh
		params[i] = Param{Name: fresh, Type: prm.Type, Dec: prm.Dec}
	}
	// Parameter types may name sibling parameters in their shapes, so the
	// substitution only applies once every parameter has its fresh name.
	for i := range params {
		params[i].Type = substType(params[i].Type, subst)
	}
	nf := *f
	nf.Params = params
	nf.Body = renameBody(ns, subst, f.Body)
	return &nf
}

func copySubst(subst map[VName]VName) map[VName]VName {
	out := make(map[VName]VName, len(subst))
	for k, v := range subst {
		out[k] = v
	}
	return out
}

// renameBody re-tags b's statements in order: each statement's expression is
// renamed under the bindings visible so far, then its pattern extends the
// substitution for everything after it.
func renameBody(ns *namesupply.NameSource, outer map[VName]VName, b Body) Body {
	subst := copySubst(outer)
	out := Body{Stmts: make([]Stmt, 0, len(b.Stmts)), Dec: b.Dec}
	for _, s := range b.Stmts {
		exp := renameExp(ns, subst, s.Exp)
		certs := substNames(s.Certs, subst)
		pat := make([]PatElem, len(s.Pattern))
		for j, pe := range s.Pattern {
			fresh := ns.FreshLike(pe.Name)
			subst[pe.Name] = fresh
			pat[j] = PatElem{Name: fresh, Type: pe.Type, Dec: pe.Dec}
		}
		// A pattern element's shape may name a sibling element bound by the
		// same statement (a size result feeding an array result).
		for j := range pat {
			pat[j].Type = substType(pat[j].Type, subst)
		}
		out.Stmts = append(out.Stmts, Stmt{Pattern: pat, Certs: certs, Exp: exp, Dec: s.Dec})
	}
	out.Result = substSubExps(b.Result, subst)
	return out
}

func renameExp(ns *namesupply.NameSource, subst map[VName]VName, e Exp) Exp {
	switch ev := e.(type) {
	case If:
		return If{
			Cond:    substSubExp(ev.Cond, subst),
			True:    renameBody(ns, subst, ev.True),
			False:   renameBody(ns, subst, ev.False),
			RetType: ev.RetType,
			Sort:    ev.Sort,
		}

	case DoLoop:
		inner := copySubst(subst)
		renameMerge := func(mps []MergeParam) []MergeParam {
			out := make([]MergeParam, len(mps))
			for i, mp := range mps {
				fresh := ns.FreshLike(mp.Param.Name)
				inner[mp.Param.Name] = fresh
				out[i] = MergeParam{
					Param: Param{Name: fresh, Type: mp.Param.Type, Dec: mp.Param.Dec},
					Init:  substSubExp(mp.Init, subst),
				}
			}
			return out
		}
		ctx := renameMerge(ev.CtxParams)
		val := renameMerge(ev.ValParams)
		for i := range ctx {
			ctx[i].Param.Type = substType(ctx[i].Param.Type, inner)
		}
		for i := range val {
			val[i].Param.Type = substType(val[i].Param.Type, inner)
		}
		var form LoopForm
		switch fv := ev.Form.(type) {
		case ForLoop:
			fresh := ns.FreshLike(fv.I)
			inner[fv.I] = fresh
			form = ForLoop{I: fresh, IterType: fv.IterType, Bound: substSubExp(fv.Bound, subst)}
		case WhileLoop:
			form = WhileLoop{CondName: substName(fv.CondName, inner)}
		}
		return DoLoop{CtxParams: ctx, ValParams: val, Form: form, Body: renameBody(ns, inner, ev.Body)}

	case Map:
		return Map{W: substSubExp(ev.W, subst), Lambda: renameLambda(ns, subst, ev.Lambda), Arrs: substNames(ev.Arrs, subst)}
	case Reduce:
		return Reduce{W: substSubExp(ev.W, subst), Comm: ev.Comm, Lambda: renameLambda(ns, subst, ev.Lambda),
			Nes: substSubExps(ev.Nes, subst), Arrs: substNames(ev.Arrs, subst)}
	case Scan:
		return Scan{W: substSubExp(ev.W, subst), Lambda: renameLambda(ns, subst, ev.Lambda),
			Nes: substSubExps(ev.Nes, subst), Arrs: substNames(ev.Arrs, subst)}
	case Redomap:
		return Redomap{W: substSubExp(ev.W, subst), Comm: ev.Comm,
			ReduceFn: renameLambda(ns, subst, ev.ReduceFn), Nes: substSubExps(ev.Nes, subst),
			MapFn: renameLambda(ns, subst, ev.MapFn), Arrs: substNames(ev.Arrs, subst)}
	case Stream:
		return Stream{W: substSubExp(ev.W, subst), ChunkFn: renameLambda(ns, subst, ev.ChunkFn),
			Nes: substSubExps(ev.Nes, subst), Arrs: substNames(ev.Arrs, subst)}

	case Write:
		return Write{
			Indices: substName(ev.Indices, subst),
			Lambda:  renameLambda(ns, subst, ev.Lambda),
			Arrs:    substNames(ev.Arrs, subst),
			Dest:    substName(ev.Dest, subst),
		}

	case MapKernelOp:
		inner := copySubst(subst)
		dims := make([]SpaceDim, len(ev.SpaceDims))
		for i, sd := range ev.SpaceDims {
			fresh := ns.FreshLike(sd.Gtid)
			inner[sd.Gtid] = fresh
			dims[i] = SpaceDim{Gtid: fresh, Bound: substSubExp(sd.Bound, subst)}
		}
		inputs := make([]KernelInput, len(ev.Inputs))
		for i, in := range ev.Inputs {
			fresh := ns.FreshLike(in.Name)
			inner[in.Name] = fresh
			inputs[i] = KernelInput{
				Name:     fresh,
				Arr:      substName(in.Arr, subst),
				IndexExp: substSubExps(in.IndexExp, inner),
				Type:     in.Type,
			}
		}
		return MapKernelOp{SpaceDims: dims, Inputs: inputs, Body: renameBody(ns, inner, ev.Body), ReturnTypes: ev.ReturnTypes}

	case SegRedOp:
		dims, inputs, op, nes := renameSegOp(ns, subst, ev.SpaceDims, ev.Inputs, ev.Op, ev.Nes)
		return SegRedOp{SpaceDims: dims, Op: op, Nes: nes, Inputs: inputs,
			ReturnTypes: ev.ReturnTypes, WorkgroupSize: substOptSubExp(ev.WorkgroupSize, subst)}
	case SegScanOp:
		dims, inputs, op, nes := renameSegOp(ns, subst, ev.SpaceDims, ev.Inputs, ev.Op, ev.Nes)
		return SegScanOp{SpaceDims: dims, Op: op, Nes: nes, Inputs: inputs,
			ReturnTypes: ev.ReturnTypes, WorkgroupSize: substOptSubExp(ev.WorkgroupSize, subst)}

	default:
		// Leaf expressions bind nothing; use-rewriting suffices.
		return SubstituteNamesExp(subst, e)
	}
}

func renameSegOp(ns *namesupply.NameSource, subst map[VName]VName, dims []SpaceDim, inputs []KernelInput, op *Lambda, nes []SubExp) ([]SpaceDim, []KernelInput, *Lambda, []SubExp) {
	inner := copySubst(subst)
	newDims := make([]SpaceDim, len(dims))
	for i, sd := range dims {
		fresh := ns.FreshLike(sd.Gtid)
		inner[sd.Gtid] = fresh
		newDims[i] = SpaceDim{Gtid: fresh, Bound: substSubExp(sd.Bound, subst)}
	}
	newInputs := make([]KernelInput, len(inputs))
	for i, in := range inputs {
		fresh := ns.FreshLike(in.Name)
		inner[in.Name] = fresh
		newInputs[i] = KernelInput{Name: fresh, Arr: substName(in.Arr, subst), IndexExp: substSubExps(in.IndexExp, inner), Type: in.Type}
	}
	return newDims, newInputs, renameLambda(ns, inner, op), substSubExps(nes, subst)
}

func substOptSubExp(se SubExp, subst map[VName]VName) SubExp {
	if se == nil {
		return nil
	}
	return substSubExp(se, subst)
}

func renameLambda(ns *namesupply.NameSource, subst map[VName]VName, l *Lambda) *Lambda {
	if l == nil {
		return nil
	}
	inner := copySubst(subst)
	params := make([]Param, len(l.Params))
	for i, p := range l.Params {
		fresh := ns.FreshLike(p.Name)
		inner[p.Name] = fresh
		params[i] = Param{Name: fresh, Type: p.Type, Dec: p.Dec}
	}
	return &Lambda{Params: params, Body: renameBody(ns, inner, l.Body), RetType: l.RetType}
}
