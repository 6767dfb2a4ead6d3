package ir

// Rephraser supplies one replacement function per decoration slot plus one
// for Op, converting a Program from one lore to another.
// A nil field is the identity conversion for that slot.
type Rephraser struct {
	Stmt  func(interface{}) interface{}
	Body  func(interface{}) interface{}
	Param func(interface{}) interface{}
	Name  func(interface{}) interface{}
	Op    func(Op) Op
}

func (r Rephraser) stmtDec(d interface{}) interface{} {
	if r.Stmt != nil {
		return r.Stmt(d)
	}
	return d
}

func (r Rephraser) bodyDec(d interface{}) interface{} {
	if r.Body != nil {
		return r.Body(d)
	}
	return d
}

func (r Rephraser) paramDec(d interface{}) interface{} {
	if r.Param != nil {
		return r.Param(d)
	}
	return d
}

func (r Rephraser) nameDec(d interface{}) interface{} {
	if r.Name != nil {
		return r.Name(d)
	}
	return d
}

func (r Rephraser) op(o Op) Op {
	if r.Op != nil {
		return r.Op(o)
	}
	return o
}

// RephraseProgram converts every function in p to the lore named by outLore,
// applying r to each decoration slot and to every Op payload.
func RephraseProgram(r Rephraser, outLore Lore, p Program) Program {
	funs := make([]*FunDef, len(p.Funs))
	for i, f := range p.Funs {
		nf := *f
		nf.Params = rephraseParams(r, f.Params)
		nf.Body = rephraseBody(r, f.Body)
		funs[i] = &nf
	}
	return Program{Lore: outLore, Funs: funs}
}

func rephraseParams(r Rephraser, params []Param) []Param {
	out := make([]Param, len(params))
	for i, p := range params {
		out[i] = Param{Name: p.Name, Type: p.Type, Dec: r.paramDec(p.Dec)}
	}
	return out
}

func rephraseBody(r Rephraser, b Body) Body {
	stmts := make([]Stmt, len(b.Stmts))
	for i, s := range b.Stmts {
		pattern := make([]PatElem, len(s.Pattern))
		for j, pe := range s.Pattern {
			pattern[j] = PatElem{Name: pe.Name, Type: pe.Type, Dec: r.nameDec(pe.Dec)}
		}
		stmts[i] = Stmt{
			Pattern: pattern,
			Certs:   s.Certs,
			Exp:     rephraseExp(r, s.Exp),
			Dec:     r.stmtDec(s.Dec),
		}
	}
	return Body{Stmts: stmts, Result: b.Result, Dec: r.bodyDec(b.Dec)}
}

func rephraseExp(r Rephraser, e Exp) Exp {
	switch ev := e.(type) {
	case If:
		ev.True = rephraseBody(r, ev.True)
		ev.False = rephraseBody(r, ev.False)
		return ev
	case DoLoop:
		ev.CtxParams = rephraseMergeParams(r, ev.CtxParams)
		ev.ValParams = rephraseMergeParams(r, ev.ValParams)
		ev.Body = rephraseBody(r, ev.Body)
		return ev
	default:
		if op, ok := e.(Op); ok {
			return r.op(op)
		}
		return e
	}
}

func rephraseMergeParams(r Rephraser, mps []MergeParam) []MergeParam {
	out := make([]MergeParam, len(mps))
	for i, mp := range mps {
		out[i] = MergeParam{Param: Param{Name: mp.Param.Name, Type: mp.Param.Type, Dec: r.paramDec(mp.Param.Dec)}, Init: mp.Init}
	}
	return out
}
