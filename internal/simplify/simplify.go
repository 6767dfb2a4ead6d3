package simplify

import (
	"futhark-core/internal/ir"
	"futhark-core/internal/namesupply"
)

// Simplify runs one function body to a fixed point: descend into nested If
// and DoLoop bodies first (innermost first), then repeatedly sweep the flat
// statement list applying TopDownRules while
// building the symbol table forward, and BottomUpRules once usage has been
// computed for the whole body. A sweep that changes nothing ends the loop.
func Simplify(ns *namesupply.NameSource, b ir.Body) ir.Body {
	for {
		b2, changed := simplifyOnce(ns, b)
		b = b2
		if !changed {
			return b
		}
	}
}

func simplifyOnce(ns *namesupply.NameSource, b ir.Body) (ir.Body, bool) {
	changed := false

	// Recurse into nested bodies first so outer-level rules (e.g. the
	// branch-CSE hack, branch-condition folding) see already-simplified
	// branches, and run the hoisting sub-pass on each If/DoLoop; a hoisted
	// prefix is spliced in immediately before the construct it came from.
	descended := make([]ir.Stmt, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		prefix, s2, ch := simplifyNested(ns, s)
		if ch {
			changed = true
		}
		descended = append(descended, prefix...)
		descended = append(descended, s2)
	}
	b = ir.Body{Stmts: descended, Result: b.Result, Dec: b.Dec}

	// Top-down sweep: rebuild the statement list left to right, growing the
	// symbol table as we go so later rules can see earlier bindings.
	st := NewSymbolTable()
	ut := NewUsageTable(b)
	var out []ir.Stmt
	for _, s := range b.Stmts {
		replaced, ch := applyRules(TopDownRules, st, ut, ns, s)
		if ch {
			changed = true
		}
		for _, r := range replaced {
			bindSymbols(st, r)
			out = append(out, r)
		}
	}
	b = ir.Body{Stmts: out, Result: b.Result, Dec: b.Dec}

	// Bottom-up sweep: usage must reflect the top-down-rewritten body.
	st2 := NewSymbolTable()
	ut2 := NewUsageTable(b)
	for _, s := range b.Stmts {
		bindSymbols(st2, s)
	}
	var out2 []ir.Stmt
	for i := len(b.Stmts) - 1; i >= 0; i-- {
		replaced, ch := applyRules(BottomUpRules, st2, ut2, ns, b.Stmts[i])
		if ch {
			changed = true
		}
		out2 = append(replaced, out2...)
	}
	b = ir.Body{Stmts: out2, Result: b.Result, Dec: b.Dec}

	return b, changed
}

// simplifyNested recurses into the bodies carried by If and DoLoop
// statements before the enclosing sweep looks at the statement itself, then
// runs the hoisting sub-pass on the (now-simplified) construct. It returns
// a prefix of statements to place immediately before s (possibly empty) and
// s itself, rewritten.
func simplifyNested(ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, ir.Stmt, bool) {
	switch e := s.Exp.(type) {
	case ir.If:
		trueBody, ch1 := simplifyOnce(ns, e.True)
		falseBody, ch2 := simplifyOnce(ns, e.False)
		e.True, e.False = trueBody, falseBody
		before, hoisted, ch3 := HoistFromBranches(e)
		s.Exp = hoisted
		return before, s, ch1 || ch2 || ch3
	case ir.DoLoop:
		body, ch := simplifyOnce(ns, e.Body)
		e.Body = body
		before, hoistedLoop, ch2 := HoistFromLoop(e)
		s.Exp = hoistedLoop
		return before, s, ch || ch2
	}
	return nil, s, false
}

func applyRules(rules []Rule, st *SymbolTable, ut *UsageTable, ns *namesupply.NameSource, s ir.Stmt) ([]ir.Stmt, bool) {
	for _, r := range rules {
		if repl, ok := r(st, ut, ns, s); ok {
			return repl, true
		}
	}
	return []ir.Stmt{s}, false
}

func bindSymbols(st *SymbolTable, s ir.Stmt) {
	for _, pe := range s.Pattern {
		st.Bind(pe.Name, Entry{Expr: s.Exp, Type: pe.Type})
	}
}

// SimplifyProgram simplifies every function body in p, threading the same
// name source through all of them.
func SimplifyProgram(ns *namesupply.NameSource, p ir.Program) ir.Program {
	for _, fn := range p.Funs {
		fn.Body = Simplify(ns, fn.Body)
	}
	return p
}
