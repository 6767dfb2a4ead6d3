// Package simplify implements the rewrite-rule simplifier: a
// symbol-table-driven fixed-point rewriter performing constant folding,
// algebraic simplification, CSE, and loop/branch hoisting.
//
// Each rule builds a small map ("identify constants", a CSE
// expression-shape map) and rewrites a block in a single sweep; the
// package generalizes that "map + single sweep, repeat to a fixed point"
// shape into a top-down/bottom-up rule-list architecture.
package simplify

import "futhark-core/internal/ir"

// Entry is what the symbol table remembers about one in-scope name.
type Entry struct {
	Expr    ir.Exp // the defining expression, nil for parameters/merge params
	Type    ir.Type
	IsMerge bool // bound by a DoLoop merge parameter rather than a let
	Depth   int  // nesting depth (0 = function top level)
	RangeLo *ir.SubExp
	RangeHi *ir.SubExp
}

// SymbolTable maps in-scope VNames to what the simplifier knows about them.
// Rebuilt at the start of each simplifier pass and discarded at the end;
// never shared across passes.
type SymbolTable struct {
	entries map[ir.VName]Entry
	order   []ir.VName // binding order, so rules that scan the table are deterministic
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{entries: make(map[ir.VName]Entry)}
}

func (st *SymbolTable) Bind(n ir.VName, e Entry) {
	if _, seen := st.entries[n]; !seen {
		st.order = append(st.order, n)
	}
	st.entries[n] = e
}

func (st *SymbolTable) Lookup(n ir.VName) (Entry, bool) {
	e, ok := st.entries[n]
	return e, ok
}

// Clone returns an independent copy, used when descending into a branch or
// loop body whose bindings must not leak back out.
func (st *SymbolTable) Clone() *SymbolTable {
	child := NewSymbolTable()
	for n, e := range st.entries {
		child.entries[n] = e
	}
	child.order = append([]ir.VName{}, st.order...)
	return child
}

// InOrder visits every bound name in binding order.
func (st *SymbolTable) InOrder(visit func(ir.VName, Entry) bool) {
	for _, n := range st.order {
		if !visit(n, st.entries[n]) {
			return
		}
	}
}

// ConstOf returns the constant value of a SubExp if the table can prove it
// is one: either the SubExp is itself a Constant, or it names a let-bound
// variable whose defining expression is a SubExpOp wrapping a Constant.
func (st *SymbolTable) ConstOf(se ir.SubExp) (ir.PrimValue, bool) {
	switch v := se.(type) {
	case ir.Constant:
		return v.Value, true
	case ir.Var:
		e, ok := st.entries[v.Name]
		if !ok {
			return nil, false
		}
		sub, ok := e.Expr.(ir.SubExpOp)
		if !ok {
			return nil, false
		}
		return st.ConstOf(sub.SubExp)
	}
	return nil, false
}

// UsageTable records, per VName, whether it is used by some later statement
// or by the enclosing body's Result — the "used bit" bottom-up rules consult.
type UsageTable struct {
	used map[ir.VName]bool
}

// NewUsageTable computes usage for a body: a name counts as used if any
// statement after its binding, or the body's Result, references it.
func NewUsageTable(b ir.Body) *UsageTable {
	ut := &UsageTable{used: make(map[ir.VName]bool)}
	for _, r := range b.Result {
		if v, ok := r.(ir.Var); ok {
			ut.used[v.Name] = true
		}
	}
	for i := len(b.Stmts) - 1; i >= 0; i-- {
		for n := range ir.FreeInExp(b.Stmts[i].Exp) {
			ut.used[n] = true
		}
		for _, c := range b.Stmts[i].Certs {
			ut.used[c] = true
		}
	}
	return ut
}

func (ut *UsageTable) Used(n ir.VName) bool { return ut.used[n] }

// StmtUsed reports whether any name the statement binds is used afterward.
func (ut *UsageTable) StmtUsed(s ir.Stmt) bool {
	for _, pe := range s.Pattern {
		if ut.Used(pe.Name) {
			return true
		}
	}
	return len(s.Pattern) == 0
}
