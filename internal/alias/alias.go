// Package alias implements the alias and uniqueness analysis: a
// single forward pass over a function body that computes, for every
// let-bound name, the set of other names it may alias, and for every
// statement, the set of names it consumes.
//
// A single "env + errors" forward walk over a function body collecting
// definite-assignment-style facts, applied here to alias sets and
// consumption instead of declared/used variables.
package alias

import (
	"fmt"

	"futhark-core/internal/errors"
	"futhark-core/internal/ir"
)

// Table holds the alias set of every let-bound name seen so far and a single
// set of the names consumed anywhere in the analyzed body.
type Table struct {
	Aliases  map[ir.VName]ir.NameSet
	Consumed map[ir.VName]bool // names consumed anywhere in the analyzed body
}

func newTable() *Table {
	return &Table{Aliases: make(map[ir.VName]ir.NameSet), Consumed: make(map[ir.VName]bool)}
}

// AliasesOf returns n's alias set, defaulting to "aliases only itself" for
// names the table never saw bound (e.g. function parameters).
func (t *Table) AliasesOf(n ir.VName) ir.NameSet {
	if s, ok := t.Aliases[n]; ok {
		return s
	}
	return ir.NewNameSet(n)
}

// transitiveAliases follows the alias relation to every name reachable from
// n, used when consuming n must also mark everything it aliases.
func (t *Table) transitiveAliases(n ir.VName) ir.NameSet {
	seen := ir.NewNameSet(n)
	queue := []ir.VName{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for a := range t.AliasesOf(cur) {
			if !seen.Has(a) {
				seen.Insert(a)
				queue = append(queue, a)
			}
		}
	}
	return seen
}

// consume marks n and everything it (transitively) aliases as consumed.
func (t *Table) consume(n ir.VName) {
	for a := range t.transitiveAliases(n) {
		t.Consumed[a] = true
	}
}

// Analyzer runs the forward pass for one function.
type Analyzer struct {
	fun   string
	table *Table
}

func NewAnalyzer(fun string) *Analyzer {
	return &Analyzer{fun: fun, table: newTable()}
}

// AnalyzeBody walks b's statements in order, applying the per-expression
// alias rules, and returns the resulting alias/consumption table.
func (a *Analyzer) AnalyzeBody(b ir.Body) (*Table, error) {
	for _, stmt := range b.Stmts {
		if err := a.analyzeStmt(stmt); err != nil {
			return nil, err
		}
	}
	return a.table, nil
}

func (a *Analyzer) analyzeStmt(stmt ir.Stmt) error {
	names := stmt.PatternNames()
	aliasSets, err := a.aliasesOfExp(stmt.Exp)
	if err != nil {
		return err
	}
	for i, n := range names {
		if i < len(aliasSets) {
			a.table.Aliases[n] = aliasSets[i]
		} else {
			a.table.Aliases[n] = ir.NewNameSet()
		}
	}
	return nil
}

// aliasesOfExp returns one NameSet per value the expression produces.
func (a *Analyzer) aliasesOfExp(e ir.Exp) ([]ir.NameSet, error) {
	switch ev := e.(type) {
	case ir.SubExpOp:
		if v, ok := ev.SubExp.(ir.Var); ok {
			return []ir.NameSet{a.table.AliasesOf(v.Name)}, nil
		}
		return []ir.NameSet{ir.NewNameSet()}, nil

	case ir.Index:
		return []ir.NameSet{a.table.AliasesOf(ev.Arr)}, nil

	case ir.Reshape:
		return []ir.NameSet{a.table.AliasesOf(ev.Arr)}, nil
	case ir.Rearrange:
		return []ir.NameSet{a.table.AliasesOf(ev.Arr)}, nil
	case ir.Rotate:
		return []ir.NameSet{a.table.AliasesOf(ev.Arr)}, nil
	case ir.Repeat:
		return []ir.NameSet{a.table.AliasesOf(ev.Arr)}, nil

	case ir.Copy, ir.Replicate, ir.Iota, ir.Scratch, ir.Alloc, ir.ArrayLit:
		return []ir.NameSet{ir.NewNameSet()}, nil

	case ir.Write:
		if a.table.Consumed[ev.Dest] {
			return nil, errors.UniquenessError(errors.ErrorConsumeConsumed, "alias",
				fmt.Sprintf("%s was already consumed", ev.Dest), errors.Loc{Fun: a.fun, Stmt: "write"})
		}
		a.table.consume(ev.Dest)
		return []ir.NameSet{ir.NewNameSet()}, nil

	case ir.Split:
		out := make([]ir.NameSet, len(ev.Sizes))
		for i := range out {
			out[i] = a.table.AliasesOf(ev.Arr)
		}
		return out, nil

	case ir.Concat:
		aliases := ir.NewNameSet()
		for _, arr := range ev.Arrs {
			aliases = aliases.Union(a.table.AliasesOf(arr))
		}
		return []ir.NameSet{aliases}, nil

	case ir.Update:
		if a.table.Consumed[ev.Arr] {
			return nil, errors.UniquenessError(errors.ErrorConsumeConsumed, "alias",
				fmt.Sprintf("%s was already consumed", ev.Arr), errors.Loc{Fun: a.fun, Stmt: "update"})
		}
		a.table.consume(ev.Arr)
		return []ir.NameSet{ir.NewNameSet()}, nil

	case ir.Assert:
		return []ir.NameSet{ir.NewNameSet()}, nil

	case ir.BinOp, ir.CmpOp, ir.UnOp, ir.ConvOp:
		return []ir.NameSet{ir.NewNameSet()}, nil

	case ir.Apply:
		// Non-unique return slots alias the union of every observed
		// argument's aliases; unique return slots alias nothing. Consume
		// positions consume their argument.
		observed := ir.NewNameSet()
		for _, arg := range ev.Args {
			v, ok := arg.Arg.(ir.Var)
			if !ok {
				continue
			}
			if arg.Diet == ir.Consume {
				if a.table.Consumed[v.Name] {
					return nil, errors.UniquenessError(errors.ErrorConsumeConsumed, "alias",
						fmt.Sprintf("%s was already consumed", v.Name), errors.Loc{Fun: a.fun, Stmt: "apply " + ev.Fun})
				}
				a.table.consume(v.Name)
			} else {
				observed = observed.Union(a.table.AliasesOf(v.Name))
			}
		}
		out := make([]ir.NameSet, len(ev.RetType))
		for i, t := range ev.RetType {
			if arr, ok := t.(ir.Array); ok && arr.Uniq == ir.Unique {
				out[i] = ir.NewNameSet()
			} else {
				out[i] = observed
			}
		}
		return out, nil

	case ir.If:
		trueA, err := subAnalysis(a, ev.True)
		if err != nil {
			return nil, err
		}
		falseA, err := subAnalysis(a, ev.False)
		if err != nil {
			return nil, err
		}
		consumedEither := ir.NewNameSet()
		for n := range trueA.Consumed {
			consumedEither.Insert(n)
		}
		for n := range falseA.Consumed {
			consumedEither.Insert(n)
		}
		out := make([]ir.NameSet, len(ev.RetType))
		trueResult := resultAliases(trueA, ev.True)
		falseResult := resultAliases(falseA, ev.False)
		for i := range out {
			merged := ir.NewNameSet()
			if i < len(trueResult) {
				merged = merged.Union(trueResult[i])
			}
			if i < len(falseResult) {
				merged = merged.Union(falseResult[i])
			}
			out[i] = merged.Minus(consumedEither)
		}
		for n := range consumedEither {
			a.table.Consumed[n] = true
		}
		return out, nil

	case ir.DoLoop:
		bodyAnalyzer := NewAnalyzer(a.fun)
		for _, mp := range ev.MergeParams() {
			if v, ok := mp.Init.(ir.Var); ok {
				bodyAnalyzer.table.Aliases[mp.Param.Name] = a.table.AliasesOf(v.Name)
			}
		}
		bodyTable, err := bodyAnalyzer.AnalyzeBody(ev.Body)
		if err != nil {
			return nil, err
		}
		mergeNames := ir.NewNameSet()
		for _, mp := range ev.MergeParams() {
			mergeNames.Insert(mp.Param.Name)
		}
		resultAlias := resultAliasesFromResult(bodyTable, ev.Body)
		out := make([]ir.NameSet, len(resultAlias))
		for i, s := range resultAlias {
			out[i] = s.Minus(mergeNames)
		}
		return out, nil

	case ir.Map:
		return soacAliases(ev.Lambda), nil
	case ir.Reduce, ir.Scan:
		// scan/reduce outputs never alias an input.
		n := soacRetCount(e)
		out := make([]ir.NameSet, n)
		for i := range out {
			out[i] = ir.NewNameSet()
		}
		return out, nil
	case ir.Redomap:
		return soacAliases(ev.ReduceFn), nil
	case ir.Stream:
		return soacAliases(ev.ChunkFn), nil

	default:
		return nil, errors.UnsupportedConstruct("alias", fmt.Sprintf("no alias rule for %T", e), errors.Loc{Fun: a.fun})
	}
}

func soacRetCount(e ir.Exp) int {
	switch ev := e.(type) {
	case ir.Reduce:
		return len(ev.Nes)
	case ir.Scan:
		return len(ev.Nes)
	}
	return 0
}

// soacAliases returns one empty NameSet per lambda return value: every SOAC
// output is fresh storage.
func soacAliases(l *ir.Lambda) []ir.NameSet {
	if l == nil {
		return nil
	}
	out := make([]ir.NameSet, len(l.RetType))
	for i := range out {
		out[i] = ir.NewNameSet()
	}
	return out
}

func subAnalysis(parent *Analyzer, b ir.Body) (*Table, error) {
	child := NewAnalyzer(parent.fun)
	for n, s := range parent.table.Aliases {
		child.table.Aliases[n] = s
	}
	return child.AnalyzeBody(b)
}

func resultAliases(t *Table, b ir.Body) []ir.NameSet {
	return resultAliasesFromResult(t, b)
}

func resultAliasesFromResult(t *Table, b ir.Body) []ir.NameSet {
	out := make([]ir.NameSet, len(b.Result))
	for i, r := range b.Result {
		if v, ok := r.(ir.Var); ok {
			out[i] = t.AliasesOf(v.Name)
		} else {
			out[i] = ir.NewNameSet()
		}
	}
	return out
}
