package alias

import (
	"fmt"

	"futhark-core/internal/errors"
	"futhark-core/internal/ir"
)

// CheckFunction verifies the uniqueness discipline for one function body:
// a Unique parameter may be consumed at most once on every path, a
// Nonunique parameter may never be consumed, and no name may be used after
// it (or anything aliasing it) has been consumed.
func CheckFunction(fn *ir.FunDef) error {
	a := NewAnalyzer(fn.Name)
	for _, p := range fn.Params {
		if arr, ok := p.Type.(ir.Array); ok && arr.Uniq == ir.Unique {
			// Unique parameters start out unconsumed and consumable.
			a.table.Aliases[p.Name] = ir.NewNameSet(p.Name)
		}
	}

	checker := &checker{analyzer: a, fun: fn.Name, nonuniqueParams: ir.NewNameSet()}
	for _, p := range fn.Params {
		if arr, ok := p.Type.(ir.Array); ok && arr.Uniq == ir.Nonunique {
			checker.nonuniqueParams.Insert(p.Name)
		}
	}
	return checker.checkBody(fn.Body)
}

type checker struct {
	analyzer        *Analyzer
	fun             string
	nonuniqueParams ir.NameSet
}

// checkBody walks statements in order, enforcing: (a) an operation may not
// consume a Nonunique parameter, (b) an operation may not consume a name
// already consumed, (c) a later statement may not use a name already
// consumed by an earlier one.
func (c *checker) checkBody(b ir.Body) error {
	for _, stmt := range b.Stmts {
		consumesNow := consumedBy(stmt.Exp)
		for _, n := range consumesNow {
			if c.nonuniqueParams.Has(n) {
				return errors.UniquenessError(errors.ErrorConsumeNonunique, "alias",
					fmt.Sprintf("%s is a nonunique parameter and may not be consumed", n),
					errors.Loc{Fun: c.fun, Stmt: fmt.Sprintf("%T", stmt.Exp)})
			}
			if c.analyzer.table.Consumed[n] {
				return errors.UniquenessError(errors.ErrorConsumeConsumed, "alias",
					fmt.Sprintf("%s was already consumed", n),
					errors.Loc{Fun: c.fun, Stmt: fmt.Sprintf("%T", stmt.Exp)})
			}
		}

		for _, used := range ir.FreeInExp(stmt.Exp).List() {
			if c.analyzer.table.Consumed[used] && !contains(consumesNow, used) {
				return errors.UniquenessError(errors.ErrorUseAfterConsume, "alias",
					fmt.Sprintf("%s used after being consumed", used),
					errors.Loc{Fun: c.fun, Stmt: fmt.Sprintf("%T", stmt.Exp)})
			}
		}

		if err := c.analyzer.analyzeStmt(stmt); err != nil {
			return err
		}

		if err := c.checkNested(stmt.Exp); err != nil {
			return err
		}
	}
	return nil
}

// checkNested recurses into a statement's nested bodies (If branches, loop
// bodies), each with a fresh checker whose consumed set starts empty: an If
// branch starts from a copy of the parent's alias sets, a loop body from
// alias sets for its merge parameters only. Uses of names the parent
// consumed earlier are caught by the parent's own check of the whole
// statement's free variables, not here.
func (c *checker) checkNested(e ir.Exp) error {
	switch ev := e.(type) {
	case ir.If:
		for _, branch := range []ir.Body{ev.True, ev.False} {
			sub := &checker{analyzer: NewAnalyzer(c.fun), fun: c.fun, nonuniqueParams: c.nonuniqueParams}
			for n, s := range c.analyzer.table.Aliases {
				sub.analyzer.table.Aliases[n] = s
			}
			if err := sub.checkBody(branch); err != nil {
				return err
			}
		}
	case ir.DoLoop:
		sub := &checker{analyzer: NewAnalyzer(c.fun), fun: c.fun, nonuniqueParams: ir.NewNameSet()}
		for _, mp := range ev.MergeParams() {
			sub.analyzer.table.Aliases[mp.Param.Name] = ir.NewNameSet(mp.Param.Name)
		}
		if err := sub.checkBody(ev.Body); err != nil {
			return err
		}
		// A loop body runs more than once: consuming a name bound outside
		// the loop would consume it again on the next iteration. Only merge
		// parameters (re-supplied by each iteration's result) and names the
		// body binds itself are consumable here.
		boundInside := ir.NewNameSet()
		for _, mp := range ev.MergeParams() {
			boundInside.Insert(mp.Param.Name)
		}
		if fl, ok := ev.Form.(ir.ForLoop); ok {
			boundInside.Insert(fl.I)
		}
		ir.WalkBodyStmts(ev.Body, func(s ir.Stmt) {
			for _, pe := range s.Pattern {
				boundInside.Insert(pe.Name)
			}
		})
		for n := range sub.analyzer.table.Consumed {
			if !boundInside.Has(n) {
				return errors.UniquenessError(errors.ErrorConsumeConsumed, "alias",
					fmt.Sprintf("%s is consumed inside a loop but bound outside it", n),
					errors.Loc{Fun: c.fun, Stmt: "loop"})
			}
		}
	}
	return nil
}

func consumedBy(e ir.Exp) []ir.VName {
	switch ev := e.(type) {
	case ir.Update:
		return []ir.VName{ev.Arr}
	case ir.Write:
		return []ir.VName{ev.Dest}
	case ir.Apply:
		var out []ir.VName
		for _, a := range ev.Args {
			if a.Diet != ir.Consume {
				continue
			}
			if v, ok := a.Arg.(ir.Var); ok {
				out = append(out, v.Name)
			}
		}
		return out
	default:
		return nil
	}
}

func contains(ns []ir.VName, n ir.VName) bool {
	for _, x := range ns {
		if x.Equal(n) {
			return true
		}
	}
	return false
}
