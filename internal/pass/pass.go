// Package pass is the pass manager: it sequences Passes into a
// Pipeline, reruns the typechecker between passes when verbose/checked mode
// is on, and attributes any resulting error to the pass that produced it.
//
// A named transformation over a *Program, sequenced by a pipeline that
// prints progress, generalized to lore-tagged passes that may change the
// program's lore (e.g. SOACS -> ExplicitMemory) and to typed errors
// instead of a silent bool-changed return.
package pass

import (
	"fmt"
	"io"

	"github.com/segmentio/ksuid"

	"futhark-core/internal/errors"
	"futhark-core/internal/ir"
	"futhark-core/internal/typecheck"
)

// Pass is a named transformation Program(loreIn) -> Program(loreOut). Go has
// no higher-kinded types, so the lore is carried as a runtime tag (InLore/
// OutLore) checked when a Pipeline is built.
type Pass struct {
	Name    string
	InLore  ir.Lore
	OutLore ir.Lore
	Run     func(ir.Program) (ir.Program, error)
}

// Pipeline is a typed sequence of Passes whose successive InLore/OutLore
// must chain.
type Pipeline struct {
	Passes  []Pass
	Verbose bool
	Checked bool
	Out     io.Writer
}

// NewPipeline validates that the lore chain is consistent and returns a
// Pipeline ready to Run.
func NewPipeline(passes []Pass) (*Pipeline, error) {
	for i := 1; i < len(passes); i++ {
		if !passes[i-1].OutLore.Equal(passes[i].InLore) {
			return nil, errors.InternalError("pass-manager",
				fmt.Sprintf("pass %q produces lore %s but pass %q expects %s",
					passes[i-1].Name, passes[i-1].OutLore, passes[i].Name, passes[i].InLore),
				errors.Loc{})
		}
	}
	return &Pipeline{Passes: passes}, nil
}

// RunResult carries the final program plus the run ID printed on each
// verbose-mode progress line ("[runID] pass: ok").
type RunResult struct {
	RunID   ksuid.KSUID
	Program ir.Program
}

// Run executes every pass in order, feeding each one's output to the next.
// If Checked or Verbose is set, the typechecker re-verifies the program
// after every pass; on failure the error is attributed to the pass
// that produced the bad program and, in verbose mode, carries a program
// snapshot.
func (p *Pipeline) Run(prog ir.Program) (RunResult, error) {
	runID := ksuid.New()
	cur := prog
	for _, ps := range p.Passes {
		if !cur.Lore.Equal(ps.InLore) {
			return RunResult{}, errors.InternalError("pass-manager",
				fmt.Sprintf("program is in lore %s, pass %q expects %s", cur.Lore, ps.Name, ps.InLore),
				errors.Loc{}).WithPass(ps.Name)
		}
		next, err := ps.Run(cur)
		if err != nil {
			if ce, ok := err.(*errors.Error); ok {
				return RunResult{}, ce.WithPass(ps.Name)
			}
			return RunResult{}, errors.InternalError(ps.Name, err.Error(), errors.Loc{})
		}
		next.Lore = ps.OutLore

		if p.Verbose || p.Checked {
			if tcErr := typecheck.Check(ps.Name, next); tcErr != nil {
				if ce, ok := tcErr.(*errors.Error); ok {
					if p.Verbose {
						ce = ce.WithSnapshot(Dump(next))
					}
					return RunResult{}, ce
				}
				return RunResult{}, tcErr
			}
		}

		if p.Verbose && p.Out != nil {
			fmt.Fprintf(p.Out, "[%s] %s: ok\n", runID, ps.Name)
		}

		cur = next
	}
	return RunResult{RunID: runID, Program: cur}, nil
}
