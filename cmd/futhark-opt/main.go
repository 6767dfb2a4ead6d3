// Package main is the CLI driver: read a .fir file, parse it, run it
// through the pass-selection interface (a flag per optimization toggle,
// an action selector), and exit 0 (success), 1 (usage error), or 2
// (compilation error). The pass-selection flags are convenience surface
// over a single fixed pipeline (internal/pipeline.Standard); the core
// pipeline itself is agnostic to how it was invoked.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"

	"futhark-core/internal/alias"
	"futhark-core/internal/errors"
	"futhark-core/internal/frontend"
	"futhark-core/internal/ir"
	"futhark-core/internal/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("futhark-opt", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	action := fs.String("action", "print", "print|interpret|compile-c|compile-py")
	inhibitUniqueness := fs.Bool("inhibit-uniqueness-checking", false, "skip the alias/uniqueness checker")
	verbose := fs.Bool("verbose", false, "print pass-by-pass progress and attach program snapshots to errors")
	_ = fs.Bool("first-order-transform", false, "convenience toggle; the pipeline is agnostic to it")
	_ = fs.Bool("tuple-of-arrays-transform", false, "convenience toggle; the pipeline is agnostic to it")
	_ = fs.Bool("enabling-optimisations", true, "convenience toggle; the pipeline is agnostic to it")
	_ = fs.Bool("higher-order-optimizations", true, "convenience toggle; the pipeline is agnostic to it")
	rename := fs.Bool("rename", false, "re-tag every binding to re-establish name uniqueness before optimizing")
	_ = fs.Bool("untrace", false, "convenience toggle; the pipeline is agnostic to it")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: futhark-opt [flags] <file.fir>")
		return 1
	}
	path := fs.Arg(0)

	switch *action {
	case "print", "interpret", "compile-c", "compile-py":
	default:
		fmt.Fprintf(os.Stderr, "unknown -action %q\n", *action)
		return 1
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %s\n", path, err)
		return 1
	}

	prog, ns, err := frontend.ParseProgram(path, string(source))
	if err != nil {
		fmt.Fprint(os.Stderr, frontend.ReportParseError(string(source), err))
		return 1
	}

	reporter := errors.NewReporter(*verbose)

	if *rename {
		prog = ir.Rename(ns, prog)
	}

	if !*inhibitUniqueness {
		for _, fn := range prog.Funs {
			if err := alias.CheckFunction(fn); err != nil {
				if ce, ok := err.(*errors.Error); ok {
					fmt.Fprint(os.Stderr, reporter.Format(ce))
				} else {
					fmt.Fprintln(os.Stderr, err)
				}
				return 2
			}
		}
	}

	pl, err := pipeline.Standard(ns)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	pl.Verbose = *verbose
	if *verbose {
		pl.Out = os.Stdout
	}

	result, err := pl.Run(prog)
	if err != nil {
		if ce, ok := err.(*errors.Error); ok {
			fmt.Fprint(os.Stderr, reporter.Format(ce))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		return 2
	}

	switch *action {
	case "print":
		fmt.Println(ir.Sprint(result.Program))
	case "interpret":
		// An interpreter is a separate component this driver doesn't carry;
		// report it the same way an unsupported construct would be reported.
		fmt.Fprint(os.Stderr, reporter.Format(errors.UnsupportedConstruct(
			"futhark-opt", "-action=interpret has no interpreter wired into this driver", errors.Loc{})))
		return 2
	case "compile-c", "compile-py":
		fmt.Fprint(os.Stderr, reporter.Format(errors.UnsupportedConstruct(
			"futhark-opt", fmt.Sprintf("-action=%s has no code emitter wired into this driver", *action), errors.Loc{})))
		return 2
	}

	color.Green("✓ %s (run %s)", path, result.RunID)
	return 0
}
