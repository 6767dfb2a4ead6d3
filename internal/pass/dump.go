package pass

import "futhark-core/internal/ir"

// Dump renders a program snapshot for a verbose-mode error.
func Dump(p ir.Program) string { return ir.Sprint(p) }
