// Package errors is the compiler's diagnostic taxonomy and renderer: code
// ranges, a structured Error, and colorized caret rendering, covering the
// compiler's five error kinds: TypeError, UniquenessError, ShapeContextError,
// InternalError, UnsupportedConstruct.
package errors

// Error code ranges, one per family:
//
//	E0001-E0099: Type errors (typechecker re-verification between passes)
//	E0100-E0199: Uniqueness errors (alias/consumption analysis)
//	E0200-E0299: Shape-context errors (unresolved existential dimensions)
//	E0300-E0399: Internal errors (broken pass invariants — compiler bugs)
//	E0400-E0499: Unsupported-construct errors (pass encountered something
//	             it isn't yet prepared to handle)

const (
	ErrorTypeMismatch        = "E0001"
	ErrorArityMismatch       = "E0002"
	ErrorReturnTypeMismatch  = "E0003"

	ErrorConsumeNonunique  = "E0100"
	ErrorConsumeConsumed   = "E0101"
	ErrorUseAfterConsume   = "E0102"

	ErrorUnresolvedExt = "E0200"

	ErrorBrokenInvariant  = "E0300"
	ErrorStaleNameSource  = "E0301"
	ErrorPatternArityBug  = "E0302"

	ErrorUnsupportedConstruct = "E0400"
	ErrorUnsupportedSpace     = "E0401"
)

// GetErrorDescription returns a human-readable description of the error
// code, used by the CLI's --verbose banner.
func GetErrorDescription(code string) string {
	switch code {
	case ErrorTypeMismatch:
		return "expression type does not match its expected type"
	case ErrorArityMismatch:
		return "a statement's pattern arity disagrees with its expression's return arity"
	case ErrorReturnTypeMismatch:
		return "function body result does not match the declared return type"
	case ErrorConsumeNonunique:
		return "a Nonunique parameter was consumed"
	case ErrorConsumeConsumed:
		return "a name was consumed after already being consumed"
	case ErrorUseAfterConsume:
		return "a name was used after being consumed"
	case ErrorUnresolvedExt:
		return "an existential dimension is not discharged by any actual return position"
	case ErrorBrokenInvariant:
		return "a pass produced a program violating an IR invariant"
	case ErrorStaleNameSource:
		return "a pass leaked a name source whose cursor did not advance monotonically"
	case ErrorPatternArityBug:
		return "a builder produced a pattern whose arity disagrees with its expression"
	case ErrorUnsupportedConstruct:
		return "a pass encountered a construct it is not yet prepared to handle"
	case ErrorUnsupportedSpace:
		return "an allocation was requested in an address space no pass handles"
	default:
		return "unknown error code"
	}
}

// GetErrorCategory returns the taxonomy family of an error code, matching
// the five error kinds.
func GetErrorCategory(code string) string {
	switch {
	case code >= "E0001" && code < "E0100":
		return "TypeError"
	case code >= "E0100" && code < "E0200":
		return "UniquenessError"
	case code >= "E0200" && code < "E0300":
		return "ShapeContextError"
	case code >= "E0300" && code < "E0400":
		return "InternalError"
	case code >= "E0400" && code < "E0500":
		return "UnsupportedConstruct"
	default:
		return "Unknown"
	}
}
