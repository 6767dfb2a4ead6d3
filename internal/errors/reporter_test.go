package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCategoryRanges(t *testing.T) {
	assert.Equal(t, "TypeError", GetErrorCategory(ErrorTypeMismatch))
	assert.Equal(t, "UniquenessError", GetErrorCategory(ErrorConsumeNonunique))
	assert.Equal(t, "ShapeContextError", GetErrorCategory(ErrorUnresolvedExt))
	assert.Equal(t, "InternalError", GetErrorCategory(ErrorBrokenInvariant))
	assert.Equal(t, "UnsupportedConstruct", GetErrorCategory(ErrorUnsupportedConstruct))
	assert.Equal(t, "Unknown", GetErrorCategory("E9999"))
}

func TestErrorDescriptionsNonEmpty(t *testing.T) {
	for _, code := range []string{
		ErrorTypeMismatch, ErrorArityMismatch, ErrorReturnTypeMismatch,
		ErrorConsumeNonunique, ErrorConsumeConsumed, ErrorUseAfterConsume,
		ErrorUnresolvedExt, ErrorBrokenInvariant, ErrorStaleNameSource,
		ErrorPatternArityBug, ErrorUnsupportedConstruct, ErrorUnsupportedSpace,
	} {
		assert.NotEqual(t, "unknown error code", GetErrorDescription(code), code)
	}
}

func TestUniquenessErrorFormatsWithLocation(t *testing.T) {
	loc := Loc{Fun: "main", Stmt: "let y = update x [i] <- v"}
	err := UniquenessError(ErrorConsumeConsumed, "alias", "x was already consumed", loc)

	require.Equal(t, KindUniquenessError, err.Kind)
	assert.Contains(t, err.Error(), "UniquenessError")
	assert.Contains(t, err.Error(), "main")
	assert.Contains(t, err.Error(), "x was already consumed")
}

func TestReporterFormatIncludesSnapshotOnlyWhenVerbose(t *testing.T) {
	loc := Loc{Fun: "f", Stmt: "let z = x + y"}
	err := InternalError("simplify", "pattern arity mismatch", loc).WithSnapshot("fun f ... end")

	quiet := NewReporter(false).Format(err)
	assert.NotContains(t, quiet, "fun f")

	loud := NewReporter(true).Format(err)
	assert.Contains(t, loud, "fun f")
}

func TestWithPassOverridesAttribution(t *testing.T) {
	err := TypeError("typecheck", "mismatched return arity", Loc{Fun: "g"})
	err.WithPass("pass-manager")
	assert.Equal(t, "pass-manager", err.Pass)
}
