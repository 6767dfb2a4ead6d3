// Package frontend is not a source-language front end: the compiler's real
// input is already-typed IR handed off in-process.
// This package is a convenience stand-in used by the CLI (every action
// starts by parsing a .fir file) and by tests: a small participle grammar for ".fir", a textual rendering
// of ir.Program close to what ir.Sprint prints, so fixtures don't have to
// be hand-built as nested Go struct literals.
//
// One file of pointer-field struct-tag productions, alternation via
// sibling pointer fields, applied to a much smaller symbol set — .fir has
// no modules, structs, or expressions beyond the BasicOp family, since
// If/DoLoop/kernels are exercised directly in Go-level tests instead (see
// DESIGN.md).
package frontend

// Program is the root production: zero or more function definitions.
type Program struct {
	Funcs []*Function `@@*`
}

type Function struct {
	Entry  bool     `@"entry"?`
	Name   string   `"fun" @Ident`
	Params []*Param `"(" [ @@ { "," @@ } ] ")"`
	Rets   []*Type  `":" @@ { "," @@ }`
	Body   *Body    `"=" @@`
}

type Param struct {
	Name string `@Ident`
	Type *Type  `":" @@`
}

// Type renders the way ir.Type.String does: an optional uniqueness marker,
// then zero or more "[dim]" shape brackets, then the element primitive.
type Type struct {
	Uniq bool   `@"*"?`
	Dims []*Dim `{ "[" @@ "]" }`
	Prim string `@Ident`
}

// Dim is one Shape entry: a literal size or a named scalar (a prior
// let-bound or parameter VName supplying a runtime size). Existential (Ext)
// dimensions have no .fir surface syntax; they only arise mid-pipeline.
type Dim struct {
	Int  *int64  `  @Integer`
	Name *string `| @Ident`
}

type Body struct {
	Stmts  []*Stmt  `{ @@ }`
	Result []string `"in" "{" [ @Ident { "," @Ident } ] "}"`
}

type Stmt struct {
	Pattern []*PatElemNode `"let" "{" [ @@ { "," @@ } ] "}" "="`
	Exp     *Exp           `@@`
}

// PatElemNode names one bound result and its type. The type is given
// explicitly, not inferred: the front-end contract hands off already-
// typed IR, and .fir mirrors that rather than type-checking itself.
type PatElemNode struct {
	Name string `@Ident`
	Type *Type  `":" @@`
}

// Exp is the sum of every BasicOp form the textual format supports, plus
// the bare-SubExp identity rename.
type Exp struct {
	Iota      *IotaExp      `  @@`
	Copy      *CopyExp      `| @@`
	Replicate *ReplicateExp `| @@`
	Update    *UpdateExp    `| @@`
	Write     *WriteExp     `| @@`
	Index     *IndexExp     `| @@`
	BinOp     *BinOpExp     `| @@`
	CmpOp     *CmpOpExp     `| @@`
	Sub       *SubExpNode   `| @@`
}

type IotaExp struct {
	Count *SubExpNode `"iota" @@`
}

type CopyExp struct {
	Arr string `"copy" @Ident`
}

type ReplicateExp struct {
	Dims  []*Dim      `"replicate" "[" [ @@ { "," @@ } ] "]"`
	Value *SubExpNode `@@`
}

type UpdateExp struct {
	Arr   string          `"update" @Ident`
	Slice []*DimIndexNode `"[" [ @@ { "," @@ } ] "]"`
	Value *SubExpNode     `"<-" @@`
}

// WriteExp is the unfused textual form of a scatter: .fir has no lambda
// syntax, so a fused Write (produced only by the simplifier's map-write
// fusion rule) has no surface syntax and is never round-tripped.
type WriteExp struct {
	Indices string `"write" @Ident`
	Values  string `@Ident`
	Dest    string `"->" @Ident`
}

type IndexExp struct {
	Arr   string          `"index" @Ident`
	Slice []*DimIndexNode `"[" [ @@ { "," @@ } ] "]"`
}

// DimIndexNode is a fixed index when Rest is absent, a strided slice
// ("start:count:stride") when present.
type DimIndexNode struct {
	I    *SubExpNode `@@`
	Rest *SliceRest  `[ @@ ]`
}

type SliceRest struct {
	Count  *SubExpNode `":" @@`
	Stride *SubExpNode `":" @@`
}

type BinOpExp struct {
	Op   string      `"binop" @Ident`
	Type string      `@Ident`
	X    *SubExpNode `@@`
	Y    *SubExpNode `@@`
}

type CmpOpExp struct {
	Op   string      `"cmpop" @Ident`
	Type string      `@Ident`
	X    *SubExpNode `@@`
	Y    *SubExpNode `@@`
}

// SubExpNode is a variable reference or a numeric literal. A literal's
// primitive width is not written at the use site; Convert takes it from
// whatever typed position the literal occupies (a BinOp/CmpOp's declared
// operand type, an Iota's i32 counter, a slice index's i64), the same
// "no inference, only propagation from an already-typed position" stance
// the rest of the front-end contract takes.
type SubExpNode struct {
	Var   *string  `  @Ident`
	Int   *int64   `| @Integer`
	Float *float64 `| @Float`
}
