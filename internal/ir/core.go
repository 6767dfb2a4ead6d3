package ir

// Lore selects the decoration carried at each binding site and the payload
// type of Op. It is modeled as a runtime value
// rather than a type parameter since Go has no higher-kinded types; the
// pass manager checks a Pipeline's declared lore chain against these tags.
type Lore struct {
	Name  string
	Wraps *Lore // non-nil for Aliases(L), which wraps another lore
}

func (l Lore) String() string {
	if l.Wraps == nil {
		return l.Name
	}
	return l.Name + "(" + l.Wraps.String() + ")"
}

func (l Lore) Equal(o Lore) bool {
	if l.Name != o.Name {
		return false
	}
	if (l.Wraps == nil) != (o.Wraps == nil) {
		return false
	}
	if l.Wraps == nil {
		return true
	}
	return l.Wraps.Equal(*o.Wraps)
}

var (
	// SOACS is the lore produced directly by the front end: Op holds a SOAC.
	SOACS = Lore{Name: "SOACS"}
	// Kernels is the lore after kernel extraction: Op holds a GPU kernel or
	// host operation.
	Kernels = Lore{Name: "Kernels"}
	// ExplicitMemory is the final lore: every let-bound array name carries
	// a MemSummary and Op still holds Kernels-shaped payloads.
	ExplicitMemory = Lore{Name: "ExplicitMemory", Wraps: &Kernels}
)

// AliasesOf returns the Aliases(L) lore wrapping l.
func AliasesOf(l Lore) Lore { return Lore{Name: "Aliases", Wraps: &l} }

// Program is an ordered list of function definitions.
type Program struct {
	Lore Lore
	Funs []*FunDef
}

// FunDef is one function: a name, return types (possibly carrying Ext
// dimensions resolved by a shape context at call sites), parameters, and a
// body.
type FunDef struct {
	Name     string
	Entry    bool // an externally callable entry point
	RetType  []Type
	Params   []Param
	Body     Body
}

// Param is a function parameter. Dec carries lore-specific information: nil
// under SOACS/Kernels; under ExplicitMemory, a value parameter carries a
// MemSummary (a scalar summary for scalars, memory block plus index function
// for arrays), while a memory-block parameter itself has a nil Dec.
type Param struct {
	Name VName
	Type Type
	Dec  interface{}
}

// Body is a sequence of statements terminated by a Result tuple naming the
// body's output values. Dec carries a lore-
// specific body decoration, e.g. an alias set under Aliases(L).
type Body struct {
	Stmts  []Stmt
	Result []SubExp
	Dec    interface{}
}

// PatElem is one named output cell of a Pattern. Dec carries the lore-
// specific per-let-bound-name decoration: nil under SOACS/Kernels, an alias
// set under Aliases(L), a MemSummary under ExplicitMemory.
type PatElem struct {
	Name VName
	Type Type
	Dec  interface{}
}

// Stmt binds a Pattern (list of PatElems) to an Exp. Certs lists certificate
// values (cert-typed SubExps) this statement's evaluation depends on, e.g. a
// bounds check that must have already succeeded.
type Stmt struct {
	Pattern []PatElem
	Certs   []VName
	Exp     Exp
	Dec     interface{}
}

// PatternNames returns the VNames bound by a statement's pattern, in order.
func (s Stmt) PatternNames() []VName {
	names := make([]VName, len(s.Pattern))
	for i, pe := range s.Pattern {
		names[i] = pe.Name
	}
	return names
}

// Exp is the tagged variant of expression families:
// BasicOp, Apply, If, DoLoop, Op.
type Exp interface {
	exp()
}

// Diet describes how a function call uses one of its arguments.
type Diet int

const (
	Observe Diet = iota
	Consume
)

func (d Diet) String() string {
	if d == Consume {
		return "consume"
	}
	return "observe"
}

// ApplyArg is one argument to an Apply, with its diet.
type ApplyArg struct {
	Arg  SubExp
	Diet Diet
}

// Apply calls another function in the same program.
type Apply struct {
	Fun     string
	Args    []ApplyArg
	RetType []Type
}

func (Apply) exp() {}

// IfSort distinguishes an ordinary conditional from one synthesized purely
// to bound a runtime check. No pass in this module produces IfFallback.
type IfSort int

const (
	IfNormal IfSort = iota
	IfFallback
)

// If is a two-branch conditional whose branches are full Bodies; RetType
// gives the (possibly existential) result type of the whole expression.
type If struct {
	Cond    SubExp
	True    Body
	False   Body
	RetType []Type
	Sort    IfSort
}

func (If) exp() {}

// LoopForm is either a bounded for-loop or a while-loop.
type LoopForm interface {
	loopForm()
}

type ForLoop struct {
	I        VName
	IterType PrimType // the loop counter's integer type
	Bound    SubExp
}

func (ForLoop) loopForm() {}

type WhileLoop struct {
	CondName VName // the merge-parameter name re-evaluated as the loop condition
}

func (WhileLoop) loopForm() {}

// MergeParam pairs a loop-carried parameter with its initial value.
type MergeParam struct {
	Param Param
	Init  SubExp
}

// DoLoop is a loop with merge parameters split into a context part (shape
// variables) and a value part.
type DoLoop struct {
	CtxParams []MergeParam
	ValParams []MergeParam
	Form      LoopForm
	Body      Body
}

func (DoLoop) exp() {}

// MergeParams returns the context and value merge parameters concatenated,
// context first: the order internal/explicitmem relies on when pairing
// memory/value merge parameters.
func (d DoLoop) MergeParams() []MergeParam {
	out := make([]MergeParam, 0, len(d.CtxParams)+len(d.ValParams))
	out = append(out, d.CtxParams...)
	out = append(out, d.ValParams...)
	return out
}

// Op is the lore-parametric payload: SOACs under SOACS, kernels/host ops
// under Kernels/ExplicitMemory.
type Op interface {
	Exp
	op()
}
