package ir

// Lambda is an anonymous function passed to a SOAC: parameters, a body, and
// a return-type list (no existential dimensions — SOAC bodies operate on a
// single row at a time, whose shape is always statically known relative to
// its enclosing array).
type Lambda struct {
	Params  []Param
	Body    Body
	RetType []Type
}

// Commutativity records whether a SOAC's combining operator is known
// commutative, which the simplifier and kernel extraction use to justify
// reordering partial results (e.g. tree vs. sequential reduction).
type Commutativity int

const (
	Noncommutative Commutativity = iota
	Commutative
)

// SOAC is the family of Second-Order Array Combinators available in the
// SOACS lore (Glossary: map, reduce, scan, redomap, stream).
type SOAC interface {
	Op
	soac()
}

// Map applies Lambda row-wise to Arrs, all of which share outer dimension W.
type Map struct {
	W      SubExp
	Lambda *Lambda
	Arrs   []VName
}

func (Map) exp()  {}
func (Map) op()   {}
func (Map) soac() {}

// Reduce folds Arrs with Lambda starting from Nes (the neutral/identity
// elements), producing one result per accumulator.
type Reduce struct {
	W      SubExp
	Comm   Commutativity
	Lambda *Lambda
	Nes    []SubExp
	Arrs   []VName
}

func (Reduce) exp()  {}
func (Reduce) op()   {}
func (Reduce) soac() {}

// Scan is like Reduce but keeps every intermediate partial result.
type Scan struct {
	W      SubExp
	Lambda *Lambda
	Nes    []SubExp
	Arrs   []VName
}

func (Scan) exp()  {}
func (Scan) op()   {}
func (Scan) soac() {}

// Redomap fuses a Map producing intermediate rows with a Reduce consuming
// them, avoiding materializing the intermediate array.
type Redomap struct {
	W          SubExp
	Comm       Commutativity
	ReduceFn   *Lambda
	Nes        []SubExp
	MapFn      *Lambda
	Arrs       []VName
}

func (Redomap) exp()  {}
func (Redomap) op()   {}
func (Redomap) soac() {}

// Stream is the sequential chunked fold used when an operator cannot be
// proven associative-commutative enough to parallelize as a Reduce/Scan.
type Stream struct {
	W       SubExp
	ChunkFn *Lambda // parametrized over a chunk of rows plus accumulators
	Nes     []SubExp
	Arrs    []VName
}

func (Stream) exp()  {}
func (Stream) op()   {}
func (Stream) soac() {}
