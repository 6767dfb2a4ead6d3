// Package ir defines the core intermediate representation shared by every
// pass in the pipeline: a typed, single-assignment program representation
// parametric over a "lore" that selects the decoration carried at each of
// four binding sites.
//
// One package holds the whole IR variant plus its typed constructors:
// arrays, shapes, uniqueness, and SOACs.
package ir

import (
	"fmt"
	"strings"

	"futhark-core/internal/namesupply"
)

// VName is re-exported from namesupply so every IR file can refer to it as
// ir.VName without importing namesupply directly.
type VName = namesupply.VName

// PrimType is a scalar primitive type: an integer width, a float width,
// bool, or the zero-width assertion token cert.
type PrimType int

const (
	I8 PrimType = iota
	I16
	I32
	I64
	F32
	F64
	Bool
	Cert
)

func (p PrimType) String() string {
	switch p {
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Bool:
		return "bool"
	case Cert:
		return "cert"
	default:
		return "?prim"
	}
}

// IsInt reports whether p is one of the integer widths.
func (p PrimType) IsInt() bool { return p == I8 || p == I16 || p == I32 || p == I64 }

// IsFloat reports whether p is one of the float widths.
func (p PrimType) IsFloat() bool { return p == F32 || p == F64 }

// Uniqueness annotates an array type: Unique arrays may be consumed at most
// once; Nonunique arrays may never be consumed.
type Uniqueness int

const (
	Nonunique Uniqueness = iota
	Unique
)

func (u Uniqueness) String() string {
	if u == Unique {
		return "*"
	}
	return ""
}

// Space names an address space a Memory value lives in.
type Space string

const (
	DefaultSpace Space = "default"
	SpaceGlobal  Space = "global"
	SpaceLocal   Space = "local"
)

// PrimValue is a compile-time scalar constant.
type PrimValue interface {
	primValue()
	Type() PrimType
	String() string
}

type IntValue struct {
	Bits PrimType // one of I8/I16/I32/I64
	Val  int64
}

func (IntValue) primValue()       {}
func (v IntValue) Type() PrimType { return v.Bits }
func (v IntValue) String() string { return fmt.Sprintf("%d%s", v.Val, v.Bits) }

type FloatValue struct {
	Bits PrimType // F32 or F64
	Val  float64
}

func (FloatValue) primValue()       {}
func (v FloatValue) Type() PrimType { return v.Bits }
func (v FloatValue) String() string { return fmt.Sprintf("%g%s", v.Val, v.Bits) }

type BoolValue bool

func (BoolValue) primValue()       {}
func (BoolValue) Type() PrimType   { return Bool }
func (v BoolValue) String() string { return fmt.Sprintf("%t", bool(v)) }

// CertValue is the zero-width proof token produced by an Assert.
type CertValue struct{}

func (CertValue) primValue()     {}
func (CertValue) Type() PrimType { return Cert }
func (CertValue) String() string { return "cert" }

// SubExp is either a reference to a bound name or a compile-time constant.
// Only SubExps (never arbitrary Exps) may appear as operands: this is what
// keeps the IR in single-assignment, flatly-nested form.
type SubExp interface {
	subExp()
	String() string
}

type Var struct{ Name VName }

func (Var) subExp()          {}
func (v Var) String() string { return v.Name.String() }

type Constant struct{ Value PrimValue }

func (Constant) subExp()          {}
func (c Constant) String() string { return c.Value.String() }

// DimSize is one dimension of a Shape: either a concrete size (a SubExp,
// itself possibly a variable) or an existential placeholder to be
// instantiated by a shape context at the use site.
type DimSize interface {
	dimSize()
	String() string
}

type Free struct{ Size SubExp }

func (Free) dimSize()         {}
func (f Free) String() string { return f.Size.String() }

// Ext is an existential dimension: "the i'th extra return value supplies
// this dimension's size".
type Ext struct{ Which int }

func (Ext) dimSize()         {}
func (e Ext) String() string { return fmt.Sprintf("?%d", e.Which) }

// Shape is an ordered sequence of dimension sizes.
type Shape []DimSize

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = "[" + d.String() + "]"
	}
	return strings.Join(parts, "")
}

// Rank is the number of dimensions.
func (s Shape) Rank() int { return len(s) }

// IsStatic reports whether every dimension is a Free(Constant) size, i.e.
// the shape is known without consulting a shape context.
func (s Shape) IsStatic() bool {
	for _, d := range s {
		f, ok := d.(Free)
		if !ok {
			return false
		}
		if _, ok := f.Size.(Constant); !ok {
			return false
		}
	}
	return true
}

// Type is the value-type lattice: scalars, arrays, and (post explicit-
// allocation) raw memory blocks.
type Type interface {
	isType()
	String() string
}

type Scalar struct{ Prim PrimType }

func (Scalar) isType()          {}
func (s Scalar) String() string { return s.Prim.String() }

type Array struct {
	Elem  PrimType
	Shape Shape
	Uniq  Uniqueness
}

func (Array) isType() {}
func (a Array) String() string {
	return fmt.Sprintf("%s%s%s", a.Uniq, a.Shape, a.Elem)
}

// RowType returns the type of one row of the array (one fewer dimension).
func (a Array) RowType() Type {
	if len(a.Shape) <= 1 {
		return Scalar{Prim: a.Elem}
	}
	return Array{Elem: a.Elem, Shape: a.Shape[1:], Uniq: Nonunique}
}

type Memory struct {
	Size  SubExp // byte size, nil if not yet known
	Space Space
}

func (Memory) isType() {}
func (m Memory) String() string {
	if m.Size == nil {
		return fmt.Sprintf("mem(%s)", m.Space)
	}
	return fmt.Sprintf("mem(%s,%s)", m.Size, m.Space)
}

// UniqueOf returns a copy of an Array type with Uniqueness set to Unique.
func UniqueOf(t Type) Type {
	if a, ok := t.(Array); ok {
		a.Uniq = Unique
		return a
	}
	return t
}

// ObserveOf returns a copy of an Array type with Uniqueness set to
// Nonunique, stripping any uniqueness annotation the way an Observe-diet
// argument does.
func ObserveOf(t Type) Type {
	if a, ok := t.(Array); ok {
		a.Uniq = Nonunique
		return a
	}
	return t
}

// TypesEqual compares two types structurally: scalars by primitive type,
// arrays by element type and rank only (dimension sizes and uniqueness are
// not compared), memory by space only.
func TypesEqual(a, b Type) bool {
	switch av := a.(type) {
	case Scalar:
		bv, ok := b.(Scalar)
		return ok && av.Prim == bv.Prim
	case Array:
		bv, ok := b.(Array)
		if !ok || av.Elem != bv.Elem || len(av.Shape) != len(bv.Shape) {
			return false
		}
		return true
	case Memory:
		bv, ok := b.(Memory)
		return ok && av.Space == bv.Space
	default:
		return false
	}
}
