// Package namesupply provides the monotonic fresh-name discipline threaded
// through every pass of the core pipeline.
//
// A VName is a (base name, unique tag) pair. Equality and ordering use only
// the tag; the base name is kept around for diagnostics and for rendering
// the IR back to something a human can read. A NameSource hands out tags
// that are guaranteed unique for the lifetime of a compilation unit.
package namesupply

import (
	"fmt"

	"github.com/sasha-s/go-deadlock"
)

// VName identifies a binding site. Two VNames are the same binding iff their
// Tag fields are equal; Base is advisory only.
type VName struct {
	Base string
	Tag  uint64
}

// String renders a VName the way diagnostics and the .fir printer do:
// base name followed by the tag, e.g. "x_17".
func (v VName) String() string {
	return fmt.Sprintf("%s_%d", v.Base, v.Tag)
}

// Equal reports whether two VNames name the same binding.
func (v VName) Equal(o VName) bool { return v.Tag == o.Tag }

// NameSource is the single source of fresh tags for a compilation unit.
//
// It is the one piece of mutable state the pipeline shares across pass
// boundaries; go-deadlock catches accidental concurrent or
// re-entrant use, which would otherwise silently violate the "monotonic,
// never-reused tag" invariant.
type NameSource struct {
	mu     deadlock.Mutex
	cursor uint64
}

// New creates a NameSource whose first minted tag is strictly greater than
// seed. The front end must supply a seed strictly greater than any tag
// already occurring in the program it hands off.
func New(seed uint64) *NameSource {
	return &NameSource{cursor: seed}
}

// Fresh mints a new VName with the given base name and a tag higher than any
// previously minted by this source.
func (ns *NameSource) Fresh(base string) VName {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.cursor++
	return VName{Base: base, Tag: ns.cursor}
}

// FreshLike mints a new VName reusing an existing VName's base, the way the
// renamer re-tags a program after aggressive inlining.
func (ns *NameSource) FreshLike(v VName) VName {
	return ns.Fresh(v.Base)
}

// Cursor returns the highest tag minted so far.
func (ns *NameSource) Cursor() uint64 {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.cursor
}

// Clone returns an independent NameSource starting where ns currently is.
// The two sources then mint independently of each other, so they can hand
// out the same tag.
func (ns *NameSource) Clone() *NameSource {
	return New(ns.Cursor())
}
