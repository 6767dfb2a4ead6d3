package ixfun

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIotaIsDirect(t *testing.T) {
	f := Iota([]int64{3, 4})
	assert.True(t, f.IsDirect())
	assert.Equal(t, []int64{3, 4}, f.ResultShape())

	off, ok := f.LinearWithOffset(1)
	assert.True(t, ok)
	assert.Equal(t, int64(0), off)
}

func TestOffsetByShiftsLinearOffset(t *testing.T) {
	f := Iota([]int64{10}).OffsetBy(3)
	assert.False(t, f.IsDirect())

	off, ok := f.LinearWithOffset(4)
	assert.True(t, ok)
	assert.Equal(t, int64(12), off)
}

func TestPermuteTransposesResultShape(t *testing.T) {
	f := Iota([]int64{2, 3}).Permute([]int{1, 0})
	assert.Equal(t, []int64{3, 2}, f.ResultShape())

	_, ok := f.LinearWithOffset(1)
	assert.False(t, ok, "a permuted view is no longer expressible as a plain linear offset")

	off, perm, ok := f.RearrangeWithOffset(1)
	assert.True(t, ok)
	assert.Equal(t, int64(0), off)
	assert.Equal(t, []int{1, 0}, perm)
}

func TestReshapeOfContiguousViewSucceeds(t *testing.T) {
	f := Iota([]int64{2, 6})
	g := f.Reshape([]int64{12})
	assert.NotNil(t, g)
	assert.Equal(t, []int64{12}, g.ResultShape())
	assert.True(t, g.IsDirect())
}

func TestReshapeOfNonContiguousViewDeclines(t *testing.T) {
	f := Iota([]int64{2, 6}).Rotate()
	g := f.Reshape([]int64{12})
	assert.Nil(t, g, "reshaping a non-contiguous view has no expressible index function")
}

func TestRotateMarksNonContiguous(t *testing.T) {
	f := Iota([]int64{5}).Rotate()
	assert.False(t, f.IsDirect())
	_, ok := f.LinearWithOffset(1)
	assert.False(t, ok)
}
