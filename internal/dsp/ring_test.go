package dsp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingEvictsOldest(t *testing.T) {
	r := NewRing[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	require.Equal(t, 3, r.Len())
	require.Equal(t, 3, r.Cap())
	require.Equal(t, []int{3, 4, 5}, r.Slice())

	front, ok := r.Front()
	require.True(t, ok)
	require.Equal(t, 3, front)
	back, ok := r.Back()
	require.True(t, ok)
	require.Equal(t, 5, back)
}

func TestRingPopFront(t *testing.T) {
	r := NewRing[int](2)
	_, ok := r.PopFront()
	require.False(t, ok)

	r.Push(1)
	r.Push(2)
	v, ok := r.PopFront()
	require.True(t, ok)
	require.Equal(t, 1, v)
	r.Push(3)
	require.Equal(t, []int{2, 3}, r.Slice())

	r.Reset()
	require.Zero(t, r.Len())
	_, ok = r.Back()
	require.False(t, ok)
}
