package entity

import (
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoxCenter(t *testing.T) {
	b := Box{X: 10, Y: 20, Width: 8, Height: 6}
	x, y := b.Center()
	require.Equal(t, 14, x)
	require.Equal(t, 23, y)
}

func TestBoxIntersectAndArea(t *testing.T) {
	a := Box{X: 0, Y: 0, Width: 10, Height: 10}
	b := Box{X: 5, Y: 5, Width: 10, Height: 10}
	require.Equal(t, Box{X: 5, Y: 5, Width: 5, Height: 5}, a.Intersect(b))
	require.Equal(t, 25, a.Intersect(b).Area())

	c := Box{X: 20, Y: 20, Width: 2, Height: 2}
	require.True(t, a.Intersect(c).Empty())
	require.Equal(t, 0, a.Intersect(c).Area())
}

func TestBoxDistance(t *testing.T) {
	a := Box{X: 0, Y: 0, Width: 10, Height: 10}
	require.Zero(t, a.Distance(a))
	require.InDelta(t, 5.0, a.Distance(Box{X: 3, Y: 4, Width: 10, Height: 10}), 1e-9)
}

func TestBoxScaleAndRect(t *testing.T) {
	b := Box{X: 10, Y: 10, Width: 10, Height: 10}
	require.Equal(t, Box{X: 5, Y: 5, Width: 20, Height: 20}, b.Scale(2))
	require.Equal(t, image.Rect(10, 10, 20, 20), b.Rect())
	require.Equal(t, b, BoxFromRect(b.Rect()))
}
