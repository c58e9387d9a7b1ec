package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/apperr"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
)

func rect10(id string) model.Path {
	return model.Path{ID: id, D: "M 0 0 L 10 0 L 10 10 L 0 10 Z", ScaleX: 1, ScaleY: 1}
}

func TestComputeBoundingBox(t *testing.T) {
	t.Run("empty set is an error", func(t *testing.T) {
		_, err := ComputeBoundingBox(nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrInvalid)
	})

	t.Run("single square", func(t *testing.T) {
		box, err := ComputeBoundingBox([]model.Path{rect10("a")})
		require.NoError(t, err)
		assert.InDelta(t, 0, box.X, 1e-9)
		assert.InDelta(t, 0, box.Y, 1e-9)
		assert.InDelta(t, 10, box.Width, 1e-9)
		assert.InDelta(t, 10, box.Height, 1e-9)
	})

	t.Run("degenerate zero-size path is a zero-area box, not an error", func(t *testing.T) {
		p := model.Path{ID: "dot", D: "M 5 7", X: 3, Y: 4, ScaleX: 1, ScaleY: 1}
		box, err := ComputeBoundingBox([]model.Path{p})
		require.NoError(t, err)
		assert.InDelta(t, 8, box.X, 1e-9) // 3 + 5
		assert.InDelta(t, 11, box.Y, 1e-9)
		assert.InDelta(t, 0, box.Width, 1e-9)
		assert.InDelta(t, 0, box.Height, 1e-9)
	})

	t.Run("placement and stroke width are applied", func(t *testing.T) {
		p := rect10("a")
		p.X, p.Y = 100, 200
		p.ScaleX, p.ScaleY = 2, 2
		p.StrokeWidth = 4
		box, err := ComputeBoundingBox([]model.Path{p})
		require.NoError(t, err)
		// local box [-2,12] padded by width/2, doubled, shifted
		assert.InDelta(t, 96, box.X, 1e-9)
		assert.InDelta(t, 196, box.Y, 1e-9)
		assert.InDelta(t, 28, box.Width, 1e-9)
		assert.InDelta(t, 28, box.Height, 1e-9)
	})

	t.Run("rotation expands the axis-aligned box", func(t *testing.T) {
		p := rect10("a")
		p.Rotation = 45
		box, err := ComputeBoundingBox([]model.Path{p})
		require.NoError(t, err)
		assert.InDelta(t, 14.1421, box.Width, 1e-3)
		assert.InDelta(t, 14.1421, box.Height, 1e-3)
	})

	t.Run("union of two paths", func(t *testing.T) {
		a := rect10("a")
		b := rect10("b")
		b.X, b.Y = 50, 60
		box, err := ComputeBoundingBox([]model.Path{a, b})
		require.NoError(t, err)
		assert.InDelta(t, 0, box.X, 1e-9)
		assert.InDelta(t, 60, box.Width, 1e-9)
		assert.InDelta(t, 70, box.Height, 1e-9)
	})

	t.Run("malformed path data", func(t *testing.T) {
		_, err := ComputeBoundingBox([]model.Path{{ID: "bad", D: "M 1 banana"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrInvalid)
	})
}

func TestComputeTransformCentered(t *testing.T) {
	t.Run("box onto itself is identity", func(t *testing.T) {
		b := Box{X: 3, Y: 4, Width: 10, Height: 20}
		tr, err := ComputeTransformCentered(b, b)
		require.NoError(t, err)
		assert.InDelta(t, 1, tr.Scale, 1e-9)
		assert.InDelta(t, 0, tr.Dx, 1e-9)
		assert.InDelta(t, 0, tr.Dy, 1e-9)
	})

	t.Run("degenerate source is rejected", func(t *testing.T) {
		_, err := ComputeTransformCentered(Box{Width: 0, Height: 10}, Box{Width: 10, Height: 10})
		require.Error(t, err)
		assert.ErrorIs(t, err, apperr.ErrInvalid)
	})

	t.Run("mapped corners land inside the target, centered on the slack axis", func(t *testing.T) {
		from := Box{X: -5, Y: 10, Width: 40, Height: 20}
		to := Box{X: 100, Y: 100, Width: 30, Height: 30}
		tr, err := ComputeTransformCentered(from, to)
		require.NoError(t, err)

		x0, y0 := tr.Apply(from.X, from.Y)
		x1, y1 := tr.Apply(from.X+from.Width, from.Y+from.Height)
		assert.GreaterOrEqual(t, x0, to.X-1e-9)
		assert.GreaterOrEqual(t, y0, to.Y-1e-9)
		assert.LessOrEqual(t, x1, to.X+to.Width+1e-9)
		assert.LessOrEqual(t, y1, to.Y+to.Height+1e-9)

		// width fills the target, so height slack is split evenly
		assert.InDelta(t, to.X, x0, 1e-9)
		assert.InDelta(t, to.X+to.Width, x1, 1e-9)
		topGap := y0 - to.Y
		bottomGap := to.Y + to.Height - y1
		assert.InDelta(t, topGap, bottomGap, 1e-9)
	})

	t.Run("refit of a larger box scales down", func(t *testing.T) {
		from := Box{X: 100, Y: 100, Width: 40, Height: 40}
		to := Box{X: 0, Y: 0, Width: 10, Height: 10}
		tr, err := ComputeTransformCentered(from, to)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, tr.Scale, 1e-9)
		assert.InDelta(t, -25, tr.Dx, 1e-9)
		assert.InDelta(t, -25, tr.Dy, 1e-9)
	})
}

func TestFlattenPath(t *testing.T) {
	t.Run("relative commands and implicit linetos", func(t *testing.T) {
		subpaths, err := FlattenPath("m 1 1 2 0 l 0 2 h 3 v -1 z")
		require.NoError(t, err)
		require.Len(t, subpaths, 1)
		pts := subpaths[0]
		assert.Equal(t, Point{1, 1}, pts[0])
		assert.Equal(t, Point{3, 1}, pts[1])
		assert.Equal(t, Point{3, 3}, pts[2])
		assert.Equal(t, Point{6, 3}, pts[3])
		assert.Equal(t, Point{6, 2}, pts[4])
		assert.Equal(t, Point{1, 1}, pts[len(pts)-1])
	})

	t.Run("curves are flattened through their endpoints", func(t *testing.T) {
		subpaths, err := FlattenPath("M 0 0 C 0 10 10 10 10 0 Q 15 -5 20 0")
		require.NoError(t, err)
		require.Len(t, subpaths, 1)
		last := subpaths[0][len(subpaths[0])-1]
		assert.InDelta(t, 20, last.X, 1e-9)
		assert.InDelta(t, 0, last.Y, 1e-9)
	})

	t.Run("arc ends at its endpoint", func(t *testing.T) {
		subpaths, err := FlattenPath("M 0 0 A 5 5 0 0 1 10 0")
		require.NoError(t, err)
		pts := subpaths[0]
		last := pts[len(pts)-1]
		assert.InDelta(t, 10, last.X, 1e-6)
		assert.InDelta(t, 0, last.Y, 1e-6)
		// midpoint of the sweep bulges off the chord
		var maxDev float64
		for _, pt := range pts {
			if d := pt.Y; d < maxDev {
				maxDev = d
			}
		}
		assert.Less(t, maxDev, -3.0)
	})

	t.Run("multiple subpaths", func(t *testing.T) {
		subpaths, err := FlattenPath("M 0 0 L 1 0 M 5 5 L 6 5")
		require.NoError(t, err)
		assert.Len(t, subpaths, 2)
	})
}
