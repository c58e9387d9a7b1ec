// Package geometry provides bounding-box and centered-fit computations over
// vector paths. Pure functions, no I/O.
package geometry

import (
	"math"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/apperr"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
)

// Box is an axis-aligned bounding box in board coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Transform is a uniform scale followed by a translation.
type Transform struct {
	Scale float64 `json:"scale"`
	Dx    float64 `json:"dx"`
	Dy    float64 `json:"dy"`
}

// Apply maps a point through the transform.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.Scale + t.Dx, y*t.Scale + t.Dy
}

// ComputeBoundingBox returns the union of each path's rendered extent after
// its own affine placement, padded by half the stroke width. The empty set
// has no defined box and is an error; a single degenerate zero-size path
// yields a zero-area box at its position.
func ComputeBoundingBox(paths []model.Path) (Box, error) {
	if len(paths) == 0 {
		return Box{}, apperr.E(apperr.ErrInvalid, "bounding box of empty path set")
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, p := range paths {
		box, err := clientRect(p)
		if err != nil {
			return Box{}, err
		}
		minX = math.Min(minX, box.X)
		minY = math.Min(minY, box.Y)
		maxX = math.Max(maxX, box.X+box.Width)
		maxY = math.Max(maxY, box.Y+box.Height)
	}

	return Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, nil
}

// clientRect computes one path's extent in board coordinates: local point
// extents padded by strokeWidth/2, then the four corners pushed through the
// path's translate/rotate/scale placement.
func clientRect(p model.Path) (Box, error) {
	subpaths, err := FlattenPath(p.D)
	if err != nil {
		return Box{}, apperr.E(apperr.ErrInvalid, "path %s: %v", p.ID, err)
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	seen := false
	for _, sp := range subpaths {
		for _, pt := range sp {
			seen = true
			minX = math.Min(minX, pt.X)
			minY = math.Min(minY, pt.Y)
			maxX = math.Max(maxX, pt.X)
			maxY = math.Max(maxY, pt.Y)
		}
	}
	if !seen {
		return Box{}, apperr.E(apperr.ErrInvalid, "path %s has no geometry", p.ID)
	}

	pad := p.StrokeWidth / 2
	minX -= pad
	minY -= pad
	maxX += pad
	maxY += pad

	sin, cos := math.Sincos(p.Rotation * math.Pi / 180)
	corners := [4]Point{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}}

	bMinX, bMinY := math.Inf(1), math.Inf(1)
	bMaxX, bMaxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		sx := c.X * p.ScaleX
		sy := c.Y * p.ScaleY
		x := p.X + cos*sx - sin*sy
		y := p.Y + sin*sx + cos*sy
		bMinX = math.Min(bMinX, x)
		bMinY = math.Min(bMinY, y)
		bMaxX = math.Max(bMaxX, x)
		bMaxY = math.Max(bMaxY, y)
	}

	return Box{X: bMinX, Y: bMinY, Width: bMaxX - bMinX, Height: bMaxY - bMinY}, nil
}

// ComputeTransformCentered computes the uniform scale and translation that
// fit the from box inside the to box, centered along the slack axis. A
// degenerate from box has no finite scale and is rejected.
func ComputeTransformCentered(from, to Box) (Transform, error) {
	if from.Width <= 0 || from.Height <= 0 {
		return Transform{}, apperr.E(apperr.ErrInvalid, "degenerate source box %.2fx%.2f", from.Width, from.Height)
	}

	scale := math.Min(to.Width/from.Width, to.Height/from.Height)
	dx := to.X + (to.Width-from.Width*scale)/2 - from.X*scale
	dy := to.Y + (to.Height-from.Height*scale)/2 - from.Y*scale
	return Transform{Scale: scale, Dx: dx, Dy: dy}, nil
}
