// Package render rasterizes board strokes to PNG images.
package render

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gg"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/geometry"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
)

const (
	// Size of the square output canvas.
	Size = 1000
	// Padding around the fitted content.
	Padding = 50
)

// Image is an encoded raster image with its mime type.
type Image struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// Raster renders paths onto a fixed-size white canvas, content centered
// inside the padded window. It serves both the preview cache and the
// generative-fill model input.
type Raster struct {
	size    int
	padding float64
}

// NewRaster returns a renderer with the default canvas geometry.
func NewRaster() *Raster {
	return &Raster{size: Size, padding: Padding}
}

// Render draws the paths and encodes the canvas as a PNG. An empty path set
// yields a plain white canvas.
func (r *Raster) Render(paths []model.Path) (*Image, error) {
	dc := gg.NewContext(r.size, r.size)
	defer dc.Close()

	dc.SetRGB(1, 1, 1)
	dc.DrawRectangle(0, 0, float64(r.size), float64(r.size))
	if err := dc.Fill(); err != nil {
		return nil, fmt.Errorf("render: background: %w", err)
	}

	if len(paths) > 0 {
		tr, err := r.fitTransform(paths)
		if err != nil {
			return nil, err
		}
		dc.Translate(tr.Dx, tr.Dy)
		dc.Scale(tr.Scale, tr.Scale)

		for _, p := range paths {
			if err := r.drawPath(dc, p); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("render: encode: %w", err)
	}
	return &Image{MimeType: "image/png", Data: buf.Bytes()}, nil
}

// fitTransform centers the content bounding box inside the padded window.
// Content with a zero-area box (a single dot) cannot be fitted by scale and
// is centered at scale 1 instead.
func (r *Raster) fitTransform(paths []model.Path) (geometry.Transform, error) {
	box, err := geometry.ComputeBoundingBox(paths)
	if err != nil {
		return geometry.Transform{}, err
	}

	window := geometry.Box{
		X:      r.padding,
		Y:      r.padding,
		Width:  float64(r.size) - r.padding*2,
		Height: float64(r.size) - r.padding*2,
	}

	tr, err := geometry.ComputeTransformCentered(box, window)
	if err != nil {
		half := float64(r.size) / 2
		return geometry.Transform{
			Scale: 1,
			Dx:    half - (box.X + box.Width/2),
			Dy:    half - (box.Y + box.Height/2),
		}, nil
	}
	return tr, nil
}

func (r *Raster) drawPath(dc *gg.Context, p model.Path) error {
	subpaths, err := geometry.FlattenPath(p.D)
	if err != nil {
		return fmt.Errorf("render: path %s: %w", p.ID, err)
	}

	dc.Push()
	defer dc.Pop()
	dc.Translate(p.X, p.Y)
	dc.Rotate(p.Rotation * math.Pi / 180)
	dc.Scale(p.ScaleX, p.ScaleY)

	dc.ClearPath()
	for _, sp := range subpaths {
		if len(sp) == 0 {
			continue
		}
		dc.MoveTo(sp[0].X, sp[0].Y)
		for _, pt := range sp[1:] {
			dc.LineTo(pt.X, pt.Y)
		}
	}

	if fill := p.FillColor; fill != "" && !isNoFill(fill) {
		dc.SetHexColor(fill)
		if err := dc.FillPreserve(); err != nil {
			return fmt.Errorf("render: fill %s: %w", p.ID, err)
		}
	}

	dc.SetHexColor(p.StrokeColor)
	dc.SetLineWidth(p.StrokeWidth)
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("render: stroke %s: %w", p.ID, err)
	}
	return nil
}

func isNoFill(color string) bool {
	switch strings.ToLower(color) {
	case "none", "transparent":
		return true
	}
	return false
}
