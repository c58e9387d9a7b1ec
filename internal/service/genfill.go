package service

import (
	"context"
	"log"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/apperr"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/geometry"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/render"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/store"
)

// Completer sends a raster to the image model and returns its completion.
type Completer interface {
	Complete(ctx context.Context, img *render.Image) (*render.Image, error)
}

// Vectorizer converts a raster back into strokes.
type Vectorizer interface {
	Vectorize(ctx context.Context, img *render.Image) ([]model.Path, error)
}

// GenFillService runs the generative-fill pipeline: rasterize a stroke
// selection, have the model complete the drawing, vectorize the result, and
// refit the generated strokes into the selection's place on the board. The
// result is returned to the caller; nothing is written to the board until
// the client commits the strokes through the sync channel.
type GenFillService struct {
	store      store.Store
	renderer   Renderer
	completer  Completer
	vectorizer Vectorizer
}

// NewGenFillService wires the pipeline.
func NewGenFillService(st store.Store, r Renderer, c Completer, v Vectorizer) *GenFillService {
	return &GenFillService{store: st, renderer: r, completer: c, vectorizer: v}
}

// Run executes one fill round for the selected strokes. Selection ids that
// no longer exist are skipped; a selection with no surviving strokes is
// ErrNotFound. The refit maps the generated canvas-space strokes onto the
// selection's board-space bounding box, centered.
func (s *GenFillService) Run(ctx context.Context, boardID int64, pathIDs []string) ([]model.Path, error) {
	if len(pathIDs) == 0 {
		return nil, apperr.E(apperr.ErrInvalid, "empty selection")
	}

	originals, err := s.store.List(ctx, boardID, pathIDs...)
	if err != nil {
		return nil, err
	}
	if len(originals) == 0 {
		return nil, apperr.E(apperr.ErrNotFound, "selection no longer exists on board %d", boardID)
	}

	img, err := s.renderer.Render(originals)
	if err != nil {
		return nil, err
	}

	completed, err := s.completer.Complete(ctx, img)
	if err != nil {
		return nil, err
	}

	generated, err := s.vectorizer.Vectorize(ctx, completed)
	if err != nil {
		return nil, err
	}
	if len(generated) == 0 {
		return nil, apperr.E(apperr.ErrUpstreamUnavailable, "vectorizer produced no strokes")
	}

	refitted, err := s.refit(generated, originals)
	if err != nil {
		return nil, err
	}

	log.Printf("[GenFill] Board %d: %d selected strokes -> %d generated strokes",
		boardID, len(originals), len(refitted))
	return refitted, nil
}

// refit maps generated strokes from raster canvas coordinates into the
// board-space box the selection occupies.
func (s *GenFillService) refit(generated, originals []model.Path) ([]model.Path, error) {
	from, err := geometry.ComputeBoundingBox(generated)
	if err != nil {
		return nil, err
	}
	to, err := geometry.ComputeBoundingBox(originals)
	if err != nil {
		return nil, err
	}

	tr, err := geometry.ComputeTransformCentered(from, to)
	if err != nil {
		return nil, err
	}

	out := make([]model.Path, len(generated))
	for i, p := range generated {
		p.X = p.X*tr.Scale + tr.Dx
		p.Y = p.Y*tr.Scale + tr.Dy
		p.ScaleX *= tr.Scale
		p.ScaleY *= tr.Scale
		out[i] = p
	}
	return out, nil
}
