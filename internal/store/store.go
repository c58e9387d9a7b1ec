// Package store holds the durable per-board stroke collection.
package store

import (
	"context"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
)

// Invalidator is notified after every committed stroke mutation so the
// board's cached preview can be dropped. Invalidation runs synchronously
// after the write it follows, before the mutation call returns.
type Invalidator interface {
	Invalidate(ctx context.Context, boardID int64) error
}

// Store is the stroke collection contract. Upsert and Delete are idempotent
// and last-write-wins per stroke id; ordering of List results carries no
// meaning. Every mutation bumps the board's updatedAt and invalidates its
// preview entry.
type Store interface {
	// Upsert inserts or fully replaces each path by its id.
	Upsert(ctx context.Context, boardID int64, paths []model.Path) error
	// Delete removes the named strokes; missing ids are silently ignored.
	Delete(ctx context.Context, boardID int64, ids []string) error
	// List returns the board's strokes, or the subset matching ids when
	// given. Missing individual ids are skipped; a missing board is
	// apperr.ErrNotFound.
	List(ctx context.Context, boardID int64, ids ...string) ([]model.Path, error)
}

// noopInvalidator is used when no preview cache is wired (tests, tools).
type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, int64) error { return nil }
