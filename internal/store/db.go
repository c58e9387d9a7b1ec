package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/apperr"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
)

// DB is the gorm-backed Store.
type DB struct {
	db          *gorm.DB
	invalidator Invalidator
}

// NewDB creates a Store over the given database. invalidator may be nil.
func NewDB(db *gorm.DB, invalidator Invalidator) *DB {
	if invalidator == nil {
		invalidator = noopInvalidator{}
	}
	return &DB{db: db, invalidator: invalidator}
}

func (s *DB) boardExists(ctx context.Context, boardID int64) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Board{}).Where("id = ?", boardID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.E(apperr.ErrNotFound, "board %d", boardID)
	}
	return nil
}

// touch bumps the board's updatedAt so listings sort fresh boards first.
// Sync ordering never depends on this timestamp.
func (s *DB) touch(ctx context.Context, boardID int64) error {
	return s.db.WithContext(ctx).Model(&model.Board{}).
		Where("id = ?", boardID).
		Update("updated_at", time.Now()).Error
}

func (s *DB) Upsert(ctx context.Context, boardID int64, paths []model.Path) error {
	if len(paths) == 0 {
		return nil
	}
	if err := s.boardExists(ctx, boardID); err != nil {
		return err
	}

	rows := make([]model.Stroke, 0, len(paths))
	for _, p := range paths {
		if p.ID == "" {
			return apperr.E(apperr.ErrInvalid, "stroke without id")
		}
		rows = append(rows, model.StrokeFromPath(boardID, p))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stroke_id"}},
			UpdateAll: true,
		}).Create(&rows).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.touch(ctx, boardID); err != nil {
		return err
	}
	return s.invalidator.Invalidate(ctx, boardID)
}

func (s *DB) Delete(ctx context.Context, boardID int64, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.boardExists(ctx, boardID); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).
		Where("board_id = ? AND stroke_id IN ?", boardID, ids).
		Delete(&model.Stroke{}).Error; err != nil {
		return err
	}

	if err := s.touch(ctx, boardID); err != nil {
		return err
	}
	return s.invalidator.Invalidate(ctx, boardID)
}

func (s *DB) List(ctx context.Context, boardID int64, ids ...string) ([]model.Path, error) {
	if err := s.boardExists(ctx, boardID); err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Where("board_id = ?", boardID)
	if len(ids) > 0 {
		q = q.Where("stroke_id IN ?", ids)
	}

	var rows []model.Stroke
	if err := q.Order("created_at ASC").Find(&rows).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	paths := make([]model.Path, 0, len(rows))
	for i := range rows {
		paths = append(paths, rows[i].Path())
	}
	return paths, nil
}
