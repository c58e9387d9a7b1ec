package store

import (
	"context"
	"sync"
	"time"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/apperr"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
)

// Memory is an in-process Store with the same contract as DB. It backs tests
// and tooling where a Postgres instance is unavailable.
type Memory struct {
	mu          sync.RWMutex
	boards      map[int64]*memBoard
	invalidator Invalidator
}

type memBoard struct {
	strokes   map[string]model.Path
	order     []string // insertion order of live ids
	updatedAt time.Time
}

// NewMemory creates an empty in-memory store. invalidator may be nil.
func NewMemory(invalidator Invalidator) *Memory {
	if invalidator == nil {
		invalidator = noopInvalidator{}
	}
	return &Memory{
		boards:      make(map[int64]*memBoard),
		invalidator: invalidator,
	}
}

// CreateBoard registers a board id so mutations against it are valid.
func (s *Memory) CreateBoard(boardID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[boardID]; !ok {
		s.boards[boardID] = &memBoard{strokes: make(map[string]model.Path), updatedAt: time.Now()}
	}
}

// DropBoard removes a board and all of its strokes.
func (s *Memory) DropBoard(boardID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.boards, boardID)
}

// UpdatedAt returns the board's last mutation time.
func (s *Memory) UpdatedAt(boardID int64) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.boards[boardID]
	if !ok {
		return time.Time{}, false
	}
	return b.updatedAt, true
}

func (s *Memory) Upsert(ctx context.Context, boardID int64, paths []model.Path) error {
	if len(paths) == 0 {
		return nil
	}

	s.mu.Lock()
	b, ok := s.boards[boardID]
	if !ok {
		s.mu.Unlock()
		return apperr.E(apperr.ErrNotFound, "board %d", boardID)
	}
	for _, p := range paths {
		if p.ID == "" {
			s.mu.Unlock()
			return apperr.E(apperr.ErrInvalid, "stroke without id")
		}
		if _, exists := b.strokes[p.ID]; !exists {
			b.order = append(b.order, p.ID)
		}
		b.strokes[p.ID] = p
	}
	b.updatedAt = time.Now()
	s.mu.Unlock()

	return s.invalidator.Invalidate(ctx, boardID)
}

func (s *Memory) Delete(ctx context.Context, boardID int64, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	b, ok := s.boards[boardID]
	if !ok {
		s.mu.Unlock()
		return apperr.E(apperr.ErrNotFound, "board %d", boardID)
	}
	for _, id := range ids {
		if _, exists := b.strokes[id]; !exists {
			continue // missing ids are a no-op
		}
		delete(b.strokes, id)
		for i, oid := range b.order {
			if oid == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
	b.updatedAt = time.Now()
	s.mu.Unlock()

	return s.invalidator.Invalidate(ctx, boardID)
}

func (s *Memory) List(ctx context.Context, boardID int64, ids ...string) ([]model.Path, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[boardID]
	if !ok {
		return nil, apperr.E(apperr.ErrNotFound, "board %d", boardID)
	}

	if len(ids) == 0 {
		paths := make([]model.Path, 0, len(b.order))
		for _, id := range b.order {
			paths = append(paths, b.strokes[id])
		}
		return paths, nil
	}

	paths := make([]model.Path, 0, len(ids))
	for _, id := range ids {
		if p, exists := b.strokes[id]; exists {
			paths = append(paths, p)
		}
	}
	return paths, nil
}
