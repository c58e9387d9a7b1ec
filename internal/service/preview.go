// Package service holds the board-level orchestration above the stroke
// store: preview snapshots and generative fill.
package service

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/cache"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/render"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/store"
)

// DefaultPreviewTTL bounds staleness when invalidation is ever missed.
const DefaultPreviewTTL = 24 * time.Hour

// Renderer turns a stroke set into an encoded raster.
type Renderer interface {
	Render(paths []model.Path) (*render.Image, error)
}

// PreviewCache is the slice of the Redis client the service uses.
type PreviewCache interface {
	GetPreview(ctx context.Context, boardID int64) (*cache.PreviewEntry, error)
	SetPreview(ctx context.Context, boardID int64, entry *cache.PreviewEntry, ttl time.Duration) error
	DeletePreview(ctx context.Context, boardID int64) error
}

// PreviewService serves rendered board snapshots through a Redis cache.
// Concurrent misses for the same board collapse into one render.
type PreviewService struct {
	store    store.Store
	cache    PreviewCache
	renderer Renderer
	ttl      time.Duration
	group    singleflight.Group

	// gens counts invalidations per board. A render snapshots the counter
	// before reading the store and only caches its result while the counter
	// is unchanged, so a render racing a mutation can never write the
	// pre-mutation image over the invalidation.
	mu   sync.Mutex
	gens map[int64]uint64
}

// NewPreviewService wires the preview pipeline. A zero ttl falls back to
// DefaultPreviewTTL.
func NewPreviewService(st store.Store, c PreviewCache, r Renderer, ttl time.Duration) *PreviewService {
	if ttl <= 0 {
		ttl = DefaultPreviewTTL
	}
	return &PreviewService{
		store:    st,
		cache:    c,
		renderer: r,
		ttl:      ttl,
		gens:     make(map[int64]uint64),
	}
}

// Get returns the board's preview, rendering and caching it on a miss.
// Render failures are returned and never cached.
func (s *PreviewService) Get(ctx context.Context, boardID int64) (*cache.PreviewEntry, error) {
	entry, err := s.cache.GetPreview(ctx, boardID)
	if err == nil {
		return entry, nil
	}
	if err != cache.ErrMiss {
		log.Printf("[Preview] Cache read failed for board %d: %v", boardID, err)
	}

	v, err, _ := s.group.Do(strconv.FormatInt(boardID, 10), func() (any, error) {
		// A peer may have filled the entry while we queued.
		if entry, err := s.cache.GetPreview(ctx, boardID); err == nil {
			return entry, nil
		}
		return s.renderAndCache(ctx, boardID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*cache.PreviewEntry), nil
}

// Invalidate drops the cached entry after a stroke mutation. It satisfies
// store.Invalidator. The generation bump happens before the delete so an
// in-flight render of the pre-mutation state declines to cache itself.
func (s *PreviewService) Invalidate(ctx context.Context, boardID int64) error {
	s.mu.Lock()
	s.gens[boardID]++
	s.mu.Unlock()

	if err := s.cache.DeletePreview(ctx, boardID); err != nil {
		// A stale preview self-heals on TTL expiry; don't fail the mutation.
		log.Printf("[Preview] Invalidate failed for board %d: %v", boardID, err)
	}
	return nil
}

// ForceRefresh re-renders the board and replaces the cached entry, used when
// an editor disconnects so the thumbnail shows their final state.
func (s *PreviewService) ForceRefresh(ctx context.Context, boardID int64) {
	if _, err := s.renderAndCache(ctx, boardID); err != nil {
		log.Printf("[Preview] Refresh failed for board %d: %v", boardID, err)
	}
}

func (s *PreviewService) renderAndCache(ctx context.Context, boardID int64) (*cache.PreviewEntry, error) {
	gen := s.generation(boardID)

	paths, err := s.store.List(ctx, boardID)
	if err != nil {
		return nil, err
	}

	img, err := s.renderer.Render(paths)
	if err != nil {
		return nil, err
	}

	entry := &cache.PreviewEntry{MimeType: img.MimeType, Data: img.Data, RenderedAt: time.Now()}
	if s.generation(boardID) != gen {
		// A mutation invalidated the board while we rendered. Serve the
		// result but leave the cache empty; the next read renders fresh.
		return entry, nil
	}
	if err := s.cache.SetPreview(ctx, boardID, entry, s.ttl); err != nil {
		// Serve the render even if caching it failed.
		log.Printf("[Preview] Cache write failed for board %d: %v", boardID, err)
	}
	if s.generation(boardID) != gen {
		// The invalidation landed between the check and the write; undo it.
		s.cache.DeletePreview(ctx, boardID)
	}
	return entry, nil
}

func (s *PreviewService) generation(boardID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[boardID]
}
