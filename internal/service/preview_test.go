package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/cache"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/render"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/store"
)

// countingRenderer fakes the raster pipeline and counts invocations.
type countingRenderer struct {
	renders atomic.Int64
	failN   atomic.Int64 // fail this many renders before succeeding
	gate    chan struct{}
}

func (r *countingRenderer) Render(paths []model.Path) (*render.Image, error) {
	if r.gate != nil {
		<-r.gate
	}
	n := r.renders.Add(1)
	if r.failN.Load() >= n {
		return nil, errors.New("render blew up")
	}
	return &render.Image{MimeType: "image/png", Data: []byte{0x89, 'P', 'N', 'G', byte(n)}}, nil
}

func newPreviewFixture(t *testing.T, renderer *countingRenderer) (*PreviewService, *store.Memory) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	mem := store.NewMemory(nil)
	mem.CreateBoard(7)
	require.NoError(t, mem.Upsert(context.Background(), 7, []model.Path{{
		ID: "a", D: "M 0 0 L 10 10", StrokeColor: "#000000", StrokeWidth: 2, ScaleX: 1, ScaleY: 1,
	}}))

	return NewPreviewService(mem, rc, renderer, time.Hour), mem
}

func TestPreviewGetRendersOnceThenServesCache(t *testing.T) {
	renderer := &countingRenderer{}
	svc, _ := newPreviewFixture(t, renderer)
	ctx := context.Background()

	first, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "image/png", first.MimeType)
	assert.False(t, first.RenderedAt.IsZero())

	second, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, int64(1), renderer.renders.Load())
}

func TestPreviewConcurrentMissesCollapseToOneRender(t *testing.T) {
	renderer := &countingRenderer{gate: make(chan struct{})}
	svc, _ := newPreviewFixture(t, renderer)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := svc.Get(ctx, 7)
			assert.NoError(t, err)
			assert.NotEmpty(t, entry.Data)
		}()
	}
	time.Sleep(20 * time.Millisecond) // let all callers reach the flight
	close(renderer.gate)
	wg.Wait()

	assert.Equal(t, int64(1), renderer.renders.Load())
}

func TestPreviewRenderErrorNotCached(t *testing.T) {
	renderer := &countingRenderer{}
	renderer.failN.Store(1)
	svc, _ := newPreviewFixture(t, renderer)
	ctx := context.Background()

	_, err := svc.Get(ctx, 7)
	require.Error(t, err)

	// The failure must not poison the cache: the next call renders again.
	entry, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.Data)
	assert.Equal(t, int64(2), renderer.renders.Load())
}

func TestPreviewInvalidateForcesRerender(t *testing.T) {
	renderer := &countingRenderer{}
	svc, _ := newPreviewFixture(t, renderer)
	ctx := context.Background()

	_, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(ctx, 7))

	_, err = svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), renderer.renders.Load())
}

func TestPreviewInvalidateDuringRenderIsNotOverwritten(t *testing.T) {
	renderer := &countingRenderer{gate: make(chan struct{})}
	svc, _ := newPreviewFixture(t, renderer)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.Get(ctx, 7)
		assert.NoError(t, err)
	}()

	time.Sleep(20 * time.Millisecond) // let the render reach the gate
	require.NoError(t, svc.Invalidate(ctx, 7))
	close(renderer.gate)
	<-done

	// The in-flight render saw the pre-mutation strokes; it must not have
	// cached itself over the invalidation.
	entry, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), renderer.renders.Load())
	assert.Equal(t, byte(2), entry.Data[len(entry.Data)-1])
}

func TestPreviewForceRefreshReplacesEntry(t *testing.T) {
	renderer := &countingRenderer{}
	svc, _ := newPreviewFixture(t, renderer)
	ctx := context.Background()

	first, err := svc.Get(ctx, 7)
	require.NoError(t, err)

	svc.ForceRefresh(ctx, 7)
	assert.Equal(t, int64(2), renderer.renders.Load())

	second, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	assert.NotEqual(t, first.Data, second.Data, "refresh must replace the cached raster")
	assert.Equal(t, int64(2), renderer.renders.Load(), "refresh result must be served from cache")
}

func TestPreviewUnknownBoardPropagatesNotFound(t *testing.T) {
	renderer := &countingRenderer{}
	svc, _ := newPreviewFixture(t, renderer)

	_, err := svc.Get(context.Background(), 999)
	require.Error(t, err)
}
