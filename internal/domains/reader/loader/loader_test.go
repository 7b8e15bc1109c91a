package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storybook-backend/internal/domains/book/model"
	"storybook-backend/internal/infrastructure/recordstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedStore đếm số query và có thể chặn FindMany cho tới khi release đóng
type gatedStore struct {
	recordstore.Store
	findMany atomic.Int32
	findIn   atomic.Int32
	count    atomic.Int32
	release  chan struct{}
	fail     error
}

func (s *gatedStore) FindMany(ctx context.Context, table string, f recordstore.Filter, o recordstore.OrderBy) ([]recordstore.Record, error) {
	s.findMany.Add(1)
	if s.release != nil {
		<-s.release
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.fail != nil {
		return nil, s.fail
	}
	return s.Store.FindMany(ctx, table, f, o)
}

func (s *gatedStore) FindManyIn(ctx context.Context, table, field string, values []any, o recordstore.OrderBy) ([]recordstore.Record, error) {
	s.findIn.Add(1)
	return s.Store.FindManyIn(ctx, table, field, values, o)
}

func (s *gatedStore) Count(ctx context.Context, table string, f recordstore.Filter) (int64, error) {
	s.count.Add(1)
	return s.Store.Count(ctx, table, f)
}

func seedStore(t *testing.T) *recordstore.MemoryStore {
	t.Helper()
	s := recordstore.NewMemoryStore()
	rows := map[string][]recordstore.Record{
		"pages": {
			{"id": "p2", "chapter_id": "c1", "page_order": 2, "content": "second"},
			{"id": "p1", "chapter_id": "c1", "page_order": 1, "content": "first", "title": "Spring"},
			{"id": "p3", "chapter_id": "c2", "page_order": 1, "content": "other"},
		},
		"gallery": {
			{"id": "g1", "chapter_id": "c1", "image_url": "https://img/1.jpg", "sort_order": 2},
			{"id": "g2", "chapter_id": "c1", "image_url": "https://img/2.jpg", "sort_order": 1},
			{"id": "g3", "chapter_id": "c3", "image_url": "https://img/3.jpg", "sort_order": 1, "caption": "Lake"},
			{"id": "g4", "chapter_id": "cX", "image_url": "https://img/4.jpg", "sort_order": 0},
		},
	}
	for table, recs := range rows {
		for _, r := range recs {
			require.NoError(t, s.Insert(table, r))
		}
	}
	return s
}

func TestLoadChapterContent_OrderedByPageOrder(t *testing.T) {
	l := NewLoader(seedStore(t), time.Minute)

	pages, err := l.LoadChapterContent(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "p1", pages[0].ID)
	assert.Equal(t, "Spring", model.Deref(pages[0].Subheading))
	assert.Equal(t, "p2", pages[1].ID)

	empty, err := l.LoadChapterContent(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestLoadChapterGallery(t *testing.T) {
	l := NewLoader(seedStore(t), time.Minute)

	items, err := l.LoadChapterGallery(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "g2", items[0].ID)
	assert.Equal(t, "g1", items[1].ID)
}

func TestLoadBookGallery_SingleQueryGroupedByChapterOrder(t *testing.T) {
	store := &gatedStore{Store: seedStore(t)}
	l := NewLoader(store, time.Minute)

	// c3 trước c1: kết quả phải theo thứ tự chapter truyền vào, không theo sort_order toàn cục
	items, err := l.LoadBookGallery(context.Background(), []string{"c3", "c2", "c1"})
	require.NoError(t, err)

	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"g3", "g2", "g1"}, ids)
	assert.Equal(t, int32(1), store.findIn.Load())

	none, err := l.LoadBookGallery(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHasGallery_CountsWithoutFetching(t *testing.T) {
	store := &gatedStore{Store: seedStore(t)}
	l := NewLoader(store, time.Minute)

	has, err := l.HasGallery(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = l.HasGallery(context.Background(), "c2")
	require.NoError(t, err)
	assert.False(t, has)

	assert.Equal(t, int32(2), store.count.Load())
	assert.Zero(t, store.findMany.Load())
}

func TestLoadChapterContent_CoalescesConcurrentCalls(t *testing.T) {
	store := &gatedStore{Store: seedStore(t), release: make(chan struct{})}
	l := NewLoader(store, time.Minute)

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]model.Page, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pages, err := l.LoadChapterContent(context.Background(), "c1")
			assert.NoError(t, err)
			results[i] = pages
		}(i)
	}

	require.Eventually(t, func() bool { return store.findMany.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(store.release)
	wg.Wait()

	assert.Equal(t, int32(1), store.findMany.Load())
	for _, pages := range results {
		assert.Len(t, pages, 2)
	}
}

func TestLoadChapterContent_CancelledCallerDoesNotFailOthers(t *testing.T) {
	store := &gatedStore{Store: seedStore(t), release: make(chan struct{})}
	l := NewLoader(store, time.Minute)

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := l.LoadChapterContent(firstCtx, "c1")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return store.findMany.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		pages []model.Page
		err   error
	}
	second := make(chan result, 1)
	go func() {
		pages, err := l.LoadChapterContent(context.Background(), "c1")
		second <- result{pages, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller is still waiting")
	}

	close(store.release)
	select {
	case r := <-second:
		require.NoError(t, r.err)
		assert.Len(t, r.pages, 2)
	case <-time.After(time.Second):
		t.Fatal("second caller did not get the shared result")
	}
	assert.Equal(t, int32(1), store.findMany.Load())
}

func TestLoadChapterContent_DifferentChaptersFetchSeparately(t *testing.T) {
	store := &gatedStore{Store: seedStore(t)}
	l := NewLoader(store, time.Minute)

	_, err := l.LoadChapterContent(context.Background(), "c1")
	require.NoError(t, err)
	_, err = l.LoadChapterContent(context.Background(), "c2")
	require.NoError(t, err)
	_, err = l.LoadChapterContent(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, int32(2), store.findMany.Load())
}

func TestLoader_NoCacheRefetchesAndInvalidate(t *testing.T) {
	store := &gatedStore{Store: seedStore(t)}

	uncached := NewLoader(store, 0)
	_, _ = uncached.LoadChapterContent(context.Background(), "c1")
	_, _ = uncached.LoadChapterContent(context.Background(), "c1")
	assert.Equal(t, int32(2), store.findMany.Load())

	cached := NewLoader(store, time.Minute)
	_, _ = cached.LoadChapterContent(context.Background(), "c1")
	cached.Invalidate()
	_, _ = cached.LoadChapterContent(context.Background(), "c1")
	assert.Equal(t, int32(4), store.findMany.Load())
}

func TestLoader_ErrorsWrapFetchFailureAndAreNotCached(t *testing.T) {
	boom := errors.New("connection reset")
	store := &gatedStore{Store: seedStore(t), fail: boom}
	l := NewLoader(store, time.Minute)

	_, err := l.LoadChapterContent(context.Background(), "c1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrFetchFailure)
	assert.ErrorIs(t, err, boom)

	store.fail = nil
	pages, err := l.LoadChapterContent(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestLoader_ReturnedSlicesAreIndependent(t *testing.T) {
	l := NewLoader(seedStore(t), time.Minute)

	first, err := l.LoadChapterGallery(context.Background(), "c1")
	require.NoError(t, err)
	first[0].ID = "mutated"

	second, err := l.LoadChapterGallery(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "g2", second[0].ID)
}
