package service

import (
	"context"
	"testing"

	"storybook-backend/internal/domains/book/model"
	"storybook-backend/internal/domains/book/repository"
	"storybook-backend/internal/infrastructure/cache"
	"storybook-backend/internal/infrastructure/recordstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rosaSlug = "lasting-legacy-of-rosa"

func setupService(t *testing.T) (*BookService, *recordstore.MemoryStore) {
	t.Helper()
	store, err := recordstore.LoadFixture("../../../../fixtures/sample_book.yaml")
	require.NoError(t, err)

	svc := NewService(repository.NewRecordRepository(store), cache.NewMemoryCache()).
		WithRunner(func(f func()) { f() })
	return svc, store
}

func TestBookService_ListBooksNewestFirst(t *testing.T) {
	svc, _ := setupService(t)

	books, err := svc.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, rosaSlug, books[0].Slug)
	assert.Equal(t, "empty-notebook", books[1].Slug)
}

func TestBookService_ListBooksIsCached(t *testing.T) {
	svc, store := setupService(t)
	ctx := context.Background()

	first, err := svc.ListBooks(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, "books", first[0].ID, map[string]any{"view_count": 999}))

	second, err := svc.ListBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, first[0].ViewCount, second[0].ViewCount)
}

func TestBookService_GetBookSortsChapters(t *testing.T) {
	svc, _ := setupService(t)

	detail, err := svc.GetBook(context.Background(), rosaSlug)
	require.NoError(t, err)
	require.Len(t, detail.Chapters, 3)
	assert.Equal(t, 1, detail.Chapters[0].Number)
	assert.Equal(t, 2, detail.Chapters[1].Number)
	assert.Equal(t, 4, detail.Chapters[2].Number)
}

func TestBookService_OpenBookCountsView(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	before, err := svc.GetBook(ctx, rosaSlug)
	require.NoError(t, err)

	_, err = svc.OpenBook(ctx, rosaSlug)
	require.NoError(t, err)

	after, err := svc.GetBook(ctx, rosaSlug)
	require.NoError(t, err)
	assert.Equal(t, before.Book.ViewCount+1, after.Book.ViewCount)
}

func TestBookService_Errors(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.GetBook(ctx, "   ")
	assert.ErrorIs(t, err, model.ErrInvalidSlug)

	_, err = svc.OpenBook(ctx, "no-such-book")
	assert.ErrorIs(t, err, model.ErrBookNotFound)

	_, err = svc.ListGuestbook(ctx, "no-such-book")
	assert.ErrorIs(t, err, model.ErrBookNotFound)
}

func TestBookService_GuestbookHidesPrivate(t *testing.T) {
	svc, _ := setupService(t)

	entries, err := svc.ListGuestbook(context.Background(), rosaSlug)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Cousin Bao", entries[0].Guest)
	assert.Equal(t, "Lan", entries[1].Guest)
	for _, e := range entries {
		assert.False(t, e.IsPrivate)
	}
}
