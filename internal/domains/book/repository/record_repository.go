package repository

import (
	"context"
	"errors"
	"fmt"

	"storybook-backend/internal/domains/book/model"
	"storybook-backend/internal/infrastructure/recordstore"
)

const (
	tableBooks     = "books"
	tableChapters  = "chapters"
	tableGuestbook = "guestbook"
)

type recordRepository struct {
	store recordstore.Store
}

func NewRecordRepository(store recordstore.Store) RepositoryInterface {
	return &recordRepository{store: store}
}

// ListBooks - trang chủ, sách mới nhất trước
func (r *recordRepository) ListBooks(ctx context.Context) ([]model.Book, error) {
	recs, err := r.store.FindMany(ctx, tableBooks, nil, recordstore.Desc("created_at"))
	if err != nil {
		return nil, fmt.Errorf("%w: list books: %v", model.ErrFetchFailure, err)
	}

	var books []model.Book
	if err := recordstore.Decode(recs, &books); err != nil {
		return nil, err
	}
	return books, nil
}

func (r *recordRepository) GetBookBySlug(ctx context.Context, slug string) (*model.Book, error) {
	return r.findBook(ctx, recordstore.Filter{"slug": slug})
}

func (r *recordRepository) GetBookByID(ctx context.Context, id string) (*model.Book, error) {
	return r.findBook(ctx, recordstore.Filter{"id": id})
}

func (r *recordRepository) findBook(ctx context.Context, filter recordstore.Filter) (*model.Book, error) {
	rec, err := r.store.FindOne(ctx, tableBooks, filter)
	if err != nil {
		if errors.Is(err, recordstore.ErrNotFound) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("%w: find book: %v", model.ErrFetchFailure, err)
	}

	var b model.Book
	if err := recordstore.Decode(rec, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListChapters trả chapters sort tăng dần theo chapter_number
func (r *recordRepository) ListChapters(ctx context.Context, bookID string) ([]model.Chapter, error) {
	recs, err := r.store.FindMany(ctx, tableChapters,
		recordstore.Filter{"book_id": bookID},
		recordstore.Asc("chapter_number"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list chapters: %v", model.ErrFetchFailure, err)
	}

	chapters := make([]model.Chapter, 0, len(recs))
	if err := recordstore.Decode(recs, &chapters); err != nil {
		return nil, err
	}
	return chapters, nil
}

func (r *recordRepository) ListGuestbook(ctx context.Context, bookID string) ([]model.GuestbookEntry, error) {
	recs, err := r.store.FindMany(ctx, tableGuestbook,
		recordstore.Filter{"book_id": bookID, "is_private": false},
		recordstore.Desc("created_at"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: list guestbook: %v", model.ErrFetchFailure, err)
	}

	entries := make([]model.GuestbookEntry, 0, len(recs))
	if err := recordstore.Decode(recs, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *recordRepository) IncrementViewCount(ctx context.Context, book *model.Book) error {
	return r.store.Update(ctx, tableBooks, book.ID, map[string]any{
		"view_count": book.ViewCount + 1,
	})
}
