package repository

import (
	"context"

	"storybook-backend/internal/domains/book/model"
)

// RepositoryInterface - data access cho books/chapters/guestbook.
// Pages và gallery đi qua reader loader, không nằm ở đây.
type RepositoryInterface interface {
	ListBooks(ctx context.Context) ([]model.Book, error)
	GetBookBySlug(ctx context.Context, slug string) (*model.Book, error)
	GetBookByID(ctx context.Context, id string) (*model.Book, error)
	ListChapters(ctx context.Context, bookID string) ([]model.Chapter, error)
	ListGuestbook(ctx context.Context, bookID string) ([]model.GuestbookEntry, error)
	// IncrementViewCount là read-modify-write không lock: lost update được chấp nhận
	IncrementViewCount(ctx context.Context, book *model.Book) error
}
