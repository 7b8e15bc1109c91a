package service

import (
	"context"

	"storybook-backend/internal/domains/book/model"
)

// ServiceInterface - business logic cho library listing, mở sách, guestbook
type ServiceInterface interface {
	ListBooks(ctx context.Context) ([]model.BookSummaryResponse, error)
	// OpenBook trả book + chapters đã sort và bắn một lần tăng view_count (best-effort)
	OpenBook(ctx context.Context, slug string) (*model.BookDetailResponse, error)
	GetBook(ctx context.Context, slug string) (*model.BookDetailResponse, error)
	ListGuestbook(ctx context.Context, slug string) ([]model.GuestbookEntry, error)
}
