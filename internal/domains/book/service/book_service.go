package service

import (
	"context"
	"strings"
	"time"

	"storybook-backend/internal/domains/book/model"
	"storybook-backend/internal/domains/book/repository"
	"storybook-backend/pkg/cache"

	"github.com/rs/zerolog/log"
)

const (
	listCacheKey     = "books:list"
	listCacheTTL     = 5 * time.Minute
	viewCountTimeout = 5 * time.Second
	maxSlugLength    = 200
)

// BookService - Implements ServiceInterface
type BookService struct {
	repo  repository.RepositoryInterface
	cache cache.Cache

	// spawn chạy fire-and-forget task; test thay bằng synchronous runner
	spawn func(func())
}

// NewService - Constructor with DI. cache có thể nil.
func NewService(repo repository.RepositoryInterface, cache cache.Cache) *BookService {
	return &BookService{
		repo:  repo,
		cache: cache,
		spawn: func(f func()) { go f() },
	}
}

// WithRunner thay runner cho background task (dùng trong test)
func (s *BookService) WithRunner(run func(func())) *BookService {
	s.spawn = run
	return s
}

func (s *BookService) ListBooks(ctx context.Context) ([]model.BookSummaryResponse, error) {
	var cached []model.BookSummaryResponse
	if s.cache != nil {
		found, err := s.cache.Get(ctx, listCacheKey, &cached)
		if err != nil {
			log.Warn().Err(err).Str("key", listCacheKey).Msg("[BookService] cache read failed")
		}
		if found {
			return cached, nil
		}
	}

	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]model.BookSummaryResponse, 0, len(books))
	for _, b := range books {
		result = append(result, model.ToBookSummary(b))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, listCacheKey, result, listCacheTTL); err != nil {
			log.Warn().Err(err).Msg("[BookService] failed to cache book list")
		}
	}
	return result, nil
}

func (s *BookService) GetBook(ctx context.Context, slug string) (*model.BookDetailResponse, error) {
	if err := validateSlug(slug); err != nil {
		return nil, err
	}

	book, err := s.repo.GetBookBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	chapters, err := s.repo.ListChapters(ctx, book.ID)
	if err != nil {
		return nil, err
	}

	return &model.BookDetailResponse{Book: *book, Chapters: chapters}, nil
}

func (s *BookService) OpenBook(ctx context.Context, slug string) (*model.BookDetailResponse, error) {
	detail, err := s.GetBook(ctx, slug)
	if err != nil {
		return nil, err
	}

	book := detail.Book
	s.spawn(func() { s.incrementViewCount(book) })

	return detail, nil
}

func (s *BookService) ListGuestbook(ctx context.Context, slug string) ([]model.GuestbookEntry, error) {
	if err := validateSlug(slug); err != nil {
		return nil, err
	}

	book, err := s.repo.GetBookBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListGuestbook(ctx, book.ID)
	if err != nil {
		return nil, err
	}

	// store đã filter is_private, lọc lại lần nữa phòng fixture thiếu cột
	public := entries[:0]
	for _, e := range entries {
		if !e.IsPrivate {
			public = append(public, e)
		}
	}
	return public, nil
}

// incrementViewCount không retry, không trả lỗi: chỉ log
func (s *BookService) incrementViewCount(book model.Book) {
	ctx, cancel := context.WithTimeout(context.Background(), viewCountTimeout)
	defer cancel()

	if err := s.repo.IncrementViewCount(ctx, &book); err != nil {
		log.Warn().Err(err).Str("book_id", book.ID).Msg("[BookService] view count increment failed")
		return
	}
	log.Debug().Str("book_id", book.ID).Int64("view_count", book.ViewCount+1).Msg("[BookService] view counted")
}

func validateSlug(slug string) error {
	if strings.TrimSpace(slug) == "" || len(slug) > maxSlugLength {
		return model.ErrInvalidSlug
	}
	return nil
}
