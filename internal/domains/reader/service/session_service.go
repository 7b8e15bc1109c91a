package service

import (
	"context"
	"time"

	bookmodel "storybook-backend/internal/domains/book/model"
	"storybook-backend/internal/domains/reader/machine"
	"storybook-backend/internal/domains/reader/model"
	"storybook-backend/internal/render"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// BookOpener - phần của book service mà reader cần
type BookOpener interface {
	OpenBook(ctx context.Context, slug string) (*bookmodel.BookDetailResponse, error)
}

// ServiceInterface - reading session API
type ServiceInterface interface {
	Open(ctx context.Context, slug string) (*model.SessionResponse, error)
	Get(id string) (*model.SessionResponse, error)
	Next(id string) (*model.SessionResponse, error)
	Previous(id string) (*model.SessionResponse, error)
	Jump(id string, index int) (*model.SessionResponse, error)
}

// SessionService giữ một reading machine cho mỗi session trong memory.
// Session hết hạn sau ttl không hoạt động.
type SessionService struct {
	books    BookOpener
	loader   machine.ContentLoader
	renderer render.Renderer
	sessions *gocache.Cache
	opts     []machine.Option
}

func NewSessionService(
	books BookOpener,
	loader machine.ContentLoader,
	renderer render.Renderer,
	ttl time.Duration,
	opts ...machine.Option,
) *SessionService {
	return &SessionService{
		books:    books,
		loader:   loader,
		renderer: renderer,
		sessions: gocache.New(ttl, ttl/2),
		opts:     opts,
	}
}

// Open mở sách (tính một lần view) và tạo session mới ở Cover
func (s *SessionService) Open(ctx context.Context, slug string) (*model.SessionResponse, error) {
	detail, err := s.books.OpenBook(ctx, slug)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	m := machine.New(detail.Book, detail.Chapters, s.loader, s.opts...)
	s.sessions.SetDefault(id, m)

	log.Debug().Str("session_id", id).Str("book_id", detail.Book.ID).Msg("[ReaderService] session opened")
	return s.respond(id, m, nil), nil
}

func (s *SessionService) Get(id string) (*model.SessionResponse, error) {
	m, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return s.respond(id, m, nil), nil
}

func (s *SessionService) Next(id string) (*model.SessionResponse, error) {
	m, err := s.session(id)
	if err != nil {
		return nil, err
	}
	moved := m.Next()
	return s.respond(id, m, &moved), nil
}

func (s *SessionService) Previous(id string) (*model.SessionResponse, error) {
	m, err := s.session(id)
	if err != nil {
		return nil, err
	}
	moved := m.Previous()
	return s.respond(id, m, &moved), nil
}

func (s *SessionService) Jump(id string, index int) (*model.SessionResponse, error) {
	m, err := s.session(id)
	if err != nil {
		return nil, err
	}
	moved := m.JumpToChapter(index)
	return s.respond(id, m, &moved), nil
}

// session lấy machine và gia hạn TTL
func (s *SessionService) session(id string) (*machine.Machine, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	m := v.(*machine.Machine)
	s.sessions.SetDefault(id, m)
	return m, nil
}

func (s *SessionService) respond(id string, m *machine.Machine, moved *bool) *model.SessionResponse {
	return &model.SessionResponse{
		SessionID: id,
		Moved:     moved,
		View:      s.toViewResponse(m.Snapshot()),
	}
}

func (s *SessionService) toViewResponse(v machine.View) model.ViewResponse {
	resp := model.ViewResponse{
		State:        v.State.Name(),
		ChapterIndex: v.ChapterIndex,
		Book:         v.Book,
		Chapters:     v.Chapters,
		Chapter:      v.Chapter,
		Gallery:      v.Gallery,
		Loading:      v.Loading,
		Error:        v.Error,
		HasNext:      v.HasNext,
		HasPrevious:  v.HasPrevious,
	}

	switch v.State.(type) {
	case machine.Dedication:
		resp.DedicationHTML = s.renderer.Render(bookmodel.Deref(v.Book.Dedication))
	case machine.Intro:
		resp.IntroHTML = s.renderer.Render(bookmodel.Deref(v.Book.Intro))
	case machine.ChapterContent:
		pageIndex := v.PageIndex
		resp.PageIndex = &pageIndex
		if v.PageCount >= 0 {
			pageCount := v.PageCount
			resp.PageCount = &pageCount
		}
		if v.Page != nil {
			resp.Page = &model.PageView{
				Page:        *v.Page,
				ContentHTML: s.renderer.Render(bookmodel.Deref(v.Page.Content)),
				QuoteHTML:   s.renderer.Render(bookmodel.Deref(v.Page.Quote)),
			}
		}
	}
	return resp
}
