package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	bookmodel "storybook-backend/internal/domains/book/model"
	"storybook-backend/internal/domains/export/model"
	"storybook-backend/internal/domains/export/pdfbook"
	"storybook-backend/internal/shared"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// ==================== DEPENDENCIES ====================

// BookFinder tìm sách theo slug (đã validate slug)
type BookFinder interface {
	GetBook(ctx context.Context, slug string) (*bookmodel.BookDetailResponse, error)
}

// BookReader đọc book + chapters theo id lúc hydrate trong worker
type BookReader interface {
	GetBookByID(ctx context.Context, id string) (*bookmodel.Book, error)
	ListChapters(ctx context.Context, bookID string) ([]bookmodel.Chapter, error)
}

type ChapterLoader interface {
	LoadChapterContent(ctx context.Context, chapterID string) ([]bookmodel.Page, error)
	LoadChapterGallery(ctx context.Context, chapterID string) ([]bookmodel.GalleryItem, error)
}

type StatusStore interface {
	Save(ctx context.Context, job *model.ExportJob) error
	Get(ctx context.Context, id string) (*model.ExportJob, error)
}

type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	RemoveOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error)
}

// Enqueuer - *asynq.Client
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Generator interface {
	Generate(ctx context.Context, book *pdfbook.HydratedBook, progress pdfbook.ProgressFunc) (*pdfbook.Result, error)
}

// ServiceInterface - API dùng Request/Get/Download, worker dùng Run/Cleanup
type ServiceInterface interface {
	RequestExport(ctx context.Context, slug string) (*model.ExportResponse, error)
	GetExport(ctx context.Context, id string) (*model.ExportResponse, error)
	Download(ctx context.Context, id string) (*model.Download, error)
	Run(ctx context.Context, payload shared.ExportBookPDFPayload) error
	Cleanup(ctx context.Context, before time.Time) (int, error)
}

type Options struct {
	Queue     string
	MaxRetry  int
	Timeout   time.Duration
	Retention time.Duration
}

// ExportService - Implements ServiceInterface
type ExportService struct {
	books     BookFinder
	reader    BookReader
	loader    ChapterLoader
	statuses  StatusStore
	objects   ObjectStore
	queue     Enqueuer
	generator Generator
	opts      Options
}

// NewExportService - queue/objects có thể nil (không có redis/minio): trả ErrExportUnavailable
func NewExportService(
	books BookFinder,
	reader BookReader,
	loader ChapterLoader,
	statuses StatusStore,
	objects ObjectStore,
	queue Enqueuer,
	generator Generator,
	opts Options,
) *ExportService {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	return &ExportService{
		books:     books,
		reader:    reader,
		loader:    loader,
		statuses:  statuses,
		objects:   objects,
		queue:     queue,
		generator: generator,
		opts:      opts,
	}
}

// ==================== API SIDE ====================

func (s *ExportService) RequestExport(ctx context.Context, slug string) (*model.ExportResponse, error) {
	if s.queue == nil || s.objects == nil {
		return nil, model.ErrExportUnavailable
	}

	detail, err := s.books.GetBook(ctx, slug)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	job := &model.ExportJob{
		ID:        uuid.NewString(),
		BookID:    detail.Book.ID,
		BookSlug:  detail.Book.Slug,
		Status:    model.StatusQueued,
		CreatedAt: now,
	}
	if err := s.statuses.Save(ctx, job); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(shared.ExportBookPDFPayload{JobID: job.ID, BookID: job.BookID})
	if err != nil {
		return nil, fmt.Errorf("marshal export payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeExportBookPDF, payload)
	if _, err := s.queue.EnqueueContext(
		ctx,
		task,
		asynq.Queue(s.opts.Queue),
		asynq.MaxRetry(s.opts.MaxRetry),
		asynq.Timeout(s.opts.Timeout),
		asynq.TaskID(job.ID),
	); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("[ExportService] enqueue failed")
		s.fail(ctx, job, "could not enqueue export")
		return nil, fmt.Errorf("%w: %v", model.ErrExportUnavailable, err)
	}

	log.Info().
		Str("job_id", job.ID).
		Str("book_id", job.BookID).
		Msg("[ExportService] export queued")

	return model.ToExportResponse(job), nil
}

func (s *ExportService) GetExport(ctx context.Context, id string) (*model.ExportResponse, error) {
	job, err := s.statuses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return model.ToExportResponse(job), nil
}

func (s *ExportService) Download(ctx context.Context, id string) (*model.Download, error) {
	job, err := s.statuses.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != model.StatusCompleted {
		return nil, model.ErrExportNotReady
	}
	if s.objects == nil {
		return nil, model.ErrExportUnavailable
	}

	data, err := s.objects.Download(ctx, job.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("download export %s: %w", id, err)
	}
	return &model.Download{FileName: job.FileName, Data: data}, nil
}

// ==================== WORKER SIDE ====================

// Run hydrate sách, render PDF, upload lên MinIO và cập nhật trạng thái.
// Lỗi được trả về cho asynq quyết định retry; job status ghi lỗi cuối cùng.
func (s *ExportService) Run(ctx context.Context, payload shared.ExportBookPDFPayload) error {
	job, err := s.statuses.Get(ctx, payload.JobID)
	if errors.Is(err, model.ErrExportNotFound) {
		// status đã hết hạn (job bị trễ quá lâu): tạo lại để client vẫn xem được
		job = &model.ExportJob{ID: payload.JobID, BookID: payload.BookID, CreatedAt: time.Now().UTC()}
	} else if err != nil {
		return err
	}
	if job.Status == model.StatusCompleted {
		log.Info().Str("job_id", job.ID).Msg("[ExportService] already completed, skipping")
		return nil
	}

	if s.objects == nil {
		return fmt.Errorf("%w: object storage not configured", model.ErrExportUnavailable)
	}

	job.Status = model.StatusRunning
	job.Progress = 0
	job.Error = ""
	job.Attempts++
	if err := s.statuses.Save(ctx, job); err != nil {
		return err
	}

	result, err := s.render(ctx, job)
	if err != nil {
		s.fail(ctx, job, err.Error())
		return err
	}

	key := path.Join(shared.ExportsPrefix, job.ID, result.FileName)
	if _, err := s.objects.Upload(ctx, key, result.Data, "application/pdf"); err != nil {
		s.fail(ctx, job, "could not store generated PDF")
		return err
	}

	completed := time.Now().UTC()
	job.Status = model.StatusCompleted
	job.Progress = 100
	job.FileName = result.FileName
	job.ObjectKey = key
	job.PageCount = result.PageCount
	job.CompletedAt = &completed
	if err := s.statuses.Save(ctx, job); err != nil {
		return err
	}

	log.Info().
		Str("job_id", job.ID).
		Str("object_key", key).
		Int("pages", result.PageCount).
		Msg("[ExportService] export completed")
	return nil
}

func (s *ExportService) render(ctx context.Context, job *model.ExportJob) (*pdfbook.Result, error) {
	book, err := s.hydrate(ctx, job.BookID)
	if err != nil {
		return nil, err
	}
	if job.BookSlug == "" {
		job.BookSlug = book.Book.Slug
	}

	// progress chỉ ghi khi đổi giá trị; lỗi ghi progress không làm hỏng job
	last := -1
	return s.generator.Generate(ctx, book, func(percent int) {
		if percent == last {
			return
		}
		last = percent
		job.Progress = percent
		if err := s.statuses.Save(ctx, job); err != nil {
			log.Warn().Err(err).Str("job_id", job.ID).Msg("[ExportService] progress update failed")
		}
	})
}

// hydrate load toàn bộ book: chapters theo display order, pages và gallery
// từng chapter. Chapter rỗng (0 page) bị bỏ qua. Mọi lỗi đều là ErrFatalAssembly (vẫn giữ lỗi gốc trong chain).
func (s *ExportService) hydrate(ctx context.Context, bookID string) (*pdfbook.HydratedBook, error) {
	book, err := s.reader.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("%w: load book: %w", pdfbook.ErrFatalAssembly, err)
	}

	chapters, err := s.reader.ListChapters(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("%w: load chapters: %w", pdfbook.ErrFatalAssembly, err)
	}

	hydrated := &pdfbook.HydratedBook{Book: *book, Chapters: make([]pdfbook.HydratedChapter, 0, len(chapters))}
	for _, ch := range chapters {
		pages, err := s.loader.LoadChapterContent(ctx, ch.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: chapter %s pages: %w", pdfbook.ErrFatalAssembly, ch.ID, err)
		}
		// chapter chưa có page nào không được đưa vào PDF (kể cả gallery của nó)
		if len(pages) == 0 {
			log.Debug().Str("chapter_id", ch.ID).Msg("[ExportService] chapter has no pages, skipped")
			continue
		}
		gallery, err := s.loader.LoadChapterGallery(ctx, ch.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: chapter %s gallery: %w", pdfbook.ErrFatalAssembly, ch.ID, err)
		}
		hydrated.Chapters = append(hydrated.Chapters, pdfbook.HydratedChapter{Chapter: ch, Pages: pages, Gallery: gallery})
	}
	return hydrated, nil
}

// Cleanup xóa file PDF cũ hơn before (mặc định now - retention)
func (s *ExportService) Cleanup(ctx context.Context, before time.Time) (int, error) {
	if s.objects == nil {
		return 0, model.ErrExportUnavailable
	}
	if before.IsZero() {
		before = time.Now().Add(-s.opts.Retention)
	}
	removed, err := s.objects.RemoveOlderThan(ctx, shared.ExportsPrefix, before)
	if err != nil {
		return 0, fmt.Errorf("cleanup exports: %w", err)
	}
	log.Info().Int("removed", removed).Time("before", before).Msg("[ExportService] old exports removed")
	return removed, nil
}

func (s *ExportService) fail(ctx context.Context, job *model.ExportJob, reason string) {
	job.Status = model.StatusFailed
	job.Error = reason
	if err := s.statuses.Save(ctx, job); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("[ExportService] failed to record failure")
	}
}
