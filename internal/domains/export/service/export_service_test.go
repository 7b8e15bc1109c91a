package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	bookmodel "storybook-backend/internal/domains/book/model"
	bookrepo "storybook-backend/internal/domains/book/repository"
	bookservice "storybook-backend/internal/domains/book/service"
	"storybook-backend/internal/domains/export/model"
	"storybook-backend/internal/domains/export/pdfbook"
	"storybook-backend/internal/domains/export/repository"
	"storybook-backend/internal/domains/reader/loader"
	"storybook-backend/internal/infrastructure/cache"
	"storybook-backend/internal/infrastructure/recordstore"
	"storybook-backend/internal/render"
	"storybook-backend/internal/shared"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rosaID = "6f1c2d3e-0000-4000-8000-000000000001"

// ==================== FAKES ====================

type fakeQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "t", Type: task.Type()}, nil
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	cutoff  time.Time
}

func (o *fakeObjects) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.objects[key] = data
	return key, nil
}

func (o *fakeObjects) Download(_ context.Context, key string) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (o *fakeObjects) RemoveOlderThan(_ context.Context, _ string, cutoff time.Time) (int, error) {
	o.cutoff = cutoff
	return 2, nil
}

type noImages struct{}

func (noImages) Fetch(context.Context, string) ([]byte, error) {
	return nil, errors.New("offline")
}

// recordingStatuses ghi lại progress của mọi lần Save
type recordingStatuses struct {
	*repository.StatusRepository
	progress []int
}

func (r *recordingStatuses) Save(ctx context.Context, job *model.ExportJob) error {
	r.progress = append(r.progress, job.Progress)
	return r.StatusRepository.Save(ctx, job)
}

type fixture struct {
	svc      *ExportService
	queue    *fakeQueue
	objects  *fakeObjects
	statuses *recordingStatuses
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store, err := recordstore.LoadFixture("../../../../fixtures/sample_book.yaml")
	require.NoError(t, err)

	repo := bookrepo.NewRecordRepository(store)
	books := bookservice.NewService(repo, nil)
	f := &fixture{
		queue:    &fakeQueue{},
		objects:  &fakeObjects{objects: map[string][]byte{}},
		statuses: &recordingStatuses{StatusRepository: repository.NewStatusRepository(cache.NewMemoryCache(), time.Hour)},
	}
	f.svc = NewExportService(
		books,
		repo,
		loader.NewLoader(store, 0),
		f.statuses,
		f.objects,
		f.queue,
		pdfbook.NewGenerator(noImages{}, render.NewMarkdown(), pdfbook.Config{}),
		Options{Queue: "export", MaxRetry: 2, Retention: 72 * time.Hour},
	)
	return f
}

func (f *fixture) payload(t *testing.T, i int) shared.ExportBookPDFPayload {
	t.Helper()
	require.Greater(t, len(f.queue.tasks), i)
	var p shared.ExportBookPDFPayload
	require.NoError(t, json.Unmarshal(f.queue.tasks[i].Payload(), &p))
	return p
}

// ==================== TESTS ====================

func TestExportService_FullFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	queued, err := f.svc.RequestExport(ctx, "lasting-legacy-of-rosa")
	require.NoError(t, err)
	assert.Equal(t, model.StatusQueued, queued.Status)
	assert.Equal(t, rosaID, queued.BookID)
	assert.Empty(t, queued.DownloadURL)

	require.Len(t, f.queue.tasks, 1)
	assert.Equal(t, shared.TypeExportBookPDF, f.queue.tasks[0].Type())
	p := f.payload(t, 0)
	assert.Equal(t, queued.JobID, p.JobID)
	assert.Equal(t, rosaID, p.BookID)

	_, err = f.svc.Download(ctx, queued.JobID)
	assert.ErrorIs(t, err, model.ErrExportNotReady)

	require.NoError(t, f.svc.Run(ctx, p))

	done, err := f.svc.GetExport(ctx, queued.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, "the_lasting_legacy_of_rosa_nguyen.pdf", done.FileName)
	assert.Greater(t, done.PageCount, 10)
	assert.Equal(t, "/api/v1/exports/"+queued.JobID+"/download", done.DownloadURL)
	require.NotNil(t, done.CompletedAt)

	file, err := f.svc.Download(ctx, queued.JobID)
	require.NoError(t, err)
	assert.Equal(t, done.FileName, file.FileName)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF-")))

	_, stored := f.objects.objects[shared.ExportsPrefix+queued.JobID+"/"+done.FileName]
	assert.True(t, stored)
}

func TestExportService_ProgressIsMonotonic(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	queued, err := f.svc.RequestExport(ctx, "lasting-legacy-of-rosa")
	require.NoError(t, err)
	require.NoError(t, f.svc.Run(ctx, f.payload(t, 0)))

	got := f.statuses.progress
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i], got[i-1], "save #%d", i)
	}
	assert.Equal(t, 100, got[len(got)-1])

	again, err := f.svc.GetExport(ctx, queued.JobID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, again.Status)
}

func TestExportService_RequestErrors(t *testing.T) {
	ctx := context.Background()

	f := setup(t)
	_, err := f.svc.RequestExport(ctx, "no-such-book")
	assert.ErrorIs(t, err, bookmodel.ErrBookNotFound)
	assert.Empty(t, f.queue.tasks)

	f.queue.err = errors.New("redis down")
	_, err = f.svc.RequestExport(ctx, "lasting-legacy-of-rosa")
	assert.ErrorIs(t, err, model.ErrExportUnavailable)

	f.svc.queue = nil
	_, err = f.svc.RequestExport(ctx, "lasting-legacy-of-rosa")
	assert.ErrorIs(t, err, model.ErrExportUnavailable)

	_, err = f.svc.GetExport(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrExportNotFound)
}

func TestExportService_RunMissingBookFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	err := f.svc.Run(ctx, shared.ExportBookPDFPayload{JobID: "j-missing", BookID: "nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, pdfbook.ErrFatalAssembly)
	assert.ErrorIs(t, err, bookmodel.ErrBookNotFound)

	job, err := f.svc.GetExport(ctx, "j-missing")
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, job.Status)
	assert.True(t, strings.Contains(job.Error, "book not found"))
}

func TestExportService_RunRecreatesExpiredStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Run(ctx, shared.ExportBookPDFPayload{JobID: "j-expired", BookID: rosaID}))

	job, err := f.svc.GetExport(ctx, "j-expired")
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, job.Status)
	assert.Equal(t, "lasting-legacy-of-rosa", job.BookSlug)
}

func TestExportService_RunSkipsCompletedJob(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	p := shared.ExportBookPDFPayload{JobID: "j1", BookID: rosaID}
	require.NoError(t, f.svc.Run(ctx, p))
	saves := len(f.statuses.progress)

	require.NoError(t, f.svc.Run(ctx, p))
	assert.Equal(t, saves, len(f.statuses.progress))
}

func TestExportService_HydrateSkipsChaptersWithoutPages(t *testing.T) {
	store, err := recordstore.LoadFixture("../../../../fixtures/sample_book.yaml")
	require.NoError(t, err)
	require.NoError(t, store.Insert("chapters", recordstore.Record{
		"id":             "7a000000-0000-4000-8000-0000000000ff",
		"book_id":        rosaID,
		"chapter_number": 9,
		"title":          "Still Being Written",
	}))
	require.NoError(t, store.Insert("gallery", recordstore.Record{
		"id":         "9f000000-0000-4000-8000-0000000000ff",
		"chapter_id": "7a000000-0000-4000-8000-0000000000ff",
		"image_url":  "https://images.storybook.local/rosa/draft.jpg",
		"sort_order": 1,
	}))

	repo := bookrepo.NewRecordRepository(store)
	chapters, err := repo.ListChapters(context.Background(), rosaID)
	require.NoError(t, err)

	svc := NewExportService(nil, repo, loader.NewLoader(store, 0), nil, nil, nil, nil, Options{})
	book, err := svc.hydrate(context.Background(), rosaID)
	require.NoError(t, err)

	assert.Len(t, book.Chapters, len(chapters)-1)
	for _, ch := range book.Chapters {
		assert.NotEqual(t, "Still Being Written", ch.Chapter.Title)
		assert.NotEmpty(t, ch.Pages)
	}
}

func TestExportService_Cleanup(t *testing.T) {
	f := setup(t)

	removed, err := f.svc.Cleanup(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.WithinDuration(t, time.Now().Add(-72*time.Hour), f.objects.cutoff, time.Minute)

	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.Cleanup(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, cutoff, f.objects.cutoff)
}
