package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	bookrepo "storybook-backend/internal/domains/book/repository"
	bookservice "storybook-backend/internal/domains/book/service"
	"storybook-backend/internal/domains/reader/loader"
	"storybook-backend/internal/domains/reader/machine"
	"storybook-backend/internal/domains/reader/model"
	"storybook-backend/internal/domains/reader/service"
	"storybook-backend/internal/infrastructure/recordstore"
	"storybook-backend/internal/render"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool                  `json:"success"`
	Data    model.SessionResponse `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := recordstore.LoadFixture("../../../../fixtures/sample_book.yaml")
	require.NoError(t, err)

	books := bookservice.NewService(bookrepo.NewRecordRepository(store), nil).
		WithRunner(func(f func()) { f() })
	svc := service.NewSessionService(
		books,
		loader.NewLoader(store, time.Minute),
		render.NewMarkdown(),
		time.Hour,
		machine.WithRunner(func(f func()) { f() }),
	)
	h := NewHandler(svc)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.POST("/books/:slug/sessions", h.OpenSession)
	v1.GET("/sessions/:id", h.GetSession)
	v1.POST("/sessions/:id/next", h.Next)
	v1.POST("/sessions/:id/previous", h.Previous)
	v1.POST("/sessions/:id/jump", h.Jump)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func TestReaderHandler_SessionFlow(t *testing.T) {
	r := setupRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/v1/books/lasting-legacy-of-rosa/sessions", "")
	require.Equal(t, http.StatusCreated, code)
	id := env.Data.SessionID
	require.NotEmpty(t, id)
	assert.Equal(t, "cover", env.Data.View.State)
	assert.True(t, env.Data.View.HasNext)
	assert.False(t, env.Data.View.HasPrevious)
	assert.Len(t, env.Data.View.Chapters, 3)

	code, env = do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/next", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "dedication", env.Data.View.State)
	assert.Contains(t, env.Data.View.DedicationHTML, "<em>garden</em>")
	require.NotNil(t, env.Data.Moved)
	assert.True(t, *env.Data.Moved)

	code, env = do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/jump", `{"index": 2}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "chapter_title", env.Data.View.State)
	require.NotNil(t, env.Data.View.Chapter)
	assert.Equal(t, "The Garden", env.Data.View.Chapter.Title)
	assert.Equal(t, 4, env.Data.View.Chapter.Number)

	code, env = do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/next", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "chapter_content", env.Data.View.State)
	require.NotNil(t, env.Data.View.Page)
	assert.Contains(t, env.Data.View.Page.ContentHTML, "lemongrass")
	require.NotNil(t, env.Data.View.PageCount)
	assert.Equal(t, 1, *env.Data.View.PageCount)

	code, env = do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/next", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "chapter_gallery", env.Data.View.State)
	assert.Len(t, env.Data.View.Gallery, 1)

	code, env = do(t, r, http.MethodGet, "/api/v1/sessions/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "chapter_gallery", env.Data.View.State)
	assert.Nil(t, env.Data.Moved)
}

func TestReaderHandler_JumpOutOfRangeIsIgnored(t *testing.T) {
	r := setupRouter(t)
	_, env := do(t, r, http.MethodPost, "/api/v1/books/lasting-legacy-of-rosa/sessions", "")
	id := env.Data.SessionID

	code, env := do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/jump", `{"index": 7}`)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Data.Moved)
	assert.False(t, *env.Data.Moved)
	assert.Equal(t, "cover", env.Data.View.State)
}

func TestReaderHandler_Errors(t *testing.T) {
	r := setupRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/v1/books/no-such-book/sessions", "")
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BOOK_NOT_FOUND", env.Error.Code)

	code, env = do(t, r, http.MethodPost, "/api/v1/sessions/unknown/next", "")
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Error.Code)

	_, env = do(t, r, http.MethodPost, "/api/v1/books/lasting-legacy-of-rosa/sessions", "")
	code, env = do(t, r, http.MethodPost, "/api/v1/sessions/"+env.Data.SessionID+"/jump", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestReaderHandler_EmptyBookStaysOnCover(t *testing.T) {
	r := setupRouter(t)
	_, env := do(t, r, http.MethodPost, "/api/v1/books/empty-notebook/sessions", "")
	id := env.Data.SessionID

	code, env := do(t, r, http.MethodPost, "/api/v1/sessions/"+id+"/next", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "cover", env.Data.View.State)
	assert.False(t, *env.Data.Moved)
	assert.False(t, env.Data.View.HasNext)
}
