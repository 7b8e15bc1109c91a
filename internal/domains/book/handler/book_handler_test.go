package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"storybook-backend/internal/domains/book/repository"
	"storybook-backend/internal/domains/book/service"
	"storybook-backend/internal/infrastructure/recordstore"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		Total int `json:"total"`
	} `json:"meta"`
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := recordstore.LoadFixture("../../../../fixtures/sample_book.yaml")
	require.NoError(t, err)

	svc := service.NewService(repository.NewRecordRepository(store), nil).
		WithRunner(func(f func()) { f() })
	h := NewHandler(svc)

	r := gin.New()
	v1 := r.Group("/api/v1")
	v1.GET("/books", h.ListBooks)
	v1.GET("/books/:slug", h.GetBook)
	v1.GET("/books/:slug/guestbook", h.ListGuestbook)
	return r
}

func get(t *testing.T, r *gin.Engine, path string) (int, envelope) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w.Code, env
}

func TestBookHandler_ListBooks(t *testing.T) {
	code, env := get(t, setupRouter(t), "/api/v1/books")

	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.Total)
}

func TestBookHandler_GetBook(t *testing.T) {
	r := setupRouter(t)

	code, env := get(t, r, "/api/v1/books/lasting-legacy-of-rosa")
	assert.Equal(t, http.StatusOK, code)

	var detail struct {
		Book struct {
			Title string `json:"title"`
		} `json:"book"`
		Chapters []struct {
			Number int `json:"chapter_number"`
		} `json:"chapters"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "The Lasting Legacy of Rosa Nguyễn", detail.Book.Title)
	assert.Len(t, detail.Chapters, 3)

	code, env = get(t, r, "/api/v1/books/unknown")
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "BOOK_NOT_FOUND", env.Error.Code)
}

func TestBookHandler_Guestbook(t *testing.T) {
	code, env := get(t, setupRouter(t), "/api/v1/books/lasting-legacy-of-rosa/guestbook")

	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.Total)
	assert.NotContains(t, string(env.Data), "Aunt Mai")
}
