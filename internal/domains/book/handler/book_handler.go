package handler

import (
	"net/http"

	"storybook-backend/internal/domains/book/model"
	"storybook-backend/internal/domains/book/service"
	"storybook-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// Handler - HTTP handler cho library + book page
type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// ListBooks - GET /v1/books
func (h *Handler) ListBooks(c *gin.Context) {
	books, err := h.service.ListBooks(c.Request.Context())
	if model.HandleBookError(c, err) {
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, books, &response.Meta{Total: len(books)})
}

// GetBook - GET /v1/books/:slug
// Mỗi lần gọi tính là một lần "mở sách" và tăng view_count.
func (h *Handler) GetBook(c *gin.Context) {
	detail, err := h.service.OpenBook(c.Request.Context(), c.Param("slug"))
	if model.HandleBookError(c, err) {
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// ListGuestbook - GET /v1/books/:slug/guestbook
func (h *Handler) ListGuestbook(c *gin.Context) {
	entries, err := h.service.ListGuestbook(c.Request.Context(), c.Param("slug"))
	if model.HandleBookError(c, err) {
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, entries, &response.Meta{Total: len(entries)})
}
