package handler

import (
	"net/http"

	"storybook-backend/internal/domains/reader/model"
	"storybook-backend/internal/domains/reader/service"
	"storybook-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// Handler - reading session endpoints
type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// OpenSession - POST /v1/books/:slug/sessions
func (h *Handler) OpenSession(c *gin.Context) {
	resp, err := h.service.Open(c.Request.Context(), c.Param("slug"))
	if model.HandleReaderError(c, err) {
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

// GetSession - GET /v1/sessions/:id
func (h *Handler) GetSession(c *gin.Context) {
	resp, err := h.service.Get(c.Param("id"))
	if model.HandleReaderError(c, err) {
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Next - POST /v1/sessions/:id/next
func (h *Handler) Next(c *gin.Context) {
	resp, err := h.service.Next(c.Param("id"))
	if model.HandleReaderError(c, err) {
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Previous - POST /v1/sessions/:id/previous
func (h *Handler) Previous(c *gin.Context) {
	resp, err := h.service.Previous(c.Param("id"))
	if model.HandleReaderError(c, err) {
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Jump - POST /v1/sessions/:id/jump {"index": n}
func (h *Handler) Jump(c *gin.Context) {
	var req model.JumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid jump request", err)
		return
	}

	resp, err := h.service.Jump(c.Param("id"), *req.Index)
	if model.HandleReaderError(c, err) {
		return
	}
	response.Success(c, http.StatusOK, resp)
}
