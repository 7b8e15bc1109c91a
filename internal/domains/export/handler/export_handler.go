package handler

import (
	"fmt"
	"net/http"

	"storybook-backend/internal/domains/export/model"
	"storybook-backend/internal/domains/export/service"
	"storybook-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// Handler - PDF export endpoints
type Handler struct {
	service service.ServiceInterface
}

func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// RequestExport - POST /v1/books/:slug/exports
func (h *Handler) RequestExport(c *gin.Context) {
	resp, err := h.service.RequestExport(c.Request.Context(), c.Param("slug"))
	if model.HandleExportError(c, err) {
		return
	}
	response.Accepted(c, resp)
}

// GetExport - GET /v1/exports/:id
func (h *Handler) GetExport(c *gin.Context) {
	resp, err := h.service.GetExport(c.Request.Context(), c.Param("id"))
	if model.HandleExportError(c, err) {
		return
	}
	response.Success(c, http.StatusOK, resp)
}

// Download - GET /v1/exports/:id/download, trả thẳng bytes PDF
func (h *Handler) Download(c *gin.Context) {
	file, err := h.service.Download(c.Request.Context(), c.Param("id"))
	if model.HandleExportError(c, err) {
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.FileName))
	c.Data(http.StatusOK, "application/pdf", file.Data)
}
