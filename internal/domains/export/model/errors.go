package model

import (
	"errors"
	"net/http"

	bookmodel "storybook-backend/internal/domains/book/model"
	"storybook-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
)

var (
	ErrExportNotFound    = errors.New("export job not found")
	ErrExportNotReady    = errors.New("export is not completed yet")
	ErrExportUnavailable = errors.New("export queue is unavailable")
)

var exportErrorMap = map[error]struct {
	Status  int
	Code    string
	Message string
}{
	ErrExportNotFound: {
		Status:  http.StatusNotFound,
		Code:    "EXPORT_NOT_FOUND",
		Message: "Export job does not exist or has expired",
	},
	ErrExportNotReady: {
		Status:  http.StatusConflict,
		Code:    "EXPORT_NOT_READY",
		Message: "The PDF is still being generated",
	},
	ErrExportUnavailable: {
		Status:  http.StatusServiceUnavailable,
		Code:    "EXPORT_UNAVAILABLE",
		Message: "PDF export is temporarily unavailable",
	},
}

// HandleExportError: lỗi của export trước, còn lại (book not found, fetch...) đi qua book error map
func HandleExportError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	for target, cfg := range exportErrorMap {
		if errors.Is(err, target) {
			response.ErrorResponse(c, cfg.Status, cfg.Code, cfg.Message)
			return true
		}
	}
	return bookmodel.HandleBookError(c, err)
}
