package model

import (
	"errors"
	"net/http"

	bookmodel "storybook-backend/internal/domains/book/model"
	"storybook-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
)

var (
	ErrSessionNotFound = errors.New("reading session not found or expired")
)

// HandleReaderError map lỗi của reader domain; lỗi còn lại chuyển cho book error map.
func HandleReaderError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrSessionNotFound) {
		response.ErrorResponse(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Reading session not found or expired")
		return true
	}

	return bookmodel.HandleBookError(c, err)
}
