package model

import (
	"errors"
	"net/http"

	"storybook-backend/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrInvalidSlug     = errors.New("invalid book slug")
	// ErrFetchFailure bọc mọi lỗi I/O từ record store; caller tự retry
	ErrFetchFailure = errors.New("failed to fetch from record store")
)

var bookErrorMap = map[error]struct {
	Status  int
	Code    string
	Message string
}{
	ErrBookNotFound: {
		Status:  http.StatusNotFound,
		Code:    "BOOK_NOT_FOUND",
		Message: "The requested book does not exist",
	},
	ErrChapterNotFound: {
		Status:  http.StatusNotFound,
		Code:    "CHAPTER_NOT_FOUND",
		Message: "The requested chapter does not exist",
	},
	ErrInvalidSlug: {
		Status:  http.StatusBadRequest,
		Code:    "INVALID_SLUG",
		Message: "Book slug is malformed",
	},
	ErrFetchFailure: {
		Status:  http.StatusBadGateway,
		Code:    "FETCH_FAILED",
		Message: "Could not load book data, please try again",
	},
}

// HandleBookError ghi response tương ứng với err. Trả false khi err == nil.
func HandleBookError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	for target, cfg := range bookErrorMap {
		if errors.Is(err, target) {
			response.ErrorResponse(c, cfg.Status, cfg.Code, cfg.Message)
			return true
		}
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg("[BookHandler] unexpected error")
	response.InternalServerError(c, "Internal server error")
	return true
}
