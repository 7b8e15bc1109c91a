package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	bookmodel "storybook-backend/internal/domains/book/model"
	"storybook-backend/internal/domains/export/pdfbook"
	"storybook-backend/internal/shared"
	"storybook-backend/pkg/logger"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

type Runner interface {
	Run(ctx context.Context, payload shared.ExportBookPDFPayload) error
}

// ExportPDFHandler xử lý task book:export_pdf
type ExportPDFHandler struct {
	service Runner
}

func NewExportPDFHandler(service Runner) *ExportPDFHandler {
	return &ExportPDFHandler{service: service}
}

func (h *ExportPDFHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ExportBookPDFPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("[ExportPDF] invalid payload", err)
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.JobID == "" || payload.BookID == "" {
		return fmt.Errorf("job_id and book_id are required: %w", asynq.SkipRetry)
	}

	log.Info().
		Str("job_id", payload.JobID).
		Str("book_id", payload.BookID).
		Msg("[ExportPDF] starting")

	err := h.service.Run(ctx, payload)
	if err == nil {
		return nil
	}

	if permanent(err) {
		log.Error().Err(err).Str("job_id", payload.JobID).Msg("[ExportPDF] permanent failure, not retrying")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	log.Warn().Err(err).Str("job_id", payload.JobID).Msg("[ExportPDF] failed, will retry")
	return err
}

// permanent: sách không tồn tại hoặc document không dựng được.
// Lỗi I/O từ record store vẫn retry dù đã bọc ErrFatalAssembly.
func permanent(err error) bool {
	if errors.Is(err, bookmodel.ErrBookNotFound) {
		return true
	}
	return errors.Is(err, pdfbook.ErrFatalAssembly) && !errors.Is(err, bookmodel.ErrFetchFailure)
}
