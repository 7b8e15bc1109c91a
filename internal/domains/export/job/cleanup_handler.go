package job

import (
	"context"
	"encoding/json"
	"time"

	"storybook-backend/internal/shared"
	"storybook-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

type Cleaner interface {
	Cleanup(ctx context.Context, before time.Time) (int, error)
}

// CleanupExportsHandler xử lý task export:cleanup (chạy theo cron)
type CleanupExportsHandler struct {
	service Cleaner
}

func NewCleanupExportsHandler(service Cleaner) *CleanupExportsHandler {
	return &CleanupExportsHandler{service: service}
}

func (h *CleanupExportsHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.CleanupExportsPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Error("[CleanupExports] invalid payload", err)
			return asynq.SkipRetry
		}
	}

	removed, err := h.service.Cleanup(ctx, payload.Before)
	if err != nil {
		logger.Error("[CleanupExports] cleanup failed", err)
		return err
	}

	logger.Info("[CleanupExports] done", map[string]interface{}{"removed": removed})
	return nil
}
