package queue

import (
	"encoding/json"
	"time"

	"storybook-backend/internal/shared"
	"storybook-backend/pkg/logger"

	"github.com/hibiken/asynq"
)

// Scheduler bọc asynq.Scheduler, đăng ký các periodic task của worker
type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(redis asynq.RedisClientOpt) *Scheduler {
	scheduler := asynq.NewScheduler(
		redis,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{scheduler: scheduler}
}

// ================================================
// JOB: Cleanup old PDF exports
// ================================================
// Xóa file PDF trong MinIO cũ hơn EXPORT_RETENTION.
// Payload rỗng: handler tự tính cutoff = now - retention lúc chạy.
func (s *Scheduler) RegisterExportCleanup(cronspec, queueName string) (string, error) {
	payload, err := json.Marshal(shared.CleanupExportsPayload{})
	if err != nil {
		return "", err
	}

	task := asynq.NewTask(shared.TypeCleanupExports, payload)

	entryID, err := s.scheduler.Register(
		cronspec,
		task,
		asynq.Queue(queueName),
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register CleanupExports job", err)
		return "", err
	}

	logger.Info("✓ Registered CleanupExports", map[string]interface{}{"cron": cronspec, "entry_id": entryID})
	return entryID, nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
