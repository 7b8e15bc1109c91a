package main

import (
	"log"

	"storybook-backend/internal/infrastructure/queue"
)

// asynqScheduler wraps queue.Scheduler with additional functionality
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler creates and configures the scheduler
func setupScheduler(cfg *Config) *asynqScheduler {
	scheduler := queue.NewScheduler(cfg.Redis)

	// EXPORT_CLEANUP_CRON rỗng = tắt cleanup tự động
	if cfg.CleanupCron != "" {
		if _, err := scheduler.RegisterExportCleanup(cfg.CleanupCron, cfg.ExportQueue); err != nil {
			log.Fatalf("[Scheduler] Failed to register: %v", err)
		}
	}

	go func() {
		log.Println("[Scheduler] Starting...")
		if err := scheduler.Start(); err != nil {
			log.Fatalf("[Scheduler] Failed: %v", err)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

// Shutdown gracefully shuts down the scheduler
func (s *asynqScheduler) Shutdown() {
	log.Println("[Scheduler] Shutting down...")
	s.Scheduler.Shutdown()
	log.Println("[Scheduler] ✓ Stopped")
}
