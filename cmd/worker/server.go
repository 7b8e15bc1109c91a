package main

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"
	zlog "github.com/rs/zerolog/log"
)

// asynqServer wraps asynq.Server with additional functionality
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer creates and configures the Asynq server
func setupAsynqServer(cfg *Config, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	// export queue ưu tiên hơn default; task render PDF nặng CPU nên concurrency nhỏ
	srv := asynq.NewServer(
		cfg.Redis,
		asynq.Config{
			Queues: map[string]int{
				cfg.ExportQueue: 10,
				"default":       5,
			},
			Concurrency:     cfg.Concurrency,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				zlog.Error().
					Err(err).
					Str("type", task.Type()).
					Int("retry", retried).
					Int("max_retry", maxRetry).
					Msg("[Asynq] ❌ Task failed")
			}),
		},
	)

	go func() {
		log.Println("[Worker] Starting...")
		if err := srv.Run(mux); err != nil {
			log.Fatalf("[Worker] Failed: %v", err)
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown chờ task đang chạy tối đa ShutdownTimeout rồi dừng
func (s *asynqServer) Shutdown() {
	log.Println("[Worker] Shutting down (waiting max 30s)...")
	s.Server.Shutdown()
	log.Println("[Worker] ✓ Gracefully stopped")
}
