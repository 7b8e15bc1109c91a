package main

import (
	"log"

	"storybook-backend/internal/config"

	"github.com/hibiken/asynq"
)

// Config holds the worker-specific view of the app config
type Config struct {
	Redis           asynq.RedisClientOpt
	ExportQueue     string
	Concurrency     int
	HealthCheckPort string
	CleanupCron     string
}

// loadConfig derive worker config từ config đã load trong container
func loadConfig(app *config.Config) *Config {
	cfg := &Config{
		Redis: asynq.RedisClientOpt{
			Addr:     app.Redis.Host,
			Password: app.Redis.Password,
			DB:       app.Redis.DB,
		},
		ExportQueue:     app.Export.Queue,
		Concurrency:     app.Worker.Concurrency,
		HealthCheckPort: app.Worker.HealthCheckPort,
		CleanupCron:     app.Worker.CleanupCron,
	}

	log.Printf("[Config] Redis: %s, queue: %s, concurrency: %d, cleanup: %q",
		cfg.Redis.Addr, cfg.ExportQueue, cfg.Concurrency, cfg.CleanupCron)

	return cfg
}
