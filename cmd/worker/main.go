// cmd/worker/main.go
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"storybook-backend/pkg/container"
	"storybook-backend/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}
	logger.Init(os.Getenv("APP_ENV"))

	// Initialize container
	c, err := container.NewContainer()
	if err != nil {
		log.Fatalf("[Container] Failed to initialize: %v", err)
	}
	defer c.Cleanup()

	cfg := loadConfig(c.Config)

	// Health check trước khi nhận task
	if err := startServices(cfg, c.MinIO); err != nil {
		log.Fatalf("[Startup] Health check failed: %v", err)
	}

	handlers := initializeHandlers(c)
	srv := setupAsynqServer(cfg, handlers)
	scheduler := setupScheduler(cfg)

	waitForShutdown(srv, scheduler)
}

func waitForShutdown(srv *asynqServer, scheduler *asynqScheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("[Shutdown] Gracefully stopping...")
	scheduler.Shutdown()
	srv.Shutdown()
	log.Println("[Shutdown] ✓ Stopped")
}
