package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"storybook-backend/internal/infrastructure/storage"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

// HealthChecker performs startup health checks
type HealthChecker struct {
	redisClient *redis.Client
	minio       *storage.MinIOStorage
}

// startServices performs health checks and starts the health endpoint
func startServices(cfg *Config, minio *storage.MinIOStorage) error {
	log.Println("============================================")
	log.Println("🚀 Storybook Worker Starting...")
	log.Println("============================================")

	checker := &HealthChecker{
		redisClient: redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			MaintNotificationsConfig: &maintnotifications.Config{
				Mode: maintnotifications.ModeDisabled,
			},
		}),
		minio: minio,
	}

	if err := checker.checkAll(); err != nil {
		log.Printf("❌ Health check failed: %v\n", err)
		return err
	}

	go startHealthCheckServer(cfg.HealthCheckPort, checker)

	return nil
}

// checkAll runs all health checks
func (h *HealthChecker) checkAll() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"Redis Connection", h.checkRedis},
		{"MinIO Bucket", h.checkMinIO},
	}

	for _, check := range checks {
		log.Printf("⏳ Checking %s...\n", check.name)
		if err := check.fn(); err != nil {
			log.Printf("❌ %s: %v\n", check.name, err)
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		log.Printf("✓ %s: OK\n", check.name)
	}

	return nil
}

func (h *HealthChecker) checkRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return h.redisClient.Ping(ctx).Err()
}

// checkMinIO - worker không có MinIO thì không upload được PDF
func (h *HealthChecker) checkMinIO() error {
	if h.minio == nil {
		return fmt.Errorf("minio not configured")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return h.minio.Ping(ctx)
}

// startHealthCheckServer starts HTTP server for health checks
func startHealthCheckServer(port string, checker *HealthChecker) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthCheckHandler)
	mux.HandleFunc("/ready", readyCheckHandler(checker))

	log.Printf("[Health] Starting health check server on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("[Health] Failed to start: %v\n", err)
	}
}

// healthCheckHandler handles /health endpoint
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"UP","service":"storybook-worker"}`))
}

// readyCheckHandler (Kubernetes readiness probe) chạy lại redis + minio check
func readyCheckHandler(checker *HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := checker.checkAll(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"NOT_READY"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"READY"}`))
	}
}
