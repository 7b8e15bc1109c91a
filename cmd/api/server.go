package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storybook-backend/pkg/container"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Serve build container, chạy HTTP server và chờ SIGINT/SIGTERM để shutdown
func Serve() {
	// ========================================
	// 1. BUILD DI CONTAINER
	// ========================================
	appContainer, err := container.NewContainer()
	if err != nil {
		log.Fatalf("❌ Failed to initialize container: %v", err)
	}
	defer appContainer.Cleanup()

	// ========================================
	// 2. ROUTER + HTTP SERVER
	// ========================================
	srv := newHTTPServer(appContainer)

	log.Printf("🚀 Server starting on http://localhost%s", srv.Addr)
	log.Printf("📚 Environment: %s", appContainer.Config.App.Environment)
	log.Printf("💚 Health Check: http://localhost%s/api/v1/health", srv.Addr)
	if !appContainer.ExportsEnabled() {
		log.Println("⚠️  PDF export disabled (needs Redis + MinIO)")
	}

	// ========================================
	// 3. RUN UNTIL SIGNAL
	// ========================================
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, srv); err != nil {
		log.Printf("❌ Server error: %v", err)
		return
	}
	log.Println("✅ Server exited gracefully")
}

func newHTTPServer(c *container.Container) *http.Server {
	// WriteTimeout dài vì download trả nguyên file PDF
	return &http.Server{
		Addr:           fmt.Sprintf(":%s", c.Config.App.Port),
		Handler:        SetupRouter(c),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
}

// run chạy srv tới khi ctx bị cancel rồi graceful shutdown.
// Lỗi listen (port bận...) cũng làm run trả về.
func run(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("🛑 Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
