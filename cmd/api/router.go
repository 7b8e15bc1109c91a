package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storybook-backend/internal/shared/middleware"
	"storybook-backend/pkg/container"

	"github.com/gin-gonic/gin"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(c.Config.App.CORSOrigins...),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupBookRoutes(v1, c)
		setupSessionRoutes(v1, c)
		setupExportRoutes(v1, c)
	}

	return router
}

// ========================================
// BOOK ROUTES (library, book page, guestbook)
// ========================================
func setupBookRoutes(v1 *gin.RouterGroup, c *container.Container) {
	books := v1.Group("/books")
	{
		books.GET("", c.BookHandler.ListBooks)
		books.GET("/:slug", c.BookHandler.GetBook)
		books.GET("/:slug/guestbook", c.BookHandler.ListGuestbook)
		books.POST("/:slug/sessions", c.ReaderHandler.OpenSession)
		books.POST("/:slug/exports", c.ExportHandler.RequestExport)
	}
}

// ========================================
// READING SESSION ROUTES
// ========================================
func setupSessionRoutes(v1 *gin.RouterGroup, c *container.Container) {
	sessions := v1.Group("/sessions")
	{
		sessions.GET("/:id", c.ReaderHandler.GetSession)
		sessions.POST("/:id/next", c.ReaderHandler.Next)
		sessions.POST("/:id/previous", c.ReaderHandler.Previous)
		sessions.POST("/:id/jump", c.ReaderHandler.Jump)
	}
}

// ========================================
// EXPORT ROUTES
// ========================================
func setupExportRoutes(v1 *gin.RouterGroup, c *container.Container) {
	exports := v1.Group("/exports")
	{
		exports.GET("/:id", c.ExportHandler.GetExport)
		exports.GET("/:id/download", c.ExportHandler.Download)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		// Record store: memory store luôn ok
		dbStatus := "ok"
		if appCtx.DB != nil {
			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			} else if stats, err := appCtx.DB.Stats(); err == nil {
				health["pool"] = stats
			}
		}

		cacheStatus := "ok"
		if err := appCtx.Cache.Ping(ctx); err != nil {
			cacheStatus = fmt.Sprintf("error: %v", err)
		}

		storageStatus := "disabled"
		if appCtx.MinIO != nil {
			storageStatus = "ok"
			if err := appCtx.MinIO.Ping(ctx); err != nil {
				storageStatus = fmt.Sprintf("error: %v", err)
			}
		}

		health["services"] = gin.H{
			"record_store": appCtx.Config.RecordStore.Driver + ": " + dbStatus,
			"cache":        cacheStatus,
			"storage":      storageStatus,
			"exports":      appCtx.ExportsEnabled(),
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
