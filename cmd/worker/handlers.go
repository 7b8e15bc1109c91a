package main

import (
	exportJob "storybook-backend/internal/domains/export/job"
	"storybook-backend/internal/shared"
	"storybook-backend/pkg/container"

	"github.com/hibiken/asynq"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	exportPDF      *exportJob.ExportPDFHandler
	cleanupExports *exportJob.CleanupExportsHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		exportPDF:      exportJob.NewExportPDFHandler(c.ExportService),
		cleanupExports: exportJob.NewCleanupExportsHandler(c.ExportService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeExportBookPDF, h.exportPDF.ProcessTask)
	mux.HandleFunc(shared.TypeCleanupExports, h.cleanupExports.ProcessTask)
}
