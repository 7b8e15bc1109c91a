package shared

import "time"

// Task types
const (
	TypeExportBookPDF  = "book:export_pdf"
	TypeCleanupExports = "export:cleanup"
)

// ExportsPrefix là prefix object key của các file PDF trong bucket
const ExportsPrefix = "exports/"

// ExportBookPDFPayload - một job = một cuốn sách
type ExportBookPDFPayload struct {
	JobID  string `json:"job_id"`
	BookID string `json:"book_id"`
}

// CleanupExportsPayload - Before rỗng thì dùng now - retention
type CleanupExportsPayload struct {
	Before time.Time `json:"before,omitempty"`
}
