package model

import "time"

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Done: job không còn thay đổi trạng thái nữa
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ExportJob là trạng thái một lần export PDF, lưu trong cache (redis) theo TTL.
// File PDF nằm ở MinIO tại ObjectKey.
type ExportJob struct {
	ID          string     `json:"id"`
	BookID      string     `json:"book_id"`
	BookSlug    string     `json:"book_slug"`
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"`
	FileName    string     `json:"file_name,omitempty"`
	ObjectKey   string     `json:"object_key,omitempty"`
	PageCount   int        `json:"page_count,omitempty"`
	Error       string     `json:"error,omitempty"`
	Attempts    int        `json:"attempts"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
