package model

import "time"

// ExportResponse - object key không lộ ra ngoài, client tải qua DownloadURL
type ExportResponse struct {
	JobID       string     `json:"job_id"`
	BookID      string     `json:"book_id"`
	BookSlug    string     `json:"book_slug"`
	Status      Status     `json:"status"`
	Progress    int        `json:"progress"`
	FileName    string     `json:"file_name,omitempty"`
	PageCount   int        `json:"page_count,omitempty"`
	Error       string     `json:"error,omitempty"`
	DownloadURL string     `json:"download_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func ToExportResponse(job *ExportJob) *ExportResponse {
	resp := &ExportResponse{
		JobID:       job.ID,
		BookID:      job.BookID,
		BookSlug:    job.BookSlug,
		Status:      job.Status,
		Progress:    job.Progress,
		FileName:    job.FileName,
		PageCount:   job.PageCount,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
	}
	if job.Status == StatusCompleted {
		resp.DownloadURL = "/api/v1/exports/" + job.ID + "/download"
	}
	return resp
}

// Download là file PDF đã sẵn sàng để trả về client
type Download struct {
	FileName string
	Data     []byte
}
