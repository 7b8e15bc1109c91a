package pdfbook

import (
	"errors"

	"storybook-backend/internal/domains/book/model"
)

// ErrFatalAssembly: không dựng được document (thiếu dữ liệu sách, gofpdf lỗi).
// Lỗi ảnh riêng lẻ không bao giờ trả về lỗi này.
var ErrFatalAssembly = errors.New("pdf assembly failed")

// HydratedBook là toàn bộ dữ liệu cần để render, load sẵn trước khi generate
type HydratedBook struct {
	Book     model.Book
	Chapters []HydratedChapter
}

type HydratedChapter struct {
	Chapter model.Chapter
	Pages   []model.Page
	Gallery []model.GalleryItem
}

type Result struct {
	FileName  string
	PageCount int
	Data      []byte
}

// ProgressFunc nhận phần trăm (0-100) sau mỗi step
type ProgressFunc func(percent int)

// TotalSteps: cover, blank, title, blank, dedication, intro, contents,
// 3 step mỗi chapter, thank-you
func TotalSteps(chapters int) int {
	return 7 + 3*chapters + 1
}
