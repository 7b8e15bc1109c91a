package model

import "time"

// BookSummaryResponse - item trong danh sách trang chủ
type BookSummaryResponse struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Author      string     `json:"author"`
	CoverImage  *string    `json:"cover_image,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ViewCount   int64      `json:"view_count"`
}

type BookDetailResponse struct {
	Book     Book      `json:"book"`
	Chapters []Chapter `json:"chapters"`
}

func ToBookSummary(b Book) BookSummaryResponse {
	return BookSummaryResponse{
		ID:          b.ID,
		Slug:        b.Slug,
		Title:       b.Title,
		Author:      b.Author,
		CoverImage:  b.CoverImage,
		PublishedAt: b.PublishedAt,
		ViewCount:   b.ViewCount,
	}
}
