package model

import (
	bookmodel "storybook-backend/internal/domains/book/model"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// JumpRequest - POST /sessions/:id/jump
// Index ngoài khoảng [0, số chapter) không phải lỗi: machine bỏ qua, moved=false.
type JumpRequest struct {
	Index *int `json:"index"`
}

func (r JumpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Index, validation.NotNil.Error("index is required")),
	)
}

// SessionResponse - response của mọi session endpoint
type SessionResponse struct {
	SessionID string       `json:"session_id"`
	Moved     *bool        `json:"moved,omitempty"`
	View      ViewResponse `json:"view"`
}

// ViewResponse là snapshot của machine, markdown đã render sang HTML
type ViewResponse struct {
	State        string `json:"state"`
	ChapterIndex int    `json:"chapter_index"`
	PageIndex    *int   `json:"page_index,omitempty"`
	PageCount    *int   `json:"page_count,omitempty"`

	Book           bookmodel.Book      `json:"book"`
	DedicationHTML string              `json:"dedication_html,omitempty"`
	IntroHTML      string              `json:"intro_html,omitempty"`
	Chapters       []bookmodel.Chapter `json:"chapters"`
	Chapter        *bookmodel.Chapter  `json:"chapter,omitempty"`

	Page    *PageView               `json:"page,omitempty"`
	Gallery []bookmodel.GalleryItem `json:"gallery,omitempty"`

	Loading     bool   `json:"loading"`
	Error       string `json:"error,omitempty"`
	HasNext     bool   `json:"has_next"`
	HasPrevious bool   `json:"has_previous"`
}

type PageView struct {
	bookmodel.Page
	ContentHTML string `json:"content_html,omitempty"`
	QuoteHTML   string `json:"quote_html,omitempty"`
}
