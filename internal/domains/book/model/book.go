package model

import (
	"strings"
	"time"
)

// Book là một cuốn sách số: metadata + front matter (dedication, intro).
// Chapters/pages/gallery được load riêng.
type Book struct {
	ID          string     `json:"id" mapstructure:"id"`
	Slug        string     `json:"slug" mapstructure:"slug"`
	Title       string     `json:"title" mapstructure:"title"`
	Author      string     `json:"author" mapstructure:"author"`
	CoverImage  *string    `json:"cover_image,omitempty" mapstructure:"cover_image"`
	Dedication  *string    `json:"dedication,omitempty" mapstructure:"dedication"`
	Intro       *string    `json:"intro,omitempty" mapstructure:"intro"`
	PublishedAt *time.Time `json:"published_at,omitempty" mapstructure:"published_at"`
	CreatedAt   time.Time  `json:"created_at" mapstructure:"created_at"`
	ViewCount   int64      `json:"view_count" mapstructure:"view_count"`
}

// HasDedication - dedication rỗng hoặc chỉ có whitespace coi như không có
func (b Book) HasDedication() bool {
	return present(b.Dedication)
}

func (b Book) HasIntro() bool {
	return present(b.Intro)
}

func (b Book) HasCover() bool {
	return present(b.CoverImage)
}

// Chapter. Number là display order lưu trong DB, dùng cho sort và label
// "Chapter N"; navigation luôn dùng index trong slice, không dùng Number.
type Chapter struct {
	ID     string  `json:"id" mapstructure:"id"`
	BookID string  `json:"book_id" mapstructure:"book_id"`
	Number int     `json:"chapter_number" mapstructure:"chapter_number"`
	Title  string  `json:"title" mapstructure:"title"`
	Lede   *string `json:"lede,omitempty" mapstructure:"lede"`
	Image  *string `json:"image,omitempty" mapstructure:"image"`
}

func (c Chapter) HasImage() bool {
	return present(c.Image)
}

// Page là một content block của chapter, mọi slot đều optional.
type Page struct {
	ID             string  `json:"id" mapstructure:"id"`
	ChapterID      string  `json:"chapter_id" mapstructure:"chapter_id"`
	Order          int     `json:"page_order" mapstructure:"page_order"`
	Subheading     *string `json:"title,omitempty" mapstructure:"title"`
	Content        *string `json:"content,omitempty" mapstructure:"content"`
	Quote          *string `json:"quote,omitempty" mapstructure:"quote"`
	QuoteAttribute *string `json:"quote_attribute,omitempty" mapstructure:"quote_attribute"`
	Image          *string `json:"image,omitempty" mapstructure:"image"`
	ImageCaption   *string `json:"image_caption,omitempty" mapstructure:"image_caption"`
}

type GalleryItem struct {
	ID        string  `json:"id" mapstructure:"id"`
	ChapterID string  `json:"chapter_id" mapstructure:"chapter_id"`
	BookID    *string `json:"book_id,omitempty" mapstructure:"book_id"`
	ImageURL  string  `json:"image_url" mapstructure:"image_url"`
	Title     *string `json:"title,omitempty" mapstructure:"title"`
	Caption   *string `json:"caption,omitempty" mapstructure:"caption"`
	SortOrder int     `json:"sort_order" mapstructure:"sort_order"`
}

// GuestbookEntry - entry private không bao giờ được trả ra ngoài
type GuestbookEntry struct {
	ID        string    `json:"id" mapstructure:"id"`
	BookID    string    `json:"book_id" mapstructure:"book_id"`
	Message   string    `json:"message" mapstructure:"message"`
	Guest     string    `json:"guest" mapstructure:"guest"`
	CreatedAt time.Time `json:"created_at" mapstructure:"created_at"`
	IsPrivate bool      `json:"-" mapstructure:"is_private"`
}

// ChapterIDs giữ nguyên thứ tự chapters
func ChapterIDs(chapters []Chapter) []string {
	ids := make([]string, len(chapters))
	for i, c := range chapters {
		ids[i] = c.ID
	}
	return ids
}

// Deref trả "" cho nil
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
