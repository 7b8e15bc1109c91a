package machine

// State là một view trong trình tự đọc sách. Tập variant là đóng:
// chỉ các struct trong file này implement State.
//
// Mọi variant đều comparable, so sánh bằng == là đủ.
type State interface {
	Name() string
	isState()
}

type Cover struct{}

type Dedication struct{}

type Intro struct{}

// ChapterTitle - trang mở đầu chapter, Chapter là index trong slice chapters
type ChapterTitle struct {
	Chapter int
}

// ChapterContent - Page là index trong pages của chapter (0-based)
type ChapterContent struct {
	Chapter int
	Page    int
}

type ChapterGallery struct {
	Chapter int
}

type BookGallery struct{}

type Guestbook struct{}

type ThankYou struct{}

func (Cover) Name() string          { return "cover" }
func (Dedication) Name() string     { return "dedication" }
func (Intro) Name() string          { return "intro" }
func (ChapterTitle) Name() string   { return "chapter_title" }
func (ChapterContent) Name() string { return "chapter_content" }
func (ChapterGallery) Name() string { return "chapter_gallery" }
func (BookGallery) Name() string    { return "book_gallery" }
func (Guestbook) Name() string      { return "guestbook" }
func (ThankYou) Name() string       { return "thank_you" }

func (Cover) isState()          {}
func (Dedication) isState()     {}
func (Intro) isState()          {}
func (ChapterTitle) isState()   {}
func (ChapterContent) isState() {}
func (ChapterGallery) isState() {}
func (BookGallery) isState()    {}
func (Guestbook) isState()      {}
func (ThankYou) isState()       {}
