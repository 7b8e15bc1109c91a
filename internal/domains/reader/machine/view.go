package machine

import "storybook-backend/internal/domains/book/model"

// View là snapshot read-only của machine tại một thời điểm.
type View struct {
	State        State
	ChapterIndex int
	Book         model.Book
	Chapters     []model.Chapter

	// Chapter hiện tại, nil ở front matter / book gallery / guestbook / thank you
	Chapter   *model.Chapter
	PageIndex int
	// PageCount = -1 khi chưa biết
	PageCount int
	Pages     []model.Page
	Page      *model.Page
	Gallery   []model.GalleryItem

	Loading     bool
	Error       string
	HasNext     bool
	HasPrevious bool
}

func (m *Machine) Snapshot() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{
		State:        m.state,
		ChapterIndex: m.chapterIndex,
		Book:         m.book,
		Chapters:     append([]model.Chapter(nil), m.chapters...),
		PageCount:    -1,
	}
	_, v.HasNext = m.nextState()
	_, _, v.HasPrevious = m.previousState()

	switch s := m.state.(type) {
	case ChapterTitle:
		v.Chapter = m.chapterAt(s.Chapter)
	case ChapterContent:
		v.Chapter = m.chapterAt(s.Chapter)
		v.PageIndex = s.Page
		if shape := m.shapes[s.Chapter]; shape.known {
			v.PageCount = shape.pageCount
		}
		if m.content.chapterID == v.Chapter.ID {
			v.Loading = m.content.loading
			v.Error = errString(m.content.err)
			v.Pages = append([]model.Page(nil), m.content.pages...)
			if s.Page < len(v.Pages) {
				page := v.Pages[s.Page]
				v.Page = &page
			}
		}
	case ChapterGallery:
		v.Chapter = m.chapterAt(s.Chapter)
		m.fillGallery(&v, v.Chapter.ID)
	case BookGallery:
		m.fillGallery(&v, bookGalleryKey)
	}
	return v
}

func (m *Machine) fillGallery(v *View, key string) {
	if m.gallery.key != key {
		return
	}
	v.Loading = m.gallery.loading
	v.Error = errString(m.gallery.err)
	v.Gallery = append([]model.GalleryItem(nil), m.gallery.items...)
}

func (m *Machine) chapterAt(i int) *model.Chapter {
	ch := m.chapters[i]
	return &ch
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
