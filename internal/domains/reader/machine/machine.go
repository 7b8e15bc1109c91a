package machine

import (
	"context"
	"sort"
	"sync"
	"time"

	"storybook-backend/internal/domains/book/model"

	"github.com/rs/zerolog/log"
)

const defaultFetchTimeout = 10 * time.Second

// ContentLoader là phần của loader mà machine cần
type ContentLoader interface {
	LoadChapterContent(ctx context.Context, chapterID string) ([]model.Page, error)
	LoadChapterGallery(ctx context.Context, chapterID string) ([]model.GalleryItem, error)
	LoadBookGallery(ctx context.Context, chapterIDs []string) ([]model.GalleryItem, error)
	HasGallery(ctx context.Context, chapterID string) (bool, error)
}

// Runner chạy một load effect. Mặc định mỗi effect một goroutine.
type Runner func(func())

type Option func(*Machine)

func WithRunner(run Runner) Option {
	return func(m *Machine) {
		if run != nil {
			m.run = run
		}
	}
}

func WithFetchTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// chapterShape: những gì machine biết về một chapter sau lần load đầu tiên
type chapterShape struct {
	known      bool
	failed     bool
	pageCount  int
	hasGallery bool
}

func (s chapterShape) lastPage() int {
	if s.pageCount == 0 {
		return 0
	}
	return s.pageCount - 1
}

// contentSlot giữ pages của đúng một chapter
type contentSlot struct {
	chapterID string
	pages     []model.Page
	loading   bool
	loaded    bool
	err       error
	gen       uint64
}

// gallerySlot giữ gallery của một chapter hoặc của cả sách (chapter = -1)
type gallerySlot struct {
	key     string
	chapter int
	items   []model.GalleryItem
	loading bool
	loaded  bool
	err     error
	gen     uint64
}

const bookGalleryKey = "book"

// Machine là reading state machine của một phiên đọc.
//
// Transition chạy đồng bộ dưới mutex; load effect được dispatch sau khi
// unlock qua Runner. Kết quả load về muộn bị bỏ nếu reader đã sang chapter
// khác hoặc đã có request mới hơn cho cùng slot.
type Machine struct {
	mu sync.Mutex

	book     model.Book
	chapters []model.Chapter
	loader   ContentLoader
	run      Runner
	timeout  time.Duration

	state        State
	chapterIndex int
	// seekLast: đang ở ChapterContent(i, 0) chờ shape của chapter i để nhảy về cuối chapter
	seekLast bool
	shapes   []chapterShape
	content  contentSlot
	gallery  gallerySlot
	gen      uint64
}

// New tạo machine ở Cover. chapters được sort theo display order (Number).
func New(book model.Book, chapters []model.Chapter, loader ContentLoader, opts ...Option) *Machine {
	sorted := append([]model.Chapter(nil), chapters...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Number < sorted[j].Number
	})

	m := &Machine{
		book:     book,
		chapters: sorted,
		loader:   loader,
		run:      func(f func()) { go f() },
		timeout:  defaultFetchTimeout,
		state:    Cover{},
		shapes:   make([]chapterShape, len(sorted)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Next đi tới view kế tiếp. Trả false khi đứng yên.
func (m *Machine) Next() bool {
	m.mu.Lock()
	to, ok := m.nextState()
	var effects []func()
	if ok {
		effects = m.enter(to)
	}
	m.mu.Unlock()

	m.dispatch(effects)
	return ok
}

// Previous là mirror của Next.
func (m *Machine) Previous() bool {
	m.mu.Lock()
	to, seek, ok := m.previousState()
	var effects []func()
	if ok {
		effects = m.enter(to)
		m.seekLast = seek
	}
	m.mu.Unlock()

	m.dispatch(effects)
	return ok
}

// JumpToChapter tới ChapterTitle(index). Index ngoài [0, n) bị bỏ qua, trả false.
func (m *Machine) JumpToChapter(index int) bool {
	m.mu.Lock()
	if index < 0 || index >= len(m.chapters) {
		m.mu.Unlock()
		return false
	}
	effects := m.enter(ChapterTitle{Chapter: index})
	m.mu.Unlock()

	m.dispatch(effects)
	return true
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) ChapterIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chapterIndex
}

// ============================================
// TRANSITION TABLES
// ============================================

func (m *Machine) nextState() (State, bool) {
	n := len(m.chapters)

	switch s := m.state.(type) {
	case Cover:
		switch {
		case m.book.HasDedication():
			return Dedication{}, true
		case m.book.HasIntro():
			return Intro{}, true
		case n > 0:
			return ChapterTitle{Chapter: 0}, true
		}
	case Dedication:
		switch {
		case m.book.HasIntro():
			return Intro{}, true
		case n > 0:
			return ChapterTitle{Chapter: 0}, true
		}
	case Intro:
		if n > 0 {
			return ChapterTitle{Chapter: 0}, true
		}
	case ChapterTitle:
		return ChapterContent{Chapter: s.Chapter, Page: 0}, true
	case ChapterContent:
		shape := m.shapes[s.Chapter]
		if !shape.known {
			// chưa biết số page
			return nil, false
		}
		if s.Page < shape.lastPage() {
			return ChapterContent{Chapter: s.Chapter, Page: s.Page + 1}, true
		}
		if shape.hasGallery {
			return ChapterGallery{Chapter: s.Chapter}, true
		}
		return m.afterChapter(s.Chapter), true
	case ChapterGallery:
		return m.afterChapter(s.Chapter), true
	case BookGallery:
		return Guestbook{}, true
	case Guestbook:
		return ThankYou{}, true
	}
	return nil, false
}

// previousState trả thêm seek=true khi phải vào chapter trước mà chưa biết shape
func (m *Machine) previousState() (State, bool, bool) {
	n := len(m.chapters)

	switch s := m.state.(type) {
	case Dedication:
		return Cover{}, false, true
	case Intro:
		if m.book.HasDedication() {
			return Dedication{}, false, true
		}
		return Cover{}, false, true
	case ChapterTitle:
		if s.Chapter == 0 {
			return m.frontMatterEnd(), false, true
		}
		to, seek := m.chapterEnd(s.Chapter - 1)
		return to, seek, true
	case ChapterContent:
		if s.Page > 0 {
			return ChapterContent{Chapter: s.Chapter, Page: s.Page - 1}, false, true
		}
		return ChapterTitle{Chapter: s.Chapter}, false, true
	case ChapterGallery:
		return ChapterContent{Chapter: s.Chapter, Page: m.shapes[s.Chapter].lastPage()}, false, true
	case BookGallery:
		if n == 0 {
			return m.frontMatterEnd(), false, true
		}
		to, seek := m.chapterEnd(n - 1)
		return to, seek, true
	case Guestbook:
		return BookGallery{}, false, true
	case ThankYou:
		return Guestbook{}, false, true
	}
	return nil, false, false
}

func (m *Machine) afterChapter(i int) State {
	if i+1 < len(m.chapters) {
		return ChapterTitle{Chapter: i + 1}
	}
	return BookGallery{}
}

func (m *Machine) frontMatterEnd() State {
	switch {
	case m.book.HasIntro():
		return Intro{}
	case m.book.HasDedication():
		return Dedication{}
	}
	return Cover{}
}

// chapterEnd là view cuối cùng của chapter i khi đi lùi vào nó
func (m *Machine) chapterEnd(i int) (State, bool) {
	shape := m.shapes[i]
	if !shape.known {
		return ChapterContent{Chapter: i, Page: 0}, true
	}
	if shape.hasGallery {
		return ChapterGallery{Chapter: i}, false
	}
	return ChapterContent{Chapter: i, Page: shape.lastPage()}, false
}

// enter set state + chapterIndex và trả về load effects cần chạy
func (m *Machine) enter(to State) []func() {
	m.state = to
	m.seekLast = false

	last := len(m.chapters) - 1
	if last < 0 {
		last = 0
	}

	switch s := to.(type) {
	case ChapterTitle:
		m.chapterIndex = s.Chapter
	case ChapterContent:
		m.chapterIndex = s.Chapter
		return m.ensureContent(s.Chapter)
	case ChapterGallery:
		m.chapterIndex = s.Chapter
		return m.ensureGallery(s.Chapter)
	case BookGallery:
		m.chapterIndex = last
		return m.ensureGallery(-1)
	case Guestbook, ThankYou:
		m.chapterIndex = last
	default:
		m.chapterIndex = 0
	}
	return nil
}

// ============================================
// LOAD EFFECTS
// ============================================

func (m *Machine) ensureContent(i int) []func() {
	chapterID := m.chapters[i].ID
	if m.content.chapterID == chapterID && (m.content.loading || m.content.loaded) {
		return nil
	}

	// vào lại chapter đã lỗi: load lại, shape chưa biết cho tới khi có kết quả
	if m.shapes[i].failed {
		m.shapes[i] = chapterShape{}
	}

	m.gen++
	gen := m.gen
	m.content = contentSlot{chapterID: chapterID, loading: true, gen: gen}

	return []func(){func() { m.fetchContent(i, chapterID, gen) }}
}

func (m *Machine) fetchContent(i int, chapterID string, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	pages, err := m.loader.LoadChapterContent(ctx, chapterID)
	hasGallery := false
	if err == nil {
		hasGallery, err = m.loader.HasGallery(ctx, chapterID)
	}

	m.mu.Lock()
	effects := m.resolveContent(i, gen, pages, hasGallery, err)
	m.mu.Unlock()

	m.dispatch(effects)
}

func (m *Machine) resolveContent(i int, gen uint64, pages []model.Page, hasGallery bool, err error) []func() {
	if m.content.gen != gen {
		return nil
	}
	if m.chapterIndex != i {
		m.content = contentSlot{}
		return nil
	}

	m.content.loading = false
	if err != nil {
		log.Warn().Err(err).Str("chapter_id", m.content.chapterID).Msg("[ReaderMachine] chapter content load failed")
		m.content.err = err
		m.shapes[i] = chapterShape{known: true, failed: true}
		// chapter lỗi coi như 0 page: ChapterContent(i, 0) đã là cuối chapter
		m.seekLast = false
		return nil
	}

	m.content.pages = pages
	m.content.loaded = true
	m.shapes[i] = chapterShape{known: true, pageCount: len(pages), hasGallery: hasGallery}

	if m.seekLast && m.state == (ChapterContent{Chapter: i, Page: 0}) {
		to, _ := m.chapterEnd(i)
		return m.enter(to)
	}
	return nil
}

func (m *Machine) ensureGallery(chapter int) []func() {
	key := bookGalleryKey
	if chapter >= 0 {
		key = m.chapters[chapter].ID
	}
	if m.gallery.key == key && (m.gallery.loading || m.gallery.loaded) {
		return nil
	}

	m.gen++
	gen := m.gen
	m.gallery = gallerySlot{key: key, chapter: chapter, loading: true, gen: gen}

	return []func(){func() { m.fetchGallery(chapter, gen) }}
}

func (m *Machine) fetchGallery(chapter int, gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	var (
		items []model.GalleryItem
		err   error
	)
	if chapter < 0 {
		items, err = m.loader.LoadBookGallery(ctx, model.ChapterIDs(m.chapters))
	} else {
		items, err = m.loader.LoadChapterGallery(ctx, m.chapters[chapter].ID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gallery.gen != gen {
		return
	}
	if chapter >= 0 && m.chapterIndex != chapter {
		m.gallery = gallerySlot{}
		return
	}

	m.gallery.loading = false
	if err != nil {
		log.Warn().Err(err).Str("gallery", m.gallery.key).Msg("[ReaderMachine] gallery load failed")
		m.gallery.err = err
		return
	}
	m.gallery.items = items
	m.gallery.loaded = true
}

func (m *Machine) dispatch(effects []func()) {
	for _, f := range effects {
		m.run(f)
	}
}
