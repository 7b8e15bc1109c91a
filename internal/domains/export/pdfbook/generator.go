package pdfbook

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"storybook-backend/internal/domains/book/model"
	"storybook-backend/internal/infrastructure/storage"
	"storybook-backend/internal/render"
	"storybook-backend/internal/shared/utils"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"
)

// Generator dựng PDF in được từ một HydratedBook. Stateless, an toàn khi
// nhiều job chạy song song; mọi state của một lần render nằm trong assembly.
type Generator struct {
	source    ImageSource
	renderer  render.Renderer
	processor *storage.ImageProcessor
	cfg       Config
}

func NewGenerator(source ImageSource, renderer render.Renderer, cfg Config) *Generator {
	if cfg.GalleryPerPage <= 0 {
		cfg.GalleryPerPage = DefaultGalleryPerPage
	}
	return &Generator{
		source:    source,
		renderer:  renderer,
		processor: storage.NewImageProcessor(0),
		cfg:       cfg,
	}
}

type assembly struct {
	ctx       context.Context
	pdf       *gofpdf.Fpdf
	tr        func(string) string
	source    ImageSource
	renderer  render.Renderer
	processor *storage.ImageProcessor
	cfg       Config
	grid      galleryGrid
	book      *HydratedBook

	images map[string]*registeredImage
	links  []int

	// trang hiện tại có in số trang ở footer không
	numbered bool
	y        float64
}

type step struct {
	name string
	run  func()
}

// Generate chạy tuần tự từng step, kiểm tra ctx giữa các step và báo
// progress sau mỗi step. Ảnh lỗi chỉ bị bỏ qua, không làm hỏng document.
func (g *Generator) Generate(ctx context.Context, book *HydratedBook, progress ProgressFunc) (*Result, error) {
	if book == nil || strings.TrimSpace(book.Book.ID) == "" {
		return nil, fmt.Errorf("%w: book is not hydrated", ErrFatalAssembly)
	}

	a := g.newAssembly(ctx, book)
	steps := a.steps()

	for i, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("pdf generation cancelled before %s: %w", s.name, err)
		}

		s.run()

		if err := a.pdf.Error(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFatalAssembly, s.name, err)
		}
		if progress != nil {
			progress(percent(i+1, len(steps)))
		}
	}

	pageCount := a.pdf.PageCount()

	var buf bytes.Buffer
	if err := a.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: output: %w", ErrFatalAssembly, err)
	}

	log.Info().
		Str("book_id", book.Book.ID).
		Int("pages", pageCount).
		Int("bytes", buf.Len()).
		Msg("[PDFGenerator] book assembled")

	return &Result{
		FileName:  utils.ExportFileName(book.Book.Title),
		PageCount: pageCount,
		Data:      buf.Bytes(),
	}, nil
}

func (g *Generator) newAssembly(ctx context.Context, book *HydratedBook) *assembly {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pageWidth, Ht: pageHeight},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(book.Book.Title, true)
	pdf.SetAuthor(book.Book.Author, true)
	pdf.SetCreator("storybook-backend", false)
	// cùng input → cùng bytes
	pdf.SetCreationDate(book.Book.CreatedAt)
	pdf.SetModificationDate(book.Book.CreatedAt)
	pdf.SetCatalogSort(true)

	a := &assembly{
		ctx:       ctx,
		pdf:       pdf,
		tr:        pdf.UnicodeTranslatorFromDescriptor(""),
		source:    g.source,
		renderer:  g.renderer,
		processor: g.processor,
		cfg:       g.cfg,
		grid:      newGalleryGrid(g.cfg.GalleryPerPage),
		book:      book,
		images:    make(map[string]*registeredImage),
	}

	pdf.SetFooterFunc(func() {
		if !a.numbered {
			return
		}
		a.pdf.SetFont(fontFamily, "", captionSize)
		a.pdf.SetTextColor(footerColor.r, footerColor.g, footerColor.b)
		a.centered(pageHeight-footerOffset, strconv.Itoa(a.pdf.PageNo()))
	})

	return a
}

func (a *assembly) steps() []step {
	steps := []step{
		{"cover", a.cover},
		{"blank", a.blank},
		{"title", a.titlePage},
		{"blank", a.blank},
		{"dedication", a.dedication},
		{"intro", a.intro},
		{"contents", a.contents},
	}
	for i := range a.book.Chapters {
		steps = append(steps,
			step{fmt.Sprintf("chapter %d title", i), func() { a.chapterTitle(i) }},
			step{fmt.Sprintf("chapter %d content", i), func() { a.chapterContent(i) }},
			step{fmt.Sprintf("chapter %d gallery", i), func() { a.chapterGallery(i) }},
		)
	}
	return append(steps, step{"thank you", a.thankYou})
}

func percent(done, total int) int {
	return int(math.Round(float64(done) / float64(total) * 100))
}

func (a *assembly) newPage(numbered bool) {
	// footer của trang trước chạy bên trong AddPage, nên flag được set sau
	a.pdf.AddPage()
	a.numbered = numbered
}

// ==================== FRONT MATTER ====================

func (a *assembly) cover() {
	a.newPage(false)
	book := a.book.Book

	if img := a.image(model.Deref(book.CoverImage)); img != nil {
		a.fullBleed(img, 0.5)
	} else {
		a.pdf.SetFillColor(coverFill.r, coverFill.g, coverFill.b)
		a.pdf.Rect(0, 0, pageWidth, pageHeight, "F")
	}

	y := pageHeight * 0.7
	for _, line := range a.wrapStyled(book.Title, textStyle{"B", 32, 1.1, whiteColor}, contentWidth) {
		a.centered(y, line)
		y += 32 * 1.1
	}
	a.byline(y+15, whiteColor)
}

func (a *assembly) byline(y float64, c rgb) {
	if strings.TrimSpace(a.book.Book.Author) == "" {
		return
	}
	a.setStyle(textStyle{"", 18, 1, c})
	a.centered(y, a.encode("by "+a.book.Book.Author))
}

func (a *assembly) blank() {
	a.newPage(false)
}

func (a *assembly) titlePage() {
	a.newPage(false)

	y := pageHeight/2 - 40
	for _, line := range a.wrapStyled(a.book.Book.Title, textStyle{"B", 28, 1.2, titleColor}, contentWidth) {
		a.centered(y, line)
		y += 28 * 1.2
	}
	a.byline(y+20, titleColor)
}

func (a *assembly) dedication() {
	if !a.book.Book.HasDedication() {
		return
	}
	a.newPage(false)

	a.setStyle(textStyle{"I", 14, 1, titleColor})
	a.centered(80, "Dedication")

	a.y = 110
	lines := a.wrapStyled(a.plain(a.book.Book.Dedication), bodyStyle, contentWidth-40)
	a.flow(lines, bodyStyle, 0, true)
}

func (a *assembly) intro() {
	if !a.book.Book.HasIntro() {
		return
	}
	a.newPage(true)

	a.setStyle(textStyle{"B", titleSize, 1.2, titleColor})
	a.centered(margin+10, "Introduction")

	a.y = margin + 45
	lines := a.wrapStyled(a.plain(a.book.Book.Intro), bodyStyle, contentWidth)
	a.flow(lines, bodyStyle, margin, false)
}

// contents in mục lục có link tới trang tiêu đề của từng chapter. Số trang
// chưa biết lúc này nên dùng alias, được thay khi chapter title page được vẽ.
func (a *assembly) contents() {
	chapters := a.book.Chapters
	if len(chapters) == 0 {
		return
	}
	a.newPage(false)

	a.setStyle(textStyle{"B", titleSize, 1.2, titleColor})
	a.centered(margin+10, "Contents")
	a.y = margin + 50

	label := textStyle{"", 9, 1.4, footerColor}
	title := textStyle{"B", 12, 1.3, titleColor}
	lede := textStyle{"I", 9, 1.4, quoteColor}
	textWidth := contentWidth - 40

	a.links = make([]int, len(chapters))
	for i, hc := range chapters {
		titleLines := a.wrapStyled(hc.Chapter.Title, title, textWidth)
		var ledeLines []string
		if hc.Chapter.Lede != nil {
			ledeLines = a.wrapStyled(*hc.Chapter.Lede, lede, textWidth)
		}

		height := 9*1.4 + float64(len(titleLines))*12*1.3 + float64(len(ledeLines))*9*1.4
		if a.y+height > contentBottom {
			a.newPage(false)
			a.y = margin + 10
		}
		top := a.y

		a.setStyle(label)
		a.pdf.Text(margin, a.y, a.encode(fmt.Sprintf("Chapter %d", hc.Chapter.Number)))
		a.pdf.Text(pageWidth-margin-20, a.y, pageAlias(i))
		a.y += 9 * 1.4

		a.flow(titleLines, title, margin, false)
		a.flow(ledeLines, lede, margin, false)

		a.links[i] = a.pdf.AddLink()
		a.pdf.Link(margin, top-9, contentWidth, a.y-top, a.links[i])
		a.y += 10
	}
}

func pageAlias(i int) string {
	return fmt.Sprintf("{toc:%d}", i)
}

// ==================== CHAPTERS ====================

func (a *assembly) chapterTitle(i int) {
	// trang tiêu đề chapter luôn bắt đầu sau một số trang lẻ
	if a.pdf.PageCount()%2 == 0 {
		a.newPage(false)
		a.logo((pageHeight-40)/2, 80, 40)
	}
	a.newPage(false)

	if i < len(a.links) {
		a.pdf.SetLink(a.links[i], 0, -1)
		a.pdf.RegisterAlias(pageAlias(i), strconv.Itoa(a.pdf.PageNo()))
	}

	ch := a.book.Chapters[i].Chapter
	label := a.encode(fmt.Sprintf("Chapter %d", ch.Number))

	if img := a.image(model.Deref(ch.Image)); img != nil {
		a.fullBleed(img, 0.4)

		y := pageHeight * 0.65
		a.setStyle(textStyle{"", 14, 1, whiteColor})
		a.centered(y, label)
		y += 20

		for _, line := range a.wrapStyled(ch.Title, textStyle{"B", titleSize, 1.2, whiteColor}, contentWidth-40) {
			a.centered(y, line)
			y += titleSize * 1.2
		}
		if ch.Lede != nil {
			y += 15
			for _, line := range a.wrapStyled(*ch.Lede, textStyle{"I", 12, 1.4, whiteColor}, contentWidth-60) {
				a.centered(y, line)
				y += 12 * 1.4
			}
		}
		return
	}

	y := pageHeight * 0.4
	a.setStyle(textStyle{"", 14, 1, footerColor})
	a.centered(y, label)
	y += 25

	for _, line := range a.wrapStyled(ch.Title, textStyle{"B", titleSize, 1.2, titleColor}, contentWidth-40) {
		a.centered(y, line)
		y += titleSize * 1.2
	}
	if ch.Lede != nil {
		y += 15
		for _, line := range a.wrapStyled(*ch.Lede, textStyle{"I", 12, 1.4, quoteColor}, contentWidth-40) {
			a.centered(y, line)
			y += 12 * 1.4
		}
	}
}

// chapterContent: mỗi Page record bắt đầu ở trang mới. Ảnh (nếu có) chiếm
// riêng một trang cùng caption, phần chữ bắt đầu ở trang kế tiếp.
func (a *assembly) chapterContent(i int) {
	for _, page := range a.book.Chapters[i].Pages {
		a.newPage(true)
		a.y = margin

		if img := a.image(model.Deref(page.Image)); img != nil {
			var caption []string
			if page.ImageCaption != nil {
				caption = a.wrapStyled(*page.ImageCaption, captionStyle, contentWidth)
			}

			// ảnh co lại để caption vẫn nằm cùng trang
			maxH := contentBottom - a.y - 12 - float64(len(caption))*captionSize*captionLineH
			if maxH < minImageHeight {
				maxH = minImageHeight
			}
			w, h := fitBox(img.w, img.h, contentWidth, maxH)
			a.draw(img, (pageWidth-w)/2, a.y, w, h)
			a.y += h + 12

			a.flow(caption, captionStyle, 0, true)

			a.newPage(true)
			a.y = margin
		}

		if page.Subheading != nil {
			a.flow(a.wrapStyled(*page.Subheading, subheadingStyle, contentWidth), subheadingStyle, margin, false)
			a.y += 8
		}

		if quote := a.plain(page.Quote); quote != "" {
			a.flow(a.wrapStyled(quote, quoteStyle, contentWidth-20), quoteStyle, margin+10, false)
			if attr := strings.TrimSpace(model.Deref(page.QuoteAttribute)); attr != "" {
				a.y += 5
				a.flow([]string{a.encode("— " + attr)}, attributeStyle, margin+10, false)
				a.y += 5
			}
			a.y += 8
		}

		if content := a.plain(page.Content); content != "" {
			a.flow(a.wrapStyled(content, bodyStyle, contentWidth), bodyStyle, margin, false)
		}
	}
}

// chapterGallery: lưới 2 cột, caption đánh số theo thứ tự trong cả gallery
// của chapter. Ảnh lỗi để trống ô và bỏ luôn caption.
func (a *assembly) chapterGallery(i int) {
	items := a.book.Chapters[i].Gallery
	grid := a.grid

	for start := 0; start < len(items); start += grid.perPage {
		end := start + grid.perPage
		if end > len(items) {
			end = len(items)
		}
		a.newPage(true)

		var captions []string
		for k, item := range items[start:end] {
			img := a.image(item.ImageURL)
			if img == nil {
				continue
			}

			col, row := k%galleryColumns, k/galleryColumns
			cellX := margin + float64(col)*(grid.cellW+gallerySpacing)
			cellY := margin + float64(row)*(grid.cellH+gallerySpacing)
			w, h := fitBox(img.w, img.h, grid.cellW, grid.cellH)
			a.draw(img, cellX+(grid.cellW-w)/2, cellY, w, h)

			if c := galleryCaptionText(start+k+1, item); c != "" {
				captions = append(captions, c)
			}
		}

		a.setStyle(galleryCaption)
		y := pageHeight - galleryCaptionArea + 10
	captionLoop:
		for _, c := range captions {
			for _, line := range a.wrap(c, contentWidth) {
				if y > pageHeight-25 {
					break captionLoop
				}
				a.pdf.Text(margin, y, line)
				y += captionSize * captionLineH
			}
			y += 2
		}
	}
}

func galleryCaptionText(n int, item model.GalleryItem) string {
	title := strings.TrimSpace(model.Deref(item.Title))
	caption := strings.TrimSpace(model.Deref(item.Caption))

	switch {
	case title != "" && caption != "":
		return fmt.Sprintf("%d. %s: %s", n, title, caption)
	case title != "":
		return fmt.Sprintf("%d. %s", n, title)
	case caption != "":
		return fmt.Sprintf("%d. %s", n, caption)
	}
	return ""
}

// ==================== BACK MATTER ====================

func (a *assembly) thankYou() {
	a.newPage(false)

	centerY := pageHeight/2 - 60
	a.logo(centerY-80, 120, 60)

	a.setStyle(textStyle{"B", 18, 1.3, titleColor})
	y := centerY
	for _, line := range strings.Split(thankYouText, "\n") {
		a.centered(y, a.encode(line))
		y += 18 * 1.3
	}
}
