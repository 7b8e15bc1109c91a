package pdfbook

// Khổ 5.5 x 8.5 inch, đơn vị pt
const (
	pageWidth    = 396.0
	pageHeight   = 612.0
	margin       = 30.0
	contentWidth = pageWidth - 2*margin

	footerOffset = 20.0
	// dòng nào có baseline vượt quá giới hạn này thì sang trang
	contentBottom = pageHeight - 60.0
)

const (
	fontFamily = "Helvetica"

	bodySize       = 10.0
	bodyLineHeight = 1.5
	titleSize      = 21.0
	captionSize    = 8.0
	captionLineH   = 1.4
	subheadingSize = 16.0

	// caption quá dài thì ảnh không nhỏ hơn mức này, caption tràn sang trang sau
	minImageHeight = 80.0
)

type rgb struct{ r, g, b int }

var (
	bodyColor    = rgb{51, 51, 51}
	titleColor   = rgb{0, 0, 0}
	captionColor = rgb{80, 80, 80}
	quoteColor   = rgb{60, 60, 60}
	footerColor  = rgb{100, 100, 100}
	whiteColor   = rgb{255, 255, 255}
	coverFill    = rgb{30, 41, 59}
)

const (
	galleryColumns     = 2
	gallerySpacing     = 10.0
	galleryCaptionArea = 80.0
	galleryMinCell     = 80.0

	DefaultGalleryPerPage = 6
)

const thankYouText = "Thank you for reading my\nLasting Legacy Online Story"

// Config cho một lần render
type Config struct {
	// LogoURL dùng cho trang trắng chẵn/lẻ và trang cảm ơn. Rỗng = không có logo.
	LogoURL        string
	GalleryPerPage int
}

// galleryGrid tính số ảnh mỗi trang và kích thước ô. Nếu ô thấp hơn
// galleryMinCell thì giảm số hàng cho tới khi đủ.
type galleryGrid struct {
	perPage int
	rows    int
	cellW   float64
	cellH   float64
}

func newGalleryGrid(perPage int) galleryGrid {
	if perPage <= 0 {
		perPage = DefaultGalleryPerPage
	}
	available := pageHeight - 2*margin - galleryCaptionArea

	rows := (perPage + galleryColumns - 1) / galleryColumns
	if available/float64(rows)-gallerySpacing < galleryMinCell {
		rows = int(available / (galleryMinCell + gallerySpacing))
		if rows < 1 {
			rows = 1
		}
		perPage = rows * galleryColumns
	}

	return galleryGrid{
		perPage: perPage,
		rows:    rows,
		cellW:   (contentWidth - gallerySpacing) / galleryColumns,
		cellH:   available/float64(rows) - gallerySpacing,
	}
}

// fitBox scale ảnh giữ tỉ lệ để nằm trong maxW x maxH
func fitBox(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}

// coverBox scale để phủ kín toàn trang, căn giữa, phần thừa bị cắt
func coverBox(w, h float64) (x, y, sw, sh float64) {
	scale := pageWidth / w
	if s := pageHeight / h; s > scale {
		scale = s
	}
	sw, sh = w*scale, h*scale
	return (pageWidth - sw) / 2, (pageHeight - sh) / 2, sw, sh
}
