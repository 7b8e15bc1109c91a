package pdfbook

import (
	"strings"

	"storybook-backend/internal/shared/utils"
)

type textStyle struct {
	style      string
	size       float64
	lineHeight float64
	color      rgb
}

var (
	bodyStyle       = textStyle{"", bodySize, bodyLineHeight, bodyColor}
	quoteStyle      = textStyle{"I", bodySize, bodyLineHeight, quoteColor}
	attributeStyle  = textStyle{"", bodySize, bodyLineHeight, quoteColor}
	subheadingStyle = textStyle{"B", subheadingSize, 1.3, titleColor}
	captionStyle    = textStyle{"I", captionSize, captionLineH, captionColor}
	galleryCaption  = textStyle{"", captionSize, captionLineH, captionColor}
)

func (a *assembly) setStyle(s textStyle) {
	a.pdf.SetFont(fontFamily, s.style, s.size)
	a.pdf.SetTextColor(s.color.r, s.color.g, s.color.b)
}

// encode đưa text về cp1252 cho core font. Ký tự tiếng Việt ngoài
// Latin-1 bị bỏ dấu trước, phần còn lại do translator của gofpdf xử lý.
func (a *assembly) encode(s string) string {
	folded := strings.Map(func(r rune) rune {
		if r > 0xFF {
			return utils.FoldRune(r)
		}
		return r
	}, s)
	return a.tr(folded)
}

// wrap chia text thành các dòng vừa width theo font hiện tại.
// "\n" luôn xuống dòng; dòng rỗng được giữ làm khoảng cách đoạn.
func (a *assembly) wrap(s string, width float64) []string {
	var lines []string
	for _, para := range strings.Split(strings.TrimSpace(s), "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			lines = append(lines, "")
			continue
		}
		for _, l := range a.pdf.SplitLines([]byte(a.encode(para)), width) {
			lines = append(lines, string(l))
		}
	}
	return lines
}

// wrapStyled set style rồi wrap, vì độ rộng ký tự phụ thuộc font
func (a *assembly) wrapStyled(s string, st textStyle, width float64) []string {
	a.setStyle(st)
	return a.wrap(s, width)
}

func (a *assembly) centered(y float64, line string) {
	a.pdf.Text((pageWidth-a.pdf.GetStringWidth(line))/2, y, line)
}

// flow viết lines từ a.y. Tràn contentBottom thì sang trang mới cùng kiểu
// đánh số với trang hiện tại và viết tiếp từ margin.
func (a *assembly) flow(lines []string, st textStyle, x float64, center bool) {
	a.setStyle(st)
	for _, line := range lines {
		if a.y > contentBottom {
			a.newPage(a.numbered)
			a.y = margin
			a.setStyle(st)
		}
		if line != "" {
			if center {
				a.centered(a.y, line)
			} else {
				a.pdf.Text(x, a.y, line)
			}
		}
		a.y += st.size * st.lineHeight
	}
}

// plain flatten markdown; field rỗng trả ""
func (a *assembly) plain(markdown *string) string {
	if markdown == nil {
		return ""
	}
	return a.renderer.FlattenToPlainText(*markdown)
}
