package pdfbook

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"
)

// ImageSource tải bytes ảnh theo URL hoặc object key
type ImageSource interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type registeredImage struct {
	name string
	w, h float64
}

var jpgOptions = gofpdf.ImageOptions{ImageType: "JPG"}

// image load + register ảnh một lần cho mỗi URL. Lỗi được log và cache
// lại (nil) để ảnh dùng nhiều lần như logo không bị fetch lại.
func (a *assembly) image(url string) *registeredImage {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	if img, ok := a.images[url]; ok {
		return img
	}

	img, err := a.loadImage(url)
	if err != nil {
		log.Warn().Err(err).Str("url", url).Msg("[PDFGenerator] image skipped")
	}
	a.images[url] = img
	return img
}

func (a *assembly) loadImage(url string) (*registeredImage, error) {
	data, err := a.source.Fetch(a.ctx, url)
	if err != nil {
		return nil, err
	}

	processed, err := a.processor.Normalize(data)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("img%d", len(a.images))
	if err := a.register(name, processed.Data); err != nil {
		return nil, err
	}

	return &registeredImage{name: name, w: float64(processed.Width), h: float64(processed.Height)}, nil
}

// register nạp JPEG vào document. gofpdf giữ lỗi trên document, phải clear
// để lỗi của một ảnh không làm hỏng các step sau.
func (a *assembly) register(name string, jpeg []byte) error {
	a.pdf.RegisterImageOptionsReader(name, jpgOptions, bytes.NewReader(jpeg))
	if err := a.pdf.Error(); err != nil {
		a.pdf.ClearError()
		return fmt.Errorf("register image: %w", err)
	}
	return nil
}

func (a *assembly) draw(img *registeredImage, x, y, w, h float64) {
	a.pdf.ImageOptions(img.name, x, y, w, h, false, jpgOptions, 0, "")
}

// fullBleed phủ ảnh kín trang rồi phủ một lớp đen có alpha lên trên
func (a *assembly) fullBleed(img *registeredImage, overlay float64) {
	x, y, w, h := coverBox(img.w, img.h)
	a.draw(img, x, y, w, h)

	a.pdf.SetAlpha(overlay, "Normal")
	a.pdf.SetFillColor(0, 0, 0)
	a.pdf.Rect(0, 0, pageWidth, pageHeight, "F")
	a.pdf.SetAlpha(1, "Normal")
}

// logo vẽ logo vừa box w x h, căn giữa ngang tại y. Không có logo thì bỏ qua.
func (a *assembly) logo(y, boxW, boxH float64) {
	img := a.image(a.cfg.LogoURL)
	if img == nil {
		return
	}
	w, h := fitBox(img.w, img.h, boxW, boxH)
	a.draw(img, (pageWidth-w)/2, y+(boxH-h)/2, w, h)
}
