package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// ProcessedImage là ảnh đã chuẩn hóa: JPEG, không alpha, cạnh dài <= MaxDimension
type ProcessedImage struct {
	Data   []byte
	Width  int
	Height int
}

type ImageProcessor struct {
	MaxSize      int64 // bytes (default: 15MB)
	MaxDimension int   // px cạnh dài nhất sau khi resize
	Quality      int
}

func NewImageProcessor(maxSize int64) *ImageProcessor {
	if maxSize <= 0 {
		maxSize = 15 * 1024 * 1024
	}
	return &ImageProcessor{MaxSize: maxSize, MaxDimension: 1600, Quality: 85}
}

// Check JPEG/PNG/GIF, throw err nếu file > max size
func (p *ImageProcessor) ValidateImage(data []byte) error {
	if int64(len(data)) > p.MaxSize {
		return fmt.Errorf("image exceeds %dMB", p.MaxSize/(1024*1024))
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("not an image: %w", err)
	}
	switch format {
	case "jpeg", "png", "gif":
		return nil
	default:
		return fmt.Errorf("image format %s not allowed (only jpeg/png/gif)", format)
	}
}

// Normalize: validate → decode → fit MaxDimension → nền trắng cho ảnh có alpha → JPEG
func (p *ImageProcessor) Normalize(data []byte) (*ProcessedImage, error) {
	if err := p.ValidateImage(data); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > p.MaxDimension || b.Dy() > p.MaxDimension {
		img = imaging.Fit(img, p.MaxDimension, p.MaxDimension, imaging.Lanczos)
		b = img.Bounds()
	}

	// JPEG không có alpha: PNG trong suốt sẽ thành nền đen nếu không flatten
	flat := imaging.New(b.Dx(), b.Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, flat, &jpeg.Options{Quality: p.Quality}); err != nil {
		return nil, fmt.Errorf("cannot encode jpeg: %w", err)
	}

	return &ProcessedImage{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}
