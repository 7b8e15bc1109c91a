package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestNormalize_FitsAndEncodesJPEG(t *testing.T) {
	p := NewImageProcessor(0)
	p.MaxDimension = 400

	out, err := p.Normalize(encodePNG(t, 800, 200, color.NRGBA{R: 200, A: 255}))
	require.NoError(t, err)
	assert.Equal(t, 400, out.Width)
	assert.Equal(t, 100, out.Height)

	_, format, err := image.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestNormalize_SmallImageKeepsSize(t *testing.T) {
	p := NewImageProcessor(0)

	out, err := p.Normalize(encodePNG(t, 30, 20, color.NRGBA{G: 255, A: 255}))
	require.NoError(t, err)
	assert.Equal(t, 30, out.Width)
	assert.Equal(t, 20, out.Height)
}

func TestNormalize_TransparentBecomesWhite(t *testing.T) {
	p := NewImageProcessor(0)

	out, err := p.Normalize(encodePNG(t, 10, 10, color.NRGBA{}))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestValidateImage(t *testing.T) {
	p := NewImageProcessor(1024)

	assert.Error(t, p.ValidateImage([]byte("not an image")))
	assert.ErrorContains(t, p.ValidateImage(make([]byte, 2048)), "exceeds")
	assert.NoError(t, p.ValidateImage(encodePNG(t, 4, 4, color.Black)))
}
