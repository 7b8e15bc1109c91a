package imagefetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapObjects map[string][]byte

func (m mapObjects) Download(_ context.Context, key string) ([]byte, error) {
	if b, ok := m[key]; ok {
		return b, nil
	}
	return nil, errors.New("no such key")
}

func TestFetcher_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			_, _ = w.Write([]byte("jpegbytes"))
		case "/big.jpg":
			_, _ = w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewFetcher(time.Second, 32, nil)

	data, err := f.Fetch(context.Background(), srv.URL+"/ok.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpegbytes", string(data))

	_, err = f.Fetch(context.Background(), srv.URL+"/big.jpg")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.jpg")
	assert.ErrorContains(t, err, "404")
}

func TestFetcher_ObjectKeys(t *testing.T) {
	f := NewFetcher(time.Second, 0, mapObjects{"books/b1/cover.jpg": []byte("cover")})

	data, err := f.Fetch(context.Background(), "/books/b1/cover.jpg")
	require.NoError(t, err)
	assert.Equal(t, "cover", string(data))

	_, err = f.Fetch(context.Background(), "books/none.jpg")
	assert.Error(t, err)

	_, err = NewFetcher(time.Second, 0, nil).Fetch(context.Background(), "books/b1/cover.jpg")
	assert.ErrorContains(t, err, "unsupported")

	_, err = f.Fetch(context.Background(), "  ")
	assert.Error(t, err)
}
