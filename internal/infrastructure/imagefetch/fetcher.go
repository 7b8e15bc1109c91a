package imagefetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrTooLarge = errors.New("image exceeds size limit")

// ObjectReader đọc object từ bucket của mình (MinIO)
type ObjectReader interface {
	Download(ctx context.Context, key string) ([]byte, error)
}

// Fetcher tải ảnh theo URL. URL http(s) đi qua HTTP client; còn lại coi là
// object key trong bucket (ảnh upload qua admin được lưu dạng key).
type Fetcher struct {
	client   *http.Client
	objects  ObjectReader
	maxBytes int64
}

func NewFetcher(timeout time.Duration, maxBytes int64, objects ObjectReader) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: timeout},
		objects:  objects,
		maxBytes: maxBytes,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("empty image url")
	}

	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return f.fetchHTTP(ctx, url)
	}

	if f.objects == nil {
		return nil, fmt.Errorf("unsupported image url %q", url)
	}
	data, err := f.objects.Download(ctx, strings.TrimPrefix(url, "/"))
	if err != nil {
		return nil, fmt.Errorf("download object %s: %w", url, err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		// đọc dư 1 byte để phát hiện vượt limit
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
