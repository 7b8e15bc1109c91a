package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"storybook-backend/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// MinIOStorage lưu file PDF export và đọc ảnh upload (object key) cho PDF pipeline
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage khởi tạo MinIO client và tạo bucket nếu chưa có
func NewMinIOStorage(ctx context.Context, cfg config.MinIOConfig) (*MinIOStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL, // false cho local, true cho production
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info().Str("bucket", cfg.Bucket).Msg("[MINIO] bucket created")
	}

	return &MinIOStorage{client: client, bucket: cfg.Bucket}, nil
}

// Upload ghi object và trả về key đã lưu
// key: đường dẫn trong bucket (vd: exports/<job_id>/rosa.pdf)
func (s *MinIOStorage) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload to minio: %w", err)
	}
	return key, nil
}

func (s *MinIOStorage) Download(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer object.Close()

	// GetObject lazy: lỗi not found chỉ xuất hiện khi đọc
	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return data, nil
}

// RemoveOlderThan xóa mọi object dưới prefix có LastModified trước cutoff.
// Trả về số object đã xóa.
func (s *MinIOStorage) RemoveOlderThan(ctx context.Context, prefix string, cutoff time.Time) (int, error) {
	var stale []string
	for object := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return 0, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		if object.LastModified.Before(cutoff) {
			stale = append(stale, object.Key)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(stale))
	for _, key := range stale {
		objectsCh <- minio.ObjectInfo{Key: key}
	}
	close(objectsCh)

	for rmErr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rmErr.Err != nil {
			return 0, fmt.Errorf("failed to remove %s: %w", rmErr.ObjectName, rmErr.Err)
		}
	}
	return len(stale), nil
}

// Ping dùng cho health check
func (s *MinIOStorage) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucket); err != nil {
		return fmt.Errorf("minio unreachable: %w", err)
	}
	return nil
}
