package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.RecordStore.Driver)
	assert.Equal(t, 6, cfg.PDF.GalleryPerPage)
	assert.Equal(t, 5*time.Minute, cfg.Reader.CacheTTL)
	assert.Equal(t, []string{"*"}, cfg.App.CORSOrigins)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("RECORD_STORE", "Memory")
	t.Setenv("RECORD_STORE_FIXTURE", "fixtures/sample_book.yaml")
	t.Setenv("GALLERY_IMAGES_PER_PAGE", "4")
	t.Setenv("READER_CACHE_TTL", "30s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.RecordStore.Driver)
	assert.Equal(t, 4, cfg.PDF.GalleryPerPage)
	assert.Equal(t, 30*time.Second, cfg.Reader.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.App.CORSOrigins)
	assert.True(t, cfg.MinIO.UseSSL)
}

func TestLoad_InvalidValuesFallBackOrFail(t *testing.T) {
	t.Run("unparsable duration uses default", func(t *testing.T) {
		t.Setenv("READER_SESSION_TTL", "soon")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 2*time.Hour, cfg.Reader.SessionTTL)
	})

	t.Run("unknown store driver", func(t *testing.T) {
		t.Setenv("RECORD_STORE", "mongo")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("gallery grid too large", func(t *testing.T) {
		t.Setenv("GALLERY_IMAGES_PER_PAGE", "40")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("production rejects default minio secret", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		_, err := Load()
		assert.ErrorContains(t, err, "MINIO_SECRET_KEY")
	})
}

func TestLoadDatabaseConfig(t *testing.T) {
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_RETRY_DELAY", "250ms")

	cfg, err := LoadDatabaseConfig()
	require.NoError(t, err)
	assert.Equal(t, 6543, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)

	t.Setenv("DB_CONNECT_TIMEOUT", "never")
	_, err = LoadDatabaseConfig()
	assert.ErrorContains(t, err, "DB_CONNECT_TIMEOUT")
}
