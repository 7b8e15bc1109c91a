package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App         AppConfig
	Redis       RedisConfig
	MinIO       MinIOConfig
	RecordStore RecordStoreConfig
	Reader      ReaderConfig
	PDF         PDFConfig
	Export      ExportConfig
	Worker      WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	CORSOrigins []string
}

type RedisConfig struct {
	Host      string
	Password  string
	DB        int
	KeyPrefix string
}

type MinIOConfig struct {
	Endpoint  string // localhost:9000
	AccessKey string // minioadmin
	SecretKey string // minioadmin
	Bucket    string // storybook
	UseSSL    bool   // false for local
}

// RecordStoreConfig chọn backend cho record store.
// memory + fixture dùng cho local dev không cần Postgres.
type RecordStoreConfig struct {
	Driver      string
	FixturePath string
}

type ReaderConfig struct {
	CacheTTL     time.Duration // cache kết quả loader (pages/gallery)
	SessionTTL   time.Duration // reading session idle timeout
	FetchTimeout time.Duration // timeout cho mỗi lần load chapter
}

type PDFConfig struct {
	LogoURL        string
	GalleryPerPage int
	ImageTimeout   time.Duration
	MaxImageBytes  int64
}

type ExportConfig struct {
	Queue     string
	StatusTTL time.Duration // thời gian giữ trạng thái job trong redis
	Retention time.Duration // file PDF cũ hơn sẽ bị cleanup job xóa
	MaxRetry  int
}

type WorkerConfig struct {
	Concurrency     int
	HealthCheckPort string
	CleanupCron     string
}

// Load đọc config từ environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Storybook API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
		},
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "storybook"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("MINIO_BUCKET", "storybook"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		RecordStore: RecordStoreConfig{
			Driver:      strings.ToLower(getEnv("RECORD_STORE", StoreDriverPostgres)),
			FixturePath: getEnv("RECORD_STORE_FIXTURE", ""),
		},
		Reader: ReaderConfig{
			CacheTTL:     getEnvDuration("READER_CACHE_TTL", 5*time.Minute),
			SessionTTL:   getEnvDuration("READER_SESSION_TTL", 2*time.Hour),
			FetchTimeout: getEnvDuration("READER_FETCH_TIMEOUT", 10*time.Second),
		},
		PDF: PDFConfig{
			LogoURL:        getEnv("PDF_LOGO_URL", ""),
			GalleryPerPage: getEnvInt("GALLERY_IMAGES_PER_PAGE", 6),
			ImageTimeout:   getEnvDuration("PDF_IMAGE_TIMEOUT", 15*time.Second),
			MaxImageBytes:  int64(getEnvInt("PDF_MAX_IMAGE_MB", 15)) * 1024 * 1024,
		},
		Export: ExportConfig{
			Queue:     getEnv("EXPORT_QUEUE", "export"),
			StatusTTL: getEnvDuration("EXPORT_STATUS_TTL", 24*time.Hour),
			Retention: getEnvDuration("EXPORT_RETENTION", 72*time.Hour),
			MaxRetry:  getEnvInt("EXPORT_MAX_RETRY", 2),
		},
		Worker: WorkerConfig{
			Concurrency:     getEnvInt("WORKER_CONCURRENCY", 4),
			HealthCheckPort: getEnv("WORKER_HEALTH_PORT", "9999"),
			CleanupCron:     getEnv("EXPORT_CLEANUP_CRON", "0 3 * * *"),
		},
	}

	// Validate critical config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không
func (c *Config) Validate() error {
	err := validation.Errors{
		"app": validation.ValidateStruct(&c.App,
			validation.Field(&c.App.Environment, validation.Required, validation.In("development", "staging", "production", "test")),
			validation.Field(&c.App.Port, validation.Required, is.Port),
		),
		"record_store": validation.ValidateStruct(&c.RecordStore,
			validation.Field(&c.RecordStore.Driver, validation.Required, validation.In(StoreDriverPostgres, StoreDriverMemory)),
		),
		"reader": validation.ValidateStruct(&c.Reader,
			validation.Field(&c.Reader.CacheTTL, validation.Min(time.Duration(0))),
			validation.Field(&c.Reader.SessionTTL, validation.Required, validation.Min(time.Minute)),
			validation.Field(&c.Reader.FetchTimeout, validation.Required),
		),
		"pdf": validation.ValidateStruct(&c.PDF,
			validation.Field(&c.PDF.GalleryPerPage, validation.Required, validation.Min(2), validation.Max(12)),
			validation.Field(&c.PDF.LogoURL, is.URL),
			validation.Field(&c.PDF.ImageTimeout, validation.Required),
		),
		"export": validation.ValidateStruct(&c.Export,
			validation.Field(&c.Export.Queue, validation.Required),
			validation.Field(&c.Export.Retention, validation.Required, validation.Min(time.Hour)),
		),
		"worker": validation.ValidateStruct(&c.Worker,
			validation.Field(&c.Worker.Concurrency, validation.Required, validation.Min(1)),
		),
	}.Filter()
	if err != nil {
		return err
	}

	// Production không được dùng credentials mặc định
	if c.App.Environment == "production" {
		if c.MinIO.SecretKey == "minioadmin" {
			return fmt.Errorf("MINIO_SECRET_KEY must be set in production")
		}
		if c.RecordStore.Driver == StoreDriverMemory {
			return fmt.Errorf("RECORD_STORE=memory is not allowed in production")
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
