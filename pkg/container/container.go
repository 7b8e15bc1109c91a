package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"storybook-backend/internal/config"
	bookHandler "storybook-backend/internal/domains/book/handler"
	bookRepo "storybook-backend/internal/domains/book/repository"
	bookService "storybook-backend/internal/domains/book/service"
	exportHandler "storybook-backend/internal/domains/export/handler"
	"storybook-backend/internal/domains/export/pdfbook"
	exportRepo "storybook-backend/internal/domains/export/repository"
	exportService "storybook-backend/internal/domains/export/service"
	readerHandler "storybook-backend/internal/domains/reader/handler"
	"storybook-backend/internal/domains/reader/loader"
	"storybook-backend/internal/domains/reader/machine"
	readerService "storybook-backend/internal/domains/reader/service"
	infraCache "storybook-backend/internal/infrastructure/cache"
	"storybook-backend/internal/infrastructure/database"
	"storybook-backend/internal/infrastructure/imagefetch"
	"storybook-backend/internal/infrastructure/recordstore"
	"storybook-backend/internal/infrastructure/storage"
	"storybook-backend/internal/render"
	"storybook-backend/pkg/cache"

	"github.com/hibiken/asynq"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa tất cả dependencies của API server và worker.
// Cả hai binary dùng chung dependency graph, worker chỉ dùng phần export.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB // nil khi RECORD_STORE=memory
	Store       recordstore.Store
	Cache       cache.Cache // Redis, hoặc memory cache khi Redis không có (dev)
	MinIO       *storage.MinIOStorage
	AsynqClient *asynq.Client // nil => export bị tắt
	Images      *imagefetch.Fetcher
	Renderer    render.Renderer

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	BookRepo   bookRepo.RepositoryInterface
	Loader     *loader.Loader
	StatusRepo *exportRepo.StatusRepository

	// ========================================
	// SERVICE LAYER
	// ========================================
	BookService    *bookService.BookService
	SessionService *readerService.SessionService
	PDFGenerator   *pdfbook.Generator
	ExportService  *exportService.ExportService

	// ========================================
	// HANDLER LAYER
	// ========================================
	BookHandler   *bookHandler.Handler
	ReaderHandler *readerHandler.Handler
	ExportHandler *exportHandler.Handler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer build toàn bộ dependency graph.
//
// Thứ tự:
// 1. Config
// 2. Infrastructure (record store, cache, MinIO, queue client)
// 3. Repositories
// 4. Services
// 5. Handlers
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	log.Println("📋 Loading configuration...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (env: %s, record store: %s)", cfg.App.Environment, cfg.RecordStore.Driver)

	// ========================================
	// STEP 2: RECORD STORE
	// ========================================
	if err := c.initRecordStore(); err != nil {
		c.Cleanup()
		return nil, err
	}

	// ========================================
	// STEP 3: CACHE + QUEUE CLIENT
	// ========================================
	log.Println("🔴 Connecting to Redis...")
	c.initCache()

	// ========================================
	// STEP 4: OBJECT STORAGE
	// ========================================
	log.Println("🪣 Connecting to MinIO...")
	if err := c.initStorage(); err != nil {
		c.Cleanup()
		return nil, err
	}

	c.Images = newImageFetcher(cfg, c.MinIO)
	c.Renderer = render.NewMarkdown()

	// ========================================
	// STEP 5: INITIALIZE REPOSITORIES
	// ========================================
	log.Println("📦 Initializing repositories...")
	c.initRepositories()
	log.Println("✅ Repositories initialized")

	// ========================================
	// STEP 6: INITIALIZE SERVICES
	// ========================================
	log.Println("⚙️  Initializing services...")
	c.initServices()
	log.Println("✅ Services initialized")

	// ========================================
	// STEP 7: INITIALIZE HANDLERS
	// ========================================
	log.Println("🎯 Initializing handlers...")
	c.initHandlers()
	log.Println("✅ Handlers initialized")

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initRecordStore() error {
	cfg := c.Config

	if cfg.RecordStore.Driver == config.StoreDriverMemory {
		if cfg.RecordStore.FixturePath == "" {
			log.Println("⚠️  RECORD_STORE=memory without fixture, library is empty")
			c.Store = recordstore.NewMemoryStore()
			return nil
		}
		store, err := recordstore.LoadFixture(cfg.RecordStore.FixturePath)
		if err != nil {
			return fmt.Errorf("failed to load fixture: %w", err)
		}
		c.Store = store
		log.Printf("✅ Memory record store loaded from %s", cfg.RecordStore.FixturePath)
		return nil
	}

	log.Println("🗄️  Connecting to PostgreSQL...")
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c.DB = database.NewPostgresDB(dbConfig)
	if err := c.DB.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	if err := c.DB.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	c.Store = recordstore.NewPostgresStore(c.DB.Pool)
	log.Println("✅ PostgreSQL connected")
	return nil
}

// initCache kết nối Redis. Redis failure không critical: cache chuyển sang
// memory và export bị tắt vì asynq cần Redis.
func (c *Container) initCache() {
	cfg := c.Config

	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.KeyPrefix)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisCache.Connect(ctx); err != nil {
		log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
		log.Println("⚠️  Falling back to in-memory cache, PDF export disabled")
		_ = redisCache.Close()
		c.Cache = infraCache.NewMemoryCache()
		return
	}

	c.Cache = redisCache
	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	log.Println("✅ Redis connected")
}

// initStorage kết nối MinIO. Ở development cho phép chạy không có MinIO
// (đọc sách vẫn được, export bị tắt).
func (c *Container) initStorage() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	minioStorage, err := storage.NewMinIOStorage(ctx, c.Config.MinIO)
	if err != nil {
		if c.Config.App.Environment != "development" {
			return fmt.Errorf("failed to init minio: %w", err)
		}
		log.Printf("⚠️  MinIO unavailable (non-critical in development): %v", err)
		return nil
	}

	c.MinIO = minioStorage
	log.Println("✅ MinIO connected")
	return nil
}

func newImageFetcher(cfg *config.Config, minioStorage *storage.MinIOStorage) *imagefetch.Fetcher {
	// tránh typed-nil: không có MinIO thì chỉ hỗ trợ http(s) URL
	var objects imagefetch.ObjectReader
	if minioStorage != nil {
		objects = minioStorage
	}
	return imagefetch.NewFetcher(cfg.PDF.ImageTimeout, cfg.PDF.MaxImageBytes, objects)
}

func (c *Container) initRepositories() {
	c.BookRepo = bookRepo.NewRecordRepository(c.Store)
	c.Loader = loader.NewLoader(c.Store, c.Config.Reader.CacheTTL)
	c.StatusRepo = exportRepo.NewStatusRepository(c.Cache, c.Config.Export.StatusTTL)
}

func (c *Container) initServices() {
	cfg := c.Config

	// ----------------------------------------
	// BOOK SERVICE (library, book page, guestbook)
	// ----------------------------------------
	c.BookService = bookService.NewService(c.BookRepo, c.Cache)

	// ----------------------------------------
	// READER SESSION SERVICE
	// ----------------------------------------
	c.SessionService = readerService.NewSessionService(
		c.BookService,
		c.Loader,
		c.Renderer,
		cfg.Reader.SessionTTL,
		machine.WithFetchTimeout(cfg.Reader.FetchTimeout),
	)

	// ----------------------------------------
	// PDF EXPORT
	// ----------------------------------------
	c.PDFGenerator = pdfbook.NewGenerator(c.Images, c.Renderer, pdfbook.Config{
		LogoURL:        cfg.PDF.LogoURL,
		GalleryPerPage: cfg.PDF.GalleryPerPage,
	})

	// queue/objects nil => service trả ErrExportUnavailable
	var queue exportService.Enqueuer
	var objects exportService.ObjectStore
	if c.AsynqClient != nil && c.MinIO != nil {
		queue = c.AsynqClient
	}
	if c.MinIO != nil {
		objects = c.MinIO
	}

	c.ExportService = exportService.NewExportService(
		c.BookService,
		c.BookRepo,
		c.Loader,
		c.StatusRepo,
		objects,
		queue,
		c.PDFGenerator,
		exportService.Options{
			Queue:     cfg.Export.Queue,
			MaxRetry:  cfg.Export.MaxRetry,
			Retention: cfg.Export.Retention,
		},
	)
}

func (c *Container) initHandlers() {
	c.BookHandler = bookHandler.NewHandler(c.BookService)
	c.ReaderHandler = readerHandler.NewHandler(c.SessionService)
	c.ExportHandler = exportHandler.NewHandler(c.ExportService)
}

// ========================================
// HELPER METHODS
// ========================================

// ExportsEnabled - export cần cả Redis (queue + status) và MinIO
func (c *Container) ExportsEnabled() bool {
	return c.AsynqClient != nil && c.MinIO != nil
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("⚠️  Failed to close asynq client: %v", err)
		}
	}

	if c.DB != nil {
		_ = c.DB.Close()
		log.Println("✅ Database connections closed")
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Printf("⚠️  Failed to close Redis: %v", err)
		} else {
			log.Println("✅ Redis connections closed")
		}
	}

	log.Println("✅ Container cleanup completed")
}
