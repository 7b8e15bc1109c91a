// cmd/seed nạp YAML fixture vào Postgres record store.
//
//	go run ./cmd/seed -fixture fixtures/sample_book.yaml [-reset]
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"storybook-backend/internal/config"
	"storybook-backend/internal/infrastructure/database"
	"storybook-backend/internal/infrastructure/recordstore"
	"storybook-backend/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	fixture := flag.String("fixture", "fixtures/sample_book.yaml", "path to the YAML fixture")
	reset := flag.Bool("reset", false, "truncate all record tables before seeding")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}
	logger.Init(os.Getenv("APP_ENV"))

	tables, err := recordstore.ReadFixture(*fixture)
	if err != nil {
		log.Fatalf("❌ Failed to read fixture: %v", err)
	}

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load database config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db := database.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		log.Fatalf("❌ Failed to connect database: %v", err)
	}
	defer db.Close()

	inserted, err := seedFixture(ctx, db.Pool, tables, *reset)
	if err != nil {
		log.Fatalf("❌ Seed failed: %v", err)
	}

	log.Printf("🎉 Seed completed: %d rows inserted from %s", inserted, *fixture)
}
