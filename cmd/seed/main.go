// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command seed loads a demo catalog for local development.
//
// Users are inserted with bcrypt password hashes. Cards go through the same
// writer pipeline as the API, so validation, tag reconciliation and category
// lookup behave exactly as in production.
//
// Usage:
//
//	go run ./cmd/seed [-file data/seed/demo.yaml] [-reset]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/taibuivan/livingatlas/internal/core/card"
	"github.com/taibuivan/livingatlas/internal/core/category"
	"github.com/taibuivan/livingatlas/internal/platform/blob"
	"github.com/taibuivan/livingatlas/internal/platform/config"
	"github.com/taibuivan/livingatlas/internal/platform/logger"
	"github.com/taibuivan/livingatlas/internal/platform/migration"
	pgstore "github.com/taibuivan/livingatlas/internal/platform/postgres"
)

func main() {
	file := flag.String("file", "data/seed/demo.yaml", "fixture file")
	reset := flag.Bool("reset", false, "drop every table before seeding")
	flag.Parse()

	_ = godotenv.Load()
	log := logger.New(logger.Options{Development: true})

	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.IsProduction() {
		log.Error("seed_refused", slog.String("environment", cfg.Environment))
		os.Exit(1)
	}

	document, err := loadFixture(*file)
	must(log, err, "load fixture")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Schema
	if *reset {
		must(log, migration.Reset(cfg.DatabaseURL, cfg.MigrationPath, log), "reset schema")
	}
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer pool.Close()

	// Card writer
	registry, err := category.Load(ctx, category.NewPostgresRepository(pool), log)
	must(log, err, "load categories")

	store, _, err := blob.Open(ctx, cfg, log)
	must(log, err, "open blob store")

	packager := card.NewPackager(store, card.PackagerConfig{
		DefaultThumbnail: cfg.DefaultThumbnailURL,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		TempDir:          cfg.UploadTempDir,
		Timeout:          cfg.BlobTimeout,
	})
	service := card.NewService(card.NewPostgresRepository(pool), registry, packager, store, blob.NewMemoryLedger(), log)

	result, err := apply(ctx, document, postgresUsers{pool: pool}, service, log)
	must(log, err, "apply fixture")

	log.Info("seed_complete",
		slog.Int("users_created", result.UsersCreated),
		slog.Int("cards_created", result.CardsCreated),
		slog.Int("cards_skipped", result.CardsSkipped),
	)
}

func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("seed_failure", slog.String("context", context), slog.Any("error", err))
		os.Exit(1)
	}
}
