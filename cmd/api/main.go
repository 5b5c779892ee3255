// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Living Atlas HTTP API server.
//
// # Startup Sequence
//
//  1. Load an optional .env file and initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and, when configured, Redis.
//  4. Run database migrations (idempotent).
//  5. Load the category registry.
//  6. Open the blob store and the orphan ledger.
//  7. Wire HTTP handlers.
//  8. Run the HTTP server and the orphan sweeper until a signal arrives.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/livingatlas/internal/api"
	"github.com/taibuivan/livingatlas/internal/core/card"
	"github.com/taibuivan/livingatlas/internal/core/category"
	"github.com/taibuivan/livingatlas/internal/core/favorite"
	"github.com/taibuivan/livingatlas/internal/core/tag"
	"github.com/taibuivan/livingatlas/internal/platform/blob"
	"github.com/taibuivan/livingatlas/internal/platform/config"
	"github.com/taibuivan/livingatlas/internal/platform/constants"
	"github.com/taibuivan/livingatlas/internal/platform/logger"
	"github.com/taibuivan/livingatlas/internal/platform/migration"
	pgstore "github.com/taibuivan/livingatlas/internal/platform/postgres"
	redisstore "github.com/taibuivan/livingatlas/internal/platform/redis"
)

// healthProbeKey is looked up on the blob store by the readiness probe.
const healthProbeKey = ".healthcheck"

func main() {
	// A local .env fills variables the environment does not set
	dotenvErr := godotenv.Load()

	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := logger.New(logger.Options{Development: os.Getenv("ENVIRONMENT") != "production"})
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion), slog.Bool("dotenv", dotenvErr == nil))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = logger.New(logger.Options{Development: cfg.IsDevelopment(), Debug: true})
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("blob_backend", cfg.BlobBackend),
	)

	// Root context for startup. A deadline catches misconfiguration quickly.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	// ── 3b. Redis (optional) ──────────────────────────────────────────────
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any("error", cerr))
			}
		}()
	}

	// ── 4. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 5. Categories ─────────────────────────────────────────────────────
	registry, err := category.Load(startupCtx, category.NewPostgresRepository(pool), log)
	must(log, err, "load categories")

	// ── 6. Blob store + orphan ledger ─────────────────────────────────────
	store, blobHandler, err := blob.Open(startupCtx, cfg, log)
	must(log, err, "open blob store")

	var ledger blob.OrphanLedger = blob.NewMemoryLedger()
	if rdb != nil {
		ledger = blob.NewRedisLedger(rdb, constants.RedisKeyOrphanBlobs)
	}

	// ── 7. Health handlers ────────────────────────────────────────────────
	health := api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckBlobStore: func() error {
			probeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_, err := store.Exists(probeCtx, healthProbeKey)
			return err
		},
	}
	if rdb != nil {
		health.CheckCache = func() error {
			return redisstore.Ping(context.Background(), rdb)
		}
	}
	liveness, readiness := api.NewHealthHandlers(health, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	cardRepository := card.NewPostgresRepository(pool)
	packager := card.NewPackager(store, card.PackagerConfig{
		DefaultThumbnail: cfg.DefaultThumbnailURL,
		MaxUploadBytes:   cfg.MaxUploadBytes,
		TempDir:          cfg.UploadTempDir,
		Timeout:          cfg.BlobTimeout,
	})
	cardService := card.NewService(cardRepository, registry, packager, store, ledger, log)

	tagService := tag.NewService(tag.NewPostgresRepository(pool), log)
	favoriteService := favorite.NewService(favorite.NewPostgresRepository(pool), log)

	handlers := api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Cards:      card.NewHandler(cardService, cfg.MaxUploadBytes),
		Tags:       tag.NewHandler(tagService),
		Categories: category.NewHandler(registry),
		Favorites:  favorite.NewHandler(favoriteService),
		Blobs:      blobHandler,
	}

	// ── 9. Run until signalled ────────────────────────────────────────────
	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	server := api.NewServer(runCtx, cfg, log, handlers)
	sweeper := blob.NewSweeper(store, ledger, cardRepository, cfg.OrphanSweepInterval, log)

	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		return sweeper.Run(groupCtx)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))
		return server.Shutdown(constants.ShutdownTimeout)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server_stopped_with_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// Limited to startup wiring. After startup, all errors are returned and handled.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
