// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Blob) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Blob backends accepted by BLOB_BACKEND.
const (
	BlobBackendS3   = "s3"
	BlobBackendDisk = "disk"
)

// # Configuration Schema

// Config holds all runtime configuration for the Living Atlas API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value store (Redis). Empty disables the blob orphan ledger.
	RedisURL string `env:"REDIS_URL"`

	// Object Storage
	BlobBackend       string        `env:"BLOB_BACKEND"          envDefault:"s3"`
	S3Bucket          string        `env:"S3_BUCKET"             envDefault:"living-atlas"`
	S3Region          string        `env:"S3_REGION"             envDefault:"auto"`
	S3Endpoint        string        `env:"S3_ENDPOINT"`
	S3AccessKey       string        `env:"S3_ACCESS_KEY"`
	S3SecretKey       string        `env:"S3_SECRET_KEY"`
	S3UseSSL          bool          `env:"S3_USE_SSL"            envDefault:"true"`
	BlobPublicBaseURL string        `env:"BLOB_PUBLIC_BASE_URL"`
	BlobDiskPath      string        `env:"BLOB_DISK_PATH"        envDefault:"./data/blobs"`
	BlobTimeout       time.Duration `env:"BLOB_TIMEOUT"          envDefault:"60s"`

	// Card submission
	DefaultThumbnailURL string        `env:"DEFAULT_THUMBNAIL_URL" envDefault:"https://storage.googleapis.com/cereo_atlas_storage/thumbnails/default_cereo_thumbnail.png"`
	MaxUploadBytes      int64         `env:"MAX_UPLOAD_BYTES"      envDefault:"10737418240"`
	UploadTempDir       string        `env:"UPLOAD_TEMP_DIR"`
	OrphanSweepInterval time.Duration `env:"ORPHAN_SWEEP_INTERVAL" envDefault:"10m"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// Per-IP token bucket
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"50"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"100"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.BlobBackend != BlobBackendS3 && cfg.BlobBackend != BlobBackendDisk {
		return nil, fmt.Errorf("config: BLOB_BACKEND must be %q or %q, got %q", BlobBackendS3, BlobBackendDisk, cfg.BlobBackend)
	}

	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive")
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the comma-separated EXTRA_ORIGINS as a trimmed list.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.ExtraOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
