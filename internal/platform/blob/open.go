// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/livingatlas/internal/platform/config"
)

// DiskMountPath is where the API serves objects of the disk backend.
const DiskMountPath = "/blobs"

/*
Open builds the backend selected by BLOB_BACKEND.

Returns:
  - Store: The configured store
  - http.Handler: Serves stored objects for the disk backend, nil for S3
  - error: Connection or filesystem failures
*/
func Open(context context.Context, cfg *config.Config, logger *slog.Logger) (Store, http.Handler, error) {
	if cfg.BlobBackend == config.BlobBackendDisk {
		publicBase := cfg.BlobPublicBaseURL
		if publicBase == "" {
			publicBase = "http://localhost:" + cfg.ServerPort + DiskMountPath
		}

		store, err := NewDiskStore(cfg.BlobDiskPath, publicBase)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("blob_store_ready", slog.String("backend", cfg.BlobBackend), slog.String("path", cfg.BlobDiskPath))
		return store, store.Handler(), nil
	}

	store, err := NewS3Store(context, S3Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		UseSSL:        cfg.S3UseSSL,
		PublicBaseURL: cfg.BlobPublicBaseURL,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, nil, nil
}
