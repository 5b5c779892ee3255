// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config carries the connection settings for an S3-compatible service.
type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
}

// S3Store stores objects in a single bucket of an S3-compatible service.
type S3Store struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

/*
NewS3Store connects to the service and verifies that the bucket exists.

Description: When PublicBaseURL is empty, URLs are derived as
{scheme}://{endpoint}/{bucket}/{key} (path-style addressing).

Parameters:
  - context: context.Context (bounds the bucket check)
  - config: S3Config
  - logger: *slog.Logger

Returns:
  - *S3Store: Ready-to-use store
  - error: Invalid endpoint, bad credentials, or missing bucket
*/
func NewS3Store(context context.Context, config S3Config, logger *slog.Logger) (*S3Store, error) {
	if config.Endpoint == "" || config.Bucket == "" {
		return nil, fmt.Errorf("blob: S3 endpoint and bucket are required")
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("blob: failed to create S3 client: %w", err)
	}

	exists, err := client.BucketExists(context, config.Bucket)
	if err != nil {
		return nil, fmt.Errorf("blob: failed to check bucket %q: %w", config.Bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("blob: bucket %q does not exist", config.Bucket)
	}

	publicBase := config.PublicBaseURL
	if publicBase == "" {
		scheme := "http"
		if config.UseSSL {
			scheme = "https"
		}
		publicBase = (&url.URL{Scheme: scheme, Host: config.Endpoint, Path: "/" + config.Bucket}).String()
	}

	logger.Info("blob_store_connected",
		slog.String("backend", "s3"),
		slog.String("endpoint", config.Endpoint),
		slog.String("bucket", config.Bucket),
	)

	return &S3Store{client: client, bucket: config.Bucket, publicBase: publicBase}, nil
}

// Put implements [Store].
func (store *S3Store) Put(context context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	_, err := store.client.PutObject(context, store.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("blob: put %s: %w", key, err)
	}
	return store.URL(key), nil
}

// Delete implements [Store].
func (store *S3Store) Delete(context context.Context, key string) error {
	if err := store.client.RemoveObject(context, store.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("blob: delete %s: %w", key, err)
	}
	return nil
}

// Exists implements [Store].
func (store *S3Store) Exists(context context.Context, key string) (bool, error) {
	_, err := store.client.StatObject(context, store.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}

	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return false, nil
	}
	return false, fmt.Errorf("blob: stat %s: %w", key, err)
}

// URL implements [Store].
func (store *S3Store) URL(key string) string {
	return joinURL(store.publicBase, key)
}
