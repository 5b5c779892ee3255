// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blob provides the object storage used for card thumbnails and zipped
attachments.

Objects are addressed by slash-separated keys ("thumbnails/…", "files/…") and
exposed to clients through public URLs. Two backends implement [Store]:

  - [S3Store]: any S3-compatible service (AWS S3, Cloudflare R2, MinIO).
  - [DiskStore]: a local directory, served by the API under /blobs/ for development.

Blob writes are not part of the SQL transaction. Keys uploaded by a submission
that later rolls back are recorded in an [OrphanLedger] and removed by the
[Sweeper] once no catalog row references them.
*/
package blob

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned when a key has no stored object.
var ErrNotFound = errors.New("blob: object not found")

// Store is the object storage contract shared by all backends.
type Store interface {

	/*
		Put uploads body under key and returns the object's public URL.

		Parameters:
		  - context: context.Context (carries the blob timeout)
		  - key: string (slash-separated object key)
		  - body: io.Reader
		  - size: int64 (exact byte length, -1 if unknown)
		  - contentType: string

		Returns:
		  - string: Public URL of the stored object
		  - error: Backend failure
	*/
	Put(context context.Context, key string, body io.Reader, size int64, contentType string) (string, error)

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(context context.Context, key string) error

	// Exists reports whether an object is stored under key.
	Exists(context context.Context, key string) (bool, error)

	// URL returns the public URL for key without contacting the backend.
	URL(key string) string
}

// Object pairs a key with its public URL.
type Object struct {
	Key string
	URL string
}

// KeyFromURL recovers the object key from a public URL issued by store.
// It reports false for URLs the store did not issue (e.g. the default thumbnail).
func KeyFromURL(store Store, url string) (string, bool) {
	prefix := store.URL("")
	if prefix == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}

	key := strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}

// joinURL concatenates a base URL and a key with exactly one slash.
func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
