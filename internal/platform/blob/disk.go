// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DiskStore keeps objects as files under a base directory.
// Thread-safe for concurrent operations.
type DiskStore struct {
	basePath   string
	publicBase string
	mu         sync.RWMutex
}

// NewDiskStore creates the base directory if needed.
// publicBase is the URL prefix under which [DiskStore.Handler] is mounted.
func NewDiskStore(basePath, publicBase string) (*DiskStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("blob: base path cannot be empty")
	}
	if publicBase == "" {
		return nil, fmt.Errorf("blob: public base URL cannot be empty")
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("blob: failed to create %s: %w", basePath, err)
	}

	return &DiskStore{basePath: basePath, publicBase: publicBase}, nil
}

// Put implements [Store]. The object is written to a temp file and renamed
// into place so readers never observe a partial object.
func (store *DiskStore) Put(context context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	path, err := store.path(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("blob: failed to create directory for %s: %w", key, err)
	}

	temp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("blob: failed to create temp file: %w", err)
	}
	defer os.Remove(temp.Name())

	if _, err := io.Copy(temp, &contextReader{context: context, reader: body}); err != nil {
		temp.Close()
		return "", fmt.Errorf("blob: failed to write %s: %w", key, err)
	}
	if err := temp.Close(); err != nil {
		return "", fmt.Errorf("blob: failed to flush %s: %w", key, err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if err := os.Rename(temp.Name(), path); err != nil {
		return "", fmt.Errorf("blob: failed to publish %s: %w", key, err)
	}

	return store.URL(key), nil
}

// Delete implements [Store].
func (store *DiskStore) Delete(_ context.Context, key string) error {
	path, err := store.path(key)
	if err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: failed to delete %s: %w", key, err)
	}
	return nil
}

// Exists implements [Store].
func (store *DiskStore) Exists(_ context.Context, key string) (bool, error) {
	path, err := store.path(key)
	if err != nil {
		return false, err
	}

	store.mu.RLock()
	defer store.mu.RUnlock()

	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("blob: failed to stat %s: %w", key, err)
}

// URL implements [Store].
func (store *DiskStore) URL(key string) string {
	return joinURL(store.publicBase, key)
}

// Handler serves stored objects read-only. Mount it with the public base path stripped.
func (store *DiskStore) Handler() http.Handler {
	return http.FileServer(http.Dir(store.basePath))
}

// path maps a key to a file below basePath, rejecting traversal.
func (store *DiskStore) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if key == "" || clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("blob: invalid key %q", key)
	}
	return filepath.Join(store.basePath, filepath.FromSlash(clean)), nil
}

// contextReader stops a copy once the context is done.
type contextReader struct {
	context context.Context
	reader  io.Reader
}

func (r *contextReader) Read(p []byte) (int, error) {
	if err := r.context.Err(); err != nil {
		return 0, err
	}
	return r.reader.Read(p)
}
