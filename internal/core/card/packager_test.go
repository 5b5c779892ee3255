// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package card

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/livingatlas/internal/platform/apperr"
	"github.com/taibuivan/livingatlas/internal/platform/blob"
)

type packagerFixture struct {
	packager *Packager
	store    *blob.DiskStore
	blobDir  string
	tempDir  string
}

func newPackagerFixture(t *testing.T, maxUploadBytes int64) packagerFixture {
	t.Helper()

	blobDir := t.TempDir()
	store, err := blob.NewDiskStore(blobDir, testBlobBase)
	require.NoError(t, err)

	tempDir := t.TempDir()
	packager := NewPackager(store, PackagerConfig{
		DefaultThumbnail: testDefaultThumbnail,
		MaxUploadBytes:   maxUploadBytes,
		TempDir:          tempDir,
		Timeout:          5 * time.Second,
	})
	packager.newID = func() (string, error) { return "fixedid", nil }

	return packagerFixture{packager: packager, store: store, blobDir: blobDir, tempDir: tempDir}
}

/*
TestAttachment_RoundTrip zips one upload and reads it back unchanged.
*/
func TestAttachment_RoundTrip(t *testing.T) {
	f := newPackagerFixture(t, 1<<20)
	content := strings.Repeat("site,depth\nA,3\n", 100)

	packaged, err := f.packager.Attachment(context.Background(), "Alice Smith", memoryUpload(`C:\field\Survey Data.csv`, content))
	require.NoError(t, err)

	assert.Equal(t, "files/alice-smith/fixedid/survey-data.zip", packaged.Key)
	assert.Equal(t, f.store.URL(packaged.Key), packaged.URL)
	assert.Equal(t, "Survey Data", packaged.Name)

	// Archive contents
	archivePath := filepath.Join(f.blobDir, filepath.FromSlash(packaged.Key))
	info, err := os.Stat(archivePath)
	require.NoError(t, err)
	assert.Equal(t, packaged.Size, info.Size())

	reader, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer reader.Close()

	require.Len(t, reader.File, 1)
	assert.Equal(t, "Survey Data.csv", reader.File[0].Name)

	entry, err := reader.File[0].Open()
	require.NoError(t, err)
	defer entry.Close()

	restored, err := io.ReadAll(entry)
	require.NoError(t, err)
	assert.Equal(t, content, string(restored))

	// Temporary files are gone
	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

/*
TestAttachment_TooLarge rejects a body that exceeds the declared size.
*/
func TestAttachment_TooLarge(t *testing.T) {
	f := newPackagerFixture(t, 8)

	upload := memoryUpload("big.bin", "0123456789")
	upload.Size = 4 // clients can lie about size

	_, err := f.packager.Attachment(context.Background(), "alice", upload)
	assert.True(t, apperr.HasCode(err, apperr.CodePayloadTooLarge))

	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

/*
TestThumbnail covers the placeholder, accepted types and rejections.
*/
func TestThumbnail(t *testing.T) {
	f := newPackagerFixture(t, 1<<20)
	ctx := context.Background()

	placeholder, err := f.packager.Thumbnail(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, testDefaultThumbnail, placeholder.URL)
	assert.Empty(t, placeholder.Key)

	for _, name := range []string{"creek.png", "creek.JPG", "creek.jpeg", "creek.gif"} {
		upload := memoryUpload(name, "image")
		packaged, err := f.packager.Thumbnail(ctx, &upload)
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(packaged.Key, "thumbnails/fixedid_creek."), packaged.Key)

		exists, err := f.store.Exists(ctx, packaged.Key)
		require.NoError(t, err)
		assert.True(t, exists)
	}

	upload := memoryUpload("creek.bmp", "image")
	_, err = f.packager.Thumbnail(ctx, &upload)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, FieldThumbnail, appErr.Details[0].Field)
}

/*
TestCheck runs the pre-transaction gate.
*/
func TestCheck(t *testing.T) {
	f := newPackagerFixture(t, 10)

	small := memoryUpload("a.png", "tiny")
	assert.NoError(t, f.packager.Check(&small, []Upload{memoryUpload("b.txt", "ok")}))

	wrongType := memoryUpload("a.tiff", "tiny")
	assert.True(t, apperr.HasCode(f.packager.Check(&wrongType, nil), apperr.CodeValidation))

	big := memoryUpload("b.txt", strings.Repeat("x", 11))
	assert.True(t, apperr.HasCode(f.packager.Check(nil, []Upload{big}), apperr.CodePayloadTooLarge))
}
