// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package card

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/taibuivan/livingatlas/internal/platform/apperr"
	"github.com/taibuivan/livingatlas/internal/platform/blob"
	"github.com/taibuivan/livingatlas/internal/platform/constants"
	"github.com/taibuivan/livingatlas/internal/platform/validate"
	"github.com/taibuivan/livingatlas/pkg/slug"
)

// ArchiveExtension is recorded for every stored attachment.
const ArchiveExtension = "zip"

// thumbnailTypes maps accepted thumbnail extensions to their content type.
var thumbnailTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

// # File Packager

// PackagerConfig holds the packager limits.
type PackagerConfig struct {
	DefaultThumbnail string
	MaxUploadBytes   int64
	TempDir          string
	Timeout          time.Duration
}

// Packager uploads thumbnails and zipped attachments to the blob store.
type Packager struct {
	store            blob.Store
	defaultThumbnail string
	maxUploadBytes   int64
	tempDir          string
	timeout          time.Duration
	newID            func() (string, error)
}

// NewPackager constructs a [Packager].
func NewPackager(store blob.Store, cfg PackagerConfig) *Packager {
	return &Packager{
		store:            store,
		defaultThumbnail: cfg.DefaultThumbnail,
		maxUploadBytes:   cfg.MaxUploadBytes,
		tempDir:          cfg.TempDir,
		timeout:          cfg.Timeout,
		newID:            func() (string, error) { return gonanoid.New() },
	}
}

// DefaultThumbnail is the placeholder used when a card has no thumbnail.
func (packager *Packager) DefaultThumbnail() string {
	return packager.defaultThumbnail
}

// Packaged is the result of one upload.
type Packaged struct {
	Key  string
	URL  string
	Name string
	Size int64
}

/*
Check rejects uploads that would fail packaging before anything is written.

Returns:
  - error: PAYLOAD_TOO_LARGE or a VALIDATION_ERROR on "thumbnail"
*/
func (packager *Packager) Check(thumbnail *Upload, files []Upload) error {
	if thumbnail != nil {
		if _, ok := thumbnailTypes[extension(thumbnail.Filename)]; !ok {
			return validate.RequiredError(FieldThumbnail, "Must be a png, jpg, jpeg or gif image")
		}
		if thumbnail.Size > packager.maxUploadBytes {
			return apperr.PayloadTooLarge(packager.maxUploadBytes)
		}
	}

	for _, file := range files {
		if file.Size > packager.maxUploadBytes {
			return apperr.PayloadTooLarge(packager.maxUploadBytes)
		}
	}
	return nil
}

/*
Thumbnail uploads the card image under a unique key.

Description: A nil upload yields the default placeholder URL and an empty key.

Parameters:
  - context: context.Context
  - upload: *Upload (optional)

Returns:
  - Packaged: Key and public URL
  - error: VALIDATION_ERROR for an unsupported extension, STORAGE_ERROR on upload failure
*/
func (packager *Packager) Thumbnail(context context.Context, upload *Upload) (Packaged, error) {
	if upload == nil {
		return Packaged{URL: packager.defaultThumbnail}, nil
	}

	// Extension gate
	ext := extension(upload.Filename)
	contentType, ok := thumbnailTypes[ext]
	if !ok {
		return Packaged{}, validate.RequiredError(FieldThumbnail, "Must be a png, jpg, jpeg or gif image")
	}

	id, err := packager.newID()
	if err != nil {
		return Packaged{}, apperr.Internal(fmt.Errorf("card: thumbnail id: %w", err))
	}

	name := keySegment(strings.TrimSuffix(baseName(upload.Filename), path.Ext(baseName(upload.Filename))), "thumbnail")
	key := fmt.Sprintf("%s%s_%s.%s", constants.BlobPrefixThumbnails, id, name, ext)

	body, err := upload.Open()
	if err != nil {
		return Packaged{}, validate.RequiredError(FieldThumbnail, "Could not read the uploaded image")
	}
	defer body.Close()

	url, err := packager.put(context, key, body, upload.Size, contentType)
	if err != nil {
		return Packaged{}, apperr.StorageError("upload thumbnail", err)
	}

	return Packaged{Key: key, URL: url, Name: name, Size: upload.Size}, nil
}

/*
Attachment compresses one upload into a single-entry zip archive and stores it.

Description: The upload is first copied to a temporary file, then archived
into a second temporary file, then uploaded to
files/{owner}/{id}/{name}.zip. Both temporary files are removed on every
exit path.

Parameters:
  - context: context.Context
  - owner: string (username of the card owner)
  - upload: Upload

Returns:
  - Packaged: Key, URL, display name (original name without extension) and archive size
  - error: PAYLOAD_TOO_LARGE, STORAGE_ERROR, or INTERNAL_ERROR for local I/O failures
*/
func (packager *Packager) Attachment(context context.Context, owner string, upload Upload) (Packaged, error) {
	if upload.Size > packager.maxUploadBytes {
		return Packaged{}, apperr.PayloadTooLarge(packager.maxUploadBytes)
	}

	entryName := baseName(upload.Filename)
	if entryName == "" {
		entryName = "attachment"
	}
	displayName := strings.TrimSuffix(entryName, path.Ext(entryName))
	if displayName == "" {
		displayName = entryName
	}

	// Materialize
	staged, err := packager.stage(upload)
	if err != nil {
		return Packaged{}, err
	}
	defer os.Remove(staged.Name())
	defer staged.Close()

	// Compress
	archive, size, err := packager.compress(staged, entryName)
	if err != nil {
		return Packaged{}, err
	}
	defer os.Remove(archive.Name())
	defer archive.Close()

	id, err := packager.newID()
	if err != nil {
		return Packaged{}, apperr.Internal(fmt.Errorf("card: attachment id: %w", err))
	}

	key := fmt.Sprintf("%s%s/%s/%s.%s",
		constants.BlobPrefixFiles,
		keySegment(owner, "anonymous"),
		id,
		keySegment(displayName, "attachment"),
		ArchiveExtension,
	)

	// Upload
	url, err := packager.put(context, key, archive, size, "application/zip")
	if err != nil {
		return Packaged{}, apperr.StorageError("upload attachment", err)
	}

	return Packaged{Key: key, URL: url, Name: displayName, Size: size}, nil
}

// stage copies the upload into a temporary file positioned at its start.
func (packager *Packager) stage(upload Upload) (*os.File, error) {
	body, err := upload.Open()
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("card: open upload: %w", err))
	}
	defer body.Close()

	staged, err := os.CreateTemp(packager.tempDir, "atlas-upload-*")
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("card: stage upload: %w", err))
	}

	written, err := io.Copy(staged, io.LimitReader(body, packager.maxUploadBytes+1))
	if err == nil && written > packager.maxUploadBytes {
		err = apperr.PayloadTooLarge(packager.maxUploadBytes)
	}
	if err == nil {
		_, err = staged.Seek(0, io.SeekStart)
	}
	if err != nil {
		staged.Close()
		os.Remove(staged.Name())
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, apperr.Internal(fmt.Errorf("card: stage upload: %w", err))
	}

	return staged, nil
}

// compress writes source as the single entry of a new temporary zip archive
// and returns it positioned at its start along with its size.
func (packager *Packager) compress(source io.Reader, entryName string) (*os.File, int64, error) {
	archive, err := os.CreateTemp(packager.tempDir, "atlas-archive-*.zip")
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Errorf("card: create archive: %w", err))
	}

	fail := func(err error) (*os.File, int64, error) {
		archive.Close()
		os.Remove(archive.Name())
		return nil, 0, apperr.Internal(fmt.Errorf("card: compress attachment: %w", err))
	}

	writer := zip.NewWriter(archive)
	entry, err := writer.CreateHeader(&zip.FileHeader{
		Name:     entryName,
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return fail(err)
	}

	if _, err := io.Copy(entry, source); err != nil {
		return fail(err)
	}
	if err := writer.Close(); err != nil {
		return fail(err)
	}

	size, err := archive.Seek(0, io.SeekCurrent)
	if err != nil {
		return fail(err)
	}
	if _, err := archive.Seek(0, io.SeekStart); err != nil {
		return fail(err)
	}

	return archive, size, nil
}

// put uploads under the blob timeout.
func (packager *Packager) put(parent context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	context, cancel := context.WithTimeout(parent, packager.timeout)
	defer cancel()
	return packager.store.Put(context, key, body, size, contentType)
}

// baseName strips any client-side directory from an uploaded filename.
func baseName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// extension returns the lower-cased extension without the dot.
func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(baseName(filename)), "."))
}

// keySegment turns free text into a blob key segment.
func keySegment(text, fallback string) string {
	if segment := slug.From(text); segment != "" {
		return segment
	}
	return fallback
}
