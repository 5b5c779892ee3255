// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package card

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/livingatlas/internal/core/category"
	"github.com/taibuivan/livingatlas/internal/platform/blob"
	"github.com/taibuivan/livingatlas/internal/platform/validate"
)

// Submission outcome messages.
const (
	MessageCreated = "Data Card inserted successfully"
	MessageUpdated = "Data Card updated successfully"
	MessageDeleted = "The card is deleted"
)

// # Service Layer

// Service is the card writer and the entry point of the card reader.
type Service struct {
	repository Repository
	registry   *category.Registry
	packager   *Packager
	reconciler *Reconciler
	store      blob.Store
	ledger     blob.OrphanLedger
	logger     *slog.Logger
}

// NewService constructs a card [Service].
func NewService(repository Repository, registry *category.Registry, packager *Packager, store blob.Store, ledger blob.OrphanLedger, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		registry:   registry,
		packager:   packager,
		reconciler: NewReconciler(logger),
		store:      store,
		ledger:     ledger,
		logger:     logger,
	}
}

// writeState tracks the blob side effects of one submission.
type writeState struct {
	uploaded []string
	replaced string
}

// # Card Writer

/*
Submit creates or updates a card.

Description: Runs the writer state machine Validating → Identifying-User →
Upserting-Card → Reconciling-Tags → Packaging-Files → Committing. Every SQL
statement shares one transaction, so any failure leaves no relational
trace. Blobs uploaded before the failure are logged and recorded in the
orphan ledger for the sweeper.

Parameters:
  - context: context.Context
  - submission: Submission (raw form values and uploads)

Returns:
  - *Result: Outcome message and card id
  - error: VALIDATION_ERROR, NOT_FOUND, CONFLICT, PAYLOAD_TOO_LARGE, STORAGE_ERROR or PERSISTENCE_ERROR
*/
func (service *Service) Submit(context context.Context, submission Submission) (*Result, error) {

	// Validating
	fields, err := Validate(service.registry, submission)
	if err != nil {
		return nil, err
	}

	owner := &validate.Validator{StopOnFirst: true}
	owner.Required(FieldUsername, submission.Username).Required(FieldEmail, submission.Email)
	if err := owner.Err(); err != nil {
		return nil, err
	}

	if err := service.packager.Check(submission.Thumbnail, submission.Files); err != nil {
		return nil, err
	}

	state := &writeState{}
	var cardID int64

	err = service.repository.InTx(context, func(tx WriteTx) error {
		var err error
		if submission.Update {
			cardID, err = service.update(context, tx, submission, fields, state)
		} else {
			cardID, err = service.create(context, tx, submission, fields, state)
		}
		return err
	})

	// Rolled back: whatever reached the blob store is now unreferenced
	if err != nil {
		service.orphan(context, state.uploaded, err)
		return nil, err
	}

	if state.replaced != "" {
		service.releaseLinks(context, state.replaced)
	}

	message := MessageCreated
	event := "card_created"
	if submission.Update {
		message = MessageUpdated
		event = "card_updated"
	}

	service.logger.Info(event,
		slog.Int64("card_id", cardID),
		slog.String("title", fields.Title),
		slog.Int("files", len(submission.Files)),
	)

	return &Result{Message: message, CardID: cardID}, nil
}

// create runs the insert path inside tx.
func (service *Service) create(context context.Context, tx WriteTx, submission Submission, fields Fields, state *writeState) (int64, error) {

	// Identifying-User
	ownerID, err := tx.FindUser(context, submission.Username, submission.Email)
	if err != nil {
		return 0, err
	}

	// Upserting-Card
	thumbnail, err := service.packager.Thumbnail(context, submission.Thumbnail)
	if err != nil {
		return 0, err
	}
	if thumbnail.Key != "" {
		state.uploaded = append(state.uploaded, thumbnail.Key)
	}

	cardID, err := tx.InsertCard(context, &Card{
		OwnerID:       ownerID,
		Name:          submission.Name,
		Fields:        fields,
		ThumbnailLink: thumbnail.URL,
	})
	if err != nil {
		return 0, err
	}

	// Reconciling-Tags
	if _, err := service.reconciler.Reconcile(context, tx, cardID, submission.Tags, false); err != nil {
		return 0, err
	}

	// Packaging-Files
	if err := service.attach(context, tx, cardID, submission.Username, submission.Files, state); err != nil {
		return 0, err
	}

	return cardID, nil
}

/*
update runs the in-place update path inside tx.

Description: The card is located by its original owner and title. The
owner is re-resolved only when the username or email changed. Tags are
fully replaced and attachments are appended.
*/
func (service *Service) update(context context.Context, tx WriteTx, submission Submission, fields Fields, state *writeState) (int64, error) {
	originalUsername := firstNonEmpty(submission.OriginalUsername, submission.Username)
	originalEmail := firstNonEmpty(submission.OriginalEmail, submission.Email)
	originalTitle := firstNonEmpty(strings.TrimSpace(submission.OriginalTitle), fields.Title)

	// Identifying-User
	ownerID, err := tx.FindUser(context, originalUsername, originalEmail)
	if err != nil {
		return 0, err
	}

	existing, err := tx.FindCard(context, ownerID, originalTitle)
	if err != nil {
		return 0, err
	}

	newOwnerID := ownerID
	if !strings.EqualFold(originalUsername, submission.Username) || !strings.EqualFold(originalEmail, submission.Email) {
		if newOwnerID, err = tx.FindUser(context, submission.Username, submission.Email); err != nil {
			return 0, err
		}
	}

	// Upserting-Card (empty link keeps the stored thumbnail)
	var thumbnailLink string
	if submission.Thumbnail != nil {
		thumbnail, err := service.packager.Thumbnail(context, submission.Thumbnail)
		if err != nil {
			return 0, err
		}
		state.uploaded = append(state.uploaded, thumbnail.Key)
		thumbnailLink = thumbnail.URL
		state.replaced = existing.ThumbnailLink
	}

	err = tx.UpdateCard(context, &Card{
		ID:            existing.ID,
		OwnerID:       newOwnerID,
		Name:          submission.Name,
		Fields:        fields,
		ThumbnailLink: thumbnailLink,
	})
	if err != nil {
		return 0, err
	}

	// Reconciling-Tags
	if _, err := service.reconciler.Reconcile(context, tx, existing.ID, submission.Tags, true); err != nil {
		return 0, err
	}

	// Packaging-Files
	if err := service.attach(context, tx, existing.ID, submission.Username, submission.Files, state); err != nil {
		return 0, err
	}

	return existing.ID, nil
}

// attach packages every upload and records its file row.
func (service *Service) attach(context context.Context, tx WriteTx, cardID int64, owner string, uploads []Upload, state *writeState) error {
	for _, upload := range uploads {
		packaged, err := service.packager.Attachment(context, owner, upload)
		if err != nil {
			return err
		}
		state.uploaded = append(state.uploaded, packaged.Key)

		_, err = tx.InsertFile(context, &StoredFile{
			CardID:    cardID,
			Name:      packaged.Name,
			Key:       packaged.Key,
			Link:      packaged.URL,
			Size:      packaged.Size,
			Extension: ArchiveExtension,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

/*
DeleteCard removes the card titled title owned by username.

Description: File rows, tag links, favorites and the card are deleted in
one transaction. After commit the attachments and a non-default thumbnail
are removed from the blob store; failed removals go to the orphan ledger.

Returns:
  - error: VALIDATION_ERROR, NOT_FOUND or PERSISTENCE_ERROR
*/
func (service *Service) DeleteCard(context context.Context, username, title string) error {
	validator := &validate.Validator{StopOnFirst: true}
	validator.Required(FieldUsername, username).Required(FieldTitle, title)
	if err := validator.Err(); err != nil {
		return err
	}

	var owned *Owned
	var keys []string

	err := service.repository.InTx(context, func(tx WriteTx) error {
		var err error
		if owned, err = tx.FindCardByUsername(context, username, title); err != nil {
			return err
		}
		keys, err = tx.DeleteCard(context, owned.ID)
		return err
	})
	if err != nil {
		return err
	}

	service.releaseKeys(context, keys...)
	service.releaseLinks(context, owned.ThumbnailLink)

	service.logger.Info("card_deleted",
		slog.Int64("card_id", owned.ID),
		slog.Int("files", len(keys)),
	)
	return nil
}

// # Blob Bookkeeping

// orphan logs and records keys whose owning transaction rolled back.
func (service *Service) orphan(parent context.Context, keys []string, cause error) {
	if len(keys) == 0 {
		return
	}

	service.logger.Warn("blob_orphaned",
		slog.Any("keys", keys),
		slog.Any("cause", cause),
	)

	if err := service.ledger.Record(context.WithoutCancel(parent), keys...); err != nil {
		service.logger.Error("blob_orphan_record_failed", slog.Any("keys", keys), slog.Any("error", err))
	}
}

// releaseLinks removes the objects behind public URLs issued by the store.
// The default thumbnail and foreign URLs are skipped.
func (service *Service) releaseLinks(parent context.Context, links ...string) {
	var keys []string
	for _, link := range links {
		if link == "" || link == service.packager.DefaultThumbnail() {
			continue
		}
		if key, ok := blob.KeyFromURL(service.store, link); ok {
			keys = append(keys, key)
		}
	}
	service.releaseKeys(parent, keys...)
}

// releaseKeys deletes objects that are no longer referenced. Failures are
// queued for the sweeper.
func (service *Service) releaseKeys(parent context.Context, keys ...string) {
	base := context.WithoutCancel(parent)

	var failed []string
	for _, key := range keys {
		deleteContext, cancel := context.WithTimeout(base, service.packager.timeout)
		err := service.store.Delete(deleteContext, key)
		cancel()

		if err != nil {
			service.logger.Warn("blob_delete_failed", slog.String("key", key), slog.Any("error", err))
			failed = append(failed, key)
		}
	}

	if len(failed) > 0 {
		if err := service.ledger.Record(base, failed...); err != nil {
			service.logger.Error("blob_orphan_record_failed", slog.Any("keys", failed), slog.Any("error", err))
		}
	}
}

// # Card Reader

// ListCards returns the cards matching filter.
func (service *Service) ListCards(context context.Context, filter Filter) ([]*View, error) {
	return service.repository.List(context, filter)
}

// GetCard returns a single card view.
func (service *Service) GetCard(context context.Context, id int64) (*View, error) {
	return service.repository.FindByID(context, id)
}

// Markers returns the map markers of every card.
func (service *Service) Markers(context context.Context) ([]*Marker, error) {
	return service.repository.Markers(context)
}

// FileLink returns the download pointer of an attachment.
func (service *Service) FileLink(context context.Context, fileID int64) (*FileLink, error) {
	return service.repository.FileLink(context, fileID)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
