// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package card

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/livingatlas/internal/platform/apperr"
	"github.com/taibuivan/livingatlas/internal/platform/blob"
)

/*
TestSubmit_CreatesCard runs the full create path for the "Test Creek" card.
*/
func TestSubmit_CreatesCard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	submission := testCreek()
	submission.Files = []Upload{memoryUpload("survey.csv", "site,depth\nA,3\n")}

	result, err := f.service.Submit(ctx, submission)
	require.NoError(t, err)
	assert.Equal(t, MessageCreated, result.Message)

	stored, ok := f.repository.state.cards[result.CardID]
	require.True(t, ok)
	assert.Equal(t, "Test Creek", stored.Fields.Title)
	assert.Equal(t, 1, stored.Fields.CategoryID)
	assert.InDelta(t, 47.1, stored.Fields.Latitude, 1e-9)
	assert.InDelta(t, -117.4, stored.Fields.Longitude, 1e-9)
	assert.Equal(t, testDefaultThumbnail, stored.ThumbnailLink)

	assert.ElementsMatch(t, []string{"Clean", "Scenic"}, f.repository.state.cardTags[result.CardID])
	assert.ElementsMatch(t, []string{"Clean", "Scenic"}, f.repository.state.tags)

	files := f.repository.filesOf(result.CardID)
	require.Len(t, files, 1)
	assert.Equal(t, "survey", files[0].Name)
	assert.Equal(t, ArchiveExtension, files[0].Extension)
	assert.True(t, strings.HasPrefix(files[0].Key, "files/alice/"))
	assert.True(t, strings.HasSuffix(files[0].Key, "/survey.zip"))
	assert.Equal(t, f.store.URL(files[0].Key), files[0].Link)

	exists, err := f.store.Exists(ctx, files[0].Key)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Zero(t, f.ledger.Len())
}

/*
TestSubmit_ValidationStopsBeforeWrites ensures invalid fields never open a transaction.
*/
func TestSubmit_ValidationStopsBeforeWrites(t *testing.T) {
	f := newFixture(t)

	submission := testCreek()
	submission.Title = strings.Repeat("a", 256)

	_, err := f.service.Submit(context.Background(), submission)
	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.CodeValidation, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, FieldTitle, appErr.Details[0].Field)
	assert.Zero(t, f.repository.transactions)
}

/*
TestSubmit_UnknownOwner fails with NOT_FOUND and writes nothing.
*/
func TestSubmit_UnknownOwner(t *testing.T) {
	f := newFixture(t)

	submission := testCreek()
	submission.Email = "nobody@example.com"

	_, err := f.service.Submit(context.Background(), submission)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	assert.Empty(t, f.repository.state.cards)
}

/*
TestSubmit_DuplicateTitle maps the (owner, title) collision to CONFLICT.
*/
func TestSubmit_DuplicateTitle(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Submit(context.Background(), testCreek())
	require.NoError(t, err)

	_, err = f.service.Submit(context.Background(), testCreek())
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	assert.Len(t, f.repository.state.cards, 1)
}

/*
TestSubmit_RollbackRecordsOrphans checks that a late failure leaves no rows
and queues every uploaded blob for the sweeper.
*/
func TestSubmit_RollbackRecordsOrphans(t *testing.T) {
	f := newFixture(t)
	f.repository.failOn = "InsertFile"

	submission := testCreek()
	thumbnail := memoryUpload("creek.png", "png-bytes")
	submission.Thumbnail = &thumbnail
	submission.Files = []Upload{memoryUpload("notes.txt", "notes")}

	_, err := f.service.Submit(context.Background(), submission)
	assert.True(t, apperr.HasCode(err, apperr.CodePersistence))

	assert.Empty(t, f.repository.state.cards)
	assert.Empty(t, f.repository.state.cardTags)
	assert.Empty(t, f.repository.state.tags)
	assert.Empty(t, f.repository.state.files)
	assert.Equal(t, 2, f.ledger.Len())
}

/*
TestSubmit_TagFailureIsFatal ensures a tag link error aborts the whole card.
*/
func TestSubmit_TagFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.repository.failOn = "LinkCardTags"

	_, err := f.service.Submit(context.Background(), testCreek())
	assert.Error(t, err)
	assert.Empty(t, f.repository.state.cards)
}

/*
TestSubmit_StorageFailure surfaces a retryable STORAGE_ERROR.
*/
func TestSubmit_StorageFailure(t *testing.T) {
	disk, err := blob.NewDiskStore(t.TempDir(), testBlobBase)
	require.NoError(t, err)
	f := newFixtureWithStore(t, failingPutStore{Store: disk})

	submission := testCreek()
	submission.Files = []Upload{memoryUpload("notes.txt", "notes")}

	_, err = f.service.Submit(context.Background(), submission)
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.CodeStorage, appErr.Code)
	assert.True(t, appErr.Retryable())
	assert.Empty(t, f.repository.state.cards)

	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

/*
TestSubmit_Update replaces tags, keeps the thumbnail and appends files.
*/
func TestSubmit_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created := testCreek()
	created.Tags = "River, Fish"
	thumbnail := memoryUpload("creek.jpg", "jpeg-bytes")
	created.Thumbnail = &thumbnail
	created.Files = []Upload{memoryUpload("a.txt", "a")}

	first, err := f.service.Submit(ctx, created)
	require.NoError(t, err)
	originalThumbnail := f.repository.state.cards[first.CardID].ThumbnailLink
	assert.NotEqual(t, testDefaultThumbnail, originalThumbnail)

	updated := testCreek()
	updated.Update = true
	updated.Description = "Now with a description"
	updated.Tags = "Fish"
	updated.Files = []Upload{memoryUpload("b.txt", "b")}

	second, err := f.service.Submit(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, MessageUpdated, second.Message)
	assert.Equal(t, first.CardID, second.CardID)

	stored := f.repository.state.cards[first.CardID]
	assert.Equal(t, "Now with a description", stored.Fields.Description)
	assert.Equal(t, originalThumbnail, stored.ThumbnailLink)
	assert.Equal(t, []string{"Fish"}, f.repository.state.cardTags[first.CardID])
	assert.Len(t, f.repository.filesOf(first.CardID), 2)

	// Same tags again: the link set does not change
	_, err = f.service.Submit(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fish"}, f.repository.state.cardTags[first.CardID])
}

/*
TestSubmit_UpdateRenamesByOriginalTitle locates the card through original_title
and deletes the thumbnail it replaces.
*/
func TestSubmit_UpdateRenamesByOriginalTitle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created := testCreek()
	thumbnail := memoryUpload("old.png", "old")
	created.Thumbnail = &thumbnail
	first, err := f.service.Submit(ctx, created)
	require.NoError(t, err)

	oldKey, ok := blob.KeyFromURL(f.store, f.repository.state.cards[first.CardID].ThumbnailLink)
	require.True(t, ok)

	renamed := testCreek()
	renamed.Update = true
	renamed.Title = "Test Creek North"
	renamed.OriginalTitle = "Test Creek"
	replacement := memoryUpload("new.gif", "new")
	renamed.Thumbnail = &replacement

	second, err := f.service.Submit(ctx, renamed)
	require.NoError(t, err)
	assert.Equal(t, first.CardID, second.CardID)
	assert.Equal(t, "Test Creek North", f.repository.state.cards[first.CardID].Fields.Title)

	exists, err := f.store.Exists(ctx, oldKey)
	require.NoError(t, err)
	assert.False(t, exists)
}

/*
TestSubmit_UpdateMissingCard fails with NOT_FOUND.
*/
func TestSubmit_UpdateMissingCard(t *testing.T) {
	f := newFixture(t)

	submission := testCreek()
	submission.Update = true

	_, err := f.service.Submit(context.Background(), submission)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestSubmit_UpdateTransfersOwner re-resolves the owner when the username changes.
*/
func TestSubmit_UpdateTransfersOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.service.Submit(ctx, testCreek())
	require.NoError(t, err)

	transfer := testCreek()
	transfer.Update = true
	transfer.Username = "bob"
	transfer.Email = "bob@example.com"
	transfer.OriginalUsername = "alice"
	transfer.OriginalEmail = "alice@example.com"

	_, err = f.service.Submit(ctx, transfer)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.repository.state.cards[first.CardID].OwnerID)
}

/*
TestDeleteCard removes rows and blobs but never the default thumbnail.
*/
func TestDeleteCard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	submission := testCreek()
	thumbnail := memoryUpload("creek.png", "png")
	submission.Thumbnail = &thumbnail
	submission.Files = []Upload{memoryUpload("a.txt", "a"), memoryUpload("b.txt", "b")}

	result, err := f.service.Submit(ctx, submission)
	require.NoError(t, err)

	thumbnailKey, ok := blob.KeyFromURL(f.store, f.repository.state.cards[result.CardID].ThumbnailLink)
	require.True(t, ok)
	fileKeys := []string{}
	for _, file := range f.repository.filesOf(result.CardID) {
		fileKeys = append(fileKeys, file.Key)
	}

	require.NoError(t, f.service.DeleteCard(ctx, "ALICE", "Test Creek"))

	assert.Empty(t, f.repository.state.cards)
	assert.Empty(t, f.repository.state.cardTags)
	assert.Empty(t, f.repository.state.files)

	for _, key := range append(fileKeys, thumbnailKey) {
		exists, err := f.store.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists, key)
	}
	assert.Zero(t, f.ledger.Len())
}

/*
TestDeleteCard_Errors covers missing parameters and unknown cards.
*/
func TestDeleteCard_Errors(t *testing.T) {
	f := newFixture(t)

	err := f.service.DeleteCard(context.Background(), "", "Test Creek")
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	err = f.service.DeleteCard(context.Background(), "alice", "Nowhere")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}
