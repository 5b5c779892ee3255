// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package card

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/livingatlas/internal/core/category"
	"github.com/taibuivan/livingatlas/internal/platform/apperr"
	"github.com/taibuivan/livingatlas/internal/platform/blob"
)

// # In-Memory Repository

type memoryUser struct {
	username string
	email    string
}

// memoryState is the whole catalog; InTx works on a clone and swaps it in on commit.
type memoryState struct {
	users    map[int64]memoryUser
	cards    map[int64]Card
	cardTags map[int64][]string
	files    []StoredFile
	tags     []string
	nextID   int64
}

func (state memoryState) clone() memoryState {
	cloned := memoryState{
		users:    make(map[int64]memoryUser, len(state.users)),
		cards:    make(map[int64]Card, len(state.cards)),
		cardTags: make(map[int64][]string, len(state.cardTags)),
		files:    slices.Clone(state.files),
		tags:     slices.Clone(state.tags),
		nextID:   state.nextID,
	}
	for id, user := range state.users {
		cloned.users[id] = user
	}
	for id, card := range state.cards {
		cloned.cards[id] = card
	}
	for id, labels := range state.cardTags {
		cloned.cardTags[id] = slices.Clone(labels)
	}
	return cloned
}

type memoryRepository struct {
	state        memoryState
	failOn       string
	transactions int
	lastFilter   Filter
	fileLinks    map[int64]*FileLink
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{state: memoryState{
		users:    map[int64]memoryUser{1: {username: "alice", email: "alice@example.com"}, 2: {username: "bob", email: "bob@example.com"}},
		cards:    map[int64]Card{},
		cardTags: map[int64][]string{},
		nextID:   100,
	}}
}

func (repository *memoryRepository) InTx(context context.Context, fn func(tx WriteTx) error) error {
	repository.transactions++
	working := repository.state.clone()
	if err := fn(&memoryTx{state: &working, failOn: repository.failOn}); err != nil {
		return err
	}
	repository.state = working
	return nil
}

func (repository *memoryRepository) List(_ context.Context, filter Filter) ([]*View, error) {
	repository.lastFilter = filter
	return []*View{}, nil
}

func (repository *memoryRepository) FindByID(_ context.Context, id int64) (*View, error) {
	card, ok := repository.state.cards[id]
	if !ok {
		return nil, apperr.NotFound("Card")
	}
	return &View{ID: id, Title: card.Fields.Title, ThumbnailLink: card.ThumbnailLink}, nil
}

func (repository *memoryRepository) Markers(_ context.Context) ([]*Marker, error) {
	return []*Marker{}, nil
}

func (repository *memoryRepository) FileLink(_ context.Context, fileID int64) (*FileLink, error) {
	if link, ok := repository.fileLinks[fileID]; ok {
		return link, nil
	}
	return nil, apperr.NotFound("File")
}

func (repository *memoryRepository) Referenced(_ context.Context, _ []blob.Object) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func (repository *memoryRepository) filesOf(cardID int64) []StoredFile {
	var files []StoredFile
	for _, file := range repository.state.files {
		if file.CardID == cardID {
			files = append(files, file)
		}
	}
	return files
}

// memoryTx implements [WriteTx] against a working copy.
type memoryTx struct {
	state  *memoryState
	failOn string
}

var errInjected = errors.New("injected failure")

func (tx *memoryTx) fail(operation string) error {
	if tx.failOn == operation {
		return apperr.PersistenceError(operation, errInjected)
	}
	return nil
}

func (tx *memoryTx) FindUser(_ context.Context, username, email string) (int64, error) {
	for id, user := range tx.state.users {
		if strings.EqualFold(user.username, username) && strings.EqualFold(user.email, email) {
			return id, nil
		}
	}
	return 0, apperr.NotFound("User")
}

func (tx *memoryTx) FindCard(_ context.Context, ownerID int64, title string) (*Owned, error) {
	for id, card := range tx.state.cards {
		if card.OwnerID == ownerID && card.Fields.Title == title {
			return &Owned{ID: id, OwnerID: ownerID, ThumbnailLink: card.ThumbnailLink}, nil
		}
	}
	return nil, apperr.NotFound("Card")
}

func (tx *memoryTx) FindCardByUsername(_ context.Context, username, title string) (*Owned, error) {
	for id, card := range tx.state.cards {
		if strings.EqualFold(tx.state.users[card.OwnerID].username, username) && card.Fields.Title == title {
			return &Owned{ID: id, OwnerID: card.OwnerID, ThumbnailLink: card.ThumbnailLink}, nil
		}
	}
	return nil, apperr.NotFound("Card")
}

func (tx *memoryTx) InsertCard(_ context.Context, card *Card) (int64, error) {
	if err := tx.fail("InsertCard"); err != nil {
		return 0, err
	}
	for _, existing := range tx.state.cards {
		if existing.OwnerID == card.OwnerID && existing.Fields.Title == card.Fields.Title {
			return 0, apperr.Conflict("A card with this title already exists for this user")
		}
	}

	tx.state.nextID++
	stored := *card
	stored.ID = tx.state.nextID
	tx.state.cards[stored.ID] = stored
	return stored.ID, nil
}

func (tx *memoryTx) UpdateCard(_ context.Context, card *Card) error {
	existing, ok := tx.state.cards[card.ID]
	if !ok {
		return apperr.NotFound("Card")
	}

	updated := *card
	if updated.ThumbnailLink == "" {
		updated.ThumbnailLink = existing.ThumbnailLink
	}
	tx.state.cards[card.ID] = updated
	return nil
}

func (tx *memoryTx) InsertFile(_ context.Context, file *StoredFile) (int64, error) {
	if err := tx.fail("InsertFile"); err != nil {
		return 0, err
	}
	tx.state.files = append(tx.state.files, *file)
	return int64(len(tx.state.files)), nil
}

func (tx *memoryTx) DeleteCard(_ context.Context, cardID int64) ([]string, error) {
	if _, ok := tx.state.cards[cardID]; !ok {
		return nil, apperr.NotFound("Card")
	}

	var keys []string
	kept := tx.state.files[:0]
	for _, file := range tx.state.files {
		if file.CardID == cardID {
			keys = append(keys, file.Key)
			continue
		}
		kept = append(kept, file)
	}
	tx.state.files = kept

	delete(tx.state.cardTags, cardID)
	delete(tx.state.cards, cardID)
	return keys, nil
}

func (tx *memoryTx) ExistingTags(_ context.Context, labels []string) ([]string, error) {
	var existing []string
	for _, label := range labels {
		if slices.Contains(tx.state.tags, label) {
			existing = append(existing, label)
		}
	}
	return existing, nil
}

func (tx *memoryTx) InsertTags(_ context.Context, labels []string) error {
	for _, label := range labels {
		if !slices.Contains(tx.state.tags, label) {
			tx.state.tags = append(tx.state.tags, label)
		}
	}
	return nil
}

func (tx *memoryTx) ClearCardTags(_ context.Context, cardID int64) error {
	delete(tx.state.cardTags, cardID)
	return nil
}

func (tx *memoryTx) LinkCardTags(_ context.Context, cardID int64, labels []string) error {
	if err := tx.fail("LinkCardTags"); err != nil {
		return err
	}
	for _, label := range labels {
		if !slices.Contains(tx.state.cardTags[cardID], label) {
			tx.state.cardTags[cardID] = append(tx.state.cardTags[cardID], label)
		}
	}
	return nil
}

// # Fixtures

const (
	testDefaultThumbnail = "https://placeholder.test/default.png"
	testBlobBase         = "http://blobs.test"
)

type failingPutStore struct {
	blob.Store
}

func (failingPutStore) Put(_ context.Context, _ string, _ io.Reader, _ int64, _ string) (string, error) {
	return "", errors.New("bucket unavailable")
}

type fixture struct {
	repository *memoryRepository
	store      blob.Store
	ledger     *blob.MemoryLedger
	service    *Service
	tempDir    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := blob.NewDiskStore(t.TempDir(), testBlobBase)
	require.NoError(t, err)
	return newFixtureWithStore(t, store)
}

func newFixtureWithStore(t *testing.T, store blob.Store) *fixture {
	t.Helper()

	tempDir := t.TempDir()
	repository := newMemoryRepository()
	ledger := blob.NewMemoryLedger()
	registry := category.NewRegistry([]category.Category{{ID: 1, Label: "River"}, {ID: 2, Label: "Watershed"}, {ID: 3, Label: "Places"}})
	packager := NewPackager(store, PackagerConfig{
		DefaultThumbnail: testDefaultThumbnail,
		MaxUploadBytes:   1 << 20,
		TempDir:          tempDir,
		Timeout:          5 * time.Second,
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &fixture{
		repository: repository,
		store:      store,
		ledger:     ledger,
		service:    NewService(repository, registry, packager, store, ledger, logger),
		tempDir:    tempDir,
	}
}

func memoryUpload(name, content string) Upload {
	return Upload{
		Filename: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func testCreek() Submission {
	return Submission{
		Title:     "Test Creek",
		Email:     "alice@example.com",
		Username:  "alice",
		Name:      "Alice",
		Category:  "River",
		Latitude:  "47.1",
		Longitude: "-117.4",
		Tags:      "Clean,Scenic",
	}
}
