// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

//go:build container

package card_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/livingatlas/internal/core/card"
	"github.com/taibuivan/livingatlas/internal/core/category"
	"github.com/taibuivan/livingatlas/internal/platform/apperr"
	"github.com/taibuivan/livingatlas/internal/platform/blob"
	"github.com/taibuivan/livingatlas/internal/testhelpers"
)

const defaultThumbnail = "https://placeholder.test/default.png"

type integration struct {
	database   *testhelpers.Postgres
	repository *card.PostgresRepository
	store      *blob.DiskStore
	ledger     *blob.MemoryLedger
	service    *card.Service
}

func newIntegration(t *testing.T) *integration {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	database := testhelpers.StartPostgres(t)
	database.CreateUser(t, "alice", "alice@example.com")
	database.CreateUser(t, "bob", "bob@example.com")

	registry, err := category.Load(ctx, category.NewPostgresRepository(database.Pool), logger)
	require.NoError(t, err)

	store, err := blob.NewDiskStore(t.TempDir(), "http://blobs.test")
	require.NoError(t, err)

	repository := card.NewPostgresRepository(database.Pool)
	ledger := blob.NewMemoryLedger()
	packager := card.NewPackager(store, card.PackagerConfig{
		DefaultThumbnail: defaultThumbnail,
		MaxUploadBytes:   1 << 20,
		TempDir:          t.TempDir(),
		Timeout:          5 * time.Second,
	})

	return &integration{
		database:   database,
		repository: repository,
		store:      store,
		ledger:     ledger,
		service:    card.NewService(repository, registry, packager, store, ledger, logger),
	}
}

func upload(name, content string) card.Upload {
	return card.Upload{
		Filename: name,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func submission(title, latitude, longitude, tags string) card.Submission {
	return card.Submission{
		Title:     title,
		Email:     "alice@example.com",
		Username:  "alice",
		Name:      "Alice",
		Category:  "River",
		Latitude:  latitude,
		Longitude: longitude,
		Tags:      tags,
	}
}

/*
TestPostgres_TestCreekRoundTrip writes a card and reads it back through every reader.
*/
func TestPostgres_TestCreekRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newIntegration(t)

	creek := submission("Test Creek", "47.1", "-117.4", "Clean,Scenic")
	creek.Files = []card.Upload{upload("survey.csv", "site,depth\n")}

	result, err := env.service.Submit(ctx, creek)
	require.NoError(t, err)

	view, err := env.service.GetCard(ctx, result.CardID)
	require.NoError(t, err)
	assert.Equal(t, "Test Creek", view.Title)
	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, "River", view.Category)
	assert.InDelta(t, 47.1, view.Latitude, 1e-9)
	assert.InDelta(t, -117.4, view.Longitude, 1e-9)
	assert.Equal(t, defaultThumbnail, view.ThumbnailLink)
	assert.Equal(t, "Clean, Scenic", view.Tags)
	require.Len(t, view.Files, 1)
	assert.Equal(t, "survey", view.Files[0].Name)
	assert.Equal(t, card.ArchiveExtension, view.Files[0].Extension)

	link, err := env.service.FileLink(ctx, view.Files[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "survey.zip", link.FileName)
	assert.Equal(t, view.Files[0].Link, link.Link)

	markers, err := env.service.Markers(ctx)
	require.NoError(t, err)
	require.Len(t, markers, 1)
	assert.Equal(t, result.CardID, markers[0].ID)

	// Duplicate title for the same owner
	_, err = env.service.Submit(ctx, submission("Test Creek", "47.1", "-117.4", ""))
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
}

/*
TestPostgres_Filters covers conjunctive tags, title search, bounds and sorting.
*/
func TestPostgres_Filters(t *testing.T) {
	ctx := context.Background()
	env := newIntegration(t)

	for _, s := range []card.Submission{
		submission("Test Creek", "47.1", "-117.4", "Clean,Scenic"),
		submission("Muddy Creek", "46.0", "-118.0", "Clean"),
		submission("100% Lake", "10.0", "10.0", "scenic"),
	} {
		_, err := env.service.Submit(ctx, s)
		require.NoError(t, err)
	}

	titles := func(views []*card.View) []string {
		result := make([]string, 0, len(views))
		for _, view := range views {
			result = append(result, view.Title)
		}
		return result
	}

	views, err := env.service.ListCards(ctx, card.Filter{Tags: []string{"clean", "SCENIC"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Test Creek"}, titles(views))

	views, err = env.service.ListCards(ctx, card.Filter{Tags: []string{"Scenic"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Test Creek", "100% Lake"}, titles(views))

	views, err = env.service.ListCards(ctx, card.Filter{Title: "100%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Lake"}, titles(views))

	views, err = env.service.ListCards(ctx, card.Filter{Bounds: &card.Bounds{
		NorthEast: card.Point{Latitude: 48, Longitude: -116},
		SouthWest: card.Point{Latitude: 47.1, Longitude: -118},
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Test Creek"}, titles(views))

	views, err = env.service.ListCards(ctx, card.Filter{Sort: card.SortClosestToMe, Origin: &card.Point{Latitude: 10, Longitude: 10}})
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Lake", "Test Creek", "Muddy Creek"}, titles(views))

	views, err = env.service.ListCards(ctx, card.Filter{Category: "watershed"})
	require.NoError(t, err)
	assert.Empty(t, views)
	assert.NotNil(t, views)
}

/*
TestPostgres_UpdateAndDelete replaces tags on update and cascades a delete.
*/
func TestPostgres_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	env := newIntegration(t)

	creek := submission("Test Creek", "47.1", "-117.4", "River,Fish")
	thumbnail := upload("creek.png", "png")
	creek.Thumbnail = &thumbnail
	creek.Files = []card.Upload{upload("a.txt", "a")}
	created, err := env.service.Submit(ctx, creek)
	require.NoError(t, err)

	update := submission("Test Creek", "47.2", "-117.4", "Fish,Salmon")
	update.Update = true
	update.Files = []card.Upload{upload("b.txt", "b")}
	_, err = env.service.Submit(ctx, update)
	require.NoError(t, err)

	view, err := env.service.GetCard(ctx, created.CardID)
	require.NoError(t, err)
	assert.Equal(t, "Fish, Salmon", view.Tags)
	assert.InDelta(t, 47.2, view.Latitude, 1e-9)
	assert.NotEqual(t, defaultThumbnail, view.ThumbnailLink)
	assert.Len(t, view.Files, 2)

	require.NoError(t, env.service.DeleteCard(ctx, "Alice", "Test Creek"))

	_, err = env.service.GetCard(ctx, created.CardID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	var remaining int
	require.NoError(t, env.database.Pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM atlas.files) + (SELECT COUNT(*) FROM atlas.cardtags)`,
	).Scan(&remaining))
	assert.Zero(t, remaining)

	for _, file := range view.Files {
		key, ok := blob.KeyFromURL(env.store, file.Link)
		require.True(t, ok)
		exists, err := env.store.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)
	}
}

/*
TestPostgres_Referenced reports which stored objects rows still point to.
*/
func TestPostgres_Referenced(t *testing.T) {
	ctx := context.Background()
	env := newIntegration(t)

	creek := submission("Test Creek", "47.1", "-117.4", "")
	creek.Files = []card.Upload{upload("a.txt", "a")}
	result, err := env.service.Submit(ctx, creek)
	require.NoError(t, err)

	view, err := env.service.GetCard(ctx, result.CardID)
	require.NoError(t, err)
	key, ok := blob.KeyFromURL(env.store, view.Files[0].Link)
	require.True(t, ok)

	referenced, err := env.repository.Referenced(ctx, []blob.Object{
		{Key: key, URL: env.store.URL(key)},
		{Key: "files/alice/orphan/a.zip", URL: env.store.URL("files/alice/orphan/a.zip")},
	})
	require.NoError(t, err)
	assert.True(t, referenced[key])
	assert.False(t, referenced["files/alice/orphan/a.zip"])
}
