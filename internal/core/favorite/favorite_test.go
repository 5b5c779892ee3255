// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package favorite_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/livingatlas/internal/core/favorite"
	"github.com/taibuivan/livingatlas/internal/platform/apperr"
)

// memoryRepository keeps bookmarks per user id.
type memoryRepository struct {
	users     map[string]int64
	cards     []int64
	bookmarks map[int64][]int64
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		users:     map[string]int64{"alice": 1, "bob": 2},
		cards:     []int64{10, 11, 12},
		bookmarks: map[int64][]int64{},
	}
}

func (repository *memoryRepository) FindUserID(_ context.Context, username string) (int64, error) {
	if id, ok := repository.users[strings.ToLower(username)]; ok {
		return id, nil
	}
	return 0, apperr.NotFound("User")
}

func (repository *memoryRepository) Add(_ context.Context, userID, cardID int64) (bool, error) {
	if !slices.Contains(repository.cards, cardID) {
		return false, apperr.NotFound("Card")
	}
	if slices.Contains(repository.bookmarks[userID], cardID) {
		return false, nil
	}
	repository.bookmarks[userID] = append(repository.bookmarks[userID], cardID)
	return true, nil
}

func (repository *memoryRepository) Remove(_ context.Context, userID, cardID int64) (bool, error) {
	index := slices.Index(repository.bookmarks[userID], cardID)
	if index < 0 {
		return false, nil
	}
	repository.bookmarks[userID] = slices.Delete(repository.bookmarks[userID], index, index+1)
	return true, nil
}

func (repository *memoryRepository) List(_ context.Context, userID int64) ([]favorite.Bookmark, error) {
	bookmarks := make([]favorite.Bookmark, 0)
	for _, cardID := range repository.bookmarks[userID] {
		bookmarks = append(bookmarks, favorite.Bookmark{CardID: cardID})
	}
	return bookmarks, nil
}

func newService(repository favorite.Repository) *favorite.Service {
	return favorite.NewService(repository, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

/*
TestService_BookmarkLifecycle adds, repeats, lists and removes a bookmark.
*/
func TestService_BookmarkLifecycle(t *testing.T) {
	ctx := context.Background()
	repository := newMemoryRepository()
	service := newService(repository)

	require.NoError(t, service.Bookmark(ctx, "Alice", 10))
	require.NoError(t, service.Bookmark(ctx, "alice", 10))
	require.NoError(t, service.Bookmark(ctx, "ALICE", 12))

	bookmarks, err := service.List(ctx, " alice ")
	require.NoError(t, err)
	assert.Equal(t, []favorite.Bookmark{{CardID: 10}, {CardID: 12}}, bookmarks)

	require.NoError(t, service.Unbookmark(ctx, "alice", 10))
	require.NoError(t, service.Unbookmark(ctx, "alice", 10))

	bookmarks, err = service.List(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []favorite.Bookmark{{CardID: 12}}, bookmarks)
}

/*
TestService_Errors covers unknown users and cards.
*/
func TestService_Errors(t *testing.T) {
	ctx := context.Background()
	service := newService(newMemoryRepository())

	assert.True(t, apperr.HasCode(service.Bookmark(ctx, "carol", 10), apperr.CodeNotFound))
	assert.True(t, apperr.HasCode(service.Bookmark(ctx, "alice", 99), apperr.CodeNotFound))
	assert.True(t, apperr.HasCode(service.Unbookmark(ctx, "carol", 10), apperr.CodeNotFound))

	bookmarks, err := service.List(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, bookmarks)
	assert.Empty(t, bookmarks)
}

/*
TestHandler covers the JSON contract of every favorites endpoint.
*/
func TestHandler(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
		want   string
	}{
		{
			name:   "bookmark",
			method: http.MethodPost,
			target: "/",
			body:   `{"username":"alice","cardID":11}`,
			status: http.StatusOK,
			want:   `{"data":{"message":"Card bookmarked successfully"}}`,
		},
		{
			name:   "bookmark without card",
			method: http.MethodPost,
			target: "/",
			body:   `{"username":"alice"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "bookmark unknown card",
			method: http.MethodPost,
			target: "/",
			body:   `{"username":"alice","cardID":404}`,
			status: http.StatusNotFound,
		},
		{
			name:   "unbookmark",
			method: http.MethodDelete,
			target: "/",
			body:   `{"username":"bob","cardID":11}`,
			status: http.StatusOK,
			want:   `{"data":{"message":"Card removed from bookmarks"}}`,
		},
		{
			name:   "list",
			method: http.MethodGet,
			target: "/?username=alice",
			status: http.StatusOK,
			want:   `{"data":{"bookmarkedCards":[{"cardID":10}]}}`,
		},
		{
			name:   "list unknown user",
			method: http.MethodGet,
			target: "/?username=carol",
			status: http.StatusOK,
			want:   `{"data":{"bookmarkedCards":[]}}`,
		},
		{
			name:   "list without username",
			method: http.MethodGet,
			target: "/",
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repository := newMemoryRepository()
			repository.bookmarks[1] = []int64{10}
			router := favorite.NewHandler(newService(repository)).Routes()

			request := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			request.Header.Set("Content-Type", "application/json")
			recorder := httptest.NewRecorder()

			router.ServeHTTP(recorder, request)
			require.Equal(t, tt.status, recorder.Code, recorder.Body.String())
			if tt.want != "" {
				assert.JSONEq(t, tt.want, recorder.Body.String())
			}
		})
	}
}
