// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package favorite

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/livingatlas/internal/platform/apperr"
)

// Service implements bookmark operations.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new favorite [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{repository: repository, logger: logger}
}

/*
Bookmark adds cardID to the user's bookmarks. Bookmarking twice is a no-op.

Returns:
  - error: NOT_FOUND for an unknown user or card
*/
func (service *Service) Bookmark(context context.Context, username string, cardID int64) error {
	userID, err := service.repository.FindUserID(context, strings.TrimSpace(username))
	if err != nil {
		return err
	}

	added, err := service.repository.Add(context, userID, cardID)
	if err != nil {
		return err
	}

	service.logger.InfoContext(context, "card_bookmarked",
		slog.Int64("user_id", userID),
		slog.Int64("card_id", cardID),
		slog.Bool("new", added),
	)
	return nil
}

/*
Unbookmark removes cardID from the user's bookmarks. Removing a missing
bookmark succeeds.
*/
func (service *Service) Unbookmark(context context.Context, username string, cardID int64) error {
	userID, err := service.repository.FindUserID(context, strings.TrimSpace(username))
	if err != nil {
		return err
	}

	removed, err := service.repository.Remove(context, userID, cardID)
	if err != nil {
		return err
	}

	service.logger.InfoContext(context, "card_unbookmarked",
		slog.Int64("user_id", userID),
		slog.Int64("card_id", cardID),
		slog.Bool("existed", removed),
	)
	return nil
}

// List returns the user's bookmarks. An unknown username yields an empty list.
func (service *Service) List(context context.Context, username string) ([]Bookmark, error) {
	userID, err := service.repository.FindUserID(context, strings.TrimSpace(username))
	if apperr.HasCode(err, apperr.CodeNotFound) {
		return []Bookmark{}, nil
	}
	if err != nil {
		return nil, err
	}

	return service.repository.List(context, userID)
}
