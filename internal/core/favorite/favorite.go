// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package favorite manages per-user card bookmarks.
//
// A bookmark is a (user, card) pair in atlas.favorites. Adding an existing
// bookmark and removing a missing one both succeed, so clients can toggle
// without reading first. Deleting a card or user cascades to its bookmarks.
package favorite

import "context"

// Response messages.
const (
	MessageBookmarked   = "Card bookmarked successfully"
	MessageUnbookmarked = "Card removed from bookmarks"
)

// Bookmark is one entry of a user's bookmark list.
type Bookmark struct {
	CardID int64 `json:"cardID"`
}

// Repository persists bookmarks.
type Repository interface {
	// FindUserID resolves a username case-insensitively.
	FindUserID(context context.Context, username string) (int64, error)

	// Add inserts the pair and reports whether a new row was written.
	Add(context context.Context, userID, cardID int64) (bool, error)

	// Remove deletes the pair and reports whether a row existed.
	Remove(context context.Context, userID, cardID int64) (bool, error)

	// List returns the user's bookmarks, oldest card first.
	List(context context.Context, userID int64) ([]Bookmark, error)
}
