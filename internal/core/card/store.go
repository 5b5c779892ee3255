// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package card

import (
	"context"

	"github.com/taibuivan/livingatlas/internal/platform/blob"
)

// # Card Data Access

// Reader is the read-only side of the card store.
type Reader interface {

	/*
		List returns the cards matching filter.

		Parameters:
		  - context: context.Context
		  - filter: Filter (category, tags, title, username, bounds, sort)

		Returns:
		  - []*View: Matching cards, empty when nothing matches
		  - error: Database retrieval failures
	*/
	List(context context.Context, filter Filter) ([]*View, error)

	/*
		FindByID returns a single card view.

		Returns:
		  - *View: The hydrated card
		  - error: NOT_FOUND if missing
	*/
	FindByID(context context.Context, id int64) (*View, error)

	// Markers returns the map projection of every card.
	Markers(context context.Context) ([]*Marker, error)

	// FileLink returns the download pointer of an attachment, or NOT_FOUND.
	FileLink(context context.Context, fileID int64) (*FileLink, error)

	// Referenced implements [blob.ReferenceChecker].
	Referenced(context context.Context, objects []blob.Object) (map[string]bool, error)
}

// Repository is the full card store.
type Repository interface {
	Reader

	/*
		InTx runs fn inside one database transaction.

		Description: The transaction commits when fn returns nil and rolls
		back otherwise. fn must not retain tx after returning.

		Returns:
		  - error: fn's error, or a begin/commit failure
	*/
	InTx(context context.Context, fn func(tx WriteTx) error) error
}

// WriteTx is the statement set of the card writer, bound to one transaction.
type WriteTx interface {
	TagStore

	// FindUser resolves a user id by username (case-insensitive) and email.
	FindUser(context context.Context, username, email string) (int64, error)

	// FindCard resolves the card with title owned by ownerID.
	FindCard(context context.Context, ownerID int64, title string) (*Owned, error)

	// FindCardByUsername resolves the card with title owned by any user named username.
	FindCardByUsername(context context.Context, username, title string) (*Owned, error)

	// InsertCard inserts the card and returns its identity.
	InsertCard(context context.Context, card *Card) (int64, error)

	// UpdateCard overwrites the card in place. An empty thumbnail keeps the stored one.
	UpdateCard(context context.Context, card *Card) error

	// InsertFile records an uploaded attachment.
	InsertFile(context context.Context, file *StoredFile) (int64, error)

	// DeleteCard removes the card with its files, tag links and favorites
	// and returns the blob keys of the removed files.
	DeleteCard(context context.Context, cardID int64) ([]string, error)
}
