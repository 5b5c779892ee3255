// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package card

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/livingatlas/internal/platform/apperr"
	"github.com/taibuivan/livingatlas/internal/platform/database/schema"
	"github.com/taibuivan/livingatlas/internal/platform/dberr"
)

// # PostgreSQL Repository

// PostgresRepository implements [Repository] with pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed card store.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InTx implements [Repository].
func (repository *PostgresRepository) InTx(context context.Context, fn func(tx WriteTx) error) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "begin_card_transaction")
	}
	defer transaction.Rollback(context)

	if err := fn(&postgresTx{transaction: transaction}); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return dberr.Wrap(err, "commit_card_transaction")
	}
	return nil
}

// postgresTx implements [WriteTx] over one pgx transaction.
type postgresTx struct {
	transaction pgx.Tx
}

// # Owner & Card Lookups

func (tx *postgresTx) FindUser(context context.Context, username, email string) (int64, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE LOWER(%s) = LOWER($1) AND LOWER(%s) = LOWER($2)
	`,
		schema.AtlasUser.ID, schema.AtlasUser.Table,
		schema.AtlasUser.Username, schema.AtlasUser.Email,
	)

	var userID int64
	if err := tx.transaction.QueryRow(context, query, username, email).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.NotFound("User")
		}
		return 0, dberr.Wrap(err, "find_card_owner")
	}
	return userID, nil
}

func (tx *postgresTx) FindCard(context context.Context, ownerID int64, title string) (*Owned, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s FROM %s
		WHERE %s = $1 AND %s = $2
		FOR UPDATE
	`,
		schema.AtlasCard.ID, schema.AtlasCard.UserID, schema.AtlasCard.ThumbnailLink,
		schema.AtlasCard.Table,
		schema.AtlasCard.UserID, schema.AtlasCard.Title,
	)

	owned := &Owned{}
	err := tx.transaction.QueryRow(context, query, ownerID, title).Scan(&owned.ID, &owned.OwnerID, &owned.ThumbnailLink)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Card")
		}
		return nil, dberr.Wrap(err, "find_card")
	}
	return owned, nil
}

func (tx *postgresTx) FindCardByUsername(context context.Context, username, title string) (*Owned, error) {
	query := fmt.Sprintf(`
		SELECT c.%s, c.%s, c.%s
		FROM %s c
		JOIN %s u ON c.%s = u.%s
		WHERE LOWER(u.%s) = LOWER($1) AND c.%s = $2
		ORDER BY c.%s
		LIMIT 1
		FOR UPDATE OF c
	`,
		schema.AtlasCard.ID, schema.AtlasCard.UserID, schema.AtlasCard.ThumbnailLink,
		schema.AtlasCard.Table,
		schema.AtlasUser.Table, schema.AtlasCard.UserID, schema.AtlasUser.ID,
		schema.AtlasUser.Username, schema.AtlasCard.Title,
		schema.AtlasCard.ID,
	)

	owned := &Owned{}
	err := tx.transaction.QueryRow(context, query, username, title).Scan(&owned.ID, &owned.OwnerID, &owned.ThumbnailLink)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Card")
		}
		return nil, dberr.Wrap(err, "find_card_by_username")
	}
	return owned, nil
}

// # Card Rows

/*
InsertCard inserts a card row and returns the identity assigned by the database.

Returns:
  - int64: The new card id
  - error: CONFLICT when the owner already has a card with this title
*/
func (tx *postgresTx) InsertCard(context context.Context, card *Card) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING %s
	`,
		schema.AtlasCard.Table,
		schema.AtlasCard.UserID, schema.AtlasCard.Name, schema.AtlasCard.Title, schema.AtlasCard.CategoryID,
		schema.AtlasCard.Description, schema.AtlasCard.Organization, schema.AtlasCard.Funding, schema.AtlasCard.Link,
		schema.AtlasCard.Latitude, schema.AtlasCard.Longitude, schema.AtlasCard.ThumbnailLink,
		schema.AtlasCard.ID,
	)

	var cardID int64
	err := tx.transaction.QueryRow(context, query,
		card.OwnerID, card.Name, card.Fields.Title, card.Fields.CategoryID,
		card.Fields.Description, card.Fields.Organization, card.Fields.Funding, card.Fields.Link,
		card.Fields.Latitude, card.Fields.Longitude, card.ThumbnailLink,
	).Scan(&cardID)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return 0, duplicateTitle(err)
		}
		return 0, dberr.Wrap(err, "insert_card")
	}
	return cardID, nil
}

/*
UpdateCard overwrites a card in place.

Description: The thumbnail is coalesced to the stored value when the new
link is empty. The date posted is left unchanged.
*/
func (tx *postgresTx) UpdateCard(context context.Context, card *Card) error {
	query := fmt.Sprintf(`
		UPDATE %s SET
			%s = $2, %s = $3, %s = $4, %s = $5, %s = $6,
			%s = $7, %s = $8, %s = $9, %s = $10, %s = $11,
			%s = COALESCE(NULLIF($12, ''), %s)
		WHERE %s = $1
	`,
		schema.AtlasCard.Table,
		schema.AtlasCard.UserID, schema.AtlasCard.Name, schema.AtlasCard.Title, schema.AtlasCard.CategoryID, schema.AtlasCard.Description,
		schema.AtlasCard.Organization, schema.AtlasCard.Funding, schema.AtlasCard.Link, schema.AtlasCard.Latitude, schema.AtlasCard.Longitude,
		schema.AtlasCard.ThumbnailLink, schema.AtlasCard.ThumbnailLink,
		schema.AtlasCard.ID,
	)

	tag, err := tx.transaction.Exec(context, query,
		card.ID,
		card.OwnerID, card.Name, card.Fields.Title, card.Fields.CategoryID, card.Fields.Description,
		card.Fields.Organization, card.Fields.Funding, card.Fields.Link, card.Fields.Latitude, card.Fields.Longitude,
		card.ThumbnailLink,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return duplicateTitle(err)
		}
		return dberr.Wrap(err, "update_card")
	}

	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Card")
	}
	return nil
}

/*
DeleteCard removes a card and everything hanging off it in one batch.

Returns:
  - []string: Blob keys of the removed attachments
  - error: Database failures, or NOT_FOUND if the card row was already gone
*/
func (tx *postgresTx) DeleteCard(context context.Context, cardID int64) ([]string, error) {

	// Attachments first so their keys can be returned
	filesQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 RETURNING %s`,
		schema.AtlasFile.Table, schema.AtlasFile.CardID, schema.AtlasFile.DirectoryPath,
	)

	rows, err := tx.transaction.Query(context, filesQuery, cardID)
	if err != nil {
		return nil, dberr.Wrap(err, "delete_card_files")
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dberr.Wrap(err, "delete_card_files")
	}

	// Links, bookmarks and the card itself
	batch := &pgx.Batch{}
	batch.Queue(fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.AtlasCardTag.Table, schema.AtlasCardTag.CardID), cardID)
	batch.Queue(fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.AtlasFavorite.Table, schema.AtlasFavorite.CardID), cardID)
	batch.Queue(fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.AtlasCard.Table, schema.AtlasCard.ID), cardID)

	results := tx.transaction.SendBatch(context, batch)
	for range 2 {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return nil, dberr.Wrap(err, "delete_card_links")
		}
	}

	commandTag, err := results.Exec()
	if closeErr := results.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, dberr.Wrap(err, "delete_card")
	}

	if commandTag.RowsAffected() == 0 {
		return nil, apperr.NotFound("Card")
	}
	return keys, nil
}

// # Attachments

func (tx *postgresTx) InsertFile(context context.Context, file *StoredFile) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`,
		schema.AtlasFile.Table,
		schema.AtlasFile.CardID, schema.AtlasFile.FileName, schema.AtlasFile.DirectoryPath,
		schema.AtlasFile.FileLink, schema.AtlasFile.FileSize, schema.AtlasFile.FileExtension,
		schema.AtlasFile.ID,
	)

	var fileID int64
	err := tx.transaction.QueryRow(context, query,
		file.CardID, file.Name, file.Key, file.Link, file.Size, file.Extension,
	).Scan(&fileID)
	if err != nil {
		return 0, dberr.Wrap(err, "insert_file")
	}
	return fileID, nil
}

// # Tag Vocabulary

func (tx *postgresTx) ExistingTags(context context.Context, labels []string) ([]string, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1)`,
		schema.AtlasTag.Label, schema.AtlasTag.Table, schema.AtlasTag.Label,
	)

	rows, err := tx.transaction.Query(context, query, labels)
	if err != nil {
		return nil, dberr.Wrap(err, "select_existing_tags")
	}

	existing, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dberr.Wrap(err, "select_existing_tags")
	}
	return existing, nil
}

/*
InsertTags adds labels to the vocabulary.

Description: ON CONFLICT DO NOTHING lets a concurrent writer that inserted
the same label first win without failing this transaction.
*/
func (tx *postgresTx) InsertTags(context context.Context, labels []string) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1) ON CONFLICT (%s) DO NOTHING`,
		schema.AtlasTag.Table, schema.AtlasTag.Label, schema.AtlasTag.Label,
	)

	batch := &pgx.Batch{}
	for _, label := range labels {
		batch.Queue(query, label)
	}

	if err := tx.transaction.SendBatch(context, batch).Close(); err != nil {
		return dberr.Wrap(err, "insert_tags")
	}
	return nil
}

func (tx *postgresTx) ClearCardTags(context context.Context, cardID int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.AtlasCardTag.Table, schema.AtlasCardTag.CardID)
	if _, err := tx.transaction.Exec(context, query, cardID); err != nil {
		return dberr.Wrap(err, "clear_card_tags")
	}
	return nil
}

func (tx *postgresTx) LinkCardTags(context context.Context, cardID int64, labels []string) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s)
		SELECT $1, %s FROM %s WHERE %s = ANY($2)
		ON CONFLICT DO NOTHING
	`,
		schema.AtlasCardTag.Table, schema.AtlasCardTag.CardID, schema.AtlasCardTag.TagID,
		schema.AtlasTag.ID, schema.AtlasTag.Table, schema.AtlasTag.Label,
	)

	tag, err := tx.transaction.Exec(context, query, cardID, labels)
	if err != nil {
		return dberr.Wrap(err, "link_card_tags")
	}

	// Links were cleared or the card is new, so every label must produce a row
	if tag.RowsAffected() < int64(len(labels)) {
		return apperr.PersistenceError("link_card_tags", fmt.Errorf("linked %d rows for %d labels", tag.RowsAffected(), len(labels)))
	}
	return nil
}

func duplicateTitle(cause error) error {
	conflict := apperr.Conflict("A card with this title already exists for this user")
	conflict.Cause = cause
	return conflict
}
