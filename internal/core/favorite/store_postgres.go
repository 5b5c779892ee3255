// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package favorite

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

// PostgresRepository implements [Repository] on atlas.favorites.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (repository *PostgresRepository) FindUserID(context context.Context, username string) (int64, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE LOWER(%s) = LOWER($1) ORDER BY %s LIMIT 1`,
		schema.AtlasUser.ID, schema.AtlasUser.Table, schema.AtlasUser.Username, schema.AtlasUser.ID,
	)

	var userID int64
	if err := repository.pool.QueryRow(context, query, username).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperr.NotFound("User")
		}
		return 0, dberr.Wrap(err, "find_user")
	}
	return userID, nil
}

/*
Add bookmarks a card.

Returns:
  - bool: false when the bookmark already existed
  - error: NOT_FOUND for an unknown card, or database failures
*/
func (repository *PostgresRepository) Add(context context.Context, userID, cardID int64) (bool, error) {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		schema.AtlasFavorite.Table, schema.AtlasFavorite.UserID, schema.AtlasFavorite.CardID,
	)

	tag, err := repository.pool.Exec(context, query, userID, cardID)
	if err != nil {
		wrapped := dberr.Wrap(err, "add_favorite")
		if apperr.HasCode(wrapped, apperr.CodeNotFound) {
			return false, apperr.NotFound("Card")
		}
		return false, wrapped
	}
	return tag.RowsAffected() == 1, nil
}

func (repository *PostgresRepository) Remove(context context.Context, userID, cardID int64) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`,
		schema.AtlasFavorite.Table, schema.AtlasFavorite.UserID, schema.AtlasFavorite.CardID,
	)

	tag, err := repository.pool.Exec(context, query, userID, cardID)
	if err != nil {
		return false, dberr.Wrap(err, "remove_favorite")
	}
	return tag.RowsAffected() == 1, nil
}

func (repository *PostgresRepository) List(context context.Context, userID int64) ([]Bookmark, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC`,
		schema.AtlasFavorite.CardID, schema.AtlasFavorite.Table,
		schema.AtlasFavorite.UserID, schema.AtlasFavorite.CardID,
	)

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_favorites")
	}

	cardIDs, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, dberr.Wrap(err, "list_favorites")
	}

	bookmarks := make([]Bookmark, 0, len(cardIDs))
	for _, cardID := range cardIDs {
		bookmarks = append(bookmarks, Bookmark{CardID: cardID})
	}
	return bookmarks, nil
}
