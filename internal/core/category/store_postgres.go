// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/livingatlas/internal/platform/database/schema"
	"github.com/taibuivan/livingatlas/internal/platform/dberr"
)

// PostgresRepository reads categories from atlas.categories.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed category source.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// List implements [Source].
func (repository *PostgresRepository) List(context context.Context) ([]Category, error) {
	query := fmt.Sprintf(`SELECT %s, %s FROM %s ORDER BY %s`,
		schema.AtlasCategory.ID, schema.AtlasCategory.Label,
		schema.AtlasCategory.Table, schema.AtlasCategory.ID,
	)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_categories")
	}
	defer rows.Close()

	categories := make([]Category, 0, 3)
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.ID, &category.Label); err != nil {
			return nil, dberr.Wrap(err, "scan_category")
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_categories")
	}

	return categories, nil
}
