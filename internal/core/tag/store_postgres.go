// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tag

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/livingatlas/internal/platform/database/schema"
	"github.com/taibuivan/livingatlas/internal/platform/dberr"
)

// PostgresRepository implements [Repository] on atlas.tags.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a new [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (repository *PostgresRepository) ListTags(context context.Context) ([]*Tag, error) {
	query := fmt.Sprintf(`SELECT %s, %s FROM %s ORDER BY %s ASC`,
		schema.AtlasTag.ID, schema.AtlasTag.Label,
		schema.AtlasTag.Table, schema.AtlasTag.Label,
	)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_tags")
	}

	tags, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Tag, error) {
		tag := &Tag{}
		return tag, row.Scan(&tag.ID, &tag.Label)
	})
	if err != nil {
		return nil, dberr.Wrap(err, "scan_tag")
	}

	return tags, nil
}
