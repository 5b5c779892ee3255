// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/livingatlas/internal/platform/database/schema"
	"github.com/taibuivan/livingatlas/internal/platform/dberr"
)

// postgresUsers implements userStore on atlas.users.
type postgresUsers struct {
	pool *pgxpool.Pool
}

func (store postgresUsers) InsertUser(context context.Context, user seedUser) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (%s) DO NOTHING
	`,
		schema.AtlasUser.Table,
		schema.AtlasUser.Username, schema.AtlasUser.Email, schema.AtlasUser.HashedPassword, schema.AtlasUser.IsAdmin,
		schema.AtlasUser.Email,
	)

	tag, err := store.pool.Exec(context, query, user.Username, user.Email, user.HashedPassword, user.Admin)
	if err != nil {
		return false, dberr.Wrap(err, "insert_user")
	}
	return tag.RowsAffected() == 1, nil
}
