// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package card

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/livingatlas/internal/platform/apperr"
	"github.com/taibuivan/livingatlas/internal/platform/blob"
	"github.com/taibuivan/livingatlas/internal/platform/database/schema"
	"github.com/taibuivan/livingatlas/internal/platform/dberr"
)

// # Card Reader

// tagsSubquery aggregates the distinct tag labels of card c into one string.
var tagsSubquery = fmt.Sprintf(`
	COALESCE((
		SELECT string_agg(DISTINCT t.%s, ', ')
		FROM %s t
		JOIN %s ct ON t.%s = ct.%s
		WHERE ct.%s = c.%s
	), '')`,
	schema.AtlasTag.Label,
	schema.AtlasTag.Table,
	schema.AtlasCardTag.Table, schema.AtlasTag.ID, schema.AtlasCardTag.TagID,
	schema.AtlasCardTag.CardID, schema.AtlasCard.ID,
)

// viewSelect is the shared projection of every card view query. Tags and
// files are aggregated in correlated subqueries so the join never fans out.
var viewSelect = fmt.Sprintf(`
	SELECT
		c.%s, u.%s, u.%s, c.%s, c.%s, cat.%s, c.%s,
		c.%s, c.%s, c.%s, c.%s,
		%s AS tags,
		c.%s::float8, c.%s::float8, c.%s,
		COALESCE((
			SELECT json_agg(json_build_object(
				'fileid', f.%s, 'filename', f.%s, 'file_link', f.%s, 'fileextension', f.%s
			) ORDER BY f.%s)
			FROM %s f
			WHERE f.%s = c.%s
		), '[]') AS files
	FROM %s c
	JOIN %s cat ON c.%s = cat.%s
	JOIN %s u ON c.%s = u.%s
	WHERE TRUE`,
	schema.AtlasCard.ID, schema.AtlasUser.Username, schema.AtlasUser.Email, schema.AtlasCard.Name, schema.AtlasCard.Title,
	schema.AtlasCategory.Label, schema.AtlasCard.DatePosted,
	schema.AtlasCard.Description, schema.AtlasCard.Organization, schema.AtlasCard.Funding, schema.AtlasCard.Link,
	tagsSubquery,
	schema.AtlasCard.Latitude, schema.AtlasCard.Longitude, schema.AtlasCard.ThumbnailLink,
	schema.AtlasFile.ID, schema.AtlasFile.FileName, schema.AtlasFile.FileLink, schema.AtlasFile.FileExtension,
	schema.AtlasFile.ID,
	schema.AtlasFile.Table,
	schema.AtlasFile.CardID, schema.AtlasCard.ID,
	schema.AtlasCard.Table,
	schema.AtlasCategory.Table, schema.AtlasCard.CategoryID, schema.AtlasCategory.ID,
	schema.AtlasUser.Table, schema.AtlasCard.UserID, schema.AtlasUser.ID,
)

// likeEscaper escapes LIKE metacharacters so titles match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

/*
buildListQuery translates a [Filter] into SQL.

Description: Predicates are appended to a strings.Builder with positional
arguments. Tag filtering is conjunctive: a card matches when the number of
its distinct, case-folded labels found in the requested set equals the
size of that set.

Returns:
  - string: The SQL text
  - []any: Positional arguments
*/
func buildListQuery(filter Filter) (string, []any) {
	var queryBuilder strings.Builder
	var args []any
	argID := 1

	queryBuilder.WriteString(viewSelect)

	// Category Filtering
	if filter.Category != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND LOWER(cat.%s) = LOWER($%d)", schema.AtlasCategory.Label, argID))
		args = append(args, filter.Category)
		argID++
	}

	// Tag Filtering (all requested tags must be present)
	if tags := foldTags(filter.Tags); len(tags) > 0 {
		queryBuilder.WriteString(fmt.Sprintf(`
		AND (
			SELECT COUNT(DISTINCT LOWER(t.%s))
			FROM %s t
			JOIN %s ct ON t.%s = ct.%s
			WHERE ct.%s = c.%s AND LOWER(t.%s) = ANY($%d)
		) = $%d`,
			schema.AtlasTag.Label,
			schema.AtlasTag.Table,
			schema.AtlasCardTag.Table, schema.AtlasTag.ID, schema.AtlasCardTag.TagID,
			schema.AtlasCardTag.CardID, schema.AtlasCard.ID, schema.AtlasTag.Label, argID,
			argID+1,
		))
		args = append(args, tags, len(tags))
		argID += 2
	}

	// Title Search
	if filter.Title != "" {
		queryBuilder.WriteString(fmt.Sprintf(` AND c.%s ILIKE $%d ESCAPE '\'`, schema.AtlasCard.Title, argID))
		args = append(args, "%"+likeEscaper.Replace(filter.Title)+"%")
		argID++
	}

	// Owner Filtering
	if filter.Username != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND LOWER(u.%s) = LOWER($%d)", schema.AtlasUser.Username, argID))
		args = append(args, filter.Username)
		argID++
	}

	// Bounding Box (inclusive, corners may be given in either order)
	if filter.Bounds != nil {
		ne, sw := filter.Bounds.NorthEast, filter.Bounds.SouthWest
		queryBuilder.WriteString(fmt.Sprintf(" AND c.%s BETWEEN $%d AND $%d AND c.%s BETWEEN $%d AND $%d",
			schema.AtlasCard.Latitude, argID, argID+1,
			schema.AtlasCard.Longitude, argID+2, argID+3,
		))
		args = append(args,
			math.Min(ne.Latitude, sw.Latitude), math.Max(ne.Latitude, sw.Latitude),
			math.Min(ne.Longitude, sw.Longitude), math.Max(ne.Longitude, sw.Longitude),
		)
		argID += 4
	}

	// Apply Sorting
	switch {
	case filter.Sort == SortClosestToMe && filter.Origin != nil:
		queryBuilder.WriteString(fmt.Sprintf(" ORDER BY power(c.%s::float8 - $%d, 2) + power(c.%s::float8 - $%d, 2) ASC, c.%s DESC",
			schema.AtlasCard.Latitude, argID, schema.AtlasCard.Longitude, argID+1, schema.AtlasCard.ID,
		))
		args = append(args, filter.Origin.Latitude, filter.Origin.Longitude)
	case filter.Sort == SortRecentlyAdded:
		queryBuilder.WriteString(fmt.Sprintf(" ORDER BY c.%s DESC, c.%s DESC", schema.AtlasCard.DatePosted, schema.AtlasCard.ID))
	default:
		queryBuilder.WriteString(fmt.Sprintf(" ORDER BY c.%s DESC", schema.AtlasCard.ID))
	}

	return queryBuilder.String(), args
}

// foldTags lower-cases and de-duplicates requested tag labels.
func foldTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	folded := make([]string, 0, len(tags))
	for _, tag := range tags {
		key := strings.ToLower(strings.TrimSpace(tag))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		folded = append(folded, key)
	}
	return folded
}

/*
List returns the card views matching filter.

Returns:
  - []*View: Matching cards; an empty slice when nothing matches
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter) ([]*View, error) {
	query, args := buildListQuery(filter)

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "list_cards")
	}
	defer rows.Close()

	views := make([]*View, 0)
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_cards")
	}
	return views, nil
}

// FindByID implements [Reader].
func (repository *PostgresRepository) FindByID(context context.Context, id int64) (*View, error) {
	query := viewSelect + fmt.Sprintf(" AND c.%s = $1", schema.AtlasCard.ID)

	view, err := scanView(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Card")
		}
		return nil, err
	}
	return view, nil
}

// scanView hydrates one row of [viewSelect].
func scanView(row pgx.Row) (*View, error) {
	view := &View{}
	var filesJSON []byte

	err := row.Scan(
		&view.ID, &view.Username, &view.Email, &view.Name, &view.Title, &view.Category, &view.DatePosted,
		&view.Description, &view.Organization, &view.Funding, &view.Link,
		&view.Tags,
		&view.Latitude, &view.Longitude, &view.ThumbnailLink,
		&filesJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, dberr.Wrap(err, "scan_card")
	}

	if err := json.Unmarshal(filesJSON, &view.Files); err != nil {
		return nil, apperr.Internal(fmt.Errorf("postgres: failed to unmarshal card files: %w", err))
	}
	return view, nil
}

/*
Markers returns the map projection of every card, newest first.
*/
func (repository *PostgresRepository) Markers(context context.Context) ([]*Marker, error) {
	query := fmt.Sprintf(`
		SELECT c.%s, c.%s, c.%s::float8, c.%s::float8, cat.%s, %s
		FROM %s c
		JOIN %s cat ON c.%s = cat.%s
		ORDER BY c.%s DESC
	`,
		schema.AtlasCard.ID, schema.AtlasCard.Title, schema.AtlasCard.Latitude, schema.AtlasCard.Longitude,
		schema.AtlasCategory.Label, tagsSubquery,
		schema.AtlasCard.Table,
		schema.AtlasCategory.Table, schema.AtlasCard.CategoryID, schema.AtlasCategory.ID,
		schema.AtlasCard.ID,
	)

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, dberr.Wrap(err, "list_markers")
	}
	defer rows.Close()

	markers := make([]*Marker, 0)
	for rows.Next() {
		marker := &Marker{}
		if err := rows.Scan(&marker.ID, &marker.Title, &marker.Latitude, &marker.Longitude, &marker.Category, &marker.Tags); err != nil {
			return nil, dberr.Wrap(err, "scan_marker")
		}
		markers = append(markers, marker)
	}

	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "list_markers")
	}
	return markers, nil
}

// FileLink implements [Reader].
func (repository *PostgresRepository) FileLink(context context.Context, fileID int64) (*FileLink, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s FROM %s WHERE %s = $1`,
		schema.AtlasFile.FileLink, schema.AtlasFile.FileName, schema.AtlasFile.FileExtension,
		schema.AtlasFile.Table, schema.AtlasFile.ID,
	)

	var link FileLink
	var extension string
	if err := repository.pool.QueryRow(context, query, fileID).Scan(&link.Link, &link.FileName, &extension); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("File")
		}
		return nil, dberr.Wrap(err, "find_file_link")
	}

	if extension != "" {
		link.FileName += "." + strings.ToLower(extension)
	}
	return &link, nil
}

/*
Referenced reports which blob objects are still used by a card.

Description: Attachments are matched on their stored key, thumbnails on
their public URL.
*/
func (repository *PostgresRepository) Referenced(context context.Context, objects []blob.Object) (map[string]bool, error) {
	referenced := make(map[string]bool, len(objects))
	if len(objects) == 0 {
		return referenced, nil
	}

	keys := make([]string, 0, len(objects))
	urls := make([]string, 0, len(objects))
	keyByURL := make(map[string]string, len(objects))
	for _, object := range objects {
		keys = append(keys, object.Key)
		urls = append(urls, object.URL)
		keyByURL[object.URL] = object.Key
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE %s = ANY($1)
		UNION
		SELECT %s FROM %s WHERE %s = ANY($2)
	`,
		schema.AtlasFile.DirectoryPath, schema.AtlasFile.Table, schema.AtlasFile.DirectoryPath,
		schema.AtlasCard.ThumbnailLink, schema.AtlasCard.Table, schema.AtlasCard.ThumbnailLink,
	)

	rows, err := repository.pool.Query(context, query, keys, urls)
	if err != nil {
		return nil, dberr.Wrap(err, "find_referenced_blobs")
	}

	matches, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dberr.Wrap(err, "find_referenced_blobs")
	}

	for _, match := range matches {
		if key, ok := keyByURL[match]; ok {
			referenced[key] = true
			continue
		}
		referenced[match] = true
	}
	return referenced, nil
}
