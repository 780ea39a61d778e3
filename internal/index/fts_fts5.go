//go:build sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const searchSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
	id UNINDEXED,
	name,
	tags,
	body
);
`

func rebuildSearch(ctx context.Context, tx *sql.Tx, rows []EntryRow) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM entries_fts`); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries_fts (id, name, tags, body) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare fts: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.ID, row.Name, joinTags(row.Tags), row.Body); err != nil {
			return fmt.Errorf("index: insert fts %s: %w", row.ID, err)
		}
	}
	return nil
}

// Search runs a full-text query ranked by bm25. Bare terms are quoted so
// user input cannot break the match syntax.
func (r *Repo) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.id, e.name, e.type, e.pack, e.source_id, e.tags, e.body,
		       snippet(entries_fts, 3, '[', ']', CHAR(8230), 10)
		FROM entries_fts
		JOIN entries e ON e.id = entries_fts.id
		WHERE entries_fts MATCH ?
		ORDER BY bm25(entries_fts)
		LIMIT ?`, ftsQuery(query), limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SearchResult
	for rows.Next() {
		var res SearchResult
		var tags string
		if err := rows.Scan(&res.ID, &res.Name, &res.Type, &res.Pack,
			&res.SourceID, &tags, &res.Body, &res.Snippet); err != nil {
			return nil, fmt.Errorf("index: search scan: %w", err)
		}
		res.Tags = splitTags(tags)
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("index: search rows: %w", err)
	}
	return out, nil
}

func ftsQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
