//go:build !sqlite_fts5

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const searchSchema = ``

func rebuildSearch(_ context.Context, _ *sql.Tx, _ []EntryRow) error {
	return nil
}

// Search falls back to substring matching over name, tags and body when the
// binary was built without FTS5. No snippets are produced in this mode.
func (r *Repo) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	pattern := "%" + escapeLike(query) + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, pack, source_id, tags, body
		FROM entries
		WHERE name LIKE ? ESCAPE '\'
		   OR tags LIKE ? ESCAPE '\'
		   OR body LIKE ? ESCAPE '\'
		ORDER BY name, id
		LIMIT ?`, pattern, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SearchResult
	for rows.Next() {
		var res SearchResult
		var tags string
		if err := rows.Scan(&res.ID, &res.Name, &res.Type, &res.Pack,
			&res.SourceID, &tags, &res.Body); err != nil {
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

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
