// Package index maintains a SQLite search index over the emitted compendium
// documents. The index is derived data: it is rebuilt wholesale after each
// conversion and never written to otherwise.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tennisfel/compendium/internal/apperr"
)

// EntryRow is one indexed compendium document.
type EntryRow struct {
	ID       string
	Name     string
	Type     string
	Pack     string
	SourceID string
	Tags     []string
	Body     string
}

// SearchResult is an entry matched by a search query, with an optional
// highlighted snippet when full-text search is available.
type SearchResult struct {
	EntryRow
	Snippet string
}

// ListQuery filters and pages a listing.
type ListQuery struct {
	Type   string
	Pack   string
	Limit  int
	Offset int
}

// Repo wraps the index database.
type Repo struct {
	db *sql.DB
}

// Open opens (creating if needed) the index at path and applies the schema.
func Open(path string) (*Repo, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index: apply schema: %w", err)
	}
	if _, err := db.Exec(searchSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("index: apply search schema: %w", err)
	}
	return &Repo{db: db}, nil
}

// Close releases the database handle.
func (r *Repo) Close() error { return r.db.Close() }

// Rebuild replaces the full index content in one transaction.
func (r *Repo) Rebuild(ctx context.Context, rows []EntryRow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("index: clear: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (id, name, type, pack, source_id, tags, body)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx,
			row.ID, row.Name, row.Type, row.Pack, row.SourceID,
			joinTags(row.Tags), row.Body); err != nil {
			return fmt.Errorf("index: insert %s: %w", row.ID, err)
		}
	}
	if err := rebuildSearch(ctx, tx, rows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index: commit: %w", err)
	}
	return nil
}

// Get returns one entry by document id.
func (r *Repo) Get(ctx context.Context, id string) (*EntryRow, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, type, pack, source_id, tags, body
		FROM entries WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: entry %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get %s: %w", id, err)
	}
	return e, nil
}

// List returns entries ordered by name, optionally filtered by type and pack.
func (r *Repo) List(ctx context.Context, q ListQuery) ([]EntryRow, error) {
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 100
	}

	where, args := []string{"1=1"}, []any{}
	if q.Type != "" {
		where = append(where, "type = ?")
		args = append(args, q.Type)
	}
	if q.Pack != "" {
		where = append(where, "pack = ?")
		args = append(args, q.Pack)
	}
	args = append(args, q.Limit, q.Offset)

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, type, pack, source_id, tags, body
		FROM entries WHERE `+strings.Join(where, " AND ")+`
		ORDER BY name, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []EntryRow
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("index: list scan: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("index: list rows: %w", err)
	}
	return out, nil
}

// Count returns the total number of indexed entries.
func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*EntryRow, error) {
	var e EntryRow
	var tags string
	if err := s.Scan(&e.ID, &e.Name, &e.Type, &e.Pack, &e.SourceID, &tags, &e.Body); err != nil {
		return nil, err
	}
	e.Tags = splitTags(tags)
	return &e, nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
