package index

// schema is applied on every open; all statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	type      TEXT NOT NULL,
	pack      TEXT NOT NULL,
	source_id TEXT NOT NULL,
	tags      TEXT NOT NULL DEFAULT '',
	body      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(type);
CREATE INDEX IF NOT EXISTS idx_entries_pack ON entries(pack);
CREATE INDEX IF NOT EXISTS idx_entries_source ON entries(source_id);
`
