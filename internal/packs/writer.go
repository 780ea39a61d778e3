// Package packs writes Foundry compendium packs and the module manifest.
package packs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tennisfel/compendium/internal/apperr"
)

// WriteDB writes entities to a NeDB-style pack: one compact JSON object per
// line, in slice order. Every entity must carry a distinct non-empty _id.
func WriteDB(path string, entities []any) error {
	var buf bytes.Buffer
	seen := make(map[string]struct{}, len(entities))

	for _, e := range entities {
		line, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("packs: marshal entity: %w", err)
		}
		id, err := entityID(line)
		if err != nil {
			return err
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("packs: _id %q: %w", id, apperr.ErrDuplicateID)
		}
		seen[id] = struct{}{}

		buf.Write(line)
		buf.WriteByte('\n')
	}

	return writeFileAtomic(path, buf.Bytes())
}

// entityID pulls the _id field back out of a marshalled entity line.
func entityID(line []byte) (string, error) {
	var probe struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(line, &probe); err != nil {
		return "", fmt.Errorf("packs: probe _id: %w", err)
	}
	if probe.ID == "" {
		return "", fmt.Errorf("packs: entity without _id")
	}
	return probe.ID, nil
}

func writeFileAtomic(dst string, data []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("packs: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".pack-tmp-*")
	if err != nil {
		return fmt.Errorf("packs: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("packs: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("packs: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("packs: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("packs: rename: %w", err)
	}
	success = true
	return nil
}
