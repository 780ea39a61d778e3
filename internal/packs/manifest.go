package packs

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tennisfel/compendium/internal/foundry"
)

// WriteManifest writes module.json with stable two-space indentation so
// repeated runs produce byte-identical output.
func WriteManifest(path string, m *foundry.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("packs: marshal manifest: %w", err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// ReadManifest parses an existing module.json.
func ReadManifest(path string) (*foundry.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("packs: read manifest: %w", err)
	}
	var m foundry.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("packs: parse manifest %s: %w", path, err)
	}
	return &m, nil
}
