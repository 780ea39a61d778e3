package convert

import (
	"fmt"
	"os"
	"path/filepath"
)

// Clean removes generated output: the manifest and the packs. The asset cache
// and the search index are kept unless all is set, since a warm cache is what
// makes repeated runs cheap.
func Clean(outputDir, indexPath string, all bool) error {
	targets := []string{
		filepath.Join(outputDir, "module.json"),
		filepath.Join(outputDir, "packs"),
	}
	if all {
		targets = append(targets, filepath.Join(outputDir, "assets"))
		if indexPath != "" {
			targets = append(targets, indexPath)
		}
	}
	for _, t := range targets {
		if err := os.RemoveAll(t); err != nil {
			return fmt.Errorf("convert: clean %s: %w", t, err)
		}
	}
	return nil
}
