package convert

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/tennisfel/compendium/internal/apperr"
	"github.com/tennisfel/compendium/internal/packs"
)

// Verify checks a previously written output tree for internal consistency:
// the manifest parses, every declared pack exists and is valid JSON lines
// with unique non-empty ids, and every module-local asset path referenced by
// pack content exists on disk. It returns the list of problems found; an
// empty list means the module is sound.
func Verify(outputDir, moduleID string) ([]string, error) {
	var problems []string

	manifestPath := filepath.Join(outputDir, "module.json")
	m, err := packs.ReadManifest(manifestPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("convert: no module at %s, run convert first: %w", outputDir, apperr.ErrNotBuilt)
		}
		return []string{err.Error()}, nil
	}
	if m.ID != moduleID {
		problems = append(problems, fmt.Sprintf("manifest id %q does not match configured module id %q", m.ID, moduleID))
	}

	assetRef := regexp.MustCompile(`modules/` + regexp.QuoteMeta(moduleID) + `/assets/[^"\\<]+`)
	checkedAssets := make(map[string]struct{})

	for _, pack := range m.Packs {
		packPath := filepath.Join(outputDir, filepath.FromSlash(pack.Path))
		f, err := os.Open(packPath)
		if err != nil {
			problems = append(problems, fmt.Sprintf("pack %q: %v", pack.Name, err))
			continue
		}

		seen := make(map[string]struct{})
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 1<<20), 16<<20)
		line := 0
		for scanner.Scan() {
			line++
			raw := scanner.Bytes()
			if len(raw) == 0 {
				continue
			}
			var probe struct {
				ID string `json:"_id"`
			}
			if err := json.Unmarshal(raw, &probe); err != nil {
				problems = append(problems, fmt.Sprintf("pack %q line %d: invalid JSON: %v", pack.Name, line, err))
				continue
			}
			if probe.ID == "" {
				problems = append(problems, fmt.Sprintf("pack %q line %d: missing _id", pack.Name, line))
				continue
			}
			if _, dup := seen[probe.ID]; dup {
				problems = append(problems, fmt.Sprintf("pack %q line %d: duplicate _id %q", pack.Name, line, probe.ID))
			}
			seen[probe.ID] = struct{}{}

			for _, ref := range assetRef.FindAllString(string(raw), -1) {
				if _, done := checkedAssets[ref]; done {
					continue
				}
				checkedAssets[ref] = struct{}{}
				rel := strings.TrimPrefix(ref, "modules/"+moduleID+"/")
				if _, err := os.Stat(filepath.Join(outputDir, filepath.FromSlash(rel))); err != nil {
					problems = append(problems, fmt.Sprintf("pack %q: referenced asset missing: %s", pack.Name, ref))
				}
			}
		}
		if err := scanner.Err(); err != nil {
			problems = append(problems, fmt.Sprintf("pack %q: read: %v", pack.Name, err))
		}
		_ = f.Close()
	}

	return problems, nil
}
