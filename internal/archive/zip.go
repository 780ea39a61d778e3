// Package archive builds the distributable module zip.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// zipEpoch is the fixed timestamp stamped on every archive entry so the same
// input tree always zips to the same bytes.
var zipEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// moduleRoots are the only entries of the output dir that belong in the
// distributable. Anything else living there, like the search index or the
// source export, stays out.
var moduleRoots = []string{"module.json", "packs", "assets"}

// Build zips the module files under srcDir into dst. Entries are rooted
// under moduleID/ so the archive extracts into the Foundry modules directory
// cleanly, and are written in sorted path order with fixed timestamps.
func Build(dst, srcDir, moduleID string) error {
	var files []string
	for _, root := range moduleRoots {
		rootPath := filepath.Join(srcDir, root)
		info, err := os.Stat(rootPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("archive: stat %s: %w", rootPath, err)
		}
		if !info.IsDir() {
			files = append(files, rootPath)
			continue
		}
		err = filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			files = append(files, path)
			return nil
		})
		if err != nil {
			return fmt.Errorf("archive: walk %s: %w", rootPath, err)
		}
	}
	if len(files) == 0 {
		return fmt.Errorf("archive: nothing to package at %s", srcDir)
	}
	sort.Strings(files)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("archive: mkdir: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", dst, err)
	}
	zw := zip.NewWriter(out)

	for _, file := range files {
		rel, err := filepath.Rel(srcDir, file)
		if err != nil {
			_ = zw.Close()
			_ = out.Close()
			return fmt.Errorf("archive: rel path: %w", err)
		}
		name := moduleID + "/" + strings.ReplaceAll(filepath.ToSlash(rel), "\\", "/")

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: zipEpoch,
		})
		if err != nil {
			_ = zw.Close()
			_ = out.Close()
			return fmt.Errorf("archive: entry %s: %w", name, err)
		}
		src, err := os.Open(file)
		if err != nil {
			_ = zw.Close()
			_ = out.Close()
			return fmt.Errorf("archive: open %s: %w", file, err)
		}
		_, err = io.Copy(w, src)
		_ = src.Close()
		if err != nil {
			_ = zw.Close()
			_ = out.Close()
			return fmt.Errorf("archive: write %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("archive: finalize: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("archive: close: %w", err)
	}
	return nil
}
