package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuild(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"module.json":             `{"id":"tennisfel"}`,
		"packs/journals.db":       `{"_id":"a"}` + "\n",
		"assets/images/cecil.png": "png",
	})

	dst := filepath.Join(t.TempDir(), "dist", "tennisfel.zip")
	if err := Build(dst, src, "tennisfel"); err != nil {
		t.Fatalf("Build: %v", err)
	}

	zr, err := zip.OpenReader(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = zr.Close() }()

	got := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		got[f.Name] = string(data)
	}

	if got["tennisfel/module.json"] != `{"id":"tennisfel"}` {
		t.Errorf("manifest entry = %q", got["tennisfel/module.json"])
	}
	if _, ok := got["tennisfel/packs/journals.db"]; !ok {
		t.Error("pack entry missing")
	}
	if _, ok := got["tennisfel/assets/images/cecil.png"]; !ok {
		t.Error("asset entry missing")
	}
}

func TestBuild_PackagesOnlyModuleFiles(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"module.json":                 `{"id":"tennisfel"}`,
		"packs/tennisfel-journal.db":  `{"_id":"a"}` + "\n",
		"assets/images/cecil.png":     "png",
		"tennisfel-index.db":          "sqlite",
		"legendkeeper/tennisfel.json": `{"resources":[]}`,
		"dist/tennisfel-0.9.0.zip":    "old archive",
		"config/config.yaml":          "module: {}",
	})

	dst := filepath.Join(t.TempDir(), "tennisfel.zip")
	if err := Build(dst, src, "tennisfel"); err != nil {
		t.Fatalf("Build: %v", err)
	}

	zr, err := zip.OpenReader(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = zr.Close() }()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	want := map[string]bool{
		"tennisfel/module.json":                true,
		"tennisfel/packs/tennisfel-journal.db": true,
		"tennisfel/assets/images/cecil.png":    true,
	}
	if len(names) != len(want) {
		t.Fatalf("entries = %v, want only module files", names)
	}
	for _, n := range names {
		if !want[n] {
			t.Errorf("unexpected entry %q", n)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"module.json": `{}`,
		"packs/a.db":  "x\n",
		"packs/b.db":  "y\n",
	})

	dir := t.TempDir()
	one := filepath.Join(dir, "one.zip")
	two := filepath.Join(dir, "two.zip")
	if err := Build(one, src, "tennisfel"); err != nil {
		t.Fatal(err)
	}
	if err := Build(two, src, "tennisfel"); err != nil {
		t.Fatal(err)
	}

	d1, _ := os.ReadFile(one)
	d2, _ := os.ReadFile(two)
	if string(d1) != string(d2) {
		t.Error("repeated builds of the same tree differ")
	}
}

func TestBuild_EmptyTree(t *testing.T) {
	if err := Build(filepath.Join(t.TempDir(), "out.zip"), t.TempDir(), "tennisfel"); err == nil {
		t.Error("expected error for empty source tree")
	}
}
