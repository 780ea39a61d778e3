package assets

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tennisfel/compendium/internal/lk"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testFetcher(t *testing.T, root string) *Fetcher {
	t.Helper()
	return NewFetcher(root, "tennisfel", 3, time.Millisecond, testLogger())
}

func TestCollect_CategoriesAndDedup(t *testing.T) {
	exp := &lk.Export{Resources: []lk.Resource{
		{
			ID:     "r1",
			Banner: &lk.Banner{URL: "https://assets.legendkeeper.com/b/top.png"},
			Documents: []lk.Document{
				{Type: "page", Content: &lk.Node{Type: "doc", Content: []*lk.Node{
					{Type: "image", Attrs: &lk.Attrs{Src: "https://assets.legendkeeper.com/i/cecil.png"}},
					{Type: "image", Attrs: &lk.Attrs{Src: "https://assets.legendkeeper.com/i/cecil.png"}},
					{Type: "image", Attrs: &lk.Attrs{Src: "https://elsewhere.example/external.png"}},
				}}},
			},
		},
		{
			ID: "r2",
			Documents: []lk.Document{
				{Type: "map", Map: &lk.MapData{MapID: "https://assets.legendkeeper.com/m/region.webp"}},
			},
			Properties: []lk.Property{
				{Type: "IMAGE", Data: lk.PropertyData{URL: "https://assets.legendkeeper.com/p/banner-art.png"}},
			},
		},
	}}

	refs := Collect(exp, []string{"assets.legendkeeper.com"})
	got := make(map[string]string, len(refs))
	for _, r := range refs {
		got[r.URL] = r.Category
	}

	if len(refs) != 4 {
		t.Fatalf("refs = %d (%v), want 4", len(refs), got)
	}
	if got["https://assets.legendkeeper.com/b/top.png"] != CategoryBanners {
		t.Errorf("banner category = %q", got["https://assets.legendkeeper.com/b/top.png"])
	}
	if got["https://assets.legendkeeper.com/i/cecil.png"] != CategoryImages {
		t.Errorf("image category = %q", got["https://assets.legendkeeper.com/i/cecil.png"])
	}
	if got["https://assets.legendkeeper.com/m/region.webp"] != CategoryMaps {
		t.Errorf("map category = %q", got["https://assets.legendkeeper.com/m/region.webp"])
	}
	// "/banner" substring routes to banners even off the banner field.
	if got["https://assets.legendkeeper.com/p/banner-art.png"] != CategoryBanners {
		t.Errorf("banner-art category = %q", got["https://assets.legendkeeper.com/p/banner-art.png"])
	}
	if _, ok := got["https://elsewhere.example/external.png"]; ok {
		t.Error("external host should be excluded")
	}
}

func TestCollect_HostFilter(t *testing.T) {
	exp := &lk.Export{Resources: []lk.Resource{{
		ID: "r1",
		Documents: []lk.Document{{Type: "page", Content: &lk.Node{Type: "doc", Content: []*lk.Node{
			{Type: "image", Attrs: &lk.Attrs{Src: "https://cdn.assets.legendkeeper.com/x.png"}},
			{Type: "image", Attrs: &lk.Attrs{Src: "ftp://assets.legendkeeper.com/y.png"}},
			{Type: "image", Attrs: &lk.Attrs{Src: "https://notlegendkeeper.com/z.png"}},
		}}}},
	}}}
	refs := Collect(exp, []string{"assets.legendkeeper.com"})
	if len(refs) != 1 || refs[0].URL != "https://cdn.assets.legendkeeper.com/x.png" {
		t.Errorf("refs = %+v", refs)
	}
}

func TestFetchAll_FetchesOncePerURL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	root := t.TempDir()
	f := testFetcher(t, root)
	refs := []Ref{
		{URL: srv.URL + "/img/cecil.png", Category: CategoryImages},
		{URL: srv.URL + "/img/cecil.png", Category: CategoryImages},
	}
	paths := f.FetchAll(context.Background(), refs)

	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1", hits.Load())
	}
	want := "modules/tennisfel/assets/images/cecil.png"
	if paths[srv.URL+"/img/cecil.png"] != want {
		t.Errorf("path = %q, want %q", paths[srv.URL+"/img/cecil.png"], want)
	}
	data, err := os.ReadFile(filepath.Join(root, "images", "cecil.png"))
	if err != nil {
		t.Fatalf("asset not on disk: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("content = %q", data)
	}
	if s := f.Stats(); s.Fetched != 1 || s.Reused != 0 || len(s.Failed) != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestFetchAll_WarmCacheSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "images"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "images", "cached.png"), []byte("cached"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := testFetcher(t, root)
	paths := f.FetchAll(context.Background(), []Ref{
		{URL: srv.URL + "/cached.png", Category: CategoryImages},
	})

	if hits.Load() != 0 {
		t.Errorf("hits = %d, want 0 on warm cache", hits.Load())
	}
	if paths[srv.URL+"/cached.png"] != "modules/tennisfel/assets/images/cached.png" {
		t.Errorf("path = %q", paths[srv.URL+"/cached.png"])
	}
	if s := f.Stats(); s.Reused != 1 || s.Fetched != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestFetchAll_RetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("eventually"))
	}))
	defer srv.Close()

	f := testFetcher(t, t.TempDir())
	paths := f.FetchAll(context.Background(), []Ref{
		{URL: srv.URL + "/flaky.png", Category: CategoryImages},
	})

	if hits.Load() != 3 {
		t.Errorf("hits = %d, want 3", hits.Load())
	}
	if _, ok := paths[srv.URL+"/flaky.png"]; !ok {
		t.Error("flaky asset should resolve after retries")
	}
}

func TestFetchAll_ExhaustedRetriesFailSoft(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := testFetcher(t, t.TempDir())
	u := srv.URL + "/gone.png"
	paths := f.FetchAll(context.Background(), []Ref{{URL: u, Category: CategoryImages}})

	if hits.Load() != 3 {
		t.Errorf("hits = %d, want bounded 3", hits.Load())
	}
	if _, ok := paths[u]; ok {
		t.Error("failed asset must not appear in the mapping")
	}
	s := f.Stats()
	if len(s.Failed) != 1 || s.Failed[0] != u {
		t.Errorf("failed = %v", s.Failed)
	}
}

func TestFetchAll_ClientErrorIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := testFetcher(t, t.TempDir())
	f.FetchAll(context.Background(), []Ref{{URL: srv.URL + "/missing.png", Category: CategoryImages}})

	if hits.Load() != 1 {
		t.Errorf("hits = %d, want 1 (404 should not be retried)", hits.Load())
	}
}

func TestFetchAll_NameCollisionStaysDistinct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	f := testFetcher(t, t.TempDir())
	a := srv.URL + "/one/art.png"
	b := srv.URL + "/two/art.png"
	paths := f.FetchAll(context.Background(), []Ref{
		{URL: a, Category: CategoryImages},
		{URL: b, Category: CategoryImages},
	})

	if paths[a] == paths[b] {
		t.Errorf("colliding names not disambiguated: %q", paths[a])
	}
	if paths[a] != "modules/tennisfel/assets/images/art.png" {
		t.Errorf("first URL should keep the plain name, got %q", paths[a])
	}
}

func TestLocalName_NoBasename(t *testing.T) {
	f := testFetcher(t, t.TempDir())
	name := f.localName(Ref{URL: "https://assets.legendkeeper.com/", Category: CategoryImages})
	if name == "" || name == "/" || name == "." {
		t.Errorf("name = %q", name)
	}
	if len(name) != 16 {
		t.Errorf("digest name length = %d, want 16", len(name))
	}
}

func TestCopyLocal(t *testing.T) {
	src := filepath.Join(t.TempDir(), "region-map.webp")
	if err := os.WriteFile(src, []byte("webp"), 0o644); err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	f := testFetcher(t, root)

	got, err := f.CopyLocal(src, CategoryMaps)
	if err != nil {
		t.Fatalf("CopyLocal: %v", err)
	}
	if got != "modules/tennisfel/assets/maps/region-map.webp" {
		t.Errorf("path = %q", got)
	}
	if _, err := os.Stat(filepath.Join(root, "maps", "region-map.webp")); err != nil {
		t.Errorf("copied file missing: %v", err)
	}
}

func TestAllowedHost(t *testing.T) {
	hosts := []string{"assets.legendkeeper.com"}
	for rawURL, want := range map[string]bool{
		"https://assets.legendkeeper.com/a.png":     true,
		"http://assets.legendkeeper.com/a.png":      true,
		"https://cdn.assets.legendkeeper.com/a.png": true,
		"https://legendkeeper.com/page":             false,
		"not-a-url":                                 false,
		"":                                          false,
	} {
		if got := allowedHost(rawURL, hosts); got != want {
			t.Errorf("allowedHost(%q) = %v, want %v", rawURL, got, want)
		}
	}
}
