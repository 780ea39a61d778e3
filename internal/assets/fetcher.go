package assets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/tennisfel/compendium/internal/checksum"
)

// maxAssetSize caps single-asset downloads.
const maxAssetSize = 50 << 20 // 50 MB

// Stats summarises one fetch run for the pipeline report.
type Stats struct {
	Fetched int
	Reused  int
	Failed  []string
}

// Fetcher downloads assets into category subdirectories under a local root
// and returns the module-relative paths that replace remote URLs in emitted
// content. Fetches are memoised by URL within a run, and a file already on
// disk is reused, so a warm cache performs zero network requests.
type Fetcher struct {
	client       *http.Client
	root         string
	prefix       string
	maxAttempts  uint
	initialDelay time.Duration
	logger       *slog.Logger

	paths map[string]string // URL -> module-relative path
	names map[string]string // category/filename -> URL that owns it
	stats Stats
}

// NewFetcher creates a fetcher writing under root (the local assets
// directory). moduleID determines the module-relative path prefix emitted
// into content, e.g. "modules/tennisfel/assets/images/x.png".
func NewFetcher(root, moduleID string, maxAttempts uint, initialDelay time.Duration, logger *slog.Logger) *Fetcher {
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	if initialDelay <= 0 {
		initialDelay = 500 * time.Millisecond
	}
	return &Fetcher{
		client:       &http.Client{Timeout: 30 * time.Second},
		root:         root,
		prefix:       path.Join("modules", moduleID, "assets"),
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		logger:       logger,
		paths:        make(map[string]string),
		names:        make(map[string]string),
	}
}

// Stats returns the counters accumulated so far.
func (f *Fetcher) Stats() Stats { return f.stats }

// FetchAll resolves every ref and returns the URL to module-relative path
// mapping. Failures are per-asset: a URL that cannot be fetched after the
// bounded retries is logged, recorded in Stats.Failed, and omitted from the
// mapping so the emitter leaves an inert remote reference instead.
func (f *Fetcher) FetchAll(ctx context.Context, refs []Ref) map[string]string {
	for _, ref := range refs {
		if _, done := f.paths[ref.URL]; done {
			continue
		}
		name := f.localName(ref)
		local := filepath.Join(f.root, ref.Category, name)
		modulePath := path.Join(f.prefix, ref.Category, name)

		if _, err := os.Stat(local); err == nil {
			f.paths[ref.URL] = modulePath
			f.stats.Reused++
			continue
		}

		data, err := f.download(ctx, ref.URL)
		if err != nil {
			f.logger.Warn("asset fetch failed",
				slog.String("url", ref.URL),
				slog.String("error", err.Error()))
			f.stats.Failed = append(f.stats.Failed, ref.URL)
			continue
		}
		if err := writeFileAtomic(local, data); err != nil {
			f.logger.Warn("asset write failed",
				slog.String("path", local),
				slog.String("error", err.Error()))
			f.stats.Failed = append(f.stats.Failed, ref.URL)
			continue
		}
		f.logger.Debug("asset fetched",
			slog.String("url", ref.URL),
			slog.String("path", local))
		f.paths[ref.URL] = modulePath
		f.stats.Fetched++
	}
	return f.paths
}

// CopyLocal places a file that already exists on disk (e.g. the region map
// shipped next to the export) into the given category directory and returns
// its module-relative path.
func (f *Fetcher) CopyLocal(src, category string) (string, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("assets: read %s: %w", src, err)
	}
	name := filepath.Base(src)
	local := filepath.Join(f.root, category, name)
	if err := writeFileAtomic(local, data); err != nil {
		return "", err
	}
	return path.Join(f.prefix, category, name), nil
}

// download retrieves one asset with bounded exponential-backoff retries.
// Client errors (4xx) are permanent and not retried.
func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	op := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, backoff.Permanent(fmt.Errorf("assets: build request: %w", err))
		}
		resp, err := f.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("assets: get: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusOK:
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return nil, backoff.Permanent(fmt.Errorf("assets: HTTP %d", resp.StatusCode))
		default:
			return nil, fmt.Errorf("assets: HTTP %d", resp.StatusCode)
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
		if err != nil {
			return nil, fmt.Errorf("assets: read body: %w", err)
		}
		if len(data) > maxAssetSize {
			return nil, backoff.Permanent(fmt.Errorf("assets: exceeds %d bytes", maxAssetSize))
		}
		return data, nil
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = f.initialDelay

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(f.maxAttempts))
}

// localName derives the deterministic filename for a URL: the final path
// segment when usable, otherwise (or on a collision with a different URL in
// the same category) a digest-derived name.
func (f *Fetcher) localName(ref Ref) string {
	name := ""
	if parsed, err := url.Parse(ref.URL); err == nil {
		base := path.Base(parsed.Path)
		if base != "" && base != "." && base != "/" {
			name = base
		}
	}
	if name == "" {
		name = checksum.SumString(ref.URL)[:16]
	}

	key := ref.Category + "/" + name
	if owner, taken := f.names[key]; taken && owner != ref.URL {
		name = checksum.SumString(ref.URL)[:16] + path.Ext(name)
		key = ref.Category + "/" + name
	}
	f.names[key] = ref.URL
	return name
}

// writeFileAtomic writes data via tmp file, fsync and rename so partial
// downloads never land at the final path.
func writeFileAtomic(dst string, data []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("assets: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".asset-tmp-*")
	if err != nil {
		return fmt.Errorf("assets: create temp: %w", err)
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
		return fmt.Errorf("assets: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("assets: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("assets: close temp: %w", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("assets: rename: %w", err)
	}
	success = true
	return nil
}
