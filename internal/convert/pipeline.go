// Package convert runs the LegendKeeper to Foundry conversion pipeline:
// load the export, build the reference index, fetch assets, emit documents
// and write the compendium packs.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/tennisfel/compendium/internal/assets"
	"github.com/tennisfel/compendium/internal/foundry"
	"github.com/tennisfel/compendium/internal/index"
	"github.com/tennisfel/compendium/internal/lk"
	"github.com/tennisfel/compendium/internal/packs"
	"github.com/tennisfel/compendium/internal/richtext"
)

// Pack names inside the output module.
const (
	PackJournals = "journals"
	PackScenes   = "scenes"
)

// Options configures one pipeline run.
type Options struct {
	ExportPath string
	RegionMap  string
	OutputDir  string

	ModuleID       string
	ModuleTitle    string
	Description    string
	Version        string
	CompatMin      string
	CompatVerified string

	AssetHosts  []string
	MaxAttempts uint
	RetryDelay  time.Duration

	SceneOrder []string

	// IndexPath, when non-empty, is the SQLite database rebuilt from the
	// emitted documents after each run.
	IndexPath string
}

// Run executes the full pipeline. The run is deterministic: the same export
// and a warm asset cache produce byte-identical output. Recoverable problems
// (failed assets, dangling references, unknown nodes) are collected into the
// report; only source or output errors abort the run.
func Run(ctx context.Context, opts Options, logger *slog.Logger) (*Report, error) {
	start := time.Now()

	exp, err := lk.Load(opts.ExportPath)
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	logger.Info("export loaded",
		slog.String("path", opts.ExportPath),
		slog.Int("resources", len(exp.Resources)))

	refs := foundry.BuildRefIndex(exp.Resources)

	fetcher := assets.NewFetcher(
		filepath.Join(opts.OutputDir, "assets"),
		opts.ModuleID, opts.MaxAttempts, opts.RetryDelay, logger)
	paths := fetcher.FetchAll(ctx, assets.Collect(exp, opts.AssetHosts))
	if opts.RegionMap != "" {
		if _, err := fetcher.CopyLocal(opts.RegionMap, assets.CategoryMaps); err != nil {
			return nil, fmt.Errorf("convert: region map: %w", err)
		}
	}

	collector := newReportCollector()
	renderer := &richtext.Renderer{
		Refs:         refs,
		Images:       paths,
		OnUnresolved: func(id, _ string) { collector.addUnresolved(id) },
		OnUnknown:    collector.addUnknown,
	}

	var (
		journals []foundry.JournalEntry
		scenes   []*foundry.Scene
		rows     []index.EntryRow
	)
	for i := range exp.Resources {
		r := &exp.Resources[i]
		switch foundry.Classify(r) {
		case foundry.TypeScene:
			s := foundry.NewScene(r, paths[sceneImageURL(r)])
			scenes = append(scenes, &s)
			rows = append(rows, entryRow(r, s.ID, foundry.TypeScene, PackScenes))
		default:
			j := foundry.NewJournalEntry(r, renderPages(renderer, r), bannerPath(r, paths))
			journals = append(journals, j)
			rows = append(rows, entryRow(r, j.ID, foundry.TypeJournalEntry, PackJournals))
		}
	}
	scenes = packs.OrderScenes(scenes, opts.SceneOrder)

	if err := packs.WriteDB(packPath(opts.OutputDir, opts.ModuleID, PackJournals), asEntities(journals)); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	if err := packs.WriteDB(packPath(opts.OutputDir, opts.ModuleID, PackScenes), asEntities(scenes)); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	if err := packs.WriteManifest(filepath.Join(opts.OutputDir, "module.json"), manifest(opts)); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	if opts.IndexPath != "" {
		if err := rebuildIndex(ctx, opts.IndexPath, rows); err != nil {
			return nil, fmt.Errorf("convert: %w", err)
		}
	}

	stats := fetcher.Stats()
	rep := &Report{
		JournalEntries: len(journals),
		Scenes:         len(scenes),
		AssetsFetched:  stats.Fetched,
		AssetsReused:   stats.Reused,
		AssetsFailed:   stats.Failed,
		Duration:       time.Since(start),
	}
	collector.fill(rep)
	return rep, nil
}

// sceneImageURL returns the remote map image URL of a scene resource.
func sceneImageURL(r *lk.Resource) string {
	if m := r.MapDocument(); m != nil && m.Map != nil && strings.HasPrefix(m.Map.MapID, "http") {
		return m.Map.MapID
	}
	return r.ImageProperty()
}

func renderPages(renderer *richtext.Renderer, r *lk.Resource) []foundry.PageContent {
	var out []foundry.PageContent
	for _, d := range r.PageDocuments() {
		out = append(out, foundry.PageContent{
			Name: d.Name,
			HTML: renderer.HTML(d.Content),
		})
	}
	return out
}

func bannerPath(r *lk.Resource, paths map[string]string) string {
	if r.Banner == nil {
		return ""
	}
	return paths[r.Banner.URL]
}

func entryRow(r *lk.Resource, id, typ, pack string) index.EntryRow {
	var body []string
	for _, d := range r.PageDocuments() {
		if t := richtext.Text(d.Content); t != "" {
			body = append(body, t)
		}
	}
	return index.EntryRow{
		ID:       id,
		Name:     r.Name,
		Type:     typ,
		Pack:     pack,
		SourceID: r.ID,
		Tags:     r.Tags,
		Body:     strings.Join(body, "\n"),
	}
}

func rebuildIndex(ctx context.Context, path string, rows []index.EntryRow) error {
	repo, err := index.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()
	return repo.Rebuild(ctx, rows)
}

// packFileName returns the on-disk pack file, e.g. tennisfel-journal.db.
func packFileName(moduleID, pack string) string {
	if pack == PackJournals {
		return moduleID + "-journal.db"
	}
	return moduleID + "-scenes.db"
}

func packPath(outputDir, moduleID, pack string) string {
	return filepath.Join(outputDir, "packs", packFileName(moduleID, pack))
}

func manifest(opts Options) *foundry.Manifest {
	return &foundry.Manifest{
		ID:            opts.ModuleID,
		Title:         opts.ModuleTitle,
		Description:   opts.Description,
		Version:       opts.Version,
		Compatibility: foundry.Compatibility{Minimum: opts.CompatMin, Verified: opts.CompatVerified},
		Packs: []foundry.PackDef{
			{
				Name:  PackJournals,
				Label: opts.ModuleTitle + " Journals",
				Path:  "packs/" + packFileName(opts.ModuleID, PackJournals),
				Type:  foundry.TypeJournalEntry,
			},
			{
				Name:  PackScenes,
				Label: opts.ModuleTitle + " Scenes",
				Path:  "packs/" + packFileName(opts.ModuleID, PackScenes),
				Type:  foundry.TypeScene,
			},
		},
	}
}

func asEntities[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
