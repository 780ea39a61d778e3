package convert

import (
	"log/slog"
	"sort"
	"time"
)

// Report summarises one conversion run.
type Report struct {
	JournalEntries int
	Scenes         int

	AssetsFetched int
	AssetsReused  int
	AssetsFailed  []string

	// UnresolvedRefs lists the distinct source ids of mentions whose target
	// resource does not exist in the export.
	UnresolvedRefs []string
	// UnknownNodes lists the distinct rich-text node types that had no
	// mapping and were degraded to their children.
	UnknownNodes []string

	Duration time.Duration
}

// reportCollector accumulates distinct warnings during a run.
type reportCollector struct {
	unresolved map[string]struct{}
	unknown    map[string]struct{}
}

func newReportCollector() *reportCollector {
	return &reportCollector{
		unresolved: make(map[string]struct{}),
		unknown:    make(map[string]struct{}),
	}
}

func (c *reportCollector) addUnresolved(sourceID string) {
	c.unresolved[sourceID] = struct{}{}
}

func (c *reportCollector) addUnknown(nodeType string) {
	c.unknown[nodeType] = struct{}{}
}

func (c *reportCollector) fill(rep *Report) {
	rep.UnresolvedRefs = sortedKeys(c.unresolved)
	rep.UnknownNodes = sortedKeys(c.unknown)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LogSummary writes the run outcome at info level, with one warn line per
// recoverable problem class.
func (r *Report) LogSummary(logger *slog.Logger) {
	logger.Info("conversion finished",
		slog.Int("journal_entries", r.JournalEntries),
		slog.Int("scenes", r.Scenes),
		slog.Int("assets_fetched", r.AssetsFetched),
		slog.Int("assets_reused", r.AssetsReused),
		slog.Duration("duration", r.Duration))

	if len(r.AssetsFailed) > 0 {
		logger.Warn("assets failed", slog.Int("count", len(r.AssetsFailed)), slog.Any("urls", r.AssetsFailed))
	}
	if len(r.UnresolvedRefs) > 0 {
		logger.Warn("unresolved references", slog.Any("source_ids", r.UnresolvedRefs))
	}
	if len(r.UnknownNodes) > 0 {
		logger.Warn("unknown node types", slog.Any("types", r.UnknownNodes))
	}
}
