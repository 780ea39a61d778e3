package foundry

import (
	"strings"

	"github.com/tennisfel/compendium/internal/lk"
)

// Classify decides which Foundry document type a resource becomes. A resource
// with a map document whose map image resolves to an http URL (directly or
// through an IMAGE property fallback) becomes a Scene; everything else,
// including characters, creatures and items, becomes a JournalEntry.
func Classify(r *lk.Resource) string {
	m := r.MapDocument()
	if m == nil {
		return TypeJournalEntry
	}
	if m.Map != nil && strings.HasPrefix(m.Map.MapID, "http") {
		return TypeScene
	}
	if strings.HasPrefix(r.ImageProperty(), "http") {
		return TypeScene
	}
	// Map document without a usable image: fall back to a journal entry.
	return TypeJournalEntry
}
