package foundry

import (
	"fmt"
	"html"

	"github.com/tennisfel/compendium/internal/lk"
)

// PageContent is a rendered page body handed to the journal builder.
type PageContent struct {
	Name string
	HTML string
}

// NewJournalEntry assembles a journal entry from rendered pages. bannerPath,
// when non-empty, is the local asset path of the resource banner and is
// prepended to the first page as an image. A resource without pages gets a
// single default page so the entry is never empty.
func NewJournalEntry(r *lk.Resource, pages []PageContent, bannerPath string) JournalEntry {
	out := make([]JournalPage, 0, len(pages))
	for i, p := range pages {
		name := p.Name
		if name == "" {
			name = "Main"
		}
		out = append(out, JournalPage{
			ID:    PageID(r.ID, i),
			Name:  name,
			Type:  "text",
			Title: PageTitle{Show: true, Level: 1},
			Text:  PageText{Format: 1, Content: p.HTML},
			Sort:  i,
		})
	}
	if len(out) == 0 {
		out = append(out, JournalPage{
			ID:    PageID(r.ID, 0),
			Name:  "Main",
			Type:  "text",
			Title: PageTitle{Show: true, Level: 1},
			Text:  PageText{Format: 1, Content: "<p>No content</p>"},
			Sort:  0,
		})
	}
	if bannerPath != "" {
		banner := fmt.Sprintf(`<img src="%s" alt="%s" />`,
			html.EscapeString(bannerPath), html.EscapeString(r.Name))
		out[0].Text.Content = banner + out[0].Text.Content
	}

	return JournalEntry{
		ID:        DocumentID(r.ID),
		Name:      r.Name,
		Pages:     out,
		Sort:      0,
		Ownership: Ownership{Default: 0},
		Flags:     moduleFlags(r),
	}
}

// NewScene assembles a scene document. background is the local path of the
// fetched map image; when empty the placeholder icon is used so the scene
// still loads.
func NewScene(r *lk.Resource, background string) Scene {
	if background == "" {
		background = PlaceholderIcon
	}
	return Scene{
		ID:         DocumentID(r.ID),
		Name:       r.Name,
		Background: Background{Src: background},
		Width:      4096,
		Height:     4096,
		Padding:    0.25,
		Grid:       Grid{Type: 0, Size: 100, Color: "#000000", Alpha: 0.2},
		Tokens:     []any{},
		Notes:      []any{},
		Drawings:   []any{},
		Lights:     []any{},
		Sounds:     []any{},
		Templates:  []any{},
		Tiles:      []any{},
		Walls:      []any{},
		Sort:       0,
		Ownership:  Ownership{Default: 0},
		Flags:      moduleFlags(r),
	}
}

func moduleFlags(r *lk.Resource) Flags {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return Flags{Tennisfel: ModuleFlags{LegendKeeperID: r.ID, Tags: tags}}
}
