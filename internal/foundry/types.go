// Package foundry defines the Foundry VTT v12 document model emitted by the
// conversion pipeline, plus resource classification and the reference index.
package foundry

// Document type discriminators, as used in @UUID[...] references and pack
// manifests.
const (
	TypeJournalEntry = "JournalEntry"
	TypeScene        = "Scene"
)

// PlaceholderIcon is substituted for scene backgrounds whose map image could
// not be fetched.
const PlaceholderIcon = "icons/svg/hazard.svg"

// JournalEntry is a Foundry journal document with one page per source page
// document.
type JournalEntry struct {
	ID        string        `json:"_id"`
	Name      string        `json:"name"`
	Pages     []JournalPage `json:"pages"`
	Folder    *string       `json:"folder"`
	Sort      int           `json:"sort"`
	Ownership Ownership     `json:"ownership"`
	Flags     Flags         `json:"flags"`
}

// JournalPage is one text page of a journal entry.
type JournalPage struct {
	ID    string    `json:"_id"`
	Name  string    `json:"name"`
	Type  string    `json:"type"`
	Title PageTitle `json:"title"`
	Text  PageText  `json:"text"`
	Sort  int       `json:"sort"`
}

// PageTitle controls page heading display.
type PageTitle struct {
	Show  bool `json:"show"`
	Level int  `json:"level"`
}

// PageText holds the page body. Format 1 is HTML.
type PageText struct {
	Format  int    `json:"format"`
	Content string `json:"content"`
}

// Ownership holds document permission levels. Default 0 hides the document
// from players until the GM grants access.
type Ownership struct {
	Default int `json:"default"`
}

// Flags carries module-scoped metadata on every emitted document.
type Flags struct {
	Tennisfel ModuleFlags `json:"tennisfel"`
}

// ModuleFlags preserves the source identity and tags of a converted resource.
type ModuleFlags struct {
	LegendKeeperID string   `json:"legendkeeper_id"`
	Tags           []string `json:"tags"`
}

// Scene is a Foundry scene document backed by a map image.
type Scene struct {
	ID         string     `json:"_id"`
	Name       string     `json:"name"`
	Background Background `json:"background"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Padding    float64    `json:"padding"`
	Grid       Grid       `json:"grid"`
	Tokens     []any      `json:"tokens"`
	Notes      []any      `json:"notes"`
	Drawings   []any      `json:"drawings"`
	Lights     []any      `json:"lights"`
	Sounds     []any      `json:"sounds"`
	Templates  []any      `json:"templates"`
	Tiles      []any      `json:"tiles"`
	Walls      []any      `json:"walls"`
	Folder     *string    `json:"folder"`
	Sort       int        `json:"sort"`
	Ownership  Ownership  `json:"ownership"`
	Flags      Flags      `json:"flags"`
}

// Background is the scene background image reference.
type Background struct {
	Src string `json:"src"`
}

// Grid is the scene grid configuration.
type Grid struct {
	Type  int     `json:"type"`
	Size  int     `json:"size"`
	Color string  `json:"color"`
	Alpha float64 `json:"alpha"`
}

// Manifest is the module.json metadata file declaring the module and its
// compendium packs.
type Manifest struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description,omitempty"`
	Version       string        `json:"version"`
	Compatibility Compatibility `json:"compatibility"`
	Packs         []PackDef     `json:"packs"`
}

// Compatibility declares the supported host version range.
type Compatibility struct {
	Minimum  string `json:"minimum"`
	Verified string `json:"verified"`
}

// PackDef declares one compendium pack in the manifest.
type PackDef struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Path  string `json:"path"`
	Type  string `json:"type"`
}
