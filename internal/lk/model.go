// Package lk defines the LegendKeeper export model and the source loader.
package lk

// Export is the top-level structure of a LegendKeeper world export.
type Export struct {
	Name      string     `json:"name"`
	Resources []Resource `json:"resources"`

	byID map[string]*Resource
}

// ByID returns the resource with the given LegendKeeper id, or nil.
func (e *Export) ByID(id string) *Resource {
	return e.byID[id]
}

// Resource is one exported record: a character, location, item, lore article
// or map. Documents hold the rich-text bodies; Properties hold typed
// key/value data such as portrait images.
type Resource struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Tags       []string   `json:"tags"`
	Banner     *Banner    `json:"banner"`
	Documents  []Document `json:"documents"`
	Properties []Property `json:"properties"`
}

// Banner is a resource's banner image reference.
type Banner struct {
	URL string `json:"url"`
}

// Document is a single body attached to a resource. Type is "page" for
// rich-text pages and "map" for map documents.
type Document struct {
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	Content *Node    `json:"content"`
	Map     *MapData `json:"map"`
}

// MapData carries the map image reference of a map document.
type MapData struct {
	MapID string `json:"mapId"`
}

// Property is a typed resource property, e.g. an IMAGE property holding a
// portrait URL.
type Property struct {
	Type string       `json:"type"`
	Data PropertyData `json:"data"`
}

// PropertyData is the payload of a property.
type PropertyData struct {
	URL string `json:"url"`
}

// Node is one node of a ProseMirror/TipTap document tree. The tree is finite
// and acyclic; Content order is significant.
type Node struct {
	Type    string  `json:"type"`
	Text    string  `json:"text,omitempty"`
	Content []*Node `json:"content,omitempty"`
	Attrs   *Attrs  `json:"attrs,omitempty"`
	Marks   []Mark  `json:"marks,omitempty"`
}

// Attrs holds the union of node attributes across all node types. Which
// fields are meaningful depends on the node type.
type Attrs struct {
	Level        int         `json:"level,omitempty"`
	Src          string      `json:"src,omitempty"`
	Alt          string      `json:"alt,omitempty"`
	Href         string      `json:"href,omitempty"`
	ID           string      `json:"id,omitempty"`
	Text         string      `json:"text,omitempty"`
	ExtensionKey string      `json:"extensionKey,omitempty"`
	PanelType    string      `json:"panelType,omitempty"`
	Width        float64     `json:"width,omitempty"`
	Parameters   *Parameters `json:"parameters,omitempty"`
}

// Parameters holds extension parameters (secret titles, inline icons).
type Parameters struct {
	ExtensionTitle string `json:"extensionTitle,omitempty"`
	Icon           string `json:"icon,omitempty"`
}

// Mark is an inline formatting mark applied to a text node.
type Mark struct {
	Type  string `json:"type"`
	Attrs *Attrs `json:"attrs,omitempty"`
}

// PageDocuments returns the resource's page documents in source order.
func (r *Resource) PageDocuments() []Document {
	var out []Document
	for _, d := range r.Documents {
		if d.Type == "page" {
			out = append(out, d)
		}
	}
	return out
}

// MapDocument returns the resource's first map document, or nil.
func (r *Resource) MapDocument() *Document {
	for i := range r.Documents {
		if r.Documents[i].Type == "map" {
			return &r.Documents[i]
		}
	}
	return nil
}

// ImageProperty returns the URL of the first IMAGE property, or empty string.
func (r *Resource) ImageProperty() string {
	for _, p := range r.Properties {
		if p.Type == "IMAGE" && p.Data.URL != "" {
			return p.Data.URL
		}
	}
	return ""
}
