package foundry

import (
	"strings"
	"testing"

	"github.com/tennisfel/compendium/internal/lk"
)

func TestDocumentID_DeterministicAndDistinct(t *testing.T) {
	a := DocumentID("res_042")
	b := DocumentID("res_042")
	c := DocumentID("res_043")
	if a != b {
		t.Errorf("same source id gave %q and %q", a, b)
	}
	if a == c {
		t.Error("distinct source ids collided")
	}
	if len(a) != 16 {
		t.Errorf("id length = %d, want 16", len(a))
	}
	for _, ch := range a {
		if !strings.ContainsRune("0123456789abcdef", ch) {
			t.Errorf("id %q contains non-alphanumeric %q", a, ch)
		}
	}
}

func TestPageID_DistinctFromDocumentID(t *testing.T) {
	if PageID("res_042", 0) == DocumentID("res_042") {
		t.Error("page id should differ from document id")
	}
	if PageID("res_042", 0) == PageID("res_042", 1) {
		t.Error("page ids should differ per page")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		res  lk.Resource
		want string
	}{
		{
			name: "plain page resource",
			res:  lk.Resource{ID: "a", Documents: []lk.Document{{Type: "page"}}},
			want: TypeJournalEntry,
		},
		{
			name: "map document with http mapId",
			res: lk.Resource{ID: "b", Documents: []lk.Document{
				{Type: "map", Map: &lk.MapData{MapID: "https://assets.example/m.webp"}},
			}},
			want: TypeScene,
		},
		{
			name: "map document with image property fallback",
			res: lk.Resource{ID: "c",
				Documents:  []lk.Document{{Type: "map", Map: &lk.MapData{}}},
				Properties: []lk.Property{{Type: "IMAGE", Data: lk.PropertyData{URL: "https://assets.example/p.png"}}},
			},
			want: TypeScene,
		},
		{
			name: "map document without any image",
			res:  lk.Resource{ID: "d", Documents: []lk.Document{{Type: "map", Map: &lk.MapData{}}}},
			want: TypeJournalEntry,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(&tt.res); got != tt.want {
				t.Errorf("Classify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildRefIndex(t *testing.T) {
	resources := []lk.Resource{
		{ID: "res_042", Documents: []lk.Document{{Type: "page"}}},
		{ID: "res_100", Documents: []lk.Document{
			{Type: "map", Map: &lk.MapData{MapID: "https://assets.example/m.png"}},
		}},
	}
	idx := BuildRefIndex(resources)

	ref, ok := idx.Resolve("res_042")
	if !ok || ref.Type != TypeJournalEntry || ref.ID != DocumentID("res_042") {
		t.Errorf("res_042 = %+v, ok=%v", ref, ok)
	}
	ref, ok = idx.Resolve("res_100")
	if !ok || ref.Type != TypeScene {
		t.Errorf("res_100 = %+v, ok=%v", ref, ok)
	}
	if _, ok := idx.Resolve("res_999"); ok {
		t.Error("res_999 should not resolve")
	}
}

func TestNewJournalEntry_DefaultPage(t *testing.T) {
	r := lk.Resource{ID: "r1", Name: "Empty One"}
	e := NewJournalEntry(&r, nil, "")
	if len(e.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(e.Pages))
	}
	if e.Pages[0].Text.Content != "<p>No content</p>" {
		t.Errorf("content = %q", e.Pages[0].Text.Content)
	}
	if e.Flags.Tennisfel.LegendKeeperID != "r1" {
		t.Errorf("flags = %+v", e.Flags)
	}
	if e.Flags.Tennisfel.Tags == nil {
		t.Error("tags should be an empty slice, not nil")
	}
}

func TestNewJournalEntry_BannerPrepended(t *testing.T) {
	r := lk.Resource{ID: "r2", Name: "Cecil"}
	pages := []PageContent{{Name: "Main", HTML: "<p>body</p>"}}
	e := NewJournalEntry(&r, pages, "modules/tennisfel/assets/banners/b.png")
	got := e.Pages[0].Text.Content
	if !strings.HasPrefix(got, `<img src="modules/tennisfel/assets/banners/b.png"`) {
		t.Errorf("banner not prepended: %q", got)
	}
	if !strings.HasSuffix(got, "<p>body</p>") {
		t.Errorf("original body lost: %q", got)
	}
}

func TestNewJournalEntry_BannerAttributesEscaped(t *testing.T) {
	r := lk.Resource{ID: "r4", Name: `Cecil "The Key" & Co`}
	pages := []PageContent{{Name: "Main", HTML: "<p>body</p>"}}
	e := NewJournalEntry(&r, pages, "modules/tennisfel/assets/banners/b.png")
	got := e.Pages[0].Text.Content
	if !strings.Contains(got, `alt="Cecil &#34;The Key&#34; &amp; Co"`) {
		t.Errorf("alt not escaped: %q", got)
	}
	if strings.Contains(got, `alt="Cecil "`) {
		t.Errorf("raw quote leaked into attribute: %q", got)
	}
}

func TestNewJournalEntry_PageSortOrder(t *testing.T) {
	r := lk.Resource{ID: "r3", Name: "Multi"}
	pages := []PageContent{{Name: "One", HTML: "a"}, {HTML: "b"}, {Name: "Three", HTML: "c"}}
	e := NewJournalEntry(&r, pages, "")
	if len(e.Pages) != 3 {
		t.Fatalf("pages = %d", len(e.Pages))
	}
	for i, p := range e.Pages {
		if p.Sort != i {
			t.Errorf("page %d sort = %d", i, p.Sort)
		}
	}
	if e.Pages[1].Name != "Main" {
		t.Errorf("unnamed page = %q, want Main", e.Pages[1].Name)
	}
}

func TestNewScene_PlaceholderBackground(t *testing.T) {
	r := lk.Resource{ID: "s1", Name: "Lost Map"}
	s := NewScene(&r, "")
	if s.Background.Src != PlaceholderIcon {
		t.Errorf("background = %q, want placeholder", s.Background.Src)
	}
	if s.Tokens == nil || s.Walls == nil {
		t.Error("scene collections should be empty slices, not nil")
	}
}

func TestNewScene_Background(t *testing.T) {
	r := lk.Resource{ID: "s2", Name: "Region"}
	s := NewScene(&r, "modules/tennisfel/assets/maps/region.webp")
	if s.Background.Src != "modules/tennisfel/assets/maps/region.webp" {
		t.Errorf("background = %q", s.Background.Src)
	}
	if s.Width != 4096 || s.Grid.Size != 100 {
		t.Errorf("scene defaults wrong: %+v", s)
	}
}
