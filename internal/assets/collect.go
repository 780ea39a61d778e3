// Package assets resolves, downloads and caches the binary assets referenced
// by an export.
package assets

import (
	"net/url"
	"strings"

	"github.com/tennisfel/compendium/internal/lk"
)

// Asset categories; each maps to a subdirectory of the assets tree.
const (
	CategoryImages  = "images"
	CategoryBanners = "banners"
	CategoryMaps    = "maps"
)

// Ref is one distinct asset URL with its target category.
type Ref struct {
	URL      string
	Category string
}

// Collect enumerates every asset URL in the export, in source order,
// deduplicated by URL. Only URLs on one of the allowed hosts are returned;
// anything else (external links, non-asset pages) is ignored. Map document
// images go to the maps category, banner images to banners, everything else
// to images.
func Collect(exp *lk.Export, hosts []string) []Ref {
	mapURLs := make(map[string]struct{})
	for _, r := range exp.Resources {
		if m := r.MapDocument(); m != nil && m.Map != nil && allowedHost(m.Map.MapID, hosts) {
			mapURLs[m.Map.MapID] = struct{}{}
		}
	}

	seen := make(map[string]struct{})
	var out []Ref
	add := func(rawURL string, banner bool) {
		if !allowedHost(rawURL, hosts) {
			return
		}
		if _, dup := seen[rawURL]; dup {
			return
		}
		seen[rawURL] = struct{}{}

		category := CategoryImages
		switch {
		case mapURLsContains(mapURLs, rawURL):
			category = CategoryMaps
		case banner || strings.Contains(strings.ToLower(rawURL), "/banner"):
			category = CategoryBanners
		}
		out = append(out, Ref{URL: rawURL, Category: category})
	}

	for _, r := range exp.Resources {
		if r.Banner != nil {
			add(r.Banner.URL, true)
		}
		for _, p := range r.Properties {
			add(p.Data.URL, false)
		}
		for _, d := range r.Documents {
			if d.Map != nil {
				add(d.Map.MapID, false)
			}
			collectNodeImages(d.Content, func(u string) { add(u, false) })
		}
	}
	return out
}

func mapURLsContains(set map[string]struct{}, u string) bool {
	_, ok := set[u]
	return ok
}

func collectNodeImages(n *lk.Node, visit func(string)) {
	if n == nil {
		return
	}
	if n.Type == "image" && n.Attrs != nil && n.Attrs.Src != "" {
		visit(n.Attrs.Src)
	}
	for _, c := range n.Content {
		collectNodeImages(c, visit)
	}
}

// allowedHost reports whether rawURL is an http(s) URL on one of the allowed
// asset hosts (exact match or subdomain).
func allowedHost(rawURL string, hosts []string) bool {
	if !strings.HasPrefix(rawURL, "http") {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
