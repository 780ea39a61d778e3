// Package richtext converts ProseMirror/TipTap document trees into the HTML
// stored in Foundry journal pages.
package richtext

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/tennisfel/compendium/internal/foundry"
	"github.com/tennisfel/compendium/internal/lk"
)

// Renderer walks a document tree depth-first and emits HTML. Mentions are
// rewritten through Refs into @UUID references; image sources are substituted
// through Images. Both callbacks are optional and report recoverable
// conditions; rendering itself never fails.
type Renderer struct {
	Refs   foundry.RefIndex
	Images map[string]string

	// OnUnresolved is called for each mention whose target is not in Refs.
	OnUnresolved func(sourceID, text string)
	// OnUnknown is called for each node whose type has no mapping.
	OnUnknown func(nodeType string)
}

// HTML renders the document rooted at node. A nil node renders to the empty
// string.
func (r *Renderer) HTML(node *lk.Node) string {
	if node == nil {
		return ""
	}
	var b strings.Builder
	r.render(&b, node)
	return b.String()
}

func (r *Renderer) render(b *strings.Builder, n *lk.Node) {
	switch n.Type {
	case "doc":
		r.renderChildren(b, n)

	case "heading":
		level := 2
		if n.Attrs != nil && n.Attrs.Level > 0 {
			level = n.Attrs.Level
		}
		fmt.Fprintf(b, "<h%d>", level)
		r.renderChildren(b, n)
		fmt.Fprintf(b, "</h%d>", level)

	case "paragraph":
		b.WriteString("<p>")
		r.renderChildren(b, n)
		b.WriteString("</p>")

	case "text":
		b.WriteString(r.renderText(n))

	case "bulletList":
		b.WriteString("<ul>")
		r.renderChildren(b, n)
		b.WriteString("</ul>")

	case "orderedList":
		b.WriteString("<ol>")
		r.renderChildren(b, n)
		b.WriteString("</ol>")

	case "listItem":
		b.WriteString("<li>")
		r.renderChildren(b, n)
		b.WriteString("</li>")

	case "image":
		src, alt := "", ""
		if n.Attrs != nil {
			src, alt = n.Attrs.Src, n.Attrs.Alt
		}
		if local, ok := r.Images[src]; ok {
			src = local
		}
		fmt.Fprintf(b, `<img src="%s" alt="%s" />`, html.EscapeString(src), html.EscapeString(alt))

	case "rule":
		b.WriteString("<hr />")

	case "codeBlock":
		b.WriteString("<pre><code>")
		r.renderChildren(b, n)
		b.WriteString("</code></pre>")

	case "blockquote":
		b.WriteString("<blockquote>")
		r.renderChildren(b, n)
		b.WriteString("</blockquote>")

	case "bodiedExtension":
		// Secret blocks: content is kept and tagged so the host hides it
		// from players without losing it.
		title := "Secret"
		if n.Attrs != nil && n.Attrs.Parameters != nil && n.Attrs.Parameters.ExtensionTitle != "" {
			title = n.Attrs.Parameters.ExtensionTitle
		}
		fmt.Fprintf(b, `<section class="secret"><strong>%s:</strong> `, html.EscapeString(title))
		r.renderChildren(b, n)
		b.WriteString("</section>")

	case "panel":
		panelType := "info"
		if n.Attrs != nil && n.Attrs.PanelType != "" {
			panelType = n.Attrs.PanelType
		}
		fmt.Fprintf(b, `<div class="panel panel-%s">`, html.EscapeString(panelType))
		r.renderChildren(b, n)
		b.WriteString("</div>")

	case "layoutSection":
		b.WriteString(`<div class="layout-section">`)
		r.renderChildren(b, n)
		b.WriteString("</div>")

	case "layoutColumn":
		width := 50.0
		if n.Attrs != nil && n.Attrs.Width > 0 {
			width = n.Attrs.Width
		}
		fmt.Fprintf(b, `<div class="layout-column" style="width:%s%%">`, strconv.FormatFloat(width, 'f', -1, 64))
		r.renderChildren(b, n)
		b.WriteString("</div>")

	case "mention":
		b.WriteString(r.renderMention(n))

	case "inlineExtension":
		text, icon := "", ""
		if n.Attrs != nil {
			text = n.Attrs.Text
			if n.Attrs.Parameters != nil {
				icon = n.Attrs.Parameters.Icon
			}
		}
		if icon != "" {
			fmt.Fprintf(b, `<i class="%s"></i> %s`, html.EscapeString(icon), html.EscapeString(text))
		} else {
			b.WriteString(html.EscapeString(text))
		}

	default:
		// Unknown node type: degrade to child content so nothing is lost.
		if r.OnUnknown != nil {
			r.OnUnknown(n.Type)
		}
		r.renderChildren(b, n)
	}
}

func (r *Renderer) renderChildren(b *strings.Builder, n *lk.Node) {
	for _, child := range n.Content {
		r.render(b, child)
	}
}

// renderText applies inline marks to a text node, each listed mark wrapping
// the result of the previous one.
func (r *Renderer) renderText(n *lk.Node) string {
	text := html.EscapeString(n.Text)
	for _, mark := range n.Marks {
		switch mark.Type {
		case "strong":
			text = "<strong>" + text + "</strong>"
		case "em":
			text = "<em>" + text + "</em>"
		case "code":
			text = "<code>" + text + "</code>"
		case "underline":
			text = "<u>" + text + "</u>"
		case "strike":
			text = "<s>" + text + "</s>"
		case "link":
			href := ""
			if mark.Attrs != nil {
				href = mark.Attrs.Href
			}
			text = fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(href), text)
		}
	}
	return text
}

// renderMention rewrites a cross-reference to another resource. Resolved
// targets become native @UUID references; dangling ones degrade to the plain
// mention text.
func (r *Renderer) renderMention(n *lk.Node) string {
	text, id := "", ""
	if n.Attrs != nil {
		text, id = n.Attrs.Text, n.Attrs.ID
	}
	if ref, ok := r.Refs.Resolve(id); ok {
		return fmt.Sprintf("@UUID[%s.%s]{%s}", ref.Type, ref.ID, html.EscapeString(text))
	}
	if r.OnUnresolved != nil {
		r.OnUnresolved(id, text)
	}
	return html.EscapeString(text)
}

// Text extracts the concatenated plain text of a document tree, with block
// boundaries collapsed to single spaces. Used for search indexing.
func Text(node *lk.Node) string {
	if node == nil {
		return ""
	}
	var parts []string
	var walk func(n *lk.Node)
	walk = func(n *lk.Node) {
		if n.Type == "text" && n.Text != "" {
			parts = append(parts, n.Text)
		}
		if n.Type == "mention" && n.Attrs != nil && n.Attrs.Text != "" {
			parts = append(parts, n.Attrs.Text)
		}
		for _, c := range n.Content {
			walk(c)
		}
	}
	walk(node)
	return strings.Join(parts, " ")
}
