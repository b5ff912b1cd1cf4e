package export

import (
	"html/template"
	"strings"
)

// tagNames maps known component types to their markup tags. Anything not
// listed renders as a div so documents written by newer authoring tools keep
// rendering.
var tagNames = map[string]string{
	"wrapper":   "div",
	"container": "div",
	"section":   "section",
	"row":       "div",
	"column":    "div",
	"text":      "p",
	"heading":   "h2",
	"link":      "a",
	"button":    "button",
	"image":     "img",
	"list":      "ul",
	"item":      "li",
	"divider":   "hr",
}

// voidTags never carry children or a closing tag.
var voidTags = map[string]bool{
	"img": true,
	"hr":  true,
	"br":  true,
}

// Markup renders the document into a self-contained markup string and an
// accompanying stylesheet. Both are produced by one depth-first walk, so
// rules declared later in document order land later in the stylesheet and
// win on selector collision.
func Markup(doc Document) (markup string, stylesheet string) {
	var html strings.Builder
	var css strings.Builder
	writeNode(&html, &css, doc.Root, 0)
	return html.String(), css.String()
}

func writeNode(html, css *strings.Builder, node Node, depth int) {
	tag := tagNames[node.Type]
	if tag == "" {
		tag = "div"
	}

	indent := strings.Repeat("  ", depth)
	html.WriteString(indent)
	html.WriteByte('<')
	html.WriteString(tag)
	for _, key := range sortedKeys(node.Attributes) {
		html.WriteByte(' ')
		html.WriteString(key)
		html.WriteString(`="`)
		html.WriteString(template.HTMLEscapeString(node.Attributes[key]))
		html.WriteByte('"')
	}

	if len(node.Style) > 0 {
		writeRule(css, selectorFor(node, tag), node.Style)
	}

	if voidTags[tag] {
		html.WriteString("/>\n")
		return
	}
	html.WriteString(">")

	if node.Text != "" {
		html.WriteString(template.HTMLEscapeString(node.Text))
	}
	if len(node.Children) > 0 {
		html.WriteByte('\n')
		for _, child := range node.Children {
			writeNode(html, css, child, depth+1)
		}
		html.WriteString(indent)
	}
	html.WriteString("</")
	html.WriteString(tag)
	html.WriteString(">\n")
}

// selectorFor picks the most specific handle the node offers: its id, then
// its first class token, then the bare tag.
func selectorFor(node Node, tag string) string {
	if id := node.Attributes["id"]; id != "" {
		return "#" + id
	}
	if class := node.Attributes["class"]; class != "" {
		if first, _, _ := strings.Cut(class, " "); first != "" {
			return "." + first
		}
	}
	return tag
}

func writeRule(css *strings.Builder, selector string, style map[string]string) {
	css.WriteString(selector)
	css.WriteString(" {\n")
	for _, prop := range sortedKeys(style) {
		css.WriteString("  ")
		css.WriteString(prop)
		css.WriteString(": ")
		css.WriteString(style[prop])
		css.WriteString(";\n")
	}
	css.WriteString("}\n")
}

// VariableStylesheet renders a flat style-variable map as a :root custom
// property block. Manually authored themes carry only this map and no
// component document.
func VariableStylesheet(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	var css strings.Builder
	css.WriteString(":root {\n")
	for _, key := range sortedKeys(vars) {
		css.WriteString("  --")
		css.WriteString(strings.ReplaceAll(key, "_", "-"))
		css.WriteString(": ")
		css.WriteString(vars[key])
		css.WriteString(";\n")
	}
	css.WriteString("}\n")
	return css.String()
}
