package export

import (
	"strings"
)

// Attributes whose markup names are reserved words in the component
// ecosystem and must be renamed on export.
var jsxAttributeNames = map[string]string{
	"class": "className",
	"for":   "htmlFor",
}

// ComponentSource renders the document as component-based UI source. It is
// the same depth-first walk as Markup with two differences: reserved
// attribute names are renamed, and each node's inline style ruleset becomes
// an object literal with camel-cased property keys.
func ComponentSource(doc Document) string {
	var b strings.Builder
	b.WriteString("export default function ThemePage() {\n")
	b.WriteString("  return (\n")
	writeComponentNode(&b, doc.Root, 2)
	b.WriteString("  );\n")
	b.WriteString("}\n")
	return b.String()
}

func writeComponentNode(b *strings.Builder, node Node, depth int) {
	tag := tagNames[node.Type]
	if tag == "" {
		tag = "div"
	}

	indent := strings.Repeat("  ", depth)
	b.WriteString(indent)
	b.WriteByte('<')
	b.WriteString(tag)
	for _, key := range sortedKeys(node.Attributes) {
		name := key
		if renamed, ok := jsxAttributeNames[key]; ok {
			name = renamed
		}
		b.WriteByte(' ')
		b.WriteString(name)
		b.WriteString(`="`)
		b.WriteString(escapeJSXString(node.Attributes[key]))
		b.WriteByte('"')
	}
	if len(node.Style) > 0 {
		b.WriteString(" style={{")
		for i, prop := range sortedKeys(node.Style) {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(camelCase(prop))
			b.WriteString(": '")
			b.WriteString(escapeJSXString(node.Style[prop]))
			b.WriteByte('\'')
		}
		b.WriteString("}}")
	}

	if voidTags[tag] {
		b.WriteString(" />\n")
		return
	}

	if node.Text == "" && len(node.Children) == 0 {
		b.WriteString(" />\n")
		return
	}

	b.WriteString(">")
	if node.Text != "" {
		b.WriteString(escapeJSXText(node.Text))
	}
	if len(node.Children) > 0 {
		b.WriteByte('\n')
		for _, child := range node.Children {
			writeComponentNode(b, child, depth+1)
		}
		b.WriteString(indent)
	}
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteString(">\n")
}

// camelCase converts a hyphenated CSS property into the ecosystem's object
// key form: background-color becomes backgroundColor. Vendor prefixes keep
// their leading segment lowercased (-webkit-x becomes WebkitX per the
// ecosystem convention, except ms which stays lowercase).
func camelCase(prop string) string {
	parts := strings.Split(prop, "-")
	var b strings.Builder
	wrote := false
	for i, part := range parts {
		if part == "" {
			continue
		}
		if !wrote && i > 0 && part == "ms" {
			// -ms- prefix stays lowercase.
			b.WriteString(part)
			wrote = true
			continue
		}
		if !wrote && i == 0 {
			b.WriteString(part)
			wrote = true
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
		wrote = true
	}
	return b.String()
}

func escapeJSXString(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `"`, `&quot;`)
	return replacer.Replace(s)
}

func escapeJSXText(s string) string {
	replacer := strings.NewReplacer("{", "&#123;", "}", "&#125;", "<", "&lt;", ">", "&gt;")
	return replacer.Replace(s)
}
