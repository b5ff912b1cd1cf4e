package export

import (
	"strings"
	"testing"
)

func sampleDocument() Document {
	return Document{
		Root: Node{
			Type:       "wrapper",
			Attributes: map[string]string{"class": "page dark", "id": "root"},
			Style:      map[string]string{"background-color": "#2c2c2c", "color": "#f5f5dc"},
			Children: []Node{
				{
					Type:       "heading",
					Attributes: map[string]string{"class": "title"},
					Style:      map[string]string{"font-family": "Playfair Display"},
					Text:       "Midnight Review",
				},
				{
					Type:       "text",
					Attributes: map[string]string{"class": "lede"},
					Text:       "A blog about jazz & noir.",
				},
				{
					Type:       "image",
					Attributes: map[string]string{"src": "/assets/hero.png", "alt": "hero"},
				},
			},
		},
	}
}

func TestDecodeLiftsTree(t *testing.T) {
	raw := []byte(`{
		"type": "wrapper",
		"attributes": {"class": "page"},
		"style": {"background-color": "#fff"},
		"children": [
			{"type": "text", "text": "hello", "children": []}
		]
	}`)
	doc, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Root.Type != "wrapper" {
		t.Fatalf("expected wrapper root, got %q", doc.Root.Type)
	}
	if len(doc.Root.Children) != 1 || doc.Root.Children[0].Text != "hello" {
		t.Fatalf("children not lifted: %+v", doc.Root.Children)
	}
}

func TestDecodeRejectsMalformedPayloads(t *testing.T) {
	cases := map[string][]byte{
		"empty":           nil,
		"not json":        []byte(`{"type": `),
		"children scalar": []byte(`{"type": "wrapper", "children": 42}`),
	}
	for name, raw := range cases {
		if _, err := Decode(raw); err == nil {
			t.Fatalf("%s: expected ErrInvalidDocument", name)
		}
	}
}

func TestMarkupStructure(t *testing.T) {
	markup, stylesheet := Markup(sampleDocument())
	for _, want := range []string{
		`<div class="page dark" id="root">`,
		`<h2 class="title">Midnight Review</h2>`,
		`<p class="lede">A blog about jazz &amp; noir.</p>`,
		`<img alt="hero" src="/assets/hero.png"/>`,
		`</div>`,
	} {
		if !strings.Contains(markup, want) {
			t.Fatalf("markup missing %q:\n%s", want, markup)
		}
	}
	if !strings.Contains(stylesheet, "#root {") {
		t.Fatalf("expected id selector in stylesheet:\n%s", stylesheet)
	}
	if !strings.Contains(stylesheet, "font-family: Playfair Display;") {
		t.Fatalf("expected heading rule in stylesheet:\n%s", stylesheet)
	}
}

func TestMarkupDeterministic(t *testing.T) {
	doc := sampleDocument()
	m1, s1 := Markup(doc)
	m2, s2 := Markup(doc)
	if m1 != m2 || s1 != s2 {
		t.Fatalf("markup export is not deterministic")
	}
	c1 := ComponentSource(doc)
	c2 := ComponentSource(doc)
	if c1 != c2 {
		t.Fatalf("component export is not deterministic")
	}
}

func TestMarkupTotalOverDegenerateInputs(t *testing.T) {
	cases := map[string]Document{
		"empty root":     {Root: Node{Type: "wrapper"}},
		"unknown type":   {Root: Node{Type: "holo-carousel"}},
		"empty style":    {Root: Node{Type: "section", Style: map[string]string{}}},
		"empty children": {Root: Node{Type: "section", Children: []Node{}}},
	}
	for name, doc := range cases {
		markup, _ := Markup(doc)
		if markup == "" {
			t.Fatalf("%s: expected non-empty markup", name)
		}
		if src := ComponentSource(doc); src == "" {
			t.Fatalf("%s: expected non-empty component source", name)
		}
	}
}

func TestMarkupUnknownTypeRendersContainer(t *testing.T) {
	doc := Document{Root: Node{Type: "holo-carousel", Attributes: map[string]string{"id": "h"}}}
	markup, _ := Markup(doc)
	if !strings.Contains(markup, `<div id="h">`) {
		t.Fatalf("unknown type should fall back to div:\n%s", markup)
	}
}

func TestStylesheetCascadeOrder(t *testing.T) {
	doc := Document{
		Root: Node{
			Type: "wrapper",
			Children: []Node{
				{Type: "section", Attributes: map[string]string{"class": "hero"}, Style: map[string]string{"color": "red"}},
				{Type: "section", Attributes: map[string]string{"class": "hero"}, Style: map[string]string{"color": "blue"}},
			},
		},
	}
	_, stylesheet := Markup(doc)
	first := strings.Index(stylesheet, "color: red;")
	second := strings.Index(stylesheet, "color: blue;")
	if first == -1 || second == -1 {
		t.Fatalf("expected both rules in stylesheet:\n%s", stylesheet)
	}
	if first > second {
		t.Fatalf("later sibling rule must come after earlier one:\n%s", stylesheet)
	}
}

func TestComponentSourceRenamesReservedAttributes(t *testing.T) {
	src := ComponentSource(sampleDocument())
	if !strings.Contains(src, `className="page dark"`) {
		t.Fatalf("expected className rename:\n%s", src)
	}
	if strings.Contains(src, ` class="`) {
		t.Fatalf("raw class attribute leaked into component source:\n%s", src)
	}
}

func TestComponentSourceStyleObjects(t *testing.T) {
	src := ComponentSource(sampleDocument())
	if !strings.Contains(src, "style={{backgroundColor: '#2c2c2c', color: '#f5f5dc'}}") {
		t.Fatalf("expected camel-cased style object:\n%s", src)
	}
	if !strings.Contains(src, "export default function ThemePage()") {
		t.Fatalf("expected component wrapper:\n%s", src)
	}
}

func TestComponentSourceVoidElements(t *testing.T) {
	src := ComponentSource(sampleDocument())
	if !strings.Contains(src, `<img alt="hero" src="/assets/hero.png" />`) {
		t.Fatalf("expected self-closing image:\n%s", src)
	}
}

func TestCamelCase(t *testing.T) {
	cases := map[string]string{
		"color":              "color",
		"background-color":   "backgroundColor",
		"border-top-width":   "borderTopWidth",
		"-webkit-transition": "WebkitTransition",
		"-ms-transform":      "msTransform",
	}
	for in, want := range cases {
		if got := camelCase(in); got != want {
			t.Fatalf("camelCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVariableStylesheet(t *testing.T) {
	css := VariableStylesheet(map[string]string{
		"primary_color": "#1a1a1a",
		"body_font":     "Source Sans Pro",
	})
	if !strings.HasPrefix(css, ":root {\n") {
		t.Fatalf("expected :root block:\n%s", css)
	}
	if !strings.Contains(css, "--primary-color: #1a1a1a;") {
		t.Fatalf("expected hyphenated variable:\n%s", css)
	}
	if VariableStylesheet(nil) != "" {
		t.Fatalf("empty variable map should produce no stylesheet")
	}
}
