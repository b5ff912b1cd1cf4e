// Package export transforms a visual-editor component document into flat
// markup plus a stylesheet, or into component-based UI source. Both
// transforms are pure: no clocks, no random identifiers, no I/O, so the
// same document always yields byte-identical output.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidDocument indicates a component tree that cannot be traversed.
var ErrInvalidDocument = errors.New("export: invalid document")

// Node is one typed element of the component tree. The authoring tool owns
// the set of Type values and may grow it over time; unknown types are
// rendered as a generic container rather than rejected.
type Node struct {
	Type       string
	Attributes map[string]string
	Style      map[string]string
	Text       string
	Children   []Node
}

// Document is a lifted, validated component tree.
type Document struct {
	Root Node
}

type wireNode struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Style      map[string]string `json:"style"`
	Text       string            `json:"text"`
	Children   []wireNode        `json:"children"`
}

// Decode lifts the authoring tool's raw JSON payload into a typed Document.
// The payload is stored as an opaque blob; this is the one boundary where
// its shape is checked.
func Decode(raw []byte) (Document, error) {
	if len(raw) == 0 {
		return Document{}, fmt.Errorf("%w: empty payload", ErrInvalidDocument)
	}
	var wire wireNode
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return Document{Root: lift(wire)}, nil
}

func lift(w wireNode) Node {
	node := Node{
		Type:       w.Type,
		Attributes: w.Attributes,
		Style:      w.Style,
		Text:       w.Text,
	}
	if len(w.Children) > 0 {
		node.Children = make([]Node, len(w.Children))
		for i, child := range w.Children {
			node.Children[i] = lift(child)
		}
	}
	return node
}

// sortedKeys returns map keys in a stable order. Map iteration order is
// random in Go; every emitter must go through this to stay deterministic.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
