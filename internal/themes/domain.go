package themes

import (
	"errors"
	"time"
)

var (
	// ErrNotFound indicates that the requested theme does not exist.
	ErrNotFound = errors.New("themes: not found")
	// ErrConflict indicates a mutation that would break the single-active
	// invariant, e.g. deleting a theme that is live for its group.
	ErrConflict = errors.New("themes: conflict")
	// ErrTenantMismatch indicates a theme being used across tenant
	// boundaries.
	ErrTenantMismatch = errors.New("themes: tenant mismatch")
)

// Kind distinguishes how a theme was authored.
type Kind string

// Theme kinds.
const (
	// KindManual themes carry only a flat style-variable map.
	KindManual Kind = "manual"
	// KindGenerated themes were produced from a text description; the
	// document arrives fully formed from the generation service.
	KindGenerated Kind = "generated"
	// KindVisual themes come out of the drag-and-drop editor.
	KindVisual Kind = "visual"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindManual, KindGenerated, KindVisual:
		return true
	}
	return false
}

// Theme is one look for a tenant's public pages. At most one theme per
// group is active at any observable instant.
type Theme struct {
	ID          int64
	GroupID     *int64
	Name        string
	Description string
	Kind        Kind
	// StyleVars is the flat variable map of manual themes.
	StyleVars map[string]string
	// Document is the opaque component-tree payload of visual and
	// generated themes. Its internal shape belongs to the authoring tool.
	Document []byte
	// Prompt is the description a generated theme was built from.
	Prompt    string
	Active    bool
	CreatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AssetRef ties an uploaded file into a component document. Assets belong
// to the same group as the theme referencing them.
type AssetRef struct {
	ID      string
	ThemeID int64
	GroupID int64
}
