// Package site composes theme resolution and document export into the
// public page-serving path.
package site

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/opinian/opinian/internal/themes"
	"github.com/opinian/opinian/internal/themes/export"
)

// ActiveResolver answers which theme a group currently renders.
type ActiveResolver interface {
	ResolveActive(ctx context.Context, groupID int64) (*themes.Theme, error)
}

// Page is a fully rendered tenant look, ready to serve.
type Page struct {
	Markup     string `json:"markup"`
	Stylesheet string `json:"stylesheet"`
}

// Renderer resolves a group's active theme and exports it to markup.
// Exports are pure, so output is cached keyed by the theme content hash;
// concurrent misses for the same key collapse into one export.
type Renderer struct {
	resolver ActiveResolver
	cache    *redis.Client
	ttl      time.Duration
	group    singleflight.Group
	logger   *slog.Logger
}

// NewRenderer constructs a Renderer. The cache client may be nil, in which
// case every call re-exports.
func NewRenderer(resolver ActiveResolver, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Renderer{resolver: resolver, cache: cache, ttl: ttl, logger: logger}
}

// RenderPage produces the markup and stylesheet for the group's public
// pages.
func (r *Renderer) RenderPage(ctx context.Context, groupID int64) (Page, error) {
	theme, err := r.resolver.ResolveActive(ctx, groupID)
	if err != nil {
		return Page{}, err
	}
	key := cacheKey(theme)
	if page, ok := r.lookup(ctx, key); ok {
		return page, nil
	}
	result, err, _ := r.group.Do(key, func() (any, error) {
		page, err := RenderTheme(theme)
		if err != nil {
			return Page{}, err
		}
		r.store(ctx, key, page)
		return page, nil
	})
	if err != nil {
		return Page{}, err
	}
	return result.(Page), nil
}

// RenderTheme exports a theme without touching the cache.
func RenderTheme(theme *themes.Theme) (Page, error) {
	if theme.Kind == themes.KindManual || len(theme.Document) == 0 {
		markup, stylesheet := export.Markup(scaffold())
		return Page{
			Markup:     markup,
			Stylesheet: export.VariableStylesheet(theme.StyleVars) + stylesheet,
		}, nil
	}
	doc, err := export.Decode(theme.Document)
	if err != nil {
		return Page{}, err
	}
	markup, stylesheet := export.Markup(doc)
	return Page{Markup: markup, Stylesheet: stylesheet}, nil
}

// cacheKey hashes the theme content, not its identity: two themes with
// identical documents share one cache entry, and any edit changes the key.
func cacheKey(theme *themes.Theme) string {
	h := sha256.New()
	h.Write([]byte(theme.Kind))
	h.Write([]byte{0})
	h.Write(theme.Document)
	for _, k := range sortedVarKeys(theme.StyleVars) {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(theme.StyleVars[k]))
		h.Write([]byte{0})
	}
	return "site:render:" + hex.EncodeToString(h.Sum(nil))
}

func (r *Renderer) lookup(ctx context.Context, key string) (Page, bool) {
	if r.cache == nil {
		return Page{}, false
	}
	raw, err := r.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("render cache read", slog.Any("error", err))
		}
		return Page{}, false
	}
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		r.logger.Warn("render cache decode", slog.Any("error", err))
		return Page{}, false
	}
	return page, true
}

func (r *Renderer) store(ctx context.Context, key string, page Page) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		r.logger.Warn("render cache write", slog.Any("error", err))
	}
}

func sortedVarKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// scaffold is the markup shell rendered for manual themes, which carry
// style variables but no component document.
func scaffold() export.Document {
	return export.Document{
		Root: export.Node{
			Type:       "wrapper",
			Attributes: map[string]string{"class": "site"},
			Style: map[string]string{
				"background-color": "var(--background-color)",
				"color":            "var(--text-color)",
				"font-family":      "var(--body-font)",
			},
			Children: []export.Node{
				{
					Type:       "section",
					Attributes: map[string]string{"class": "site-header"},
					Style:      map[string]string{"background-color": "var(--primary-color)"},
				},
				{
					Type:       "section",
					Attributes: map[string]string{"class": "site-content"},
				},
				{
					Type:       "section",
					Attributes: map[string]string{"class": "site-footer"},
					Style:      map[string]string{"background-color": "var(--primary-color)"},
				},
			},
		},
	}
}
