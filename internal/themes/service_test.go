package themes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opinian/opinian/internal/themes/export"
)

func validDocument() []byte {
	return []byte(`{"type": "wrapper", "children": [{"type": "text", "text": "hi"}]}`)
}

func TestServiceCreateManualTheme(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, nil, nil)

	group := int64(1)
	theme, err := svc.Create(context.Background(), CreateInput{
		GroupID:   &group,
		Name:      "Parchment",
		Kind:      KindManual,
		StyleVars: map[string]string{"primary_color": "#1a1a1a"},
		CreatedBy: 10,
	})
	require.NoError(t, err)
	assert.False(t, theme.Active, "new themes start inactive")
	assert.Equal(t, KindManual, theme.Kind)
}

func TestServiceCreateValidatesInput(t *testing.T) {
	svc := NewService(newMemoryStore(), nil, nil)

	_, err := svc.Create(context.Background(), CreateInput{Name: "x", Kind: KindManual})
	require.Error(t, err, "single-character name fails validation")

	_, err = svc.Create(context.Background(), CreateInput{Name: "Fine Name", Kind: "holographic"})
	require.Error(t, err)
}

func TestServiceCreateVisualThemeNeedsDocument(t *testing.T) {
	svc := NewService(newMemoryStore(), nil, nil)
	group := int64(1)

	_, err := svc.Create(context.Background(), CreateInput{
		GroupID: &group, Name: "Builder Output", Kind: KindVisual, CreatedBy: 10,
	})
	require.ErrorIs(t, err, export.ErrInvalidDocument)

	_, err = svc.Create(context.Background(), CreateInput{
		GroupID: &group, Name: "Builder Output", Kind: KindVisual,
		Document: []byte(`{"type":`), CreatedBy: 10,
	})
	require.ErrorIs(t, err, export.ErrInvalidDocument)

	theme, err := svc.Create(context.Background(), CreateInput{
		GroupID: &group, Name: "Builder Output", Kind: KindVisual,
		Document: validDocument(), CreatedBy: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, KindVisual, theme.Kind)
}

func TestServiceCreateManualSkipsDocumentCheck(t *testing.T) {
	svc := NewService(newMemoryStore(), nil, nil)
	group := int64(1)

	_, err := svc.Create(context.Background(), CreateInput{
		GroupID: &group, Name: "No Document", Kind: KindManual, CreatedBy: 10,
	})
	require.NoError(t, err)
}

func TestServiceDeleteActiveThemeConflicts(t *testing.T) {
	store := newMemoryStore()
	theme := store.seed(1, "Live")
	store.themes[theme.ID].Active = true
	svc := NewService(store, nil, nil)

	err := svc.Delete(context.Background(), 10, theme.ID)
	require.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, store.themes, theme.ID)
}

func TestServiceDeleteInactiveTheme(t *testing.T) {
	store := newMemoryStore()
	theme := store.seed(1, "Retired")
	recorder := &trailRecorder{}
	svc := NewService(store, recorder, nil)

	require.NoError(t, svc.Delete(context.Background(), 10, theme.ID))
	assert.NotContains(t, store.themes, theme.ID)
	require.Len(t, recorder.records, 1)
	assert.Equal(t, "delete_theme", recorder.records[0].Action)
}

func TestServiceDeleteUnknownTheme(t *testing.T) {
	svc := NewService(newMemoryStore(), nil, nil)
	err := svc.Delete(context.Background(), 10, 404)
	require.ErrorIs(t, err, ErrNotFound)
}
