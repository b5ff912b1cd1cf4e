package themehttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opinian/opinian/internal/authz"
	"github.com/opinian/opinian/internal/identity"
	"github.com/opinian/opinian/internal/themes"
)

type fakeStore struct {
	themes     map[int64]*themes.Theme
	activeRefs map[int64]*int64
	nextID     int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		themes:     map[int64]*themes.Theme{},
		activeRefs: map[int64]*int64{},
		nextID:     1,
	}
}

func (s *fakeStore) seed(groupID int64, name string, kind themes.Kind, document []byte) *themes.Theme {
	id := s.nextID
	s.nextID++
	theme := &themes.Theme{ID: id, GroupID: &groupID, Name: name, Kind: kind, Document: document}
	s.themes[id] = theme
	if _, ok := s.activeRefs[groupID]; !ok {
		s.activeRefs[groupID] = nil
	}
	return theme
}

func (s *fakeStore) Create(_ context.Context, params themes.CreateParams) (*themes.Theme, error) {
	id := s.nextID
	s.nextID++
	theme := &themes.Theme{
		ID:          id,
		GroupID:     params.GroupID,
		Name:        params.Name,
		Description: params.Description,
		Kind:        params.Kind,
		StyleVars:   params.StyleVars,
		Document:    params.Document,
		Prompt:      params.Prompt,
		CreatedBy:   params.CreatedBy,
	}
	s.themes[id] = theme
	return theme, nil
}

func (s *fakeStore) Get(_ context.Context, id int64) (*themes.Theme, error) {
	theme, ok := s.themes[id]
	if !ok {
		return nil, themes.ErrNotFound
	}
	return theme, nil
}

func (s *fakeStore) ListForGroup(_ context.Context, groupID int64) ([]themes.Theme, error) {
	var out []themes.Theme
	for _, theme := range s.themes {
		if theme.GroupID != nil && *theme.GroupID == groupID {
			out = append(out, *theme)
		}
	}
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, id int64) error {
	theme, ok := s.themes[id]
	if !ok {
		return themes.ErrNotFound
	}
	if theme.Active {
		return themes.ErrConflict
	}
	delete(s.themes, id)
	return nil
}

func (s *fakeStore) ActiveReference(_ context.Context, groupID int64) (*int64, error) {
	ref, ok := s.activeRefs[groupID]
	if !ok {
		return nil, themes.ErrNotFound
	}
	return ref, nil
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx themes.TxStore) error) error {
	return fn(ctx, s)
}

func (s *fakeStore) LockGroup(_ context.Context, groupID int64) (*int64, error) {
	ref, ok := s.activeRefs[groupID]
	if !ok {
		return nil, themes.ErrNotFound
	}
	return ref, nil
}

func (s *fakeStore) GetTheme(ctx context.Context, id int64) (*themes.Theme, error) {
	return s.Get(ctx, id)
}

func (s *fakeStore) DeactivateActive(_ context.Context, groupID int64) error {
	for _, theme := range s.themes {
		if theme.GroupID != nil && *theme.GroupID == groupID {
			theme.Active = false
		}
	}
	return nil
}

func (s *fakeStore) Activate(_ context.Context, themeID int64) error {
	theme, ok := s.themes[themeID]
	if !ok {
		return themes.ErrNotFound
	}
	theme.Active = true
	return nil
}

func (s *fakeStore) SetGroupActiveTheme(_ context.Context, groupID int64, themeID int64) error {
	ref := themeID
	s.activeRefs[groupID] = &ref
	return nil
}

func setupHandler(t *testing.T) (*fakeStore, http.Handler) {
	t.Helper()
	store := newFakeStore()
	logger := slog.Default()
	service := themes.NewService(store, nil, logger)
	resolver := themes.NewResolver(store, nil, logger)
	engine := authz.NewEngine(nil, logger)
	handler := NewHandler(logger, service, resolver, engine)

	router := chi.NewRouter()
	handler.MountRoutes(router)
	return store, router
}

func asActor(r *http.Request, role identity.Role, groupID *int64) *http.Request {
	actor := &identity.User{ID: 10, Username: "actor", Role: role, GroupID: groupID, IsActive: true}
	return r.WithContext(identity.ContextWithActor(r.Context(), actor))
}

func groupRef(id int64) *int64 { return &id }

func TestCreateTheme(t *testing.T) {
	store, router := setupHandler(t)
	store.seed(1, "existing", themes.KindManual, nil)

	body := `{"name": "Midnight", "kind": "manual", "style_vars": {"primary_color": "#111"}}`
	req := httptest.NewRequest(http.MethodPost, "/groups/1/themes", strings.NewReader(body))
	req = asActor(req, identity.RoleAdmin, groupRef(1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created themes.Theme
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Midnight", created.Name)
	assert.False(t, created.Active)
}

func TestCreateThemeRequiresAdminRank(t *testing.T) {
	_, router := setupHandler(t)

	body := `{"name": "Midnight", "kind": "manual"}`
	req := httptest.NewRequest(http.MethodPost, "/groups/1/themes", strings.NewReader(body))
	req = asActor(req, identity.RoleSuperUser, groupRef(1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient_rank")
}

func TestCreateThemeCrossTenantDenied(t *testing.T) {
	_, router := setupHandler(t)

	body := `{"name": "Midnight", "kind": "manual"}`
	req := httptest.NewRequest(http.MethodPost, "/groups/2/themes", strings.NewReader(body))
	req = asActor(req, identity.RoleAdmin, groupRef(1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenant_mismatch")
}

func TestCreateThemeInvalidDocument(t *testing.T) {
	_, router := setupHandler(t)

	body := `{"name": "Broken Builder", "kind": "visual", "document": "not an object"}`
	req := httptest.NewRequest(http.MethodPost, "/groups/1/themes", strings.NewReader(body))
	req = asActor(req, identity.RoleAdmin, groupRef(1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplyTheme(t *testing.T) {
	store, router := setupHandler(t)
	theme := store.seed(1, "Midnight", themes.KindManual, nil)

	req := httptest.NewRequest(http.MethodPost, "/groups/1/themes/1/apply", nil)
	req = asActor(req, identity.RoleAdmin, groupRef(1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, store.themes[theme.ID].Active)
}

func TestApplyForeignThemeDenied(t *testing.T) {
	store, router := setupHandler(t)
	foreign := store.seed(2, "Not Yours", themes.KindManual, nil)
	store.seed(1, "Mine", themes.KindManual, nil)

	// Authorization passes (own group in the URL) but the theme belongs to
	// another tenant, which the resolver catches inside the transaction.
	req := httptest.NewRequest(http.MethodPost, "/groups/1/themes/1/apply", nil)
	req = asActor(req, identity.RoleAdmin, groupRef(1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, store.themes[foreign.ID].Active)
}

func TestDeleteActiveThemeConflicts(t *testing.T) {
	store, router := setupHandler(t)
	theme := store.seed(1, "Live", themes.KindManual, nil)
	theme.Active = true

	req := httptest.NewRequest(http.MethodDelete, "/themes/1", nil)
	req = asActor(req, identity.RoleAdmin, groupRef(1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteTheme(t *testing.T) {
	store, router := setupHandler(t)
	store.seed(1, "Retired", themes.KindManual, nil)

	req := httptest.NewRequest(http.MethodDelete, "/themes/1", nil)
	req = asActor(req, identity.RoleAdmin, groupRef(1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.themes)
}

func TestGetThemeUnknown(t *testing.T) {
	_, router := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/themes/404", nil)
	req = asActor(req, identity.RoleUser, groupRef(1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestComponentDownload(t *testing.T) {
	store, router := setupHandler(t)
	document := []byte(`{"type": "wrapper", "attributes": {"class": "page"}, "children": [{"type": "text", "text": "hi"}]}`)
	store.seed(1, "Builder Output", themes.KindVisual, document)

	req := httptest.NewRequest(http.MethodGet, "/themes/1/component", nil)
	req = asActor(req, identity.RoleUser, groupRef(1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="ThemePage.jsx"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "export default function ThemePage()")
	assert.Contains(t, rec.Body.String(), `className="page"`)
}

func TestComponentDownloadManualThemeConflicts(t *testing.T) {
	store, router := setupHandler(t)
	store.seed(1, "Hand Rolled", themes.KindManual, nil)

	req := httptest.NewRequest(http.MethodGet, "/themes/1/component", nil)
	req = asActor(req, identity.RoleUser, groupRef(1))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "no component source")
}

func TestRoutesRejectAnonymous(t *testing.T) {
	_, router := setupHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/groups/1/themes", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
